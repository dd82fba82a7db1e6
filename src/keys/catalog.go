package keys

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/op/go-logging"

	"backup-console/src/fingerprint"
)

var log = logging.MustGetLogger("keys")

// LoadObserver is told about every finished load.
type LoadObserver interface {
	CatalogLoaded(keys int, err error)
}

// Catalog holds the keys returned by the last successful load.
//
// Loads are serialized: a Load issued while another is in flight waits for it
// and then performs its own request. Readers see either the old or the new
// snapshot, never a mix.
type Catalog struct {
	lister   Lister
	observer LoadObserver

	loadMu   sync.Mutex
	snapshot atomic.Pointer[[]KeyRecord]

	subMu sync.Mutex
	subs  []func([]KeyRecord)
}

// NewCatalog returns an empty catalog backed by lister. observer may be nil.
func NewCatalog(lister Lister, observer LoadObserver) *Catalog {
	c := &Catalog{lister: lister, observer: observer}
	empty := []KeyRecord{}
	c.snapshot.Store(&empty)
	return c
}

// Load fetches the key list and replaces the catalog contents. On error the
// previous contents are kept and the error wraps ErrCatalogLoadFailed.
func (c *Catalog) Load(ctx context.Context) ([]KeyRecord, error) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	recs, err := c.fetch(ctx)
	if c.observer != nil {
		c.observer.CatalogLoaded(len(recs), err)
	}
	if err != nil {
		log.Warningf("key catalog load failed: %v", err)
		return nil, err
	}
	c.snapshot.Store(&recs)
	log.Infof("key catalog loaded: %d keys", len(recs))

	c.subMu.Lock()
	subs := slices.Clone(c.subs)
	c.subMu.Unlock()
	for _, fn := range subs {
		fn(clone(recs))
	}
	return clone(recs), nil
}

func (c *Catalog) fetch(ctx context.Context) ([]KeyRecord, error) {
	if c.lister == nil {
		return nil, fmt.Errorf("%w: no key listing endpoint configured", ErrCatalogLoadFailed)
	}
	raw, err := c.lister.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogLoadFailed, err)
	}
	recs := make([]KeyRecord, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, r := range raw {
		fp, err := fingerprint.Normalize(r.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCatalogLoadFailed, i, err)
		}
		if _, dup := seen[fp]; dup {
			return nil, fmt.Errorf("%w: duplicate fingerprint %s", ErrCatalogLoadFailed, fp)
		}
		seen[fp] = struct{}{}
		r.Fingerprint = fp
		recs = append(recs, r)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Hint != recs[j].Hint {
			return recs[i].Hint < recs[j].Hint
		}
		return recs[i].Fingerprint < recs[j].Fingerprint
	})
	return recs, nil
}

// List returns the records of the last successful load sorted by hint.
func (c *Catalog) List() []KeyRecord {
	return clone(*c.snapshot.Load())
}

// Len returns the number of records currently held.
func (c *Catalog) Len() int {
	return len(*c.snapshot.Load())
}

// Lookup finds a record by fingerprint in either accepted form.
func (c *Catalog) Lookup(fp string) (KeyRecord, bool) {
	norm, err := fingerprint.Normalize(fp)
	if err != nil {
		return KeyRecord{}, false
	}
	for _, r := range *c.snapshot.Load() {
		if r.Fingerprint == norm {
			return r, true
		}
	}
	return KeyRecord{}, false
}

// OnReload registers fn to run after every successful load, in load order.
func (c *Catalog) OnReload(fn func([]KeyRecord)) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subs = append(c.subs, fn)
}

func clone(in []KeyRecord) []KeyRecord {
	out := make([]KeyRecord, len(in))
	copy(out, in)
	return out
}
