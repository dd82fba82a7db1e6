package keys

import (
	"fmt"
	"sync"

	"backup-console/src/fingerprint"
)

// Option is one selectable entry: the fingerprint is the value, the hint is
// what gets shown.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Selector is a single-choice selection over a catalog's keys.
type Selector struct {
	catalog  *Catalog
	required bool

	mu       sync.Mutex
	selected *KeyRecord
}

// NewSelector binds a selector to c. A required selector reports
// ErrSelectionRequired from Validate while nothing is selected.
func NewSelector(c *Catalog, required bool) *Selector {
	s := &Selector{catalog: c, required: required}
	c.OnReload(s.reconcile)
	return s
}

// Options lists the catalog entries in display order.
func (s *Selector) Options() []Option {
	recs := s.catalog.List()
	out := make([]Option, 0, len(recs))
	for _, r := range recs {
		out = append(out, Option{Value: r.Fingerprint, Label: r.Hint})
	}
	return out
}

// Select chooses the key with the given fingerprint.
func (s *Selector) Select(fp string) (KeyRecord, error) {
	rec, ok := s.catalog.Lookup(fp)
	if !ok {
		return KeyRecord{}, fmt.Errorf("%w: %s", ErrUnknownKey, fp)
	}
	s.set(&rec)
	return rec, nil
}

// SelectByHint chooses the only key carrying hint.
func (s *Selector) SelectByHint(hint string) (KeyRecord, error) {
	var match []KeyRecord
	for _, r := range s.catalog.List() {
		if r.Hint == hint {
			match = append(match, r)
		}
	}
	switch len(match) {
	case 0:
		return KeyRecord{}, fmt.Errorf("%w: no key with hint %q", ErrUnknownKey, hint)
	case 1:
		s.set(&match[0])
		return match[0], nil
	default:
		return KeyRecord{}, fmt.Errorf("%w: %d keys share hint %q", ErrAmbiguousHint, len(match), hint)
	}
}

// Resolve selects by fingerprint when ref looks like one, by hint otherwise.
func (s *Selector) Resolve(ref string) (KeyRecord, error) {
	if _, err := fingerprint.Normalize(ref); err == nil {
		return s.Select(ref)
	}
	return s.SelectByHint(ref)
}

// Selected returns the current selection.
func (s *Selector) Selected() (KeyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return KeyRecord{}, false
	}
	return *s.selected, true
}

// Clear drops the selection.
func (s *Selector) Clear() { s.set(nil) }

// Validate enforces the required flag.
func (s *Selector) Validate() error {
	if _, ok := s.Selected(); !ok && s.required {
		return ErrSelectionRequired
	}
	return nil
}

func (s *Selector) set(r *KeyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = r
}

// reconcile keeps the selection only if its fingerprint survived the reload.
func (s *Selector) reconcile(recs []KeyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return
	}
	for i := range recs {
		if recs[i].Fingerprint == s.selected.Fingerprint {
			r := recs[i]
			s.selected = &r
			return
		}
	}
	log.Infof("selected key %s no longer listed, clearing selection", s.selected.Fingerprint)
	s.selected = nil
}
