package pbsapi

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"backup-console/src/dispatch"
	"backup-console/src/jobs"
	"backup-console/src/keys"
)

// FakeClient is an in-memory server for tests. It counts requests per
// endpoint so callers can assert how often the remote side was contacted.
type FakeClient struct {
	mu sync.Mutex

	Version string

	Keys  []keys.KeyRecord
	Jobs  []jobs.JobRecord
	Media map[string]bool // uuid -> in use

	// ListErr fails the key and job listings.
	ListErr error
	// FailTargets maps a target to the reason its backup is refused.
	FailTargets map[string]string

	Started    []dispatch.Request
	Destroyed  []string
	StartCalls int
	ListCalls  int
}

// NewFake returns an empty fake server.
func NewFake() *FakeClient {
	return &FakeClient{Media: map[string]bool{}, FailTargets: map[string]string{}}
}

func (f *FakeClient) ServerVersion(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Version, nil
}

func (f *FakeClient) ListKeys(ctx context.Context) ([]keys.KeyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]keys.KeyRecord(nil), f.Keys...), nil
}

func (f *FakeClient) ListJobs(ctx context.Context) ([]jobs.JobRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := append([]jobs.JobRecord(nil), f.Jobs...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeClient) StartJob(ctx context.Context, req dispatch.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StartCalls++
	if reason, ok := f.FailTargets[req.TargetID]; ok {
		return "", &dispatch.RemoteError{Status: 500, Reason: reason}
	}
	f.Started = append(f.Started, req)
	return "UPID:fake:" + uuid.NewString(), nil
}

func (f *FakeClient) DestroyMedia(ctx context.Context, id string, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inUse, ok := f.Media[id]
	if !ok {
		return &dispatch.RemoteError{Status: 404, Reason: "no such media " + id}
	}
	if inUse && !force {
		return &dispatch.RemoteError{Status: 400, Reason: "media " + id + " is still part of a media set"}
	}
	delete(f.Media, id)
	f.Destroyed = append(f.Destroyed, id)
	return nil
}
