package incusapi

import (
	"context"
	"fmt"
	"time"

	"backup-console/src/dispatch"
	"backup-console/src/jobs"
)

// SnapshotPrefix starts the name of every snapshot created for a backup job.
const SnapshotPrefix = "backup-"

// Backend exposes the instances of one Incus project as backup jobs and runs
// those jobs as instance snapshots.
type Backend struct {
	client  Client
	project string
	now     func() time.Time
}

// NewBackend serves instances of project (default when empty) through client.
func NewBackend(client Client, project string) *Backend {
	if project == "" {
		project = "default"
	}
	return &Backend{client: client, project: project, now: time.Now}
}

// WithClock replaces the clock used for snapshot names.
func (b *Backend) WithClock(now func() time.Time) *Backend {
	b.now = now
	return b
}

// ListJobs implements jobs.Lister: one job per instance, stored on the pool
// of its root disk.
func (b *Backend) ListJobs(ctx context.Context) ([]jobs.JobRecord, error) {
	insts, err := b.client.ListInstances(b.project)
	if err != nil {
		return nil, err
	}
	out := make([]jobs.JobRecord, 0, len(insts))
	for _, i := range insts {
		out = append(out, jobs.JobRecord{
			ID:        b.project + "/" + i.Name,
			TargetID:  i.Name,
			StorageID: i.Pool,
			Type:      i.Type,
			Comment:   i.Status,
		})
	}
	return out, nil
}

// StartJob implements dispatch.Executor. Only snapshot mode is supported and
// the snapshot always lands on the instance's own pool, so a request for a
// different storage is refused.
func (b *Backend) StartJob(ctx context.Context, req dispatch.Request) (string, error) {
	if req.Mode != dispatch.ModeSnapshot {
		return "", &dispatch.RemoteError{Reason: fmt.Sprintf("unsupported backup mode %q", req.Mode)}
	}
	insts, err := b.client.ListInstances(b.project)
	if err != nil {
		return "", err
	}
	var inst *Instance
	for i := range insts {
		if insts[i].Name == req.TargetID {
			inst = &insts[i]
			break
		}
	}
	if inst == nil {
		return "", &dispatch.RemoteError{Reason: (&NotFoundError{Resource: "instance", Name: b.project + "/" + req.TargetID}).Error()}
	}
	if req.StorageID != "" && inst.Pool != "" && req.StorageID != inst.Pool {
		return "", &dispatch.RemoteError{Reason: fmt.Sprintf("instance %s is stored on pool %s, not %s", inst.Name, inst.Pool, req.StorageID)}
	}
	name := SnapshotPrefix + b.now().UTC().Format("20060102T150405Z")
	return b.client.CreateSnapshot(ctx, b.project, inst.Name, name)
}

// ServerVersion reports the version of the Incus daemon.
func (b *Backend) ServerVersion(ctx context.Context) (string, error) {
	info, err := b.client.Server()
	if err != nil {
		return "", err
	}
	return info.ServerVersion, nil
}
