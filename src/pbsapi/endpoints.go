package pbsapi

import (
	"context"
	"fmt"
	"net/http"

	"backup-console/src/dispatch"
	"backup-console/src/jobs"
	"backup-console/src/keys"
)

type keyEntry struct {
	Hint        string `json:"hint"`
	Fingerprint string `json:"fingerprint"`
	Kdf         string `json:"kdf,omitempty"`
	Created     int64  `json:"created,omitempty"`
	Modified    int64  `json:"modified,omitempty"`
	Path        string `json:"path,omitempty"`
}

// ListKeys implements keys.Lister.
func (c *Client) ListKeys(ctx context.Context) ([]keys.KeyRecord, error) {
	var entries []keyEntry
	if err := c.do(ctx, c.read, http.MethodGet, c.endpoint("config", "encryption-keys"), nil, &entries); err != nil {
		return nil, err
	}
	out := make([]keys.KeyRecord, 0, len(entries))
	for _, e := range entries {
		kdf, err := keys.ParseKdf(e.Kdf)
		if err != nil {
			return nil, fmt.Errorf("pbsapi: key %q: %w", e.Hint, err)
		}
		out = append(out, keys.KeyRecord{
			Hint:        e.Hint,
			Fingerprint: e.Fingerprint,
			Kdf:         kdf,
			Created:     e.Created,
			Modified:    e.Modified,
			Path:        e.Path,
		})
	}
	return out, nil
}

type jobEntry struct {
	ID      string `json:"id"`
	Target  string `json:"target"`
	Storage string `json:"storage"`
	Type    string `json:"type,omitempty"`
	Node    string `json:"node,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// ListJobs implements jobs.Lister.
func (c *Client) ListJobs(ctx context.Context) ([]jobs.JobRecord, error) {
	var entries []jobEntry
	if err := c.do(ctx, c.read, http.MethodGet, c.endpoint("config", "backup-jobs"), nil, &entries); err != nil {
		return nil, err
	}
	out := make([]jobs.JobRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, jobs.JobRecord{
			ID:        e.ID,
			TargetID:  e.Target,
			StorageID: e.Storage,
			Type:      e.Type,
			Node:      e.Node,
			Comment:   e.Comment,
		})
	}
	return out, nil
}

// StartJob implements dispatch.Executor. The request is sent exactly once.
func (c *Client) StartJob(ctx context.Context, req dispatch.Request) (string, error) {
	if req.TargetID == "" {
		return "", fmt.Errorf("pbsapi: empty backup target")
	}
	var task string
	err := c.do(ctx, c.write, http.MethodPost, c.endpoint("nodes", c.node, "backup", req.TargetID), req, &task)
	if err != nil {
		return "", err
	}
	return task, nil
}

type destroyRequest struct {
	UUID  string `json:"uuid"`
	Force bool   `json:"force"`
}

// DestroyMedia removes a medium from the inventory. Force also removes media
// that are still in use by a media set.
func (c *Client) DestroyMedia(ctx context.Context, uuid string, force bool) error {
	return c.do(ctx, c.write, http.MethodPost, c.endpoint("media", "destroy"), destroyRequest{UUID: uuid, Force: force}, nil)
}

type versionEntry struct {
	Version string `json:"version"`
	Release string `json:"release"`
}

// ServerVersion reports the server's version and release.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	var v versionEntry
	if err := c.do(ctx, c.read, http.MethodGet, c.endpoint("version"), nil, &v); err != nil {
		return "", err
	}
	if v.Release == "" {
		return v.Version, nil
	}
	return v.Version + "-" + v.Release, nil
}
