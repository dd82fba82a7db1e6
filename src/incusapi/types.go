package incusapi

import "context"

// Instance models a minimal Incus instance for our purposes.
type Instance struct {
	Name    string
	Project string
	Type    string // container|virtual-machine
	Status  string
	// Pool is the storage pool holding the root disk.
	Pool string
}

// ServerInfo is the server metadata shown by `version --server`.
type ServerInfo struct {
	ServerVersion string
}

// Client is a narrow interface over the Incus API used by our app.
// Keep it small and focused on what we actually need so it stays mockable.
type Client interface {
	Server() (ServerInfo, error)
	ListInstances(project string) ([]Instance, error)
	// CreateSnapshot snapshots an instance and waits for the operation to
	// finish. It returns the operation ID.
	CreateSnapshot(ctx context.Context, project, instance, snapshot string) (string, error)
}

type ConflictError struct{ Resource, Name string }

func (e *ConflictError) Error() string { return e.Resource + " conflict: " + e.Name }

type NotFoundError struct{ Resource, Name string }

func (e *NotFoundError) Error() string { return e.Resource + " not found: " + e.Name }
