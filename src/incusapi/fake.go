package incusapi

import (
	"context"
	"sort"
	"strconv"
)

// FakeClient is an in-memory implementation for unit tests.
type FakeClient struct {
	ServerVersionStr string
	// Instances is keyed by project.
	Instances map[string][]Instance
	// Snapshots is keyed by project/instance.
	Snapshots map[string][]string
	// SnapshotErr, when set, fails every snapshot request.
	SnapshotErr error

	ops int
}

func NewFake() *FakeClient {
	return &FakeClient{Instances: map[string][]Instance{}, Snapshots: map[string][]string{}}
}

// AddInstance registers an instance in its project.
func (f *FakeClient) AddInstance(i Instance) {
	if i.Project == "" {
		i.Project = "default"
	}
	f.Instances[i.Project] = append(f.Instances[i.Project], i)
}

func (f *FakeClient) Server() (ServerInfo, error) {
	return ServerInfo{ServerVersion: f.ServerVersionStr}, nil
}

func (f *FakeClient) ListInstances(project string) ([]Instance, error) {
	out := append([]Instance(nil), f.Instances[project]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *FakeClient) CreateSnapshot(ctx context.Context, project, instance, snapshot string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	found := false
	for _, i := range f.Instances[project] {
		if i.Name == instance {
			found = true
			break
		}
	}
	if !found {
		return "", &NotFoundError{Resource: "instance", Name: project + "/" + instance}
	}
	if f.SnapshotErr != nil {
		return "", f.SnapshotErr
	}
	key := project + "/" + instance
	for _, s := range f.Snapshots[key] {
		if s == snapshot {
			// mimic Incus conflict
			return "", &ConflictError{Resource: "snapshot", Name: key + "/" + snapshot}
		}
	}
	f.Snapshots[key] = append(f.Snapshots[key], snapshot)
	f.ops++
	return "op-" + strconv.Itoa(f.ops), nil
}
