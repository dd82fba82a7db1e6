package incusapi

import (
	"context"

	incuscli "github.com/lxc/incus/client"
	"github.com/lxc/incus/shared/api"
)

// RealClient wraps the official Incus Go client.
type RealClient struct {
	c incuscli.InstanceServer
}

// ConnectLocal connects to the local Incus via the UNIX socket. An empty
// path uses the default socket location.
func ConnectLocal(socket string) (*RealClient, error) {
	c, err := incuscli.ConnectIncusUnix(socket, nil)
	if err != nil {
		return nil, err
	}
	return &RealClient{c: c}, nil
}

func (r *RealClient) Server() (ServerInfo, error) {
	s, _, err := r.c.GetServer()
	if err != nil {
		return ServerInfo{}, err
	}
	return ServerInfo{ServerVersion: s.Environment.ServerVersion}, nil
}

func (r *RealClient) ListInstances(project string) ([]Instance, error) {
	insts, err := r.c.UseProject(project).GetInstances(api.InstanceTypeAny)
	if err != nil {
		return nil, err
	}
	out := make([]Instance, 0, len(insts))
	for _, i := range insts {
		out = append(out, Instance{
			Name:    i.Name,
			Project: project,
			Type:    i.Type,
			Status:  i.Status,
			Pool:    rootPool(i.ExpandedDevices),
		})
	}
	return out, nil
}

// rootPool finds the pool of the disk device mounted at "/".
func rootPool(devices map[string]map[string]string) string {
	for _, d := range devices {
		if d["type"] == "disk" && d["path"] == "/" {
			return d["pool"]
		}
	}
	return ""
}

func (r *RealClient) CreateSnapshot(ctx context.Context, project, instance, snapshot string) (string, error) {
	op, err := r.c.UseProject(project).CreateInstanceSnapshot(instance, api.InstanceSnapshotsPost{Name: snapshot})
	if err != nil {
		return "", err
	}
	if err := op.WaitContext(ctx); err != nil {
		return "", err
	}
	return op.Get().ID, nil
}
