package dispatch

import (
	"context"
	"fmt"

	"github.com/op/go-logging"

	"backup-console/src/jobs"
)

var log = logging.MustGetLogger("dispatch")

// Dispatcher starts backup jobs for a selected job record.
type Dispatcher struct {
	exec Executor
}

// New returns a Dispatcher that sends requests to exec.
func New(exec Executor) *Dispatcher {
	return &Dispatcher{exec: exec}
}

// Dispatch sends exactly one start request for the selected job, or none when
// nothing is selected. It never retries and never touches the selection.
func (d *Dispatcher) Dispatch(ctx context.Context, sel jobs.SelectionState) Outcome {
	if sel.None() {
		return Failed(ErrNoTargetSelected)
	}
	req := Request{
		TargetID:  sel.Selected.TargetID,
		StorageID: sel.Selected.StorageID,
		Mode:      ModeSnapshot,
	}
	log.Debugf("starting %s backup of %s to %s", req.Mode, req.TargetID, req.StorageID)
	task, err := d.exec.StartJob(ctx, req)
	if err != nil {
		log.Infof("backup of %s failed: %v", req.TargetID, err)
		return Outcome{reason: Reason(err), err: fmt.Errorf("%w: %w", ErrDispatchFailed, err)}
	}
	log.Infof("backup of %s started: %s", req.TargetID, task)
	return Succeeded(task)
}
