package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ModeSnapshot is the only backup mode this console requests.
const ModeSnapshot = "snapshot"

// Request asks the job-execution endpoint to back up one target.
type Request struct {
	TargetID  string `json:"-"`
	StorageID string `json:"storage"`
	Mode      string `json:"mode"`
}

// Executor is the job-execution endpoint. It returns an identifier for the
// started task. A failure response from the remote side should be returned
// as *RemoteError so its reason reaches the operator unchanged.
type Executor interface {
	StartJob(ctx context.Context, req Request) (string, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, req Request) (string, error)

func (f ExecutorFunc) StartJob(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

var (
	// ErrNoTargetSelected is returned without contacting the remote side.
	ErrNoTargetSelected = errors.New("no backup target selected")
	// ErrDispatchFailed wraps every remote or transport failure.
	ErrDispatchFailed = errors.New("backup job dispatch failed")
)

// RemoteError is a failure response from a remote endpoint. Reason is shown
// to the operator as is.
type RemoteError struct {
	Status int
	Reason string
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s (%d %s)", e.Reason, e.Status, http.StatusText(e.Status))
}

// Reason extracts the operator-facing reason of err: the verbatim remote
// reason when err carries a *RemoteError, err.Error() otherwise.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Reason
	}
	return err.Error()
}
