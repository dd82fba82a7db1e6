package dispatch

import "fmt"

// Outcome is Success or Failure(reason).
type Outcome struct {
	ok     bool
	task   string
	reason string
	err    error
}

// Succeeded builds a Success outcome for the started task.
func Succeeded(task string) Outcome { return Outcome{ok: true, task: task} }

// Failed builds a Failure outcome. The reason is taken from err.
func Failed(err error) Outcome {
	if err == nil {
		err = ErrDispatchFailed
	}
	return Outcome{reason: Reason(err), err: err}
}

// Success reports whether the job was started.
func (o Outcome) Success() bool { return o.ok }

// Task is the remote task identifier of a Success.
func (o Outcome) Task() string { return o.task }

// Reason is the failure reason, empty on Success.
func (o Outcome) Reason() string { return o.reason }

// Err returns the failure as an error, nil on Success.
func (o Outcome) Err() error { return o.err }

func (o Outcome) String() string {
	if o.ok {
		if o.task == "" {
			return "Success"
		}
		return fmt.Sprintf("Success(%s)", o.task)
	}
	return fmt.Sprintf("Failure(%s)", o.reason)
}
