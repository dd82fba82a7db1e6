package jobs

import "context"

// JobRecord is one entry of the external job list. The controller only reads
// TargetID and StorageID; the other fields are for display.
type JobRecord struct {
	ID        string `json:"id" yaml:"id"`
	TargetID  string `json:"target" yaml:"target"`
	StorageID string `json:"storage" yaml:"storage"`
	Type      string `json:"type,omitempty" yaml:"type,omitempty"`
	Node      string `json:"node,omitempty" yaml:"node,omitempty"`
	Comment   string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// Lister is the external job-listing collaborator.
type Lister interface {
	ListJobs(ctx context.Context) ([]JobRecord, error)
}

// SelectionState holds at most one selected job. The zero value is the empty
// selection.
type SelectionState struct {
	Selected *JobRecord
}

// None reports whether nothing is selected.
func (s SelectionState) None() bool { return s.Selected == nil }

// State of the selection controller.
type State int

const (
	NoSelection State = iota
	OneSelected
)

func (s State) String() string {
	switch s {
	case NoSelection:
		return "NoSelection"
	case OneSelected:
		return "OneSelected"
	default:
		return "State(?)"
	}
}
