package jobs

import (
	"sync"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("jobs")

// Toggle is a dispatch-triggering control that can be enabled or disabled.
type Toggle interface {
	SetEnabled(enabled bool)
}

// ToggleFunc adapts a function to Toggle.
type ToggleFunc func(enabled bool)

func (f ToggleFunc) SetEnabled(enabled bool) { f(enabled) }

// Controller tracks the single selected job of a list and keeps the bound
// controls enabled exactly while a job is selected.
//
// Notifications are applied one at a time in arrival order; the toggles are
// updated before SelectionChanged returns.
type Controller struct {
	mu       sync.Mutex
	state    State
	selected *JobRecord
	toggles  []Toggle
}

// NewController returns a controller in NoSelection with the given controls
// already disabled.
func NewController(toggles ...Toggle) *Controller {
	c := &Controller{}
	for _, t := range toggles {
		c.Bind(t)
	}
	return c
}

// Bind attaches t and immediately syncs it with the current state.
func (c *Controller) Bind(t Toggle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toggles = append(c.toggles, t)
	t.SetEnabled(c.state == OneSelected)
}

// SelectionChanged applies a selection-change notification from the list.
// Zero records clears the selection; otherwise the first record wins, since
// the list is single-select.
func (c *Controller) SelectionChanged(records ...JobRecord) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(records) == 0 {
		c.state, c.selected = NoSelection, nil
	} else {
		if len(records) > 1 {
			log.Debugf("collapsing %d selected jobs to %q", len(records), records[0].ID)
		}
		r := records[0]
		c.state, c.selected = OneSelected, &r
	}
	enabled := c.state == OneSelected
	for _, t := range c.toggles {
		t.SetEnabled(enabled)
	}
	return c.state
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Enabled reports whether dispatch controls are currently enabled.
func (c *Controller) Enabled() bool { return c.State() == OneSelected }

// Selection returns a copy of the current selection.
func (c *Controller) Selection() SelectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return SelectionState{}
	}
	r := *c.selected
	return SelectionState{Selected: &r}
}
