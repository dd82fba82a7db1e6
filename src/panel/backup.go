// Package panel ties the selection state machines to the remote actions and
// reports outcomes back to the operator.
package panel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/op/go-logging"

	"backup-console/src/dispatch"
	"backup-console/src/jobs"
	"backup-console/src/keys"
	"backup-console/src/metrics"
	"backup-console/src/notify"
)

var log = logging.MustGetLogger("panel")

const actionBackup = "backup"

// BackupPanel owns the job selection of a backup job list and starts the
// selected job on request.
type BackupPanel struct {
	controller *jobs.Controller
	dispatcher *dispatch.Dispatcher
	notifier   notify.Notifier
	metrics    *metrics.Metrics
	keySel     *keys.Selector
	now        func() time.Time

	mu   sync.Mutex
	last *dispatch.Outcome
}

// Option configures a panel.
type Option func(*panelOptions)

type panelOptions struct {
	notifier notify.Notifier
	metrics  *metrics.Metrics
	keySel   *keys.Selector
	toggles  []jobs.Toggle
	now      func() time.Time
}

func WithNotifier(n notify.Notifier) Option { return func(o *panelOptions) { o.notifier = n } }

func WithMetrics(m *metrics.Metrics) Option { return func(o *panelOptions) { o.metrics = m } }

// WithKeySelector tags dispatched jobs with the selected encryption key.
func WithKeySelector(s *keys.Selector) Option { return func(o *panelOptions) { o.keySel = s } }

// WithToggles binds controls that follow the selection.
func WithToggles(t ...jobs.Toggle) Option {
	return func(o *panelOptions) { o.toggles = append(o.toggles, t...) }
}

func WithClock(now func() time.Time) Option { return func(o *panelOptions) { o.now = now } }

// NewBackupPanel builds a panel sending start requests to exec.
func NewBackupPanel(exec dispatch.Executor, opts ...Option) *BackupPanel {
	o := panelOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &BackupPanel{
		controller: jobs.NewController(o.toggles...),
		dispatcher: dispatch.New(exec),
		notifier:   o.notifier,
		metrics:    o.metrics,
		keySel:     o.keySel,
		now:        o.now,
	}
}

// Selection exposes the controller so the job list can feed it.
func (p *BackupPanel) Selection() *jobs.Controller { return p.controller }

// Start dispatches the selected job and notifies the operator of the
// outcome. The selection is left as it was.
func (p *BackupPanel) Start(ctx context.Context) dispatch.Outcome {
	sel := p.controller.Selection()

	var key keys.KeyRecord
	var haveKey bool
	if p.keySel != nil {
		if err := p.keySel.Validate(); err != nil {
			return p.finish(ctx, sel, dispatch.Failed(err), true, key, false)
		}
		key, haveKey = p.keySel.Selected()
	}

	out := p.dispatcher.Dispatch(ctx, sel)
	rejected := errors.Is(out.Err(), dispatch.ErrNoTargetSelected)
	return p.finish(ctx, sel, out, rejected, key, haveKey)
}

func (p *BackupPanel) finish(ctx context.Context, sel jobs.SelectionState, out dispatch.Outcome, rejected bool, key keys.KeyRecord, haveKey bool) dispatch.Outcome {
	p.mu.Lock()
	p.last = &out
	p.mu.Unlock()

	p.metrics.DispatchFinished(out, rejected)

	if p.notifier != nil {
		ev := notify.Event{Time: p.now().UTC(), Action: actionBackup, Fields: map[string]string{}}
		if !sel.None() {
			ev.Subject = sel.Selected.TargetID
			ev.Fields["storage"] = sel.Selected.StorageID
			ev.Fields["job"] = sel.Selected.ID
		}
		if haveKey {
			ev.Fields["encryption-key"] = key.Fingerprint
		}
		if out.Success() {
			ev.Level = notify.LevelInfo
			ev.Message = "backup job started"
			if out.Task() != "" {
				ev.Fields["task"] = out.Task()
			}
		} else {
			ev.Level = notify.LevelError
			ev.Message = out.Reason()
		}
		if err := p.notifier.Notify(ctx, ev); err != nil {
			log.Warningf("notification failed: %v", err)
		}
	}
	return out
}

// LastOutcome returns the outcome of the most recent Start.
func (p *BackupPanel) LastOutcome() (dispatch.Outcome, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return dispatch.Outcome{}, false
	}
	return *p.last, true
}
