package panel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"backup-console/src/dispatch"
	"backup-console/src/metrics"
	"backup-console/src/notify"
	"backup-console/src/safety"
)

const actionMediaDestroy = "media-destroy"

var (
	// ErrDeclined is returned when the operator does not confirm.
	ErrDeclined = errors.New("aborted: media removal not confirmed")
	// ErrDryRun is returned in dry-run mode; nothing was sent.
	ErrDryRun = errors.New("dry-run: media removal skipped")
)

// MediaRemover is the media removal endpoint.
type MediaRemover interface {
	DestroyMedia(ctx context.Context, uuid string, force bool) error
}

// MediaRemovalWindow asks for confirmation before destroying a medium.
type MediaRemovalWindow struct {
	remover  MediaRemover
	opts     safety.Options
	in       io.Reader
	out      io.Writer
	notifier notify.Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewMediaRemovalWindow prompts on out and reads the answer from in.
func NewMediaRemovalWindow(r MediaRemover, opts safety.Options, in io.Reader, out io.Writer, n notify.Notifier, m *metrics.Metrics) *MediaRemovalWindow {
	return &MediaRemovalWindow{remover: r, opts: opts, in: in, out: out, notifier: n, metrics: m, now: time.Now}
}

// Remove validates id, asks for confirmation and sends one removal request.
// Local refusals (bad UUID, declined, dry-run) are errors and send nothing;
// the remote result is the returned outcome.
func (w *MediaRemovalWindow) Remove(ctx context.Context, id, label string, force bool) (dispatch.Outcome, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return dispatch.Outcome{}, fmt.Errorf("invalid media uuid %q: %w", id, err)
	}
	id = parsed.String()
	name := id
	if label != "" {
		name = fmt.Sprintf("%s (%s)", label, id)
	}

	question := fmt.Sprintf("Destroy media %s?", name)
	if force {
		question = fmt.Sprintf("Force destroy media %s, even if it is part of a media set?", name)
	}
	d, err := safety.Decide(w.opts, w.in, w.out, question)
	if err != nil {
		return dispatch.Outcome{}, err
	}
	switch d {
	case safety.Skipped:
		return dispatch.Outcome{}, ErrDryRun
	case safety.Declined:
		return dispatch.Outcome{}, ErrDeclined
	}

	var out dispatch.Outcome
	if err := w.remover.DestroyMedia(ctx, id, force); err != nil {
		out = dispatch.Failed(err)
	} else {
		out = dispatch.Succeeded(id)
	}
	w.metrics.MediaRemoved(out.Err())

	if w.notifier != nil {
		ev := notify.Event{
			Time:    w.now().UTC(),
			Action:  actionMediaDestroy,
			Subject: name,
			Fields:  map[string]string{"force": fmt.Sprintf("%t", force)},
		}
		if out.Success() {
			ev.Level, ev.Message = notify.LevelInfo, "media destroyed"
		} else {
			ev.Level, ev.Message = notify.LevelError, out.Reason()
		}
		if err := w.notifier.Notify(ctx, ev); err != nil {
			log.Warningf("notification failed: %v", err)
		}
	}
	return out, nil
}
