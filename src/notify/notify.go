// Package notify delivers success and failure notifications for operator
// actions.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Event is one notification.
type Event struct {
	Time    time.Time         `json:"time"`
	Level   Level             `json:"level"`
	Action  string            `json:"action"`
	Subject string            `json:"subject"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Notifier delivers events.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Writer prints events as single lines.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriter(out io.Writer) *Writer { return &Writer{out: out} }

func (w *Writer) Notify(ctx context.Context, ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	prefix := "OK"
	if ev.Level == LevelError {
		prefix = "ERROR"
	}
	_, err := fmt.Fprintf(w.out, "%s: %s %s: %s\n", prefix, ev.Action, ev.Subject, ev.Message)
	return err
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(ctx context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
