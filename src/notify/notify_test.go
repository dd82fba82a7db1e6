package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backup-console/src/notify"
)

type failing struct{}

func (failing) Notify(context.Context, notify.Event) error { return errors.New("broker down") }

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := notify.NewWriter(&buf)
	require.NoError(t, w.Notify(context.Background(), notify.Event{Level: notify.LevelInfo, Action: "backup", Subject: "100", Message: "started"}))
	require.NoError(t, w.Notify(context.Background(), notify.Event{Level: notify.LevelError, Action: "backup", Subject: "101", Message: "quota exceeded"}))
	assert.Equal(t, "OK: backup 100: started\nERROR: backup 101: quota exceeded\n", buf.String())
}

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	rec := &notify.Recorder{}
	err := notify.Multi{failing{}, nil, rec}.Notify(context.Background(), notify.Event{Action: "backup"})
	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, rec.Events(), 1)
}

func TestPublishing(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	msg, err := notify.Publishing(notify.Event{Time: ts, Level: notify.LevelError, Action: "media-destroy", Subject: "m1", Message: "in use"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "media-destroy", msg.Type)

	var back notify.Event
	require.NoError(t, json.Unmarshal(msg.Body, &back))
	assert.Equal(t, "in use", back.Message)
	assert.True(t, back.Time.Equal(ts))
}
