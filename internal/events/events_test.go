package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcher(t *testing.T) {
	t.Run("delivers in subscription order", func(t *testing.T) {
		var order []string
		d := NewDispatcher(ListenerFunc(func(ctx context.Context, e Event) {
			order = append(order, "first:"+e.Name())
		}))
		d.Subscribe(ListenerFunc(func(ctx context.Context, e Event) {
			order = append(order, "second:"+e.Name())
		}))

		d.Dispatch(context.Background(), UpdateAvailable{Version: "1.1.0"})
		assert.Equal(t, []string{"first:update.available", "second:update.available"}, order)
	})

	t.Run("nil dispatcher is a no-op", func(t *testing.T) {
		var d *Dispatcher
		assert.NotPanics(t, func() {
			d.Dispatch(context.Background(), UpdateSucceeded{Version: "1.0.0"})
		})
	})
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	d := NewDispatcher(r)
	d.Dispatch(context.Background(), UpdateAvailable{Version: "1.1.0"})
	d.Dispatch(context.Background(), HasWrongPermissions{Paths: []string{"/app/index.php"}})
	d.Dispatch(context.Background(), UpdateFailed{Err: errors.New("denied")})

	assert.Equal(t, []string{"update.available", "update.wrong_permissions", "update.failed"}, r.Names())
	assert.Len(t, r.Events, 3)
}

func TestLogListener(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := LogListener{Logger: logger}

	l.Handle(context.Background(), UpdateAvailable{Source: "github", Version: "v1.1.0"})
	l.Handle(context.Background(), UpdateSucceeded{Source: "github", Version: "v1.1.0"})
	l.Handle(context.Background(), UpdateFailed{Source: "github", Err: errors.New("boom")})
	l.Handle(context.Background(), HasWrongPermissions{Source: "github", Paths: []string{"/srv/app/index.php"}})

	out := buf.String()
	assert.Contains(t, out, `"msg":"new version available"`)
	assert.Contains(t, out, `"msg":"update succeeded"`)
	assert.Contains(t, out, `"msg":"update failed"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"/srv/app/index.php"`)
	assert.Contains(t, out, `"version":"v1.1.0"`)
}
