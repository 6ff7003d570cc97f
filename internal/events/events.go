package events

import (
	"context"
	"log/slog"
	"sync"
)

// Event is anything the updater announces while it works.
type Event interface {
	Name() string
}

// UpdateAvailable is dispatched once a newer version has been found.
type UpdateAvailable struct {
	Source  string
	Version string
}

func (UpdateAvailable) Name() string { return "update.available" }

// UpdateSucceeded is dispatched after a release was copied over the installation.
type UpdateSucceeded struct {
	Source  string
	Version string
}

func (UpdateSucceeded) Name() string { return "update.succeeded" }

// UpdateFailed is dispatched when applying a release did not complete.
type UpdateFailed struct {
	Source  string
	Version string
	Err     error
}

func (UpdateFailed) Name() string { return "update.failed" }

// HasWrongPermissions lists the files that blocked an update.
type HasWrongPermissions struct {
	Source string
	Paths  []string
}

func (HasWrongPermissions) Name() string { return "update.wrong_permissions" }

// Listener receives dispatched events.
type Listener interface {
	Handle(ctx context.Context, e Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, e Event)

func (f ListenerFunc) Handle(ctx context.Context, e Event) { f(ctx, e) }

// Dispatcher fans events out to its listeners synchronously,
// in subscription order.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners []Listener
}

func NewDispatcher(listeners ...Listener) *Dispatcher {
	return &Dispatcher{listeners: listeners}
}

func (d *Dispatcher) Subscribe(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// Dispatch is a no-op on a nil Dispatcher.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) {
	if d == nil {
		return
	}
	d.mu.RLock()
	listeners := make([]Listener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()

	for _, l := range listeners {
		l.Handle(ctx, e)
	}
}

// LogListener writes every event to a structured logger.
type LogListener struct {
	Logger *slog.Logger
}

func (l LogListener) Handle(ctx context.Context, e Event) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch ev := e.(type) {
	case UpdateAvailable:
		logger.InfoContext(ctx, "new version available", "event", ev.Name(), "source", ev.Source, "version", ev.Version)
	case UpdateSucceeded:
		logger.InfoContext(ctx, "update succeeded", "event", ev.Name(), "source", ev.Source, "version", ev.Version)
	case UpdateFailed:
		logger.ErrorContext(ctx, "update failed", "event", ev.Name(), "source", ev.Source, "version", ev.Version, "error", ev.Err)
	case HasWrongPermissions:
		logger.WarnContext(ctx, "files are not writable", "event", ev.Name(), "source", ev.Source, "paths", ev.Paths)
	default:
		logger.InfoContext(ctx, "event", "event", e.Name())
	}
}

// Recorder collects events, mainly for tests and summaries.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Handle(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
}

// Names returns the names of the recorded events in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		names = append(names, e.Name())
	}
	return names
}
