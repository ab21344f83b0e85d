package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hifi-remote/internal/domain/model"
	"hifi-remote/internal/domain/uiconfig"
	"hifi-remote/internal/ports"
	"hifi-remote/internal/task"
)

const DefaultPushDebounce = 500 * time.Millisecond

// LayoutEdit is a pure transform of the layout. It receives a private copy.
type LayoutEdit func(model.RemoteLayout) (model.RemoteLayout, error)

// LayoutSync owns the canonical layout. Local edits are persisted immediately
// and pushed to the device's UI config after a quiet window; a pull replaces
// the local layout wholesale when the device holds one.
type LayoutSync struct {
	repo      ports.LayoutRepository
	api       ports.DeviceAPIPort
	publisher ports.EventPublisher
	logger    *slog.Logger

	mu      sync.Mutex
	layout  model.RemoteLayout
	subs    map[int]func(model.RemoteLayout)
	nextSub int

	push   *task.Debouncer
	ctx    context.Context
	cancel context.CancelFunc
}

func NewLayoutSync(repo ports.LayoutRepository, api ports.DeviceAPIPort, logger *slog.Logger, debounce time.Duration) *LayoutSync {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultPushDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &LayoutSync{
		repo:   repo,
		api:    api,
		logger: logger,
		layout: model.RemoteLayout{Sections: []model.Section{}},
		subs:   make(map[int]func(model.RemoteLayout)),
		ctx:    ctx,
		cancel: cancel,
	}
	e.push = task.NewDebouncer(debounce, e.backgroundPush)
	return e
}

// SetPublisher mirrors every layout change to p.
func (e *LayoutSync) SetPublisher(p ports.EventPublisher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.publisher = p
}

// Start binds background pushes to ctx.
func (e *LayoutSync) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancel()
	e.ctx, e.cancel = context.WithCancel(ctx)
}

// Stop drops a pending push and cancels one in flight.
func (e *LayoutSync) Stop() {
	e.push.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancel()
}

// Load reads the persisted layout, falling back to the legacy schema and then
// to the seeded default. It never touches the network.
func (e *LayoutSync) Load(ctx context.Context) model.RemoteLayout {
	layout, ok, err := e.repo.Get(ctx)
	if err != nil {
		e.logger.Warn("failed to load layout", "error", err)
	}
	if err != nil || !ok {
		layout = model.DefaultLayout()
		if err := e.repo.Save(ctx, layout); err != nil {
			e.logger.Warn("failed to save default layout", "error", err)
		}
	}
	e.replace(layout)
	return e.Snapshot()
}

func (e *LayoutSync) Snapshot() model.RemoteLayout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layout.Clone()
}

// Subscribe calls fn with a copy of the layout after every change.
func (e *LayoutSync) Subscribe(fn func(model.RemoteLayout)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

// Mutate applies edit, persists the result and schedules a push.
func (e *LayoutSync) Mutate(edit func(model.RemoteLayout) (model.RemoteLayout, error)) error {
	e.mu.Lock()
	next, err := edit(e.layout.Clone())
	if err != nil {
		e.mu.Unlock()
		return err
	}
	next.Normalize()
	e.layout = next
	saveErr := e.repo.Save(e.ctx, next)
	e.mu.Unlock()

	e.push.Trigger()
	e.notify()
	if saveErr != nil {
		e.logger.Error("failed to persist layout", "error", saveErr)
		return fmt.Errorf("persisting layout: %w", saveErr)
	}
	return nil
}

// Pull replaces the local layout with the device's copy when one is found.
// Failures are logged and the local layout stays authoritative. Nothing
// happens without a configured connection.
func (e *LayoutSync) Pull(ctx context.Context) {
	if !e.api.IsConfigured() {
		return
	}
	found, err := e.download(ctx)
	if err != nil {
		e.logger.Warn("pulling ui config", "error", err)
		return
	}
	e.logger.Debug("pulled ui config", "layout_found", found)
}

// Download is the user-initiated pull: errors are returned.
func (e *LayoutSync) Download(ctx context.Context) (bool, error) {
	if !e.api.IsConfigured() {
		return false, model.ErrNotConfigured
	}
	return e.download(ctx)
}

// Upload is the user-initiated push: it bypasses the debounce window and
// returns errors. A failed re-fetch is treated as an empty blob.
func (e *LayoutSync) Upload(ctx context.Context) error {
	if !e.api.IsConfigured() {
		return model.ErrNotConfigured
	}
	e.push.Cancel()
	return e.pushNow(ctx, true)
}

// Flush sends a pending debounced push right away, for short-lived callers
// that exit before the window would elapse.
func (e *LayoutSync) Flush(ctx context.Context) error {
	if !e.push.Pending() {
		return nil
	}
	e.push.Cancel()
	if !e.api.IsConfigured() {
		return nil
	}
	return e.pushNow(ctx, false)
}

func (e *LayoutSync) download(ctx context.Context) (bool, error) {
	raw, err := e.api.GetUIConfig(ctx)
	if err != nil {
		return false, err
	}
	blob := uiconfig.Decode(raw)
	if blob.Layout == nil {
		return false, nil
	}
	e.mu.Lock()
	err = e.repo.Save(ctx, *blob.Layout)
	e.mu.Unlock()
	if err != nil {
		// the remote copy still wins in memory; the next edit persists again
		e.logger.Warn("failed to persist pulled layout", "error", err)
	}
	e.replace(*blob.Layout)
	return true, nil
}

func (e *LayoutSync) backgroundPush() {
	e.mu.Lock()
	ctx := e.ctx
	e.mu.Unlock()
	if !e.api.IsConfigured() {
		return
	}
	if err := e.pushNow(ctx, false); err != nil {
		e.logger.Warn("pushing ui config", "error", err)
	}
}

// pushNow re-fetches the blob to decide its shape, then writes the local layout
// over it. When lenient is false a failed re-fetch aborts the push so keys
// owned by other writers are never dropped.
func (e *LayoutSync) pushNow(ctx context.Context, lenient bool) error {
	blob := uiconfig.Blob{Shape: uiconfig.ShapeNone}
	raw, err := e.api.GetUIConfig(ctx)
	switch {
	case err == nil:
		blob = uiconfig.Decode(raw)
	case !lenient:
		return fmt.Errorf("re-fetching ui config: %w", err)
	}

	body, err := blob.PushBody(e.Snapshot())
	if err != nil {
		return err
	}
	if _, err := e.api.PutUIConfig(ctx, body); err != nil {
		return err
	}
	e.logger.Debug("pushed ui config", "shape", blob.Shape.String())
	return nil
}

func (e *LayoutSync) replace(layout model.RemoteLayout) {
	layout.Normalize()
	e.mu.Lock()
	e.layout = layout
	e.mu.Unlock()
	e.notify()
}

func (e *LayoutSync) notify() {
	e.mu.Lock()
	snapshot := e.layout.Clone()
	subs := make([]func(model.RemoteLayout), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	publisher := e.publisher
	e.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot.Clone())
	}
	if publisher != nil {
		publisher.PublishLayout(snapshot)
	}
}
