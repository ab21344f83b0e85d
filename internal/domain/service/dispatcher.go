package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"hifi-remote/internal/domain/model"
	"hifi-remote/internal/ports"
)

const DefaultHoldInterval = 120 * time.Millisecond

type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomePlaceholder
	OutcomeEdit
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomePlaceholder:
		return "placeholder"
	case OutcomeEdit:
		return "edit"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

type PressOptions struct {
	// EditMode routes the press to OnEdit instead of the device.
	EditMode bool
	OnEdit   func()
	// Queued waits for the device to finish the previous command.
	Queued bool
}

// Dispatcher turns control presses into send requests. It never returns send
// errors to the caller; failures surface through the notifier.
type Dispatcher struct {
	api          ports.DeviceAPIPort
	notifier     ports.Notifier
	logger       *slog.Logger
	holdInterval time.Duration
}

func NewDispatcher(api ports.DeviceAPIPort, notifier ports.Notifier, logger *slog.Logger, holdInterval time.Duration) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if holdInterval <= 0 {
		holdInterval = DefaultHoldInterval
	}
	return &Dispatcher{api: api, notifier: notifier, logger: logger, holdInterval: holdInterval}
}

// Normalize builds the request for b. Repetitions below one become one.
func (d *Dispatcher) Normalize(b model.Binding, opts PressOptions) model.SendRequest {
	return model.SendRequest{
		Name:        b.Device,
		Commands:    b.Commands(),
		Repetitions: max(1, b.Repetitions),
		Fast:        !opts.Queued,
		Async:       true,
	}
}

func (d *Dispatcher) Press(ctx context.Context, b model.Binding, opts PressOptions) Outcome {
	if opts.EditMode {
		if opts.OnEdit != nil {
			opts.OnEdit()
		}
		return OutcomeEdit
	}
	if b.IsPlaceholder() {
		d.alert("Not configured", "Configure this button in Edit mode.")
		return OutcomePlaceholder
	}
	req := d.Normalize(b, opts)
	if _, err := d.api.Send(ctx, req); err != nil {
		d.logger.Warn("send failed", "device", req.Name, "command", req.CommandParam(), "error", err)
		d.alert("Send failed", err.Error())
		return OutcomeFailed
	}
	d.logger.Debug("sent", "device", req.Name, "command", req.CommandParam(), "repetitions", req.Repetitions)
	return OutcomeSent
}

func (d *Dispatcher) alert(title, message string) {
	if d.notifier != nil {
		d.notifier.Alert(title, message)
	}
}

// Hold is a press-and-hold in progress.
type Hold struct {
	active atomic.Bool
	fired  atomic.Int64
	stop   chan struct{}
	once   sync.Once
	done   chan struct{}
}

// Release stops further fires. A send already in flight completes.
func (h *Hold) Release() {
	h.once.Do(func() {
		h.active.Store(false)
		close(h.stop)
	})
}

// Wait blocks until the repeat loop has exited.
func (h *Hold) Wait() { <-h.done }

// Fired is the number of sends attempted, the initial press included.
func (h *Hold) Fired() int { return int(h.fired.Load()) }

// Hold fires b once and then every hold interval until Release, ctx is
// cancelled or a send fails. Placeholders and edit mode behave as Press and
// never repeat.
func (d *Dispatcher) Hold(ctx context.Context, b model.Binding, opts PressOptions) *Hold {
	h := &Hold{stop: make(chan struct{}), done: make(chan struct{})}
	h.active.Store(true)
	go d.repeat(ctx, h, b, opts)
	return h
}

func (d *Dispatcher) repeat(ctx context.Context, h *Hold, b model.Binding, opts PressOptions) {
	defer close(h.done)
	if opts.EditMode || b.IsPlaceholder() {
		d.Press(ctx, b, opts)
		return
	}
	h.fired.Add(1)
	if d.Press(ctx, b, opts) != OutcomeSent {
		return
	}

	ticker := time.NewTicker(d.holdInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !h.active.Load() {
				return
			}
			h.fired.Add(1)
			if d.Press(ctx, b, opts) != OutcomeSent {
				// one alert per hold
				return
			}
		}
	}
}
