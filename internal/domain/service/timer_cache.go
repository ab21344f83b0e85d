package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hifi-remote/internal/domain/model"
	"hifi-remote/internal/ports"
	"hifi-remote/internal/task"
)

const DefaultTimerPoll = 5 * time.Second

// TimerCache mirrors the device's timer list. It polls while started and
// refetches after every successful create or delete so the device stays the
// source of truth.
type TimerCache struct {
	repo      ports.TimerRepository
	api       ports.DeviceAPIPort
	publisher ports.EventPublisher
	logger    *slog.Logger
	interval  time.Duration

	fetchMu sync.Mutex
	// lifeMu serializes Poll and Stop so at most one loop exists
	lifeMu sync.Mutex
	loop   *task.Interval

	mu      sync.Mutex
	timers  []model.Timer
	lastErr error
	subs    map[int]func([]model.Timer)
	nextSub int
}

func NewTimerCache(repo ports.TimerRepository, api ports.DeviceAPIPort, logger *slog.Logger, interval time.Duration) *TimerCache {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultTimerPoll
	}
	return &TimerCache{
		repo:     repo,
		api:      api,
		logger:   logger,
		interval: interval,
		timers:   []model.Timer{},
		subs:     make(map[int]func([]model.Timer)),
	}
}

func (c *TimerCache) SetPublisher(p ports.EventPublisher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publisher = p
}

// Load seeds the cache from the persisted copy so the list renders offline.
func (c *TimerCache) Load(ctx context.Context) []model.Timer {
	timers, err := c.repo.Get(ctx)
	if err != nil {
		c.logger.Warn("failed to load cached timers", "error", err)
		timers = []model.Timer{}
	}
	c.mu.Lock()
	c.timers = timers
	c.mu.Unlock()
	return c.Snapshot()
}

func (c *TimerCache) Snapshot() []model.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.CloneTimers(c.timers)
}

// LastError is the error of the most recent fetch, nil after a success.
func (c *TimerCache) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *TimerCache) Subscribe(fn func([]model.Timer)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Poll (re)starts the refresh loop with an immediate first fetch. It is a
// no-op, after stopping any running loop, when no connection is configured.
func (c *TimerCache) Poll(ctx context.Context) {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	c.stopLocked()
	if !c.api.IsConfigured() {
		return
	}
	c.loop = task.Every(ctx, c.interval, true, func(ctx context.Context) {
		if err := c.Refresh(ctx); err != nil {
			c.logger.Debug("timer poll failed", "error", err)
		}
	})
}

// Stop ends the poll loop and waits for an in-flight fetch to return.
func (c *TimerCache) Stop() {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	c.stopLocked()
}

func (c *TimerCache) stopLocked() {
	if c.loop != nil {
		c.loop.Stop()
		c.loop = nil
	}
}

// Refresh fetches the list now. On failure the cached list is kept.
func (c *TimerCache) Refresh(ctx context.Context) error {
	if !c.api.IsConfigured() {
		return model.ErrNotConfigured
	}
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	timers, err := c.api.Timers(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return fmt.Errorf("fetching timers: %w", err)
	}
	if timers == nil {
		timers = []model.Timer{}
	}
	if err := c.repo.Save(ctx, timers); err != nil {
		c.logger.Warn("failed to persist timers", "error", err)
	}

	c.mu.Lock()
	c.timers = timers
	c.lastErr = nil
	subs := make([]func([]model.Timer), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	publisher := c.publisher
	c.mu.Unlock()

	for _, fn := range subs {
		fn(model.CloneTimers(timers))
	}
	if publisher != nil {
		publisher.PublishTimers(timers)
	}
	return nil
}

// Create schedules a timer and refetches on success.
func (c *TimerCache) Create(ctx context.Context, req model.CreateTimerRequest) (bool, error) {
	if !c.api.IsConfigured() {
		return false, model.ErrNotConfigured
	}
	ok, err := c.api.CreateTimer(ctx, req)
	if err != nil {
		return false, err
	}
	if ok {
		c.logger.Info("timer created", "label", req.Label, "type", req.Type, "delay_minutes", req.DelayMinutes)
		c.refreshAfterWrite(ctx)
	}
	return ok, nil
}

// Test runs req immediately. The device does not keep test timers, so the
// cache is left alone.
func (c *TimerCache) Test(ctx context.Context, req model.CreateTimerRequest) (bool, error) {
	if !c.api.IsConfigured() {
		return false, model.ErrNotConfigured
	}
	return c.api.TestTimer(ctx, req)
}

// Delete removes a timer. A timer the device no longer knows yields false.
func (c *TimerCache) Delete(ctx context.Context, id string) (bool, error) {
	if !c.api.IsConfigured() {
		return false, model.ErrNotConfigured
	}
	ok, err := c.api.DeleteTimer(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		c.logger.Info("timer deleted", "id", id)
		c.refreshAfterWrite(ctx)
	}
	return ok, nil
}

func (c *TimerCache) refreshAfterWrite(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("refetch after timer change failed", "error", err)
	}
}
