package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"hifi-remote/internal/domain/model"
	"hifi-remote/internal/ports"
)

// ConnectionService owns the persisted device connection and tells the sync
// engines when it changes.
type ConnectionService struct {
	repo      ports.ConnectionRepository
	api       ports.DeviceAPIPort
	logger    *slog.Logger
	mu        sync.RWMutex
	conn      model.Connection
	listeners []func(ctx context.Context, conn model.Connection)
}

func NewConnectionService(repo ports.ConnectionRepository, api ports.DeviceAPIPort, logger *slog.Logger) *ConnectionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectionService{
		repo:   repo,
		api:    api,
		logger: logger,
	}
}

// Load reads the persisted connection and configures the API port with it.
// Listeners are not notified; callers start the engines themselves.
func (s *ConnectionService) Load(ctx context.Context) (model.Connection, error) {
	conn, err := s.repo.Get(ctx)
	if err != nil {
		return model.Connection{}, fmt.Errorf("loading connection: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.api.Configure(conn)
	return conn, nil
}

func (s *ConnectionService) Get() model.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// OnChange registers fn to run after every saved update.
func (s *ConnectionService) OnChange(fn func(ctx context.Context, conn model.Connection)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Update merges patch into the current connection, persists it, reconfigures
// the API port and notifies listeners.
func (s *ConnectionService) Update(ctx context.Context, patch model.ConnectionPatch) (model.Connection, error) {
	s.mu.Lock()
	next := s.conn.Merge(patch)
	if err := s.repo.Save(ctx, next); err != nil {
		s.mu.Unlock()
		return model.Connection{}, fmt.Errorf("saving connection: %w", err)
	}
	s.conn = next
	listeners := append([]func(context.Context, model.Connection){}, s.listeners...)
	s.mu.Unlock()

	s.api.Configure(next)
	s.logger.Info("connection updated", "base_url", next.BaseURL, "configured", next.Configured())
	for _, fn := range listeners {
		fn(ctx, next)
	}
	return next, nil
}

// Test probes /health with the current connection.
func (s *ConnectionService) Test(ctx context.Context) (*model.Health, error) {
	if !s.api.IsConfigured() {
		return nil, model.ErrNotConfigured
	}
	return s.api.Health(ctx)
}
