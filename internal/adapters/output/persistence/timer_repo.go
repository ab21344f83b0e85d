package persistence

import (
	"context"

	"hifi-remote/internal/domain/model"
)

// TimerRepository keeps the last timer list fetched from the device. It is a
// display cache, never authoritative.
type TimerRepository struct {
	store *Store
}

func NewTimerRepository(store *Store) *TimerRepository {
	return &TimerRepository{store: store}
}

func (r *TimerRepository) Get(ctx context.Context) ([]model.Timer, error) {
	timers := []model.Timer{}
	if _, err := r.store.ReadJSON(KeyTimers, &timers); err != nil {
		return []model.Timer{}, err
	}
	if timers == nil {
		timers = []model.Timer{}
	}
	return timers, nil
}

func (r *TimerRepository) Save(ctx context.Context, timers []model.Timer) error {
	if timers == nil {
		timers = []model.Timer{}
	}
	return r.store.WriteJSON(KeyTimers, timers)
}
