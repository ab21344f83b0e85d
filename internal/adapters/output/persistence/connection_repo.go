package persistence

import (
	"context"

	"hifi-remote/internal/domain/model"
)

type ConnectionRepository struct {
	store *Store
}

func NewConnectionRepository(store *Store) *ConnectionRepository {
	return &ConnectionRepository{store: store}
}

// Get returns the zero Connection when nothing has been saved yet.
func (r *ConnectionRepository) Get(ctx context.Context) (model.Connection, error) {
	var conn model.Connection
	if _, err := r.store.ReadJSON(KeyConnection, &conn); err != nil {
		return model.Connection{}, err
	}
	return conn, nil
}

func (r *ConnectionRepository) Save(ctx context.Context, conn model.Connection) error {
	return r.store.WriteJSON(KeyConnection, conn)
}
