package ports

import (
	"context"

	"hifi-remote/internal/domain/model"
)

type ConnectionRepository interface {
	Get(ctx context.Context) (model.Connection, error)
	Save(ctx context.Context, conn model.Connection) error
}

// LayoutRepository returns ok=false when nothing is persisted, after trying
// the legacy schema.
type LayoutRepository interface {
	Get(ctx context.Context) (layout model.RemoteLayout, ok bool, err error)
	Save(ctx context.Context, layout model.RemoteLayout) error
}

type TimerRepository interface {
	Get(ctx context.Context) ([]model.Timer, error)
	Save(ctx context.Context, timers []model.Timer) error
}
