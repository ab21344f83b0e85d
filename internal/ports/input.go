package ports

import (
	"context"

	"hifi-remote/internal/domain/model"
)

// LayoutPort is what input adapters need from the layout store.
type LayoutPort interface {
	Snapshot() model.RemoteLayout
	Mutate(fn func(model.RemoteLayout) (model.RemoteLayout, error)) error
	Pull(ctx context.Context)
	Upload(ctx context.Context) error
	Download(ctx context.Context) (bool, error)
}

type TimerPort interface {
	Snapshot() []model.Timer
	Refresh(ctx context.Context) error
	Create(ctx context.Context, req model.CreateTimerRequest) (bool, error)
	Test(ctx context.Context, req model.CreateTimerRequest) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type ConnectionPort interface {
	Get() model.Connection
	Update(ctx context.Context, patch model.ConnectionPatch) (model.Connection, error)
	Test(ctx context.Context) (*model.Health, error)
}
