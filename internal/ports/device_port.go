package ports

import (
	"context"
	"encoding/json"

	"hifi-remote/internal/domain/model"
)

// DeviceAPIPort is the HTTP surface of the bridge device. Implementations do
// not retry or cache: every call returns parsed JSON or an error.
type DeviceAPIPort interface {
	Configure(conn model.Connection)
	IsConfigured() bool

	Health(ctx context.Context) (*model.Health, error)
	Info(ctx context.Context) (json.RawMessage, error)
	Devices(ctx context.Context) (model.DevicesResponse, error)
	Device(ctx context.Context, name string) (*model.Device, error)
	Send(ctx context.Context, req model.SendRequest) (json.RawMessage, error)

	GetUIConfig(ctx context.Context) (json.RawMessage, error)
	PutUIConfig(ctx context.Context, body []byte) (json.RawMessage, error)

	Timers(ctx context.Context) ([]model.Timer, error)
	CreateTimer(ctx context.Context, req model.CreateTimerRequest) (bool, error)
	TestTimer(ctx context.Context, req model.CreateTimerRequest) (bool, error)
	// DeleteTimer returns false, nil when the device answers 404.
	DeleteTimer(ctx context.Context, id string) (bool, error)
}
