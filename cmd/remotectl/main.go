package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"hifi-remote/internal/adapters/input/cli"
	"hifi-remote/internal/adapters/output/deviceapi"
	"hifi-remote/internal/adapters/output/mqtt"
	"hifi-remote/internal/adapters/output/persistence"
	"hifi-remote/internal/config"
	"hifi-remote/internal/domain/model"
	"hifi-remote/internal/domain/service"
)

func main() {
	if err := cli.New(build).Execute(); err != nil {
		log.Fatalf("remotectl: %v", err)
	}
}

func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*cli.App, error) {
	// Persistence
	store, err := persistence.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	api := deviceapi.NewClient(cfg.HTTP.DeviceTimeout)

	connection := service.NewConnectionService(persistence.NewConnectionRepository(store), api, logger)
	conn, err := connection.Load(ctx)
	if err != nil {
		return nil, err
	}
	// Seed from env vars on first run only
	if !conn.Configured() {
		if url := os.Getenv("REMOTECTL_DEVICE_URL"); url != "" {
			key := os.Getenv("REMOTECTL_DEVICE_API_KEY")
			if _, err := connection.Update(ctx, model.ConnectionPatch{BaseURL: &url, APIKey: &key}); err != nil {
				return nil, fmt.Errorf("seeding connection from environment: %w", err)
			}
		}
	}

	layout := service.NewLayoutSync(persistence.NewLayoutRepository(store), api, logger, cfg.Sync.Debounce)
	layout.Load(ctx)

	timers := service.NewTimerCache(persistence.NewTimerRepository(store), api, logger, cfg.Timers.PollInterval)
	timers.Load(ctx)

	notifiers := cli.Notifiers{cli.NewConsoleNotifier(nil)}
	var closers []func()

	if cfg.MQTT.Enabled() {
		client, err := mqtt.Connect(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Prefix:   cfg.MQTT.TopicPrefix,
		}, logger)
		if err != nil {
			// the panel works without a broker
			logger.Warn("mqtt disabled", "error", err)
		} else {
			publisher := mqtt.NewPublisher(client, cfg.MQTT.TopicPrefix, logger)
			layout.SetPublisher(publisher)
			timers.SetPublisher(publisher)
			notifiers = append(notifiers, publisher)
			closers = append(closers, func() { client.Disconnect(250) })
		}
	}

	app := &cli.App{
		Config:     cfg,
		Logger:     logger,
		Connection: connection,
		Layout:     layout,
		Timers:     timers,
		Dispatcher: service.NewDispatcher(api, notifiers, logger, cfg.Dispatch.HoldInterval),
		Catalog:    service.NewCatalog(api, logger),
	}
	for _, fn := range closers {
		app.OnClose(fn)
	}
	return app, nil
}
