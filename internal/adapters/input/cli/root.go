package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"hifi-remote/internal/config"
	"hifi-remote/internal/domain/service"
	"hifi-remote/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// App is the wired core a command runs against.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Connection *service.ConnectionService
	Layout     *service.LayoutSync
	Timers     *service.TimerCache
	Dispatcher *service.Dispatcher
	Catalog    *service.Catalog

	closers []func()
}

// OnClose registers fn to run, in reverse order, when the command finishes.
func (a *App) OnClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close sends a layout push still waiting in the debounce window, then stops
// the background tasks.
func (a *App) Close(ctx context.Context) error {
	err := a.Layout.Flush(ctx)
	a.Timers.Stop()
	a.Layout.Stop()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if err != nil {
		return fmt.Errorf("pushing pending layout change: %w", err)
	}
	return nil
}

// BuildFunc wires an App from loaded settings.
type BuildFunc func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error)

type runner struct {
	build      BuildFunc
	configFile string
	logLevel   string
	app        *App
}

func New(build BuildFunc) *cobra.Command {
	r := &runner{build: build}

	cmd := &cobra.Command{
		Use:          "remotectl",
		Short:        "Edit, sync and drive a hifi remote panel backed by an IR bridge.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return r.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if r.app == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return r.app.Close(ctx)
		},
	}
	cmd.PersistentFlags().StringVar(&r.configFile, "config", "", "config file (default ./remotectl.yaml or ~/.config/remotectl/remotectl.yaml)")
	cmd.PersistentFlags().StringVar(&r.logLevel, "log-level", "", "debug, info, warn or error")

	addServe(cmd, r)
	addConnection(cmd, r)
	addLayout(cmd, r)
	addSend(cmd, r)
	addTimers(cmd, r)
	addDevices(cmd, r)
	return cmd
}

func (r *runner) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	v := config.New(r.configFile)
	if r.logLevel != "" {
		v.Set("log.level", r.logLevel)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	app, err := r.build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	r.app = app
	return nil
}

func (r *runner) mustApp() (*App, error) {
	if r.app == nil {
		return nil, errors.New("application not initialised")
	}
	return r.app, nil
}
