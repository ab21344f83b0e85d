package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpapi "hifi-remote/internal/adapters/input/http"
	"hifi-remote/internal/domain/model"
)

func addServe(topLevel *cobra.Command, r *runner) {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local control API with layout sync and timer polling",
		Example: `
remotectl serve --addr :8088
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = app.Config.HTTP.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app.Layout.Start(ctx)
			go app.Layout.Pull(ctx)
			app.Timers.Poll(ctx)

			// request contexts end with the request, the loops must not
			app.Connection.OnChange(func(_ context.Context, conn model.Connection) {
				if conn.Configured() {
					go app.Layout.Pull(ctx)
				}
				app.Timers.Poll(ctx)
			})

			server := httpapi.NewServer(ctx, app.Layout, app.Timers, app.Connection, app.Dispatcher, app.Catalog, app.Logger)
			app.Logger.Info("control api listening", "addr", addr, "device_configured", app.Connection.Get().Configured())
			return server.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from http.addr)")
	topLevel.AddCommand(cmd)
}
