package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hifi-remote/internal/domain/model"
)

func addConnection(topLevel *cobra.Command, r *runner) {
	cmd := &cobra.Command{
		Use:     "connection",
		Aliases: []string{"conn"},
		Short:   "Show or change the bridge device connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the saved connection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			printConnection(app.Connection.Get())
			return nil
		},
	})

	var url, apiKey string
	set := &cobra.Command{
		Use:   "set",
		Short: "Save the device base URL and API key",
		Example: `
remotectl connection set --url http://192.168.1.50 --api-key s3cret
remotectl connection set --url ""
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			var patch model.ConnectionPatch
			if cmd.Flags().Changed("url") {
				patch.BaseURL = &url
			}
			if cmd.Flags().Changed("api-key") {
				patch.APIKey = &apiKey
			}
			if patch.BaseURL == nil && patch.APIKey == nil {
				return fmt.Errorf("nothing to change: pass --url and/or --api-key")
			}
			conn, err := app.Connection.Update(cmd.Context(), patch)
			if err != nil {
				return err
			}
			printConnection(conn)
			return nil
		},
	}
	set.Flags().StringVar(&url, "url", "", "device base URL, empty disables remote operations")
	set.Flags().StringVar(&apiKey, "api-key", "", "sent as X-API-Key")
	cmd.AddCommand(set)

	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Probe /health on the device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			h, err := app.Connection.Test(cmd.Context())
			if err != nil {
				return err
			}
			ip := h.WiFi.IP
			if ip == "" {
				ip = "unknown"
			}
			_, _ = fmt.Fprintf(color.Output, "%s wifi connected=%t ip=%s\n", green.Sprint("Connected."), h.WiFi.Connected, ip)
			return nil
		},
	})

	topLevel.AddCommand(cmd)
}

func printConnection(conn model.Connection) {
	key := "(none)"
	if conn.APIKey != "" {
		key = strings.Repeat("*", min(len(conn.APIKey), 8))
	}
	url := conn.BaseURL
	if !conn.Configured() {
		url = faint.Sprint("(not set)")
	}
	tbl := newTable("BASE URL", "API KEY", "CONFIGURED")
	tbl.AddRow(url, key, conn.Configured())
	printTable(tbl)
}
