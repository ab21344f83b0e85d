package cli

import (
	"github.com/spf13/cobra"
)

func addDevices(topLevel *cobra.Command, r *runner) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "devices",
		Short: "List the bridge's devices and their learned commands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			entries, err := app.Catalog.List(cmd.Context())
			if err != nil {
				return err
			}
			printTable(devicesTable(entries))
			return nil
		},
	})
}
