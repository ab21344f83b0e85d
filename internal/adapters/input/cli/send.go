package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hifi-remote/internal/domain/model"
	"hifi-remote/internal/domain/service"
)

func addSend(topLevel *cobra.Command, r *runner) {
	var (
		repetitions int
		queued      bool
		hold        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "send <device> <command>...",
		Short: "Send one or more IR commands through the bridge",
		Example: `
remotectl send MyAmp MUTE
remotectl send MyAmp VOL_UP --hold 2s
remotectl send TV POWER HDMI1 --queued
`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			b := model.Binding{
				Device:      args[0],
				Command:     strings.Join(args[1:], ","),
				Repetitions: repetitions,
			}
			opts := service.PressOptions{Queued: queued}

			if hold <= 0 {
				outcome := app.Dispatcher.Press(cmd.Context(), b, opts)
				if outcome != service.OutcomeSent {
					return fmt.Errorf("command %s", outcome)
				}
				_, _ = fmt.Fprintln(color.Output, green.Sprint("Sent."))
				return nil
			}

			h := app.Dispatcher.Hold(cmd.Context(), b, opts)
			select {
			case <-time.After(hold):
			case <-cmd.Context().Done():
			}
			h.Release()
			h.Wait()
			if h.Fired() == 0 {
				return errors.New("command not sent")
			}
			_, _ = fmt.Fprintf(color.Output, "%s %d times.\n", green.Sprint("Sent"), h.Fired())
			return nil
		},
	}
	cmd.Flags().IntVarP(&repetitions, "repetitions", "n", 1, "repeat count handled by the bridge")
	cmd.Flags().BoolVar(&queued, "queued", false, "let the bridge queue the command instead of the fast path")
	cmd.Flags().DurationVar(&hold, "hold", 0, "keep repeating for this long, like holding the button")
	topLevel.AddCommand(cmd)
}
