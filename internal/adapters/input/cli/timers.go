package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hifi-remote/internal/domain/model"
)

func addTimers(topLevel *cobra.Command, r *runner) {
	cmd := &cobra.Command{
		Use:   "timers",
		Short: "List, create and delete bridge timers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var refresh bool
	list := &cobra.Command{
		Use:   "list",
		Short: "Show the cached timers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			if refresh && app.Connection.Get().Configured() {
				if err := app.Timers.Refresh(cmd.Context()); err != nil {
					return err
				}
			}
			printTable(timersTable(app.Timers.Snapshot(), time.Now()))
			return nil
		},
	}
	list.Flags().BoolVar(&refresh, "refresh", true, "fetch from the bridge before printing when a connection is set")
	cmd.AddCommand(list)

	cmd.AddCommand(
		timerRequestCommand(r, "create", "Schedule a timer", false),
		timerRequestCommand(r, "test", "Run a timer's actions now without scheduling it", true),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a timer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			ok, err := app.Timers.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				_, _ = fmt.Fprintln(color.Output, faint.Sprintf("No timer %s on the bridge.", args[0]))
				return nil
			}
			printTable(timersTable(app.Timers.Snapshot(), time.Now()))
			return nil
		},
	})

	topLevel.AddCommand(cmd)
}

func timerRequestCommand(r *runner, use, short string, test bool) *cobra.Command {
	var (
		label   string
		typ     string
		delay   int
		actions []string
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Example: fmt.Sprintf(`
remotectl timers %s --label Sleep --type sleep --delay 30 --action MyAmp:POWER_OFF
remotectl timers %s --type wakeup --delay 480 --action MyAmp:POWER_ON --action MyAmp:VOL_UP:5:200
`, use, use),
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			req := model.CreateTimerRequest{Label: label, Type: model.TimerType(typ), DelayMinutes: delay}
			for _, a := range actions {
				action, err := parseTimerAction(a)
				if err != nil {
					return err
				}
				req.Actions = append(req.Actions, action)
			}

			if test {
				ok, err := app.Timers.Test(cmd.Context(), req)
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("bridge rejected the test run")
				}
				_, _ = fmt.Fprintln(color.Output, green.Sprint("Test run started."))
				return nil
			}

			ok, err := app.Timers.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("bridge rejected the timer")
			}
			printTable(timersTable(app.Timers.Snapshot(), time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "timer label")
	cmd.Flags().StringVar(&typ, "type", string(model.TimerTypeGeneric), "sleep, wakeup or generic")
	cmd.Flags().IntVar(&delay, "delay", 0, "minutes until the timer fires")
	cmd.Flags().StringArrayVar(&actions, "action", nil, "device:ACTION[:repetitions[:delay_ms]], repeatable")
	return cmd
}

// parseTimerAction reads device:ACTION[:repetitions[:delay_ms]].
func parseTimerAction(s string) (model.TimerAction, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 4 || parts[0] == "" || parts[1] == "" {
		return model.TimerAction{}, fmt.Errorf("invalid action %q: want device:ACTION[:repetitions[:delay_ms]]", s)
	}
	a := model.TimerAction{Device: parts[0], Action: parts[1]}
	if len(parts) > 2 {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 0 {
			return model.TimerAction{}, fmt.Errorf("invalid repetitions in action %q", s)
		}
		a.Repetitions = n
	}
	if len(parts) > 3 {
		n, err := strconv.Atoi(parts[3])
		if err != nil || n < 0 {
			return model.TimerAction{}, fmt.Errorf("invalid delay in action %q", s)
		}
		a.DelayMs = n
	}
	return a, nil
}
