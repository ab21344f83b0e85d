package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hifi-remote/internal/domain/model"
	"hifi-remote/internal/domain/service"
)

func addLayout(topLevel *cobra.Command, r *runner) {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Inspect, edit and sync the remote layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "List the sections of the local layout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			printTable(layoutTable(app.Layout.Snapshot()))
			return nil
		},
	})

	addLayoutTransfer(cmd, r)
	addLayoutEdits(cmd, r)
	topLevel.AddCommand(cmd)
}

func addLayoutTransfer(parent *cobra.Command, r *runner) {
	var format, output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the layout as JSON or YAML",
		Example: `
remotectl layout export -o panel.yaml
remotectl layout export --format json
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			f, err := parseFormat(format, output)
			if err != nil {
				return err
			}
			data, err := encodeLayout(app.Layout.Snapshot(), f)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	export.Flags().StringVar(&format, "format", "", "json or yaml (default from the file extension, else json)")
	export.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")
	parent.AddCommand(export)

	var importFormat string
	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the layout with one read from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			f, err := parseFormat(importFormat, args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			l, err := decodeLayout(data, f)
			if err != nil {
				return err
			}
			return mutateAndShow(app, service.ReplaceLayout(l))
		},
	}
	imp.Flags().StringVar(&importFormat, "format", "", "json or yaml (default from the file extension)")
	parent.AddCommand(imp)

	parent.AddCommand(&cobra.Command{
		Use:   "push",
		Short: "Upload the local layout to the device now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			if err := app.Layout.Upload(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(color.Output, green.Sprint("Layout uploaded."))
			return nil
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:   "pull",
		Short: "Replace the local layout with the device's copy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			found, err := app.Layout.Download(cmd.Context())
			if err != nil {
				return err
			}
			if !found {
				_, _ = fmt.Fprintln(color.Output, faint.Sprint("The device holds no layout; local layout kept."))
				return nil
			}
			printTable(layoutTable(app.Layout.Snapshot()))
			return nil
		},
	})
}

func addLayoutEdits(parent *cobra.Command, r *runner) {
	edit := func(use, short string, args cobra.PositionalArgs, build func(args []string) (service.LayoutEdit, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := r.mustApp()
				if err != nil {
					return err
				}
				e, err := build(args)
				if err != nil {
					return err
				}
				pullBeforeEdit(cmd.Context(), app)
				return mutateAndShow(app, e)
			},
		}
	}

	var rows, cols int
	add := edit("add <grid|amp|cd>", "Append a section", cobra.ExactArgs(1), func(args []string) (service.LayoutEdit, error) {
		switch model.SectionType(args[0]) {
		case model.SectionTypeGrid:
			return service.AddGridSection(rows, cols), nil
		case model.SectionTypeAmp:
			return service.AddAmpSection(), nil
		case model.SectionTypeCd:
			return service.AddCdSection(), nil
		}
		return nil, fmt.Errorf("%w %q", model.ErrUnknownSectionType, args[0])
	})
	add.Flags().IntVar(&rows, "rows", model.DefaultGridRows, "grid rows")
	add.Flags().IntVar(&cols, "cols", model.DefaultGridCols, "grid columns")
	parent.AddCommand(add)

	parent.AddCommand(
		edit("rename <section> <title>", "Rename a section", cobra.ExactArgs(2), func(args []string) (service.LayoutEdit, error) {
			return service.RenameSection(args[0], args[1]), nil
		}),
		edit("delete <section>", "Delete a section", cobra.ExactArgs(1), func(args []string) (service.LayoutEdit, error) {
			return service.DeleteSection(args[0]), nil
		}),
		edit("toggle <section>", "Collapse or expand a section", cobra.ExactArgs(1), func(args []string) (service.LayoutEdit, error) {
			return service.ToggleCollapsed(args[0]), nil
		}),
		edit("move <section> <position>", "Move a section to a position", cobra.ExactArgs(2), func(args []string) (service.LayoutEdit, error) {
			pos, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, fmt.Errorf("invalid position %q", args[1])
			}
			return service.MoveSection(args[0], pos), nil
		}),
		edit("preset <section>", "Cycle a grid through 1x3, 2x2, 2x3 and 3x3", cobra.ExactArgs(1), func(args []string) (service.LayoutEdit, error) {
			return service.CycleGridPreset(args[0]), nil
		}),
		edit("grid-size <section> <count>", "Set the number of amp source buttons (3-9)", cobra.ExactArgs(2), func(args []string) (service.LayoutEdit, error) {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, fmt.Errorf("invalid count %q", args[1])
			}
			return service.ResizeAmpGrid(args[0], n), nil
		}),
		edit("control-label <section> <pair> <label>", "Set the label of an amp control pair", cobra.ExactArgs(3), func(args []string) (service.LayoutEdit, error) {
			pair, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, fmt.Errorf("invalid pair %q", args[1])
			}
			return service.SetAmpControlLabel(args[0], pair, args[2]), nil
		}),
	)

	parent.AddCommand(buttonCommand(r), quickCommand(r), controlCommand(r))
}

type bindingFlags struct {
	title, icon, device, command string
	repetitions                  int
}

func (b *bindingFlags) register(cmd *cobra.Command, withTitle bool) {
	if withTitle {
		cmd.Flags().StringVar(&b.title, "title", "", "button caption")
	}
	cmd.Flags().StringVar(&b.icon, "icon", "", "icon name")
	cmd.Flags().StringVar(&b.device, "device", "", "device name; leave empty to clear the slot")
	cmd.Flags().StringVar(&b.command, "command", "", "command, or several joined with commas")
	cmd.Flags().IntVar(&b.repetitions, "repetitions", 0, "repeat count sent with the command")
}

func buttonCommand(r *runner) *cobra.Command {
	var b bindingFlags
	cmd := &cobra.Command{
		Use:   "button <section> <slot>",
		Short: "Bind a grid, amp source or CD button",
		Example: `
remotectl layout button 3fa9c2d1 0 --title TV --device Samsung --command POWER
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			slot, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid slot %q", args[1])
			}
			btn := model.ButtonConfig{Title: b.title, Icon: b.icon, Device: b.device, Command: b.command, Repetitions: b.repetitions}
			pullBeforeEdit(cmd.Context(), app)
			sec, found := app.Layout.Snapshot().Find(args[0])
			if !found {
				return fmt.Errorf("%w: %s", model.ErrSectionNotFound, args[0])
			}
			var e service.LayoutEdit
			switch sec.Kind() {
			case model.SectionTypeAmp:
				e = service.SetAmpGridButton(args[0], slot, btn)
			case model.SectionTypeCd:
				e = service.SetCdButton(args[0], slot, btn)
			default:
				e = service.SetGridButton(args[0], slot, btn)
			}
			return mutateAndShow(app, e)
		},
	}
	b.register(cmd, true)
	return cmd
}

func quickCommand(r *runner) *cobra.Command {
	var b bindingFlags
	cmd := &cobra.Command{
		Use:   "quick <section> <slot>",
		Short: "Bind one of the three amp quick buttons",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			slot, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid slot %q", args[1])
			}
			q := model.QuickButton{Icon: b.icon, Device: b.device, Command: b.command, Repetitions: b.repetitions}
			pullBeforeEdit(cmd.Context(), app)
			return mutateAndShow(app, service.SetAmpQuick(args[0], slot, q))
		},
	}
	b.register(cmd, false)
	return cmd
}

func controlCommand(r *runner) *cobra.Command {
	var (
		b      bindingFlags
		repeat bool
	)
	cmd := &cobra.Command{
		Use:   "control <section> <pair> <left|right>",
		Short: "Bind one side of an amp control pair",
		Example: `
remotectl layout control 3fa9c2d1 1 right --device MyAmp --command VOL_UP --repeat
`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.mustApp()
			if err != nil {
				return err
			}
			pair, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid pair %q", args[1])
			}
			var rep *bool
			if cmd.Flags().Changed("repeat") {
				rep = &repeat
			}
			side := model.ControlSide{Icon: b.icon, Device: b.device, Command: b.command, Repetitions: b.repetitions}
			pullBeforeEdit(cmd.Context(), app)
			return mutateAndShow(app, service.SetAmpControlSide(args[0], pair, service.ControlSideName(args[2]), side, rep))
		},
	}
	b.register(cmd, false)
	cmd.Flags().BoolVar(&repeat, "repeat", false, "repeat while held")
	return cmd
}

// pullBeforeEdit applies a one-shot edit on top of the device's current copy.
// Without a connection, or with the device down, the local layout is kept.
func pullBeforeEdit(ctx context.Context, app *App) {
	app.Layout.Pull(ctx)
}

func mutateAndShow(app *App, e service.LayoutEdit) error {
	if err := app.Layout.Mutate(e); err != nil {
		return err
	}
	printTable(layoutTable(app.Layout.Snapshot()))
	return nil
}
