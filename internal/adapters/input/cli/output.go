package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"hifi-remote/internal/domain/model"
	"hifi-remote/internal/domain/service"
)

var (
	bold  = color.New(color.Bold)
	faint = color.New(color.Faint)
	green = color.New(color.FgGreen)
)

func newTable(headers ...interface{}) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = bold.Sprint(h)
	}
	tbl.AddRow(cells...)
	return tbl
}

func printTable(tbl *uitable.Table) {
	_, _ = fmt.Fprintln(color.Output, tbl)
}

func layoutTable(l model.RemoteLayout) *uitable.Table {
	tbl := newTable("#", "ID", "TYPE", "TITLE", "CONTENT")
	for i, s := range l.Sections {
		h := s.Header()
		title := h.Title
		if h.Collapsed {
			title += faint.Sprint(" (collapsed)")
		}
		tbl.AddRow(i, h.ID, s.Kind(), title, sectionSummary(s))
	}
	return tbl
}

func sectionSummary(s model.Section) string {
	switch v := s.(type) {
	case *model.GridSection:
		return fmt.Sprintf("%dx%d, %s", v.Layout.Rows, v.Layout.Cols, bindings(buttonBindings(v.Buttons)))
	case *model.AmpSection:
		quick := make([]model.Binding, len(v.Quick))
		for i, q := range v.Quick {
			quick[i] = q.Binding()
		}
		return fmt.Sprintf("quick %s; grid %s", bindings(quick), bindings(buttonBindings(v.Grid)))
	case *model.CdSection:
		return bindings(buttonBindings(v.Buttons))
	}
	return ""
}

func buttonBindings(buttons []model.ButtonConfig) []model.Binding {
	out := make([]model.Binding, len(buttons))
	for i, b := range buttons {
		out[i] = b.Binding()
	}
	return out
}

func bindings(bs []model.Binding) string {
	parts := make([]string, len(bs))
	for i, b := range bs {
		if b.IsPlaceholder() {
			parts[i] = "-"
			continue
		}
		parts[i] = b.Device + ":" + b.Command
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func timersTable(timers []model.Timer, now time.Time) *uitable.Table {
	tbl := newTable("ID", "TYPE", "LABEL", "TRIGGER", "IN", "ACTIONS")
	for _, t := range timers {
		actions := make([]string, len(t.Actions))
		for i, a := range t.Actions {
			actions[i] = a.Device + ":" + a.Action
		}
		tbl.AddRow(t.ID, t.Type, t.Label, t.TriggerTime, t.Remaining(now).Round(time.Second), strings.Join(actions, ", "))
	}
	return tbl
}

func devicesTable(entries []service.CatalogEntry) *uitable.Table {
	tbl := newTable("DEVICE", "PROTOCOL", "COMMANDS")
	tbl.Wrap = true
	for _, e := range entries {
		tbl.AddRow(e.Name, e.Protocol, strings.Join(e.Commands, " "))
	}
	return tbl
}
