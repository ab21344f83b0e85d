package service

import (
	"fmt"
	"strings"

	"hifi-remote/internal/domain/model"
)

type ControlSideName string

const (
	SideLeft  ControlSideName = "left"
	SideRight ControlSideName = "right"
)

func sectionAs[T model.Section](l model.RemoteLayout, id string) (T, error) {
	var zero T
	s, ok := l.Find(id)
	if !ok {
		return zero, fmt.Errorf("%w: %s", model.ErrSectionNotFound, id)
	}
	typed, ok := s.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %s", model.ErrSectionType, id, s.Kind())
	}
	return typed, nil
}

func AddSection(s model.Section) LayoutEdit {
	return func(l model.RemoteLayout) (model.RemoteLayout, error) {
		l.Sections = append(l.Sections, s)
		return l, nil
	}
}

func AddGridSection(rows, cols int) LayoutEdit {
	return AddSection(model.NewGridSection(rows, cols))
}

func AddAmpSection() LayoutEdit { return AddSection(model.NewAmpSection()) }

func AddCdSection() LayoutEdit { return AddSection(model.NewCdSection()) }

// ReplaceLayout swaps in a whole layout, e.g. from an imported file.
func ReplaceLayout(next model.RemoteLayout) LayoutEdit {
	return func(model.RemoteLayout) (model.RemoteLayout, error) {
		return next.Clone(), nil
	}
}

// RenameSection ignores blank titles.
func RenameSection(id, title string) LayoutEdit {
	return func(l model.RemoteLayout) (model.RemoteLayout, error) {
		s, ok := l.Find(id)
		if !ok {
			return l, fmt.Errorf("%w: %s", model.ErrSectionNotFound, id)
		}
		if strings.TrimSpace(title) != "" {
			s.Header().Title = title
		}
		return l, nil
	}
}

func DeleteSection(id string) LayoutEdit {
	return func(l model.RemoteLayout) (model.RemoteLayout, error) {
		i := l.Index(id)
		if i < 0 {
			return l, fmt.Errorf("%w: %s", model.ErrSectionNotFound, id)
		}
		l.Sections = append(l.Sections[:i], l.Sections[i+1:]...)
		return l, nil
	}
}

func ToggleCollapsed(id string) LayoutEdit {
	return func(l model.RemoteLayout) (model.RemoteLayout, error) {
		s, ok := l.Find(id)
		if !ok {
			return l, fmt.Errorf("%w: %s", model.ErrSectionNotFound, id)
		}
		s.Header().Collapsed = !s.Header().Collapsed
		return l, nil
	}
}

// MoveSection moves a section to position to, clamped to the valid range.
func MoveSection(id string, to int) LayoutEdit {
	return func(l model.RemoteLayout) (model.RemoteLayout, error) {
		from := l.Index(id)
		if from < 0 {
			return l, fmt.Errorf("%w: %s", model.ErrSectionNotFound, id)
		}
		s := l.Sections[from]
		rest := append(l.Sections[:from:from], l.Sections[from+1:]...)
		to = max(0, min(to, len(rest)))
		out := make([]model.Section, 0, len(l.Sections))
		out = append(out, rest[:to]...)
		out = append(out, s)
		out = append(out, rest[to:]...)
		l.Sections = out
		return l, nil
	}
}

// CycleGridPreset switches a grid to the next preset, dropping buttons that
// no longer fit.
func CycleGridPreset(id string) LayoutEdit {
	return func(l model.RemoteLayout) (model.RemoteLayout, error) {
		g, err := sectionAs[*model.GridSection](l, id)
		if err != nil {
			return l, err
		}
		g.Layout = model.NextPreset(g.Layout)
		if n := g.Layout.Capacity(); len(g.Buttons) > n {
			g.Buttons = g.Buttons[:n]
		}
		return l, nil
	}
}

// SetGridButton writes a button into a grid slot, padding earlier empty slots
// with placeholders. A button without device or command resets the slot to a
// placeholder.
func SetGridButton(id string, slot int, btn model.ButtonConfig) LayoutEdit {
	return func(l model.RemoteLayout) (model.RemoteLayout, error) {
		g, err := sectionAs[*model.GridSection](l, id)
		if err != nil {
			return l, err
		}
		if slot < 0 || slot >= g.Layout.Capacity() {
			return l, fmt.Errorf("%w: %d", model.ErrSlotOutOfRange, slot)
		}
		for len(g.Buttons) <= slot {
			g.Buttons = append(g.Buttons, model.ButtonConfig{ID: model.NewID()})
		}
		g.Buttons[slot] = editButton(g.Buttons[slot], btn)
		return l, nil
	}
}

func SetAmpGridButton(id string, slot int, btn model.ButtonConfig) LayoutEdit {
	return func(l model.RemoteLayout) (model.RemoteLayout, error) {
		a, err := sectionAs[*model.AmpSection](l, id)
		if err != nil {
			return l, err
		}
		if slot < 0 || slot >= len(a.Grid) {
			return l, fmt.Errorf("%w: %d", model.ErrSlotOutOfRange, slot)
		}
		a.Grid[slot] = editButton(a.Grid[slot], btn)
		return l, nil
	}
}

// ResizeAmpGrid sets the number of amp grid buttons, clamped to 3..9.
func ResizeAmpGrid(id string, count int) LayoutEdit {
	return func(l model.RemoteLayout) (model.RemoteLayout, error) {
		a, err := sectionAs[*model.AmpSection](l, id)
		if err != nil {
			return l, err
		}
		count = max(model.MinAmpGrid, min(model.MaxAmpGrid, count))
		for len(a.Grid) < count {
			a.Grid = append(a.Grid, model.ButtonConfig{ID: model.NewID(), Title: fmt.Sprintf("Button %d", len(a.Grid)+1)})
		}
		a.Grid = a.Grid[:count]
		return l, nil
	}
}

// SetAmpQuick writes quick button slot (0-2). An empty binding removes the slot.
func SetAmpQuick(id string, slot int, q model.QuickButton) LayoutEdit {
	return func(l model.RemoteLayout) (model.RemoteLayout, error) {
		a, err := sectionAs[*model.AmpSection](l, id)
		if err != nil {
			return l, err
		}
		if slot < 0 || slot >= model.MaxQuickButtons {
			return l, fmt.Errorf("%w: %d", model.ErrSlotOutOfRange, slot)
		}
		if q.Binding().IsPlaceholder() {
			if slot < len(a.Quick) {
				a.Quick = append(a.Quick[:slot], a.Quick[slot+1:]...)
			}
			return l, nil
		}
		if slot >= len(a.Quick) {
			a.Quick = append(a.Quick, q)
		} else {
			a.Quick[slot] = q
		}
		return l, nil
	}
}

// SetAmpControlSide rebinds one side of a control pair. Repeat is kept unless
// repeat is non-nil.
func SetAmpControlSide(id string, pair int, side ControlSideName, edit model.ControlSide, repeat *bool) LayoutEdit {
	return func(l model.RemoteLayout) (model.RemoteLayout, error) {
		a, err := sectionAs[*model.AmpSection](l, id)
		if err != nil {
			return l, err
		}
		if pair < 0 || pair >= len(a.Controls) {
			return l, fmt.Errorf("%w: %d", model.ErrSlotOutOfRange, pair)
		}
		var target *model.ControlSide
		switch side {
		case SideLeft:
			target = &a.Controls[pair].Left
		case SideRight:
			target = &a.Controls[pair].Right
		default:
			return l, fmt.Errorf("unknown control side %q", side)
		}
		keep := target.Repeat
		*target = edit
		target.Repeat = keep
		if repeat != nil {
			target.Repeat = *repeat
		}
		return l, nil
	}
}

func SetAmpControlLabel(id string, pair int, label string) LayoutEdit {
	return func(l model.RemoteLayout) (model.RemoteLayout, error) {
		a, err := sectionAs[*model.AmpSection](l, id)
		if err != nil {
			return l, err
		}
		if pair < 0 || pair >= len(a.Controls) {
			return l, fmt.Errorf("%w: %d", model.ErrSlotOutOfRange, pair)
		}
		a.Controls[pair].Label = label
		return l, nil
	}
}

// SetCdButton writes or appends a CD transport button. An empty binding
// removes the slot.
func SetCdButton(id string, slot int, btn model.CdButton) LayoutEdit {
	return func(l model.RemoteLayout) (model.RemoteLayout, error) {
		c, err := sectionAs[*model.CdSection](l, id)
		if err != nil {
			return l, err
		}
		if slot < 0 {
			return l, fmt.Errorf("%w: %d", model.ErrSlotOutOfRange, slot)
		}
		if btn.Binding().IsPlaceholder() {
			if slot < len(c.Buttons) {
				c.Buttons = append(c.Buttons[:slot], c.Buttons[slot+1:]...)
			}
			return l, nil
		}
		if slot >= len(c.Buttons) {
			btn.ID = model.NewID()
			c.Buttons = append(c.Buttons, btn)
			return l, nil
		}
		c.Buttons[slot] = editButton(c.Buttons[slot], btn)
		return l, nil
	}
}

// editButton keeps the slot id; an unbound edit leaves an empty placeholder.
func editButton(curr, next model.ButtonConfig) model.ButtonConfig {
	id := curr.ID
	if id == "" {
		id = model.NewID()
	}
	if next.Binding().IsPlaceholder() {
		return model.ButtonConfig{ID: id}
	}
	next.ID = id
	return next
}
