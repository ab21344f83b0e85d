package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hifi-remote/internal/domain/model"
)

func apply(t *testing.T, l model.RemoteLayout, edits ...LayoutEdit) model.RemoteLayout {
	t.Helper()
	for _, edit := range edits {
		var err error
		l, err = edit(l.Clone())
		require.NoError(t, err)
		l.Normalize()
	}
	return l
}

func TestEdits_AddRenameDelete(t *testing.T) {
	l := apply(t, model.RemoteLayout{}, AddGridSection(2, 2), AddAmpSection(), AddCdSection())
	require.Len(t, l.Sections, 3)
	assert.Equal(t, model.SectionTypeGrid, l.Sections[0].Kind())
	assert.Equal(t, model.SectionTypeAmp, l.Sections[1].Kind())
	assert.Equal(t, model.SectionTypeCd, l.Sections[2].Kind())

	id := l.Sections[0].Header().ID
	l = apply(t, l, RenameSection(id, "Living room"), RenameSection(id, "  "))
	assert.Equal(t, "Living room", l.Sections[0].Header().Title)

	l = apply(t, l, DeleteSection(id))
	require.Len(t, l.Sections, 2)
	assert.Equal(t, -1, l.Index(id))

	_, err := DeleteSection(id)(l)
	assert.ErrorIs(t, err, model.ErrSectionNotFound)
}

func TestEdits_ToggleCollapsedKeepsData(t *testing.T) {
	l := apply(t, model.RemoteLayout{}, AddCdSection())
	id := l.Sections[0].Header().ID

	l = apply(t, l, ToggleCollapsed(id))
	cd := l.Sections[0].(*model.CdSection)
	assert.True(t, cd.Collapsed)
	assert.Len(t, cd.Buttons, model.DefaultCdButtons)

	l = apply(t, l, ToggleCollapsed(id))
	assert.False(t, l.Sections[0].Header().Collapsed)
}

func TestEdits_MoveSection(t *testing.T) {
	l := apply(t, model.RemoteLayout{}, AddGridSection(1, 3), AddAmpSection(), AddCdSection())
	ids := []string{l.Sections[0].Header().ID, l.Sections[1].Header().ID, l.Sections[2].Header().ID}

	l = apply(t, l, MoveSection(ids[2], 0))
	assert.Equal(t, []string{ids[2], ids[0], ids[1]}, sectionIDs(l))

	l = apply(t, l, MoveSection(ids[2], 99))
	assert.Equal(t, []string{ids[0], ids[1], ids[2]}, sectionIDs(l))
}

func sectionIDs(l model.RemoteLayout) []string {
	out := make([]string, len(l.Sections))
	for i, s := range l.Sections {
		out[i] = s.Header().ID
	}
	return out
}

func TestEdits_GridButtonsAndPresets(t *testing.T) {
	l := apply(t, model.RemoteLayout{}, AddGridSection(3, 3))
	id := l.Sections[0].Header().ID

	btn := model.ButtonConfig{Title: "TV", Device: "Samsung", Command: "POWER", Repetitions: 2}
	l = apply(t, l, SetGridButton(id, 7, btn))
	g := l.Sections[0].(*model.GridSection)
	require.Len(t, g.Buttons, 8)
	assert.True(t, g.Buttons[0].Binding().IsPlaceholder())
	assert.NotEmpty(t, g.Buttons[0].ID)
	assert.Equal(t, "POWER", g.Buttons[7].Command)

	_, err := SetGridButton(id, 9, btn)(l)
	assert.ErrorIs(t, err, model.ErrSlotOutOfRange)

	slotID := g.Buttons[7].ID
	l = apply(t, l, SetGridButton(id, 7, model.ButtonConfig{Title: "cleared"}))
	g = l.Sections[0].(*model.GridSection)
	assert.Equal(t, slotID, g.Buttons[7].ID)
	assert.True(t, g.Buttons[7].Binding().IsPlaceholder())

	// 3x3 cycles to 1x3, dropping what no longer fits
	l = apply(t, l, CycleGridPreset(id))
	g = l.Sections[0].(*model.GridSection)
	assert.Equal(t, 1, g.Layout.Rows)
	assert.Equal(t, 3, g.Layout.Cols)
	assert.Len(t, g.Buttons, 3)
}

func TestEdits_WrongSectionType(t *testing.T) {
	l := apply(t, model.RemoteLayout{}, AddCdSection())
	_, err := CycleGridPreset(l.Sections[0].Header().ID)(l)
	assert.ErrorIs(t, err, model.ErrSectionType)
}

func TestEdits_AmpQuickButtons(t *testing.T) {
	l := apply(t, model.RemoteLayout{}, AddAmpSection())
	id := l.Sections[0].Header().ID
	q := func(cmd string) model.QuickButton {
		return model.QuickButton{Icon: "bolt", Device: "MyAmp", Command: cmd}
	}

	l = apply(t, l, SetAmpQuick(id, 0, q("MUTE")), SetAmpQuick(id, 1, q("LOUDNESS")), SetAmpQuick(id, 2, q("DIRECT")))
	a := l.Sections[0].(*model.AmpSection)
	require.Len(t, a.Quick, 3)

	_, err := SetAmpQuick(id, 3, q("EXTRA"))(l)
	assert.ErrorIs(t, err, model.ErrSlotOutOfRange)

	l = apply(t, l, SetAmpQuick(id, 1, model.QuickButton{}))
	a = l.Sections[0].(*model.AmpSection)
	require.Len(t, a.Quick, 2)
	assert.Equal(t, "DIRECT", a.Quick[1].Command)
}

func TestEdits_ResizeAmpGrid(t *testing.T) {
	l := apply(t, model.RemoteLayout{}, AddAmpSection())
	id := l.Sections[0].Header().ID

	l = apply(t, l, ResizeAmpGrid(id, 20))
	a := l.Sections[0].(*model.AmpSection)
	require.Len(t, a.Grid, model.MaxAmpGrid)
	assert.Equal(t, "Button 9", a.Grid[8].Title)

	l = apply(t, l, ResizeAmpGrid(id, 0))
	assert.Len(t, l.Sections[0].(*model.AmpSection).Grid, model.MinAmpGrid)

	l = apply(t, l, SetAmpGridButton(id, 1, model.ButtonConfig{Title: "CD", Device: "MyAmp", Command: "CD"}))
	assert.Equal(t, "CD", l.Sections[0].(*model.AmpSection).Grid[1].Command)
}

func TestEdits_AmpControls(t *testing.T) {
	l := apply(t, model.RemoteLayout{}, AddAmpSection())
	id := l.Sections[0].Header().ID

	l = apply(t, l,
		SetAmpControlSide(id, 1, SideRight, model.ControlSide{Icon: "plus", Device: "MyAmp", Command: "VOL_UP"}, nil),
		SetAmpControlLabel(id, 1, "vol"),
	)
	pair := l.Sections[0].(*model.AmpSection).Controls[1]
	assert.Equal(t, "VOL_UP", pair.Right.Command)
	assert.True(t, pair.Right.Repeat, "repeat flag is kept when not given")
	assert.Equal(t, "vol", pair.Label)

	off := false
	l = apply(t, l, SetAmpControlSide(id, 1, SideRight, pair.Right, &off))
	assert.False(t, l.Sections[0].(*model.AmpSection).Controls[1].Right.Repeat)

	_, err := SetAmpControlSide(id, 2, SideLeft, model.ControlSide{}, nil)(l)
	assert.ErrorIs(t, err, model.ErrSlotOutOfRange)
	_, err = SetAmpControlSide(id, 0, "middle", model.ControlSide{}, nil)(l)
	assert.Error(t, err)
}

func TestEdits_CdButtons(t *testing.T) {
	l := apply(t, model.RemoteLayout{}, AddCdSection())
	id := l.Sections[0].Header().ID

	l = apply(t, l, SetCdButton(id, 2, model.CdButton{Title: "Play", Icon: "play.fill", Device: "CD", Command: "PLAY"}))
	cd := l.Sections[0].(*model.CdSection)
	assert.Equal(t, "PLAY", cd.Buttons[2].Command)

	l = apply(t, l, SetCdButton(id, 10, model.CdButton{Title: "Eject", Device: "CD", Command: "EJECT"}))
	cd = l.Sections[0].(*model.CdSection)
	require.Len(t, cd.Buttons, model.DefaultCdButtons+1)
	assert.Equal(t, "EJECT", cd.Buttons[model.DefaultCdButtons].Command)

	l = apply(t, l, SetCdButton(id, 0, model.CdButton{}))
	assert.Len(t, l.Sections[0].(*model.CdSection).Buttons, model.DefaultCdButtons)
}

func TestEdits_ReplaceLayout(t *testing.T) {
	next := model.DefaultLayout()
	l := apply(t, model.RemoteLayout{}, AddCdSection(), ReplaceLayout(next))
	require.Len(t, l.Sections, 1)
	assert.Equal(t, next.Sections[0].Header().ID, l.Sections[0].Header().ID)
}
