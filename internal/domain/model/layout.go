package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type SectionType string

const (
	SectionTypeGrid SectionType = "grid"
	SectionTypeAmp  SectionType = "amp"
	SectionTypeCd   SectionType = "cd"
)

const (
	MaxQuickButtons  = 3
	MinAmpGrid       = 3
	MaxAmpGrid       = 9
	AmpControlPairs  = 2
	DefaultGridRows  = 2
	DefaultGridCols  = 3
	DefaultCdButtons = 6
)

// NewID returns a short random identifier for sections and buttons.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Binding is the logical command a control is bound to.
type Binding struct {
	Device      string
	Command     string
	Repetitions int
}

// IsPlaceholder reports whether the binding lacks a device or a command.
// Placeholders never dispatch.
func (b Binding) IsPlaceholder() bool {
	return b.Device == "" || b.Command == ""
}

// Commands splits a comma-joined command list.
func (b Binding) Commands() []string {
	parts := strings.Split(b.Command, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ButtonConfig is used by grid buttons, amp grid buttons and CD buttons.
type ButtonConfig struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Icon        string `json:"icon,omitempty"`
	Device      string `json:"device"`
	Command     string `json:"command"`
	Repetitions int    `json:"repetitions,omitempty"`
}

func (b ButtonConfig) Binding() Binding {
	return Binding{Device: b.Device, Command: b.Command, Repetitions: b.Repetitions}
}

type (
	AmpGridButton = ButtonConfig
	CdButton      = ButtonConfig
)

func placeholderButton(title string) ButtonConfig {
	return ButtonConfig{ID: NewID(), Title: title}
}

type QuickButton struct {
	Icon        string `json:"icon,omitempty"`
	Device      string `json:"device"`
	Command     string `json:"command"`
	Repetitions int    `json:"repetitions,omitempty"`
}

func (q QuickButton) Binding() Binding {
	return Binding{Device: q.Device, Command: q.Command, Repetitions: q.Repetitions}
}

type ControlSide struct {
	Icon        string `json:"icon,omitempty"`
	Device      string `json:"device"`
	Command     string `json:"command"`
	Repeat      bool   `json:"repeat,omitempty"`
	Repetitions int    `json:"repetitions,omitempty"`
}

func (c ControlSide) Binding() Binding {
	return Binding{Device: c.Device, Command: c.Command, Repetitions: c.Repetitions}
}

type ControlPair struct {
	Left  ControlSide `json:"left"`
	Label string      `json:"label"`
	Right ControlSide `json:"right"`
}

func defaultControlPair(i int) ControlPair {
	if i == 0 {
		return ControlPair{
			Left:  ControlSide{Icon: "chevron.left"},
			Label: "program",
			Right: ControlSide{Icon: "chevron.right"},
		}
	}
	return ControlPair{
		Left:  ControlSide{Icon: "minus", Repeat: true},
		Label: "volume",
		Right: ControlSide{Icon: "plus", Repeat: true},
	}
}

// SectionHeader holds the fields every section variant shares.
type SectionHeader struct {
	Type      SectionType `json:"type"`
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Collapsed bool        `json:"collapsed"`
}

func (h *SectionHeader) Header() *SectionHeader { return h }

// Section is one of *GridSection, *AmpSection or *CdSection.
type Section interface {
	Header() *SectionHeader
	Kind() SectionType
	normalize()
}

type LayoutPreset struct {
	Type string `json:"type"` // always "grid"
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

func (p LayoutPreset) Capacity() int { return p.Rows * p.Cols }

// GridPresets lists the selectable grid shapes.
func GridPresets() []LayoutPreset {
	return []LayoutPreset{
		{Type: "grid", Rows: 1, Cols: 3},
		{Type: "grid", Rows: 2, Cols: 2},
		{Type: "grid", Rows: 2, Cols: 3},
		{Type: "grid", Rows: 3, Cols: 3},
		{Type: "grid", Rows: 4, Cols: 3},
	}
}

// NextPreset cycles through the first four presets; 4x3 is selectable but not
// part of the cycle.
func NextPreset(curr LayoutPreset) LayoutPreset {
	cycle := GridPresets()[:4]
	idx := -1
	for i, p := range cycle {
		if p.Rows == curr.Rows && p.Cols == curr.Cols {
			idx = i
			break
		}
	}
	return cycle[(idx+1)%len(cycle)]
}

type GridSection struct {
	SectionHeader
	Layout  LayoutPreset   `json:"layout"`
	Buttons []ButtonConfig `json:"buttons"`
}

func (s *GridSection) Kind() SectionType { return SectionTypeGrid }

func (s *GridSection) normalize() {
	if s.Layout.Rows <= 0 || s.Layout.Cols <= 0 {
		s.Layout = LayoutPreset{Rows: DefaultGridRows, Cols: DefaultGridCols}
	}
	s.Layout.Type = "grid"
	if s.Buttons == nil {
		s.Buttons = []ButtonConfig{}
	}
	if n := s.Layout.Capacity(); len(s.Buttons) > n {
		s.Buttons = s.Buttons[:n]
	}
}

func (s GridSection) MarshalJSON() ([]byte, error) {
	type alias GridSection
	a := alias(s)
	a.Type = SectionTypeGrid
	return json.Marshal(a)
}

type AmpSection struct {
	SectionHeader
	Quick    []QuickButton   `json:"quick"`
	Grid     []AmpGridButton `json:"grid"`
	Controls []ControlPair   `json:"controls"`
}

func (s *AmpSection) Kind() SectionType { return SectionTypeAmp }

func (s *AmpSection) normalize() {
	if s.Quick == nil {
		s.Quick = []QuickButton{}
	}
	if len(s.Quick) > MaxQuickButtons {
		s.Quick = s.Quick[:MaxQuickButtons]
	}
	if len(s.Grid) > MaxAmpGrid {
		s.Grid = s.Grid[:MaxAmpGrid]
	}
	for len(s.Grid) < MinAmpGrid {
		s.Grid = append(s.Grid, placeholderButton(fmt.Sprintf("Source %d", len(s.Grid)+1)))
	}
	if len(s.Controls) > AmpControlPairs {
		s.Controls = s.Controls[:AmpControlPairs]
	}
	for len(s.Controls) < AmpControlPairs {
		s.Controls = append(s.Controls, defaultControlPair(len(s.Controls)))
	}
}

func (s AmpSection) MarshalJSON() ([]byte, error) {
	type alias AmpSection
	a := alias(s)
	a.Type = SectionTypeAmp
	return json.Marshal(a)
}

type CdSection struct {
	SectionHeader
	Buttons []CdButton `json:"buttons"`
}

func (s *CdSection) Kind() SectionType { return SectionTypeCd }

func (s *CdSection) normalize() {
	if s.Buttons == nil {
		s.Buttons = []CdButton{}
	}
}

func (s CdSection) MarshalJSON() ([]byte, error) {
	type alias CdSection
	a := alias(s)
	a.Type = SectionTypeCd
	return json.Marshal(a)
}

// RemoteLayout is the canonical panel layout, persisted locally and mirrored
// into the device's UI config blob.
type RemoteLayout struct {
	Sections []Section `json:"sections"`
}

func (l *RemoteLayout) UnmarshalJSON(data []byte) error {
	var raw struct {
		Sections []json.RawMessage `json:"sections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	sections := make([]Section, 0, len(raw.Sections))
	for i, item := range raw.Sections {
		s, err := decodeSection(item)
		if err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
		sections = append(sections, s)
	}
	l.Sections = sections
	return nil
}

func decodeSection(data []byte) (Section, error) {
	var head struct {
		Type SectionType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	var s Section
	switch head.Type {
	case SectionTypeGrid:
		s = &GridSection{}
	case SectionTypeAmp:
		s = &AmpSection{}
	case SectionTypeCd:
		s = &CdSection{}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownSectionType, head.Type)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	s.Header().Type = head.Type
	return s, nil
}

// Clone deep-copies the layout through its JSON form.
func (l RemoteLayout) Clone() RemoteLayout {
	data, err := json.Marshal(l)
	if err != nil {
		// every Section implementation marshals cleanly
		panic(fmt.Sprintf("layout: clone marshal: %v", err))
	}
	var out RemoteLayout
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("layout: clone unmarshal: %v", err))
	}
	return out
}

// Index returns the position of the section with the given id, or -1.
func (l RemoteLayout) Index(id string) int {
	for i, s := range l.Sections {
		if s.Header().ID == id {
			return i
		}
	}
	return -1
}

func (l RemoteLayout) Find(id string) (Section, bool) {
	if i := l.Index(id); i >= 0 {
		return l.Sections[i], true
	}
	return nil, false
}

// Normalize enforces the structural invariants: unique non-empty ids, grid
// buttons within capacity, 0-3 quick buttons, 3-9 amp grid buttons and exactly
// two control pairs.
func (l *RemoteLayout) Normalize() {
	if l.Sections == nil {
		l.Sections = []Section{}
	}
	seen := make(map[string]struct{}, len(l.Sections))
	for _, s := range l.Sections {
		h := s.Header()
		h.Type = s.Kind()
		if _, dup := seen[h.ID]; h.ID == "" || dup {
			h.ID = NewID()
		}
		seen[h.ID] = struct{}{}
		s.normalize()
	}
}

// DefaultLayout seeds the first run with one amplifier section.
func DefaultLayout() RemoteLayout {
	return RemoteLayout{Sections: []Section{
		&AmpSection{
			SectionHeader: SectionHeader{Type: SectionTypeAmp, ID: NewID(), Title: "atelier R4"},
			Quick:         []QuickButton{{Icon: "speaker.slash.fill", Device: "MyAmp", Command: "MUTE"}},
			Grid: []AmpGridButton{
				{ID: NewID(), Title: "CD", Device: "MyAmp", Command: "CD"},
				{ID: NewID(), Title: "Tuner", Device: "MyAmp", Command: "TUNER"},
				{ID: NewID(), Title: "Tape", Device: "MyAmp", Command: "TAPE"},
				{ID: NewID(), Title: "BT", Device: "MyAmp", Command: "BLUETOOTH"},
				{ID: NewID(), Title: "Phono", Device: "MyAmp", Command: "PHONO"},
				{ID: NewID(), Title: "AUX", Device: "MyAmp", Command: "AUX"},
			},
			Controls: []ControlPair{
				{
					Left:  ControlSide{Icon: "chevron.left", Device: "MyAmp", Command: "PRESET_DOWN"},
					Label: "program",
					Right: ControlSide{Icon: "chevron.right", Device: "MyAmp", Command: "PRESET_UP"},
				},
				{
					Left:  ControlSide{Icon: "minus", Device: "MyAmp", Command: "VOL_DOWN", Repeat: true},
					Label: "volume",
					Right: ControlSide{Icon: "plus", Device: "MyAmp", Command: "VOL_UP", Repeat: true},
				},
			},
		},
	}}
}

func NewGridSection(rows, cols int) *GridSection {
	s := &GridSection{
		SectionHeader: SectionHeader{Type: SectionTypeGrid, ID: NewID(), Title: "New Grid"},
		Layout:        LayoutPreset{Type: "grid", Rows: rows, Cols: cols},
	}
	s.normalize()
	return s
}

func NewAmpSection() *AmpSection {
	s := &AmpSection{
		SectionHeader: SectionHeader{Type: SectionTypeAmp, ID: NewID(), Title: "New Amp"},
	}
	s.normalize()
	return s
}

func NewCdSection() *CdSection {
	icons := []struct{ title, icon string }{
		{"Prev", "backward.end.fill"},
		{"Rew", "backward.fill"},
		{"Play", "play.fill"},
		{"Pause", "pause.fill"},
		{"Stop", "stop.fill"},
		{"FF", "forward.fill"},
	}
	s := &CdSection{
		SectionHeader: SectionHeader{Type: SectionTypeCd, ID: NewID(), Title: "CD Player"},
	}
	for _, b := range icons[:DefaultCdButtons] {
		s.Buttons = append(s.Buttons, CdButton{ID: NewID(), Title: b.title, Icon: b.icon})
	}
	return s
}
