package persistence

import (
	"context"
	"sync"

	"hifi-remote/internal/domain/model"
)

type LayoutRepository struct {
	store *Store
	mu    sync.Mutex
}

// Grid-only schema written before sections carried a type tag.
type legacyLayout struct {
	Sections []legacySection `json:"sections"`
}

type legacySection struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Collapsed bool                 `json:"collapsed"`
	Layout    *model.LayoutPreset  `json:"layout"`
	Buttons   []model.ButtonConfig `json:"buttons"`
}

func NewLayoutRepository(store *Store) *LayoutRepository {
	return &LayoutRepository{store: store}
}

func (r *LayoutRepository) Get(ctx context.Context) (model.RemoteLayout, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var layout model.RemoteLayout
	found, err := r.store.ReadJSON(KeyLayout, &layout)
	if err != nil {
		return model.RemoteLayout{}, false, err
	}
	if found {
		layout.Normalize()
		return layout, true, nil
	}

	return r.migrate()
}

func (r *LayoutRepository) migrate() (model.RemoteLayout, bool, error) {
	var legacy legacyLayout
	found, err := r.store.ReadJSON(KeyLayoutV1, &legacy)
	if err != nil || !found {
		return model.RemoteLayout{}, false, err
	}

	layout := model.RemoteLayout{Sections: make([]model.Section, 0, len(legacy.Sections))}
	for _, s := range legacy.Sections {
		title := s.Title
		if title == "" {
			title = "Section"
		}
		preset := model.LayoutPreset{Type: "grid", Rows: model.DefaultGridRows, Cols: model.DefaultGridCols}
		if s.Layout != nil {
			preset = *s.Layout
		}
		layout.Sections = append(layout.Sections, &model.GridSection{
			SectionHeader: model.SectionHeader{
				Type:      model.SectionTypeGrid,
				ID:        s.ID,
				Title:     title,
				Collapsed: s.Collapsed,
			},
			Layout:  preset,
			Buttons: s.Buttons,
		})
	}
	layout.Normalize()

	if err := r.store.WriteJSON(KeyLayout, layout); err != nil {
		return model.RemoteLayout{}, false, err
	}
	return layout, true, nil
}

func (r *LayoutRepository) Save(ctx context.Context, layout model.RemoteLayout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.WriteJSON(KeyLayout, layout)
}
