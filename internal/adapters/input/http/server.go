package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"hifi-remote/internal/domain/model"
	"hifi-remote/internal/domain/service"
	"hifi-remote/internal/ports"
)

type Dispatcher interface {
	Press(ctx context.Context, b model.Binding, opts service.PressOptions) service.Outcome
	Hold(ctx context.Context, b model.Binding, opts service.PressOptions) *service.Hold
}

type Catalog interface {
	List(ctx context.Context) ([]service.CatalogEntry, error)
}

type Server struct {
	layout     ports.LayoutPort
	timers     ports.TimerPort
	connection ports.ConnectionPort
	dispatcher Dispatcher
	catalog    Catalog
	logger     *slog.Logger

	// holds outlive the request that started them
	baseCtx context.Context
	mu      sync.Mutex
	holds   map[string]*service.Hold
}

func NewServer(ctx context.Context, layout ports.LayoutPort, timers ports.TimerPort, connection ports.ConnectionPort, dispatcher Dispatcher, catalog Catalog, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		layout:     layout,
		timers:     timers,
		connection: connection,
		dispatcher: dispatcher,
		catalog:    catalog,
		logger:     logger,
		baseCtx:    ctx,
		holds:      make(map[string]*service.Hold),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/layout", s.handleLayout)
	mux.HandleFunc("/api/layout/push", s.handleLayoutPush)
	mux.HandleFunc("/api/layout/pull", s.handleLayoutPull)
	mux.HandleFunc("/api/layout/sections", s.handleAddSection)
	mux.HandleFunc("/api/layout/sections/", s.handleSection)
	mux.HandleFunc("/api/press", s.handlePress)
	mux.HandleFunc("/api/hold", s.handleHold)
	mux.HandleFunc("/api/hold/", s.handleRelease)
	mux.HandleFunc("/api/timers", s.handleTimers)
	mux.HandleFunc("/api/timers/test", s.handleTestTimer)
	mux.HandleFunc("/api/timers/", s.handleDeleteTimer)
	mux.HandleFunc("/api/connection", s.handleConnection)
	mux.HandleFunc("/api/connection/test", s.handleConnectionTest)
	mux.HandleFunc("/api/devices", s.handleDevices)
	return mux
}

// ListenAndServe blocks until ctx is cancelled or the listener fails. Active
// holds are released on the way out.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.releaseAll()
	if err := srv.Shutdown(context.Background()); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.layout.Snapshot())
	case http.MethodPut:
		var next model.RemoteLayout
		if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mutate(w, service.ReplaceLayout(next))
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLayoutPush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.layout.Upload(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLayoutPull(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	found, err := s.layout.Download(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"found": found, "layout": s.layout.Snapshot()})
}

type addSectionRequest struct {
	Type model.SectionType `json:"type"`
	Rows int               `json:"rows"`
	Cols int               `json:"cols"`
}

func (s *Server) handleAddSection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req addSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var edit service.LayoutEdit
	switch req.Type {
	case model.SectionTypeGrid:
		edit = service.AddGridSection(req.Rows, req.Cols)
	case model.SectionTypeAmp:
		edit = service.AddAmpSection()
	case model.SectionTypeCd:
		edit = service.AddCdSection()
	default:
		http.Error(w, fmt.Sprintf("unknown section type %q", req.Type), http.StatusBadRequest)
		return
	}
	s.mutate(w, edit)
}

// handleSection routes /api/layout/sections/{id}[/...].
func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/layout/sections/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}
	sub := parts[1:]

	if len(sub) == 0 {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.mutate(w, service.DeleteSection(id))
		return
	}

	switch {
	case sub[0] == "rename" && r.Method == http.MethodPost:
		var body struct {
			Title string `json:"title"`
		}
		if decode(w, r, &body) {
			s.mutate(w, service.RenameSection(id, body.Title))
		}
	case sub[0] == "toggle" && r.Method == http.MethodPost:
		s.mutate(w, service.ToggleCollapsed(id))
	case sub[0] == "move" && r.Method == http.MethodPost:
		var body struct {
			To int `json:"to"`
		}
		if decode(w, r, &body) {
			s.mutate(w, service.MoveSection(id, body.To))
		}
	case sub[0] == "preset" && r.Method == http.MethodPost:
		s.mutate(w, service.CycleGridPreset(id))
	case sub[0] == "grid-size" && r.Method == http.MethodPut:
		var body struct {
			Count int `json:"count"`
		}
		if decode(w, r, &body) {
			s.mutate(w, service.ResizeAmpGrid(id, body.Count))
		}
	case sub[0] == "buttons" && len(sub) == 2 && r.Method == http.MethodPut:
		slot, ok := slotParam(w, sub[1])
		if !ok {
			return
		}
		var btn model.ButtonConfig
		if decode(w, r, &btn) {
			s.mutate(w, s.buttonEdit(id, slot, btn))
		}
	case sub[0] == "quick" && len(sub) == 2 && r.Method == http.MethodPut:
		slot, ok := slotParam(w, sub[1])
		if !ok {
			return
		}
		var q model.QuickButton
		if decode(w, r, &q) {
			s.mutate(w, service.SetAmpQuick(id, slot, q))
		}
	case sub[0] == "controls" && len(sub) == 3 && r.Method == http.MethodPut:
		pair, ok := slotParam(w, sub[1])
		if !ok {
			return
		}
		if sub[2] == "label" {
			var body struct {
				Label string `json:"label"`
			}
			if decode(w, r, &body) {
				s.mutate(w, service.SetAmpControlLabel(id, pair, body.Label))
			}
			return
		}
		var body struct {
			model.ControlSide
			Repeat *bool `json:"repeat"`
		}
		if decode(w, r, &body) {
			s.mutate(w, service.SetAmpControlSide(id, pair, service.ControlSideName(sub[2]), body.ControlSide, body.Repeat))
		}
	default:
		http.NotFound(w, r)
	}
}

// buttonEdit picks the button edit for the section's kind.
func (s *Server) buttonEdit(id string, slot int, btn model.ButtonConfig) service.LayoutEdit {
	return func(l model.RemoteLayout) (model.RemoteLayout, error) {
		sec, ok := l.Find(id)
		if !ok {
			return l, fmt.Errorf("%w: %s", model.ErrSectionNotFound, id)
		}
		switch sec.Kind() {
		case model.SectionTypeAmp:
			return service.SetAmpGridButton(id, slot, btn)(l)
		case model.SectionTypeCd:
			return service.SetCdButton(id, slot, btn)(l)
		default:
			return service.SetGridButton(id, slot, btn)(l)
		}
	}
}

func (s *Server) mutate(w http.ResponseWriter, edit service.LayoutEdit) {
	if err := s.layout.Mutate(edit); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.layout.Snapshot())
}

type pressRequest struct {
	Device      string `json:"device"`
	Command     string `json:"command"`
	Repetitions int    `json:"repetitions"`
	Queued      bool   `json:"queued"`
	EditMode    bool   `json:"edit_mode"`
}

func (p pressRequest) binding() model.Binding {
	return model.Binding{Device: p.Device, Command: p.Command, Repetitions: p.Repetitions}
}

func (p pressRequest) options() service.PressOptions {
	return service.PressOptions{EditMode: p.EditMode, Queued: p.Queued}
}

func (s *Server) handlePress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req pressRequest
	if !decode(w, r, &req) {
		return
	}
	out := s.dispatcher.Press(r.Context(), req.binding(), req.options())
	writeJSON(w, http.StatusOK, map[string]string{"outcome": out.String()})
}

func (s *Server) handleHold(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req pressRequest
	if !decode(w, r, &req) {
		return
	}
	id := uuid.NewString()
	h := s.dispatcher.Hold(s.baseCtx, req.binding(), req.options())
	s.mu.Lock()
	s.holds[id] = h
	s.mu.Unlock()
	go func() {
		h.Wait()
		s.mu.Lock()
		delete(s.holds, id)
		s.mu.Unlock()
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/hold/")
	s.mu.Lock()
	h, ok := s.holds[id]
	s.mu.Unlock()
	if !ok {
		// already finished on its own
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.Release()
	writeJSON(w, http.StatusOK, map[string]int{"fired": h.Fired()})
}

func (s *Server) releaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.holds {
		h.Release()
	}
}

func (s *Server) handleTimers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Get("refresh") == "1" {
			if err := s.timers.Refresh(r.Context()); err != nil {
				s.writeError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, s.timers.Snapshot())
	case http.MethodPost:
		var req model.CreateTimerRequest
		if !decode(w, r, &req) {
			return
		}
		ok, err := s.timers.Create(r.Context(), req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"ok": ok, "timers": s.timers.Snapshot()})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTestTimer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req model.CreateTimerRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.timers.Test(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": ok})
}

func (s *Server) handleDeleteTimer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/timers/")
	deleted, err := s.timers.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.connection.Get())
	case http.MethodPut:
		var patch model.ConnectionPatch
		if !decode(w, r, &patch) {
			return
		}
		conn, err := s.connection.Update(r.Context(), patch)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, conn)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleConnectionTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	health, err := s.connection.Test(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	entries, err := s.catalog.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, model.ErrNotConfigured):
		status = http.StatusPreconditionFailed
	case errors.Is(err, model.ErrSectionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrSectionType), errors.Is(err, model.ErrSlotOutOfRange), errors.Is(err, model.ErrUnknownSectionType):
		status = http.StatusBadRequest
	}
	if status == http.StatusBadGateway {
		s.logger.Warn("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func slotParam(w http.ResponseWriter, raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid index %q", raw), http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
