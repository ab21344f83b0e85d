package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hifi-remote/internal/domain/model"
	"hifi-remote/internal/domain/service"
	"hifi-remote/internal/ports"
)

type memLayout struct {
	layout    model.RemoteLayout
	uploadErr error
}

func (m *memLayout) Snapshot() model.RemoteLayout { return m.layout.Clone() }

func (m *memLayout) Mutate(fn func(model.RemoteLayout) (model.RemoteLayout, error)) error {
	next, err := fn(m.layout.Clone())
	if err != nil {
		return err
	}
	next.Normalize()
	m.layout = next
	return nil
}

func (m *memLayout) Pull(ctx context.Context)                   {}
func (m *memLayout) Upload(ctx context.Context) error           { return m.uploadErr }
func (m *memLayout) Download(ctx context.Context) (bool, error) { return false, nil }

// fakeSender accepts every send; nothing else of the port is used.
type fakeSender struct {
	ports.DeviceAPIPort
}

func (fakeSender) Send(ctx context.Context, req model.SendRequest) (json.RawMessage, error) {
	return json.RawMessage(`{"ok":true}`), nil
}

type MockTimers struct {
	mock.Mock
}

func (m *MockTimers) Snapshot() []model.Timer {
	return m.Called().Get(0).([]model.Timer)
}

func (m *MockTimers) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTimers) Create(ctx context.Context, req model.CreateTimerRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockTimers) Test(ctx context.Context, req model.CreateTimerRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockTimers) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockConnection struct {
	mock.Mock
}

func (m *MockConnection) Get() model.Connection {
	return m.Called().Get(0).(model.Connection)
}

func (m *MockConnection) Update(ctx context.Context, patch model.ConnectionPatch) (model.Connection, error) {
	args := m.Called(ctx, patch)
	return args.Get(0).(model.Connection), args.Error(1)
}

func (m *MockConnection) Test(ctx context.Context) (*model.Health, error) {
	args := m.Called(ctx)
	h, _ := args.Get(0).(*model.Health)
	return h, args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Press(ctx context.Context, b model.Binding, opts service.PressOptions) service.Outcome {
	return m.Called(ctx, b, opts).Get(0).(service.Outcome)
}

func (m *MockDispatcher) Hold(ctx context.Context, b model.Binding, opts service.PressOptions) *service.Hold {
	return m.Called(ctx, b, opts).Get(0).(*service.Hold)
}

type staticCatalog []service.CatalogEntry

func (c staticCatalog) List(ctx context.Context) ([]service.CatalogEntry, error) { return c, nil }

type fixture struct {
	srv        *httptest.Server
	layout     *memLayout
	timers     *MockTimers
	connection *MockConnection
	dispatcher *MockDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		layout:     &memLayout{layout: model.DefaultLayout()},
		timers:     new(MockTimers),
		connection: new(MockConnection),
		dispatcher: new(MockDispatcher),
	}
	catalog := staticCatalog{{Name: "MyAmp", Commands: []string{"CD", "MUTE"}}}
	s := NewServer(context.Background(), f.layout, f.timers, f.connection, f.dispatcher, catalog, nil)
	f.srv = httptest.NewServer(s.Handler())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeLayout(t *testing.T, resp *http.Response) model.RemoteLayout {
	t.Helper()
	var l model.RemoteLayout
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&l))
	return l
}

func TestServer_LayoutEdits(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/layout/sections", addSectionRequest{Type: model.SectionTypeGrid, Rows: 1, Cols: 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	l := decodeLayout(t, resp)
	require.Len(t, l.Sections, 2)
	grid := l.Sections[1].Header().ID

	resp = f.do(t, http.MethodPut, "/api/layout/sections/"+grid+"/buttons/1", model.ButtonConfig{Title: "TV", Device: "TV", Command: "POWER"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	g := decodeLayout(t, resp).Sections[1].(*model.GridSection)
	require.Len(t, g.Buttons, 2)
	assert.Equal(t, "POWER", g.Buttons[1].Command)

	resp = f.do(t, http.MethodPost, "/api/layout/sections/"+grid+"/rename", map[string]string{"title": "TV"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "TV", decodeLayout(t, resp).Sections[1].Header().Title)

	resp = f.do(t, http.MethodDelete, "/api/layout/sections/"+grid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeLayout(t, resp).Sections, 1)

	resp = f.do(t, http.MethodDelete, "/api/layout/sections/"+grid, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_AmpControls(t *testing.T) {
	f := newFixture(t)
	amp := f.layout.layout.Sections[0].Header().ID

	resp := f.do(t, http.MethodPut, "/api/layout/sections/"+amp+"/controls/1/right", map[string]interface{}{
		"device": "MyAmp", "command": "VOL_UP_FAST", "repeat": false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	right := decodeLayout(t, resp).Sections[0].(*model.AmpSection).Controls[1].Right
	assert.Equal(t, "VOL_UP_FAST", right.Command)
	assert.False(t, right.Repeat)

	resp = f.do(t, http.MethodPut, "/api/layout/sections/"+amp+"/buttons/12", model.ButtonConfig{Device: "MyAmp", Command: "X"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Press(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.On("Press", mock.Anything, model.Binding{Device: "MyAmp", Command: "MUTE"}, service.PressOptions{}).
		Return(service.OutcomeSent).Once()

	resp := f.do(t, http.MethodPost, "/api/press", pressRequest{Device: "MyAmp", Command: "MUTE"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "sent", out["outcome"])
	f.dispatcher.AssertExpectations(t)
}

func TestServer_HoldAndRelease(t *testing.T) {
	f := newFixture(t)
	d := service.NewDispatcher(fakeSender{}, nil, nil, 10*time.Millisecond)
	b := model.Binding{Device: "MyAmp", Command: "VOL_UP"}
	f.dispatcher.On("Hold", mock.Anything, b, service.PressOptions{}).
		Return(d.Hold(context.Background(), b, service.PressOptions{})).Once()

	resp := f.do(t, http.MethodPost, "/api/hold", pressRequest{Device: "MyAmp", Command: "VOL_UP"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var started map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	require.NotEmpty(t, started["id"])

	time.Sleep(30 * time.Millisecond)
	resp = f.do(t, http.MethodDelete, "/api/hold/"+started["id"], nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var released map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&released))
	assert.GreaterOrEqual(t, released["fired"], 1)

	resp = f.do(t, http.MethodDelete, "/api/hold/unknown", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestServer_Timers(t *testing.T) {
	f := newFixture(t)
	req := model.CreateTimerRequest{Label: "Sleep", Type: model.TimerTypeSleep, DelayMinutes: 30}
	f.timers.On("Create", mock.Anything, req).Return(true, nil).Once()
	f.timers.On("Snapshot").Return([]model.Timer{{ID: "t1", Label: "Sleep"}})
	f.timers.On("Delete", mock.Anything, "t1").Return(true, nil).Once()
	f.timers.On("Delete", mock.Anything, "t1").Return(false, nil).Once()

	resp := f.do(t, http.MethodPost, "/api/timers", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var deleted map[string]bool
	resp = f.do(t, http.MethodDelete, "/api/timers/t1", nil)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&deleted))
	assert.True(t, deleted["deleted"])

	resp = f.do(t, http.MethodDelete, "/api/timers/t1", nil)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&deleted))
	assert.False(t, deleted["deleted"])
	f.timers.AssertExpectations(t)
}

func TestServer_ErrorMapping(t *testing.T) {
	f := newFixture(t)
	f.connection.On("Test", mock.Anything).Return(nil, model.ErrNotConfigured).Once()
	f.layout.uploadErr = &model.StatusError{Op: "Put UI config", Code: 500}

	resp := f.do(t, http.MethodPost, "/api/connection/test", nil)
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/layout/push", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Put UI config failed: 500", body["error"])
}

func TestServer_Devices(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/devices", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []service.CatalogEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"CD", "MUTE"}, entries[0].Commands)
}
