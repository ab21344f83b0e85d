package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"

	"hifi-remote/internal/domain/model"
)

var errOffline = errors.New("dial tcp: connection refused")

// fakeDevice is an in-memory bridge. It records every call so tests can
// count pushes and sends.
type fakeDevice struct {
	mu         sync.Mutex
	configured bool
	uiConfig   json.RawMessage
	getErr     error
	putErr     error
	sendErr    error
	puts       [][]byte
	sends      []model.SendRequest
	timers     []model.Timer
	timerGets  int
	devices    map[string]*model.Device
	onSend     func(model.SendRequest)
	nextTimer  int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{configured: true, timers: []model.Timer{}, devices: map[string]*model.Device{}}
}

func (f *fakeDevice) Configure(conn model.Connection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configured = conn.Configured()
}

func (f *fakeDevice) IsConfigured() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configured
}

func (f *fakeDevice) Health(ctx context.Context) (*model.Health, error) {
	return &model.Health{WiFi: model.WiFiStatus{Connected: true, IP: "192.168.1.50"}}, nil
}

func (f *fakeDevice) Info(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (f *fakeDevice) Devices(ctx context.Context) (model.DevicesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := model.DevicesResponse{}
	for name := range f.devices {
		out[name] = json.RawMessage(`{}`)
	}
	return out, nil
}

func (f *fakeDevice) Device(ctx context.Context, name string) (*model.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.devices[name]
	if !ok || d == nil {
		return nil, &model.StatusError{Op: "device", Code: 404}
	}
	return d, nil
}

func (f *fakeDevice) Send(ctx context.Context, req model.SendRequest) (json.RawMessage, error) {
	f.mu.Lock()
	f.sends = append(f.sends, req)
	err := f.sendErr
	hook := f.onSend
	f.mu.Unlock()
	if hook != nil {
		hook(req)
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func (f *fakeDevice) GetUIConfig(ctx context.Context) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.uiConfig, nil
}

func (f *fakeDevice) PutUIConfig(ctx context.Context, body []byte) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts = append(f.puts, append([]byte{}, body...))
	f.uiConfig = append(json.RawMessage{}, body...)
	return json.RawMessage(`{"ok":true}`), nil
}

func (f *fakeDevice) Timers(ctx context.Context) ([]model.Timer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timerGets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return append([]model.Timer{}, f.timers...), nil
}

func (f *fakeDevice) CreateTimer(ctx context.Context, req model.CreateTimerRequest) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTimer++
	f.timers = append(f.timers, model.Timer{
		ID:          string(rune('a' + f.nextTimer - 1)),
		Type:        req.Type,
		Label:       req.Label,
		TriggerTime: "2030-01-01T10:00:00",
		Actions:     req.Actions,
	})
	return true, nil
}

func (f *fakeDevice) TestTimer(ctx context.Context, req model.CreateTimerRequest) (bool, error) {
	return true, nil
}

func (f *fakeDevice) DeleteTimer(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.timers {
		if t.ID == id {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDevice) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

func (f *fakeDevice) lastPut() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.puts) == 0 {
		return nil
	}
	return f.puts[len(f.puts)-1]
}

func (f *fakeDevice) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func (f *fakeDevice) timerGetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timerGets
}

type memLayoutRepo struct {
	mu     sync.Mutex
	layout *model.RemoteLayout
	saves  int
}

func (r *memLayoutRepo) Get(ctx context.Context) (model.RemoteLayout, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.layout == nil {
		return model.RemoteLayout{}, false, nil
	}
	return r.layout.Clone(), true, nil
}

func (r *memLayoutRepo) Save(ctx context.Context, layout model.RemoteLayout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := layout.Clone()
	r.layout = &c
	r.saves++
	return nil
}

type memTimerRepo struct {
	mu     sync.Mutex
	timers []model.Timer
}

func (r *memTimerRepo) Get(ctx context.Context) ([]model.Timer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Timer{}, r.timers...), nil
}

func (r *memTimerRepo) Save(ctx context.Context, timers []model.Timer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timers = append([]model.Timer{}, timers...)
	return nil
}

type memConnRepo struct {
	conn model.Connection
}

func (r *memConnRepo) Get(ctx context.Context) (model.Connection, error) { return r.conn, nil }

func (r *memConnRepo) Save(ctx context.Context, conn model.Connection) error {
	r.conn = conn
	return nil
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Alert(title, message string) {
	m.Called(title, message)
}
