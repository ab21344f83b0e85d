package deviceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"hifi-remote/internal/domain/model"
)

const apiKeyHeader = "X-API-Key"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	mu         sync.RWMutex
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configure(conn model.Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimSuffix(strings.TrimSpace(conn.BaseURL), "/")
	c.apiKey = conn.APIKey
}

func (c *Client) IsConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL != ""
}

func (c *Client) Health(ctx context.Context) (*model.Health, error) {
	var h model.Health
	if err := c.getJSON(ctx, "Health request", "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) Info(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "Info request", "/info", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) Devices(ctx context.Context) (model.DevicesResponse, error) {
	var devices model.DevicesResponse
	if err := c.getJSON(ctx, "Devices", "/devices", nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

func (c *Client) Device(ctx context.Context, name string) (*model.Device, error) {
	var d model.Device
	if err := c.getJSON(ctx, "Get device", "/device", url.Values{"name": {name}}, &d); err != nil {
		return nil, err
	}
	d.Name = name
	return &d, nil
}

func (c *Client) Send(ctx context.Context, req model.SendRequest) (json.RawMessage, error) {
	params := url.Values{
		"name":    {req.Name},
		"command": {req.CommandParam()},
	}
	if req.Repetitions > 0 {
		params.Set("repetitions", strconv.Itoa(req.Repetitions))
	}
	if req.Fast {
		params.Set("fast", "1")
	}
	if req.Async {
		params.Set("async", "1")
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, "Send", "/device/send", params, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) GetUIConfig(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "Get UI config", "/ui/config", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// PutUIConfig writes the blob; the device may answer with an empty or non-JSON
// body, in which case the result is nil.
func (c *Client) PutUIConfig(ctx context.Context, body []byte) (json.RawMessage, error) {
	status, resp, err := c.doRequest(ctx, http.MethodPut, "/ui/config", nil, body)
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		return nil, &model.StatusError{Op: "Put UI config", Code: status}
	}
	if len(bytes.TrimSpace(resp)) == 0 || !json.Valid(resp) {
		return nil, nil
	}
	return resp, nil
}

func (c *Client) Timers(ctx context.Context) ([]model.Timer, error) {
	var timers []model.Timer
	if err := c.getJSON(ctx, "Timers request", "/timers", nil, &timers); err != nil {
		return nil, err
	}
	if timers == nil {
		timers = []model.Timer{}
	}
	return timers, nil
}

func (c *Client) CreateTimer(ctx context.Context, req model.CreateTimerRequest) (bool, error) {
	return c.postTimer(ctx, "Create timer", "/timers", req)
}

func (c *Client) TestTimer(ctx context.Context, req model.CreateTimerRequest) (bool, error) {
	req.DelayMinutes = 0
	return c.postTimer(ctx, "Test timer", "/timers/test", req)
}

func (c *Client) DeleteTimer(ctx context.Context, id string) (bool, error) {
	status, _, err := c.doRequest(ctx, http.MethodDelete, "/timer", url.Values{"id": {id}}, nil)
	if err != nil {
		return false, err
	}
	if status == http.StatusNotFound {
		return false, nil
	}
	if !ok(status) {
		return false, &model.StatusError{Op: "Delete timer", Code: status}
	}
	return true, nil
}

func (c *Client) postTimer(ctx context.Context, op, path string, req model.CreateTimerRequest) (bool, error) {
	if req.Actions == nil {
		req.Actions = []model.TimerAction{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return false, fmt.Errorf("marshaling request: %w", err)
	}
	status, _, err := c.doRequest(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return false, err
	}
	// 202 means the firmware queued the work
	if !ok(status) {
		return false, &model.StatusError{Op: op, Code: status}
	}
	return true, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, out interface{}) error {
	status, body, err := c.doRequest(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	if !ok(status) {
		return &model.StatusError{Op: op, Code: status}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: parsing response: %w", op, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body []byte) (int, []byte, error) {
	c.mu.RLock()
	base := c.baseURL
	apiKey := c.apiKey
	c.mu.RUnlock()

	if base == "" {
		return 0, nil, model.ErrNotConfigured
	}

	target := base + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set(apiKeyHeader, apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
