package model

import (
	"encoding/json"
	"sort"
	"strings"
)

type WiFiStatus struct {
	Connected bool   `json:"connected"`
	SSID      string `json:"ssid,omitempty"`
	IP        string `json:"ip,omitempty"`
}

type Health struct {
	WiFi     WiFiStatus `json:"wifi"`
	Uptime   *int64     `json:"uptime,omitempty"`
	UptimeMs *int64     `json:"uptime_ms,omitempty"`
}

// Device is the descriptor returned by GET /device. Protocol sections (ir,
// saa3004, kenwood_xs8, ...) are kept raw because their shape differs per protocol.
type Device struct {
	Name     string                     `json:"name"`
	Protocol string                     `json:"protocol,omitempty"`
	Fields   map[string]json.RawMessage `json:"-"`
}

func (d *Device) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	d.Fields = fields
	if raw, ok := fields["name"]; ok {
		_ = json.Unmarshal(raw, &d.Name)
	}
	if raw, ok := fields["protocol"]; ok {
		_ = json.Unmarshal(raw, &d.Protocol)
	}
	return nil
}

func (d Device) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Fields)+2)
	for k, v := range d.Fields {
		out[k] = v
	}
	name, _ := json.Marshal(d.Name)
	out["name"] = name
	if d.Protocol != "" {
		p, _ := json.Marshal(d.Protocol)
		out["protocol"] = p
	}
	return json.Marshal(out)
}

// Commands collects the keys of every nested "commands" map, sorted.
func (d Device) Commands() []string {
	seen := map[string]struct{}{}
	for _, raw := range d.Fields {
		var nested struct {
			Commands map[string]json.RawMessage `json:"commands"`
		}
		if err := json.Unmarshal(raw, &nested); err != nil {
			continue
		}
		for k := range nested.Commands {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DevicesResponse maps device name to its descriptor.
type DevicesResponse map[string]json.RawMessage

// SendRequest is one logical /device/send call.
type SendRequest struct {
	Name        string
	Commands    []string
	Repetitions int
	Fast        bool
	Async       bool
}

// CommandParam joins multiple commands the way the firmware expects them.
func (r SendRequest) CommandParam() string {
	return strings.Join(r.Commands, ",")
}
