package model

import "strings"

// Connection identifies the bridge device the client talks to.
type Connection struct {
	BaseURL string `json:"baseUrl"` // e.g. http://192.168.1.50
	APIKey  string `json:"apiKey"`
}

// Configured reports whether remote operations are enabled.
func (c Connection) Configured() bool {
	return strings.TrimSpace(c.BaseURL) != ""
}

// Merge applies the non-nil fields of a patch, the way the settings screen saves
// one field at a time.
func (c Connection) Merge(patch ConnectionPatch) Connection {
	if patch.BaseURL != nil {
		c.BaseURL = strings.TrimSpace(*patch.BaseURL)
	}
	if patch.APIKey != nil {
		c.APIKey = *patch.APIKey
	}
	return c
}

type ConnectionPatch struct {
	BaseURL *string `json:"baseUrl,omitempty"`
	APIKey  *string `json:"apiKey,omitempty"`
}
