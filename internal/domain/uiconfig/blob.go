// Package uiconfig decodes the device's UI config blob and builds the body
// written back to it.
//
// The blob is stored verbatim by the device and may hold the layout in one of
// two shapes:
//
//	{"sections": [...]}                          // top-level
//	{"remoteLayout": {"sections": [...]}, ...}   // namespaced, other keys belong to someone else
package uiconfig

import (
	"bytes"
	"encoding/json"
	"fmt"

	"hifi-remote/internal/domain/model"
)

const (
	sectionsKey  = "sections"
	namespaceKey = "remoteLayout"
)

type Shape int

const (
	// ShapeNone means the blob holds no recognizable layout.
	ShapeNone Shape = iota
	ShapeTopLevel
	ShapeNamespaced
)

func (s Shape) String() string {
	switch s {
	case ShapeTopLevel:
		return "top-level"
	case ShapeNamespaced:
		return "namespaced"
	default:
		return "none"
	}
}

// Blob is the decoded UI config.
type Blob struct {
	Shape Shape
	// Layout is set when the layout under Shape decoded cleanly.
	Layout *model.RemoteLayout
	// Rest holds every key other than the layout, passed through untouched
	// when the layout is written back under the namespace key.
	Rest map[string]json.RawMessage
}

// Decode inspects raw: a top-level sections array wins, remoteLayout.sections
// comes second. A body that is not a JSON object decodes to ShapeNone with no
// passthrough keys.
func Decode(raw []byte) Blob {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Blob{Shape: ShapeNone}
	}

	if isArray(fields[sectionsKey]) {
		return Blob{Shape: ShapeTopLevel, Layout: decodeLayout(raw), Rest: without(fields, sectionsKey)}
	}

	if ns, ok := fields[namespaceKey]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(ns, &inner); err == nil && isArray(inner[sectionsKey]) {
			return Blob{Shape: ShapeNamespaced, Layout: decodeLayout(ns), Rest: without(fields, namespaceKey)}
		}
	}

	return Blob{Shape: ShapeNone, Rest: without(fields, namespaceKey)}
}

// PushBody builds the body that writes local back over the blob: the top-level
// shape is overwritten entirely, any other shape keeps its other keys and gets
// the layout under remoteLayout.
func (b Blob) PushBody(local model.RemoteLayout) ([]byte, error) {
	if b.Shape == ShapeTopLevel {
		return json.Marshal(local)
	}
	layout, err := json.Marshal(local)
	if err != nil {
		return nil, fmt.Errorf("marshaling layout: %w", err)
	}
	out := make(map[string]json.RawMessage, len(b.Rest)+1)
	for k, v := range b.Rest {
		out[k] = v
	}
	out[namespaceKey] = layout
	return json.Marshal(out)
}

func decodeLayout(raw []byte) *model.RemoteLayout {
	var l model.RemoteLayout
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil
	}
	l.Normalize()
	return &l
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func without(fields map[string]json.RawMessage, key string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		if k != key {
			out[k] = v
		}
	}
	return out
}
