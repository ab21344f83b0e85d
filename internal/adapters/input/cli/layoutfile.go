package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"hifi-remote/internal/domain/model"
)

type fileFormat string

const (
	formatJSON fileFormat = "json"
	formatYAML fileFormat = "yaml"
)

func parseFormat(flag, path string) (fileFormat, error) {
	if flag == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			return formatYAML, nil
		default:
			return formatJSON, nil
		}
	}
	switch f := fileFormat(strings.ToLower(flag)); f {
	case formatJSON, formatYAML:
		return f, nil
	case "yml":
		return formatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q: use json or yaml", flag)
}

// encodeLayout writes the layout in the same field names the device blob uses;
// YAML goes through the JSON form so section type tags are kept.
func encodeLayout(l model.RemoteLayout, f fileFormat) ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, err
	}
	if f == formatJSON {
		return append(data, '\n'), nil
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

func decodeLayout(data []byte, f fileFormat) (model.RemoteLayout, error) {
	if f == formatYAML {
		var generic interface{}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return model.RemoteLayout{}, fmt.Errorf("parsing yaml: %w", err)
		}
		var err error
		if data, err = json.Marshal(generic); err != nil {
			return model.RemoteLayout{}, fmt.Errorf("converting yaml: %w", err)
		}
	}
	var l model.RemoteLayout
	if err := json.Unmarshal(data, &l); err != nil {
		return model.RemoteLayout{}, fmt.Errorf("parsing layout: %w", err)
	}
	l.Normalize()
	return l, nil
}
