// Package config loads rule files written in YAML or JSON.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrEmptyRuleFile = errors.New("rule file contains no rules")

// LoadRuleFile reads path and returns one JSON document per rule. The file holds
// a list of rules, a single rule, or an object with a "rules" list.
func LoadRuleFile(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %s: %w", path, err)
	}

	return ParseRuleDocuments(data, DetectFormat(path, data))
}

// ParseRuleDocuments splits data into rule documents. format is "json" or "yaml".
func ParseRuleDocuments(data []byte, format string) ([]json.RawMessage, error) {
	var root any

	switch format {
	case "json":
		err := json.Unmarshal(data, &root)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON rules: %w", err)
		}
	case "yaml":
		err := yaml.Unmarshal(data, &root)
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML rules: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported rule file format %q", format)
	}

	var documents []any

	switch v := root.(type) {
	case []any:
		documents = v
	case map[string]any:
		if rules, ok := v["rules"].([]any); ok {
			documents = rules
		} else {
			documents = []any{v}
		}
	case nil:
	default:
		return nil, fmt.Errorf("rule file must hold an object or a list, got %T", root)
	}

	if len(documents) == 0 {
		return nil, ErrEmptyRuleFile
	}

	raws := make([]json.RawMessage, 0, len(documents))

	for i, document := range documents {
		raw, err := json.Marshal(document)
		if err != nil {
			return nil, fmt.Errorf("failed to encode rule %d: %w", i, err)
		}

		raws = append(raws, raw)
	}

	return raws, nil
}

// DetectFormat picks the format from the extension of path, sniffing data
// when the extension says nothing (stdin is "-").
func DetectFormat(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return "json"
	}

	return "yaml"
}
