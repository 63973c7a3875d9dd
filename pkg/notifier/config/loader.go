package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// decoders maps a lower-cased file extension to its parser.
var decoders = map[string]func([]byte) (Config, error){
	".yaml": FromYAML,
	".yml":  FromYAML,
	".json": FromJSON,
}

// FromFile reads path and parses it by extension (.yaml, .yml or .json).
// The extension is checked before the file is opened.
func FromFile(path string) (Config, error) {
	ext := filepath.Ext(path)
	decode, ok := decoders[strings.ToLower(ext)]
	if !ok {
		return Config{}, fmt.Errorf("load %s: unsupported config file extension %q", path, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := decode(data)
	if err != nil {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// FromYAML parses a YAML document whose top level is a mapping. An empty
// document yields an empty Config. Integers stay integers, so Int reads
// them without conversion.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses a JSON object. Numbers arrive as float64; Int and
// Duration accept them.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}
