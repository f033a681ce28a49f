// Package metaconfig loads per-metric metadata and resolves aliases, help text and types.
package metaconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/and161185/metricspush/model"
)

var (
	ErrEmptyAlias  = errors.New("alias without target name")
	ErrUnknownType = errors.New("unknown metric type")
)

// Config maps an original metric name to its metadata. It is read-only after Load.
type Config map[string]model.ConfigEntry

// Load reads a JSON or YAML (.yaml, .yml) config file. An empty path yields an empty config.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metric config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(b)
	default:
		return ParseJSON(b)
	}
}

// ParseJSON decodes a JSON config object.
func ParseJSON(b []byte) (Config, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return Config{}, nil
	}
	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse metric config: %w", err)
	}
	return c.validated()
}

// ParseYAML decodes a YAML config document of the same shape as the JSON one.
func ParseYAML(b []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse metric config: %w", err)
	}
	if c == nil {
		c = Config{}
	}
	return c.validated()
}

func (c Config) validated() (Config, error) {
	if c == nil {
		return Config{}, nil
	}
	for name, e := range c {
		if e.Type != "" {
			if _, ok := model.ParseMetricType(e.Type); !ok {
				return nil, fmt.Errorf("metric %q: %w %q", name, ErrUnknownType, e.Type)
			}
		}
		if e.Alias != nil && strings.TrimSpace(e.Alias.Name) == "" {
			return nil, fmt.Errorf("metric %q: %w", name, ErrEmptyAlias)
		}
	}
	return c, nil
}
