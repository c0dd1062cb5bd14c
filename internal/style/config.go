// Package style filters exported features by their tags.
package style

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wegman-software/osm2sql-go/internal/element"
	"github.com/wegman-software/osm2sql-go/internal/geometry"
)

// Config is a style file: one rule set per geometry kind.
type Config struct {
	Points   *Rules `yaml:"points,omitempty"`
	Lines    *Rules `yaml:"lines,omitempty"`
	Polygons *Rules `yaml:"polygons,omitempty"`
}

// Rules decides which features of one geometry kind are kept.
type Rules struct {
	// Include keeps only features with one of these tags. An empty value
	// list or "*" accepts any value.
	Include map[string][]string `yaml:"include,omitempty"`
	// Exclude drops features with one of these tags, after Include.
	Exclude map[string][]string `yaml:"exclude,omitempty"`
	// RequireAny keeps only features having at least one of these keys.
	RequireAny []string `yaml:"require_any,omitempty"`
}

// LoadConfig loads a style configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read style file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse style YAML: %w", err)
	}
	return &cfg, nil
}

// Filter applies a Config. A nil *Filter keeps everything.
type Filter struct {
	byKind map[geometry.Kind]*Rules
}

// NewFilter builds a filter; nil cfg keeps everything.
func NewFilter(cfg *Config) *Filter {
	f := &Filter{byKind: make(map[geometry.Kind]*Rules, 3)}
	if cfg == nil {
		return f
	}
	f.byKind[geometry.Point] = cfg.Points
	f.byKind[geometry.Line] = cfg.Lines
	f.byKind[geometry.Polygon] = cfg.Polygons
	return f
}

// Match reports whether a feature of the given kind with these tags is kept.
func (f *Filter) Match(kind geometry.Kind, tags element.Tags) bool {
	if f == nil {
		return true
	}
	rules := f.byKind[kind]
	if rules == nil {
		return true
	}
	return rules.match(tags.Map())
}

// Active reports whether any rule is configured.
func (f *Filter) Active() bool {
	if f == nil {
		return false
	}
	for _, r := range f.byKind {
		if r != nil && (len(r.Include) > 0 || len(r.Exclude) > 0 || len(r.RequireAny) > 0) {
			return true
		}
	}
	return false
}

func (r *Rules) match(tags map[string]string) bool {
	if len(r.RequireAny) > 0 && !hasAnyKey(tags, r.RequireAny) {
		return false
	}
	if len(r.Include) > 0 && !matchesAny(tags, r.Include) {
		return false
	}
	if len(r.Exclude) > 0 && matchesAny(tags, r.Exclude) {
		return false
	}
	return true
}

func hasAnyKey(tags map[string]string, keys []string) bool {
	for _, key := range keys {
		if _, ok := tags[key]; ok {
			return true
		}
	}
	return false
}

// matchesAny reports whether some tag matches a key with one of its values.
func matchesAny(tags map[string]string, rules map[string][]string) bool {
	for key, values := range rules {
		value, ok := tags[key]
		if !ok {
			continue
		}
		if len(values) == 0 {
			return true
		}
		for _, v := range values {
			if v == "*" || v == value {
				return true
			}
		}
	}
	return false
}
