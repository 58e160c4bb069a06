// Package preset provides named pattern bundles for common redaction jobs.
package preset

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wudi/pdfredact/pattern"
)

//go:embed builtin.yaml
var builtinYAML []byte

// Preset is a named set of keywords, passages and regexes.
type Preset struct {
	Name          string       `json:"name" yaml:"name"`
	Description   string       `json:"description" yaml:"description"`
	Patterns      pattern.File `json:"patterns" yaml:"patterns"`
	RegexPatterns []string     `json:"regex_patterns" yaml:"regex_patterns"`
}

// PatternSet returns the preset as redact patterns. Keywords and regexes
// compare without case.
func (p Preset) PatternSet() pattern.Set {
	var s pattern.Set
	for _, pt := range p.Patterns.Patterns() {
		if pt.Kind == pattern.Regex {
			pt.CaseInsensitive = true
		}
		s.Redact = append(s.Redact, pt)
	}
	for _, expr := range p.RegexPatterns {
		if strings.TrimSpace(expr) != "" {
			s.Redact = append(s.Redact, pattern.NewRegex(expr, true))
		}
	}
	return s
}

// Builtins decodes the embedded presets in declaration order.
func Builtins() ([]Preset, error) {
	var out []Preset
	if err := yaml.Unmarshal(builtinYAML, &out); err != nil {
		return nil, fmt.Errorf("preset: decode builtin: %w", err)
	}
	return out, nil
}

// Registry holds built-in presets plus user presets. A user preset with the
// name of a built-in shadows it.
type Registry struct {
	builtin map[string]Preset
	order   []string
	user    map[string]Preset
}

func NewRegistry(user ...Preset) (*Registry, error) {
	builtins, err := Builtins()
	if err != nil {
		return nil, err
	}
	r := &Registry{builtin: make(map[string]Preset, len(builtins)), user: make(map[string]Preset)}
	for _, p := range builtins {
		r.builtin[p.Name] = p
		r.order = append(r.order, p.Name)
	}
	for _, p := range user {
		if err := r.Add(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add stores a user preset, replacing any user preset of the same name.
func (r *Registry) Add(p Preset) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("preset: empty name")
	}
	r.user[p.Name] = p
	return nil
}

// Remove deletes a user preset. Built-ins cannot be removed.
func (r *Registry) Remove(name string) bool {
	if _, ok := r.user[name]; !ok {
		return false
	}
	delete(r.user, name)
	return true
}

func (r *Registry) Get(name string) (Preset, bool) {
	if p, ok := r.user[name]; ok {
		return p, true
	}
	p, ok := r.builtin[name]
	return p, ok
}

// IsBuiltin reports whether name is one of the embedded presets.
func (r *Registry) IsBuiltin(name string) bool {
	_, ok := r.builtin[name]
	return ok
}

// Names lists built-ins in declaration order followed by the remaining user
// presets sorted by name.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	var extra []string
	for name := range r.user {
		if _, ok := r.builtin[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// User returns the user presets sorted by name. Only these are persisted.
func (r *Registry) User() []Preset {
	out := make([]Preset, 0, len(r.user))
	for _, p := range r.user {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
