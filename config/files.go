// Package config reads and writes the JSON files the tool keeps next to
// documents, the timestamped data directory and the application settings.
//
// Loaders never fail hard: on any problem they return an empty value and a
// *ConfigError the caller may log and ignore.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/wudi/pdfredact/geom"
	"github.com/wudi/pdfredact/pattern"
	"github.com/wudi/pdfredact/preset"
	"github.com/wudi/pdfredact/region"
)

const (
	KindPatterns   = "patterns"
	KindExclusions = "exclusions"
	KindRegions    = "regions"
	KindPresets    = "presets"
)

func emptyFile() pattern.File { return pattern.File{Keywords: []string{}, Passages: []string{}} }

func normalizeFile(f pattern.File) pattern.File {
	if f.Keywords == nil {
		f.Keywords = []string{}
	}
	if f.Passages == nil {
		f.Passages = []string{}
	}
	if len(f.Regex) == 0 {
		f.Regex = nil
	}
	return f
}

// LoadPatterns reads {"keywords": [...], "passages": [...], "regex": [...]}.
func LoadPatterns(path string) (pattern.File, error) {
	data, err := readFile(path, KindPatterns)
	if err != nil {
		return emptyFile(), err
	}
	var f pattern.File
	if err := json.Unmarshal(data, &f); err != nil {
		return emptyFile(), newConfigError(path, KindPatterns, err)
	}
	return normalizeFile(f), nil
}

func SavePatterns(path string, f pattern.File) error {
	return writeJSON(path, normalizeFile(f))
}

// LoadExclusions reads an exclusion file. Besides the pattern file shape it
// accepts a bare list of keywords.
func LoadExclusions(path string) (pattern.File, error) {
	data, err := readFile(path, KindExclusions)
	if err != nil {
		return emptyFile(), err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var words []string
		if err := json.Unmarshal(trimmed, &words); err != nil {
			return emptyFile(), newConfigError(path, KindExclusions, err)
		}
		return normalizeFile(pattern.File{Keywords: words}), nil
	}
	var f pattern.File
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return emptyFile(), newConfigError(path, KindExclusions, err)
	}
	return normalizeFile(f), nil
}

func SaveExclusions(path string, f pattern.File) error {
	return writeJSON(path, normalizeFile(f))
}

type regionFile struct {
	Regions []region.Region `json:"regions"`
}

type rawRegionFile struct {
	Regions json.RawMessage `json:"regions"`
	Protect json.RawMessage `json:"protect"`
}

// LoadRegions reads a region file in either the current list form or the
// legacy form keyed by page number with separate redact and protect maps.
func LoadRegions(path string) ([]region.Region, error) {
	data, err := readFile(path, KindRegions)
	if err != nil {
		return nil, err
	}
	regions, err := DecodeRegions(data)
	if err != nil {
		return nil, newConfigError(path, KindRegions, err)
	}
	return regions, nil
}

// DecodeRegions parses region file contents.
func DecodeRegions(data []byte) ([]region.Region, error) {
	var raw rawRegionFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	body := bytes.TrimSpace(raw.Regions)
	if len(body) > 0 && body[0] == '[' {
		var f regionFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		if _, err := region.NewSet(f.Regions...); err != nil {
			return nil, err
		}
		return f.Regions, nil
	}
	redact, err := decodeLegacy(raw.Regions, region.Redact)
	if err != nil {
		return nil, err
	}
	protect, err := decodeLegacy(raw.Protect, region.Protect)
	if err != nil {
		return nil, err
	}
	return append(redact, protect...), nil
}

func decodeLegacy(raw json.RawMessage, kind region.Kind) ([]region.Region, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}
	var byPage map[string][][]float64
	if err := json.Unmarshal(raw, &byPage); err != nil {
		return nil, fmt.Errorf("legacy %s map: %w", kind, err)
	}
	pages := make([]int, 0, len(byPage))
	keys := make(map[int]string, len(byPage))
	for k := range byPage {
		p, err := strconv.Atoi(k)
		if err != nil || p < 0 {
			return nil, fmt.Errorf("legacy %s map: bad page key %q", kind, k)
		}
		pages = append(pages, p)
		keys[p] = k
	}
	sort.Ints(pages)
	var out []region.Region
	for _, p := range pages {
		for i, bbox := range byPage[keys[p]] {
			if len(bbox) != 4 {
				return nil, fmt.Errorf("legacy %s page %d entry %d: want 4 numbers, got %d", kind, p, i, len(bbox))
			}
			out = append(out, region.Region{
				ID:       fmt.Sprintf("legacy-%s-%d-%d", kind, p, i),
				Page:     p,
				Kind:     kind,
				Geometry: geom.RectGeometry(geom.Rect{X0: bbox[0], Y0: bbox[1], X1: bbox[2], Y1: bbox[3]}),
			})
		}
	}
	return out, nil
}

// SaveRegions writes regions in the current list form.
func SaveRegions(path string, regions []region.Region) error {
	if regions == nil {
		regions = []region.Region{}
	}
	return writeJSON(path, regionFile{Regions: regions})
}

type presetFile struct {
	Presets []preset.Preset `json:"presets"`
}

// LoadPresets reads user presets, either {"presets": [...]} or an object
// keyed by preset name.
func LoadPresets(path string) ([]preset.Preset, error) {
	data, err := readFile(path, KindPresets)
	if err != nil {
		return nil, err
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, newConfigError(path, KindPresets, err)
	}
	if list, ok := probe["presets"]; ok && len(bytes.TrimSpace(list)) > 0 && bytes.TrimSpace(list)[0] == '[' {
		var f presetFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, newConfigError(path, KindPresets, err)
		}
		return f.Presets, nil
	}
	names := make([]string, 0, len(probe))
	for name := range probe {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]preset.Preset, 0, len(names))
	for _, name := range names {
		var p preset.Preset
		if err := json.Unmarshal(probe[name], &p); err != nil {
			return nil, newConfigError(path, KindPresets, fmt.Errorf("preset %q: %w", name, err))
		}
		if p.Name == "" {
			p.Name = name
		}
		out = append(out, p)
	}
	return out, nil
}

// SavePresets writes the user presets of r.
func SavePresets(path string, r *preset.Registry) error {
	return writeJSON(path, presetFile{Presets: r.User()})
}
