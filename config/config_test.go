package config_test

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfredact/config"
	"github.com/wudi/pdfredact/geom"
	"github.com/wudi/pdfredact/pattern"
	"github.com/wudi/pdfredact/preset"
	"github.com/wudi/pdfredact/region"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestPatternsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "p.json", `{"keywords": ["CONFIDENTIAL"], "passages": ["the quick brown fox"]}`)
	f, err := config.LoadPatterns(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"CONFIDENTIAL"}, f.Keywords)
	assert.Nil(t, f.Regex)

	out := filepath.Join(dir, "out.json")
	require.NoError(t, config.SavePatterns(out, f))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "regex")

	again, err := config.LoadPatterns(out)
	require.NoError(t, err)
	assert.Equal(t, f, again)
}

func TestPatternsWithRegex(t *testing.T) {
	dir := t.TempDir()
	f := pattern.File{Keywords: []string{"a"}, Passages: []string{}, Regex: []string{`\d+`}}
	p := filepath.Join(dir, "p.json")
	require.NoError(t, config.SavePatterns(p, f))
	got, err := config.LoadPatterns(p)
	require.NoError(t, err)
	assert.Equal(t, f, got)
	_, err = os.Stat(p + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadFailuresAreWarnings(t *testing.T) {
	dir := t.TempDir()
	f, err := config.LoadPatterns(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.True(t, config.IsMissing(err))
	assert.Empty(t, f.Keywords)
	assert.NotNil(t, f.Keywords)

	bad := writeFile(t, dir, "bad.json", `{"keywords": [`)
	_, err = config.LoadPatterns(bad)
	var ce *config.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.False(t, ce.Missing)
	assert.Equal(t, config.KindPatterns, ce.Kind)
	assert.Equal(t, bad, ce.Path)
}

func TestExclusionsBareList(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "ex.json", `["Public Record", "Acme"]`)
	f, err := config.LoadExclusions(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"Public Record", "Acme"}, f.Keywords)
	assert.Empty(t, f.Passages)

	p2 := writeFile(t, dir, "ex2.json", `{"keywords": ["x"], "passages": ["y z"]}`)
	f2, err := config.LoadExclusions(p2)
	require.NoError(t, err)
	assert.Equal(t, []string{"y z"}, f2.Passages)
}

func TestLegacyRegions(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "doc_regions.json", `{
  "regions": {"1": [[10, 20, 30, 40]], "0": [[1, 2, 3, 4], [5, 6, 7, 8]]},
  "protect": {"0": [[0, 0, 100, 100]]}
}`)
	regs, err := config.LoadRegions(p)
	require.NoError(t, err)
	require.Len(t, regs, 4)
	assert.Equal(t, "legacy-redact-0-0", regs[0].ID)
	assert.Equal(t, geom.R(1, 2, 3, 4), regs[0].Geometry.Rect)
	assert.Equal(t, 1, regs[2].Page)
	assert.Equal(t, region.Protect, regs[3].Kind)

	out := filepath.Join(dir, "out.json")
	require.NoError(t, config.SaveRegions(out, regs))
	again, err := config.LoadRegions(out)
	require.NoError(t, err)
	require.Len(t, again, len(regs))
	for i := range regs {
		assert.True(t, regs[i].Equal(again[i]))
	}
}

func TestLegacyRegionsRejectsBadBox(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "r.json", `{"regions": {"0": [[1, 2, 3]]}}`)
	regs, err := config.LoadRegions(p)
	assert.Error(t, err)
	assert.Empty(t, regs)
}

func TestCurrentRegionsRejectDuplicates(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "r.json", `{"regions": [
  {"id": "a", "page": 0, "kind": "redact", "rect": [0, 0, 1, 1]},
  {"id": "a", "page": 0, "kind": "redact", "rect": [0, 0, 2, 2]}
]}`)
	_, err := config.LoadRegions(p)
	assert.ErrorIs(t, err, region.ErrDuplicateID)
}

func TestEmptyRegionsSaveAsList(t *testing.T) {
	p := filepath.Join(t.TempDir(), "r.json")
	require.NoError(t, config.SaveRegions(p, nil))
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"regions": []}`, string(data))
}

func TestPresetsBothForms(t *testing.T) {
	dir := t.TempDir()
	legacy := writeFile(t, dir, "legacy.json", `{
  "Mine": {"name": "Mine", "description": "d", "patterns": {"keywords": ["k"], "passages": []}, "regex_patterns": ["x+"]}
}`)
	ps, err := config.LoadPresets(legacy)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, []string{"x+"}, ps[0].RegexPatterns)

	reg, err := preset.NewRegistry(ps...)
	require.NoError(t, err)
	out := filepath.Join(dir, "presets.json")
	require.NoError(t, config.SavePresets(out, reg))
	again, err := config.LoadPresets(out)
	require.NoError(t, err)
	assert.Equal(t, ps, again)
}

func TestStoreLatest(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 6, 7, 8, 0, 0, time.Local)
	s := &config.Store{Dir: dir, Now: func() time.Time { return now }}

	_, ok := s.Latest("doc", config.PurposeRegions)
	assert.False(t, ok)

	first, err := s.SaveRegions("doc", []region.Region{{ID: "a", Geometry: geom.RectGeometry(geom.R(0, 0, 1, 1))}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "doc_regions_2024-05-06-0708.json"), first)

	now = now.Add(3 * time.Hour)
	second, err := s.SaveRegions("doc", nil)
	require.NoError(t, err)
	writeFile(t, dir, "other_regions_2030-01-01-0000.json", `{"regions": []}`)

	got, ok := s.Latest("doc", config.PurposeRegions)
	require.True(t, ok)
	assert.Equal(t, second, got)

	require.NoError(t, s.Autosave("doc", []region.Region{{ID: "z", Geometry: geom.RectGeometry(geom.R(0, 0, 5, 5))}}))
	regs, path, err := s.LatestRegions("doc")
	require.NoError(t, err)
	assert.Equal(t, s.AutosavePath("doc", config.PurposeRegions), path)
	require.Len(t, regs, 1)
	assert.Equal(t, "z", regs[0].ID)
}

func TestDefaultApp(t *testing.T) {
	app := config.DefaultApp()
	assert.Equal(t, "auto", app.OCR.Mode)
	assert.Equal(t, 5*time.Second, app.Autosave.Interval)
	assert.Equal(t, 50, app.History.MaxDepth)
	assert.True(t, app.Apply.Fill)
	assert.Equal(t, []string{"eng"}, app.OCR.Languages)
}

func TestLoadAppLayers(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "pdfredact.yaml", "ocr:\n  mode: always\nworkers: 3\napply:\n  color: \"#ff0000\"\n")
	t.Setenv("REDACT_WORKERS", "4")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("color", "#000000", "")
	require.NoError(t, flags.Parse([]string{"--color", "#00ff00"}))

	app, err := config.LoadApp(p, flags)
	require.NoError(t, err)
	assert.Equal(t, "always", app.OCR.Mode)
	assert.Equal(t, 4, app.Workers)
	assert.Equal(t, "#00ff00", app.Apply.Color)
}

func TestLoadAppValidates(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "bad.yaml", "ocr:\n  mode: sometimes\n")
	_, err := config.LoadApp(p, nil)
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	c, err := config.ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x80, A: 0xff}, c)
	c, err = config.ParseColor("fff")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, c)
	_, err = config.ParseColor("#12345")
	assert.Error(t, err)
}

func TestWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "patterns.json", `{}`)
	w, err := config.NewWatcher([]string{p}, 50*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got := make(chan []string, 4)
	go func() {
		_ = w.Run(ctx, func(changed []string) { got <- changed })
	}()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "unrelated.json", `{}`)
	for i := 0; i < 3; i++ {
		writeFile(t, dir, "patterns.json", `{"keywords":["x"]}`)
	}

	select {
	case changed := <-got:
		require.Len(t, changed, 1)
		abs, _ := filepath.Abs(p)
		assert.Equal(t, abs, changed[0])
	case <-ctx.Done():
		t.Fatal("no change reported")
	}
}
