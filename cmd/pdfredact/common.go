package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/wudi/pdfredact/config"
	"github.com/wudi/pdfredact/engine"
	"github.com/wudi/pdfredact/extract"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/pattern"
	"github.com/wudi/pdfredact/preset"
	"github.com/wudi/pdfredact/redact"
	"github.com/wudi/pdfredact/region"
)

// runFlags are shared by the commands that analyse documents.
type runFlags struct {
	patterns   string
	exclusions string
	regions    string
	presets    []string
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.patterns, "patterns", "", "pattern file ({\"keywords\": [...], \"passages\": [...]})")
	fs.StringVar(&f.exclusions, "exclusions", "", "exclusion file")
	fs.StringVar(&f.regions, "regions", "", "manual region file")
	fs.StringSliceVar(&f.presets, "preset", nil, "merge a named preset into the patterns (repeatable)")
	fs.String("ocr", "", "OCR mode: auto, always or off")
	fs.StringSlice("ocr-lang", nil, "OCR languages")
	fs.String("engine", "", "text layer: native or ledongthuc")
	fs.String("color", "", "fill color as #rrggbb")
	fs.Bool("scrub-metadata", false, "remove document and page metadata")
	fs.Int("workers", 0, "pages analysed in parallel")
}

// files lists the configuration files a run reads, for watching.
func (f *runFlags) files() []string {
	var out []string
	for _, p := range []string{f.patterns, f.exclusions, f.regions} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// warn logs a configuration problem that does not stop the run.
func (c *cli) warn(err error) {
	if err == nil {
		return
	}
	c.logger.Warn("configuration ignored", observability.Error("error", err))
}

func (c *cli) store() *config.Store { return config.NewStore(c.app.DataDir) }

func (c *cli) registry() (*preset.Registry, error) {
	user, err := config.LoadPresets(c.store().PresetsPath())
	if err != nil && !config.IsMissing(err) {
		c.warn(err)
	}
	return preset.NewRegistry(user...)
}

// patternSet assembles patterns, exclusions and presets. With split set,
// multi-line passages become one passage per line.
func (c *cli) patternSet(f *runFlags, split bool) (pattern.Set, error) {
	var set pattern.Set
	if f.patterns != "" {
		file, err := config.LoadPatterns(f.patterns)
		c.warn(err)
		if split {
			file = file.SplitLines()
		}
		set.Redact = file.Patterns()
	}
	if f.exclusions != "" {
		file, err := config.LoadExclusions(f.exclusions)
		c.warn(err)
		if split {
			file = file.SplitLines()
		}
		set.Exclude = file.Patterns()
	}
	if len(f.presets) > 0 {
		reg, err := c.registry()
		if err != nil {
			return set, err
		}
		for _, name := range f.presets {
			p, ok := reg.Get(name)
			if !ok {
				return set, fmt.Errorf("unknown preset %q (have %s)", name, strings.Join(reg.Names(), ", "))
			}
			set = set.Merge(p.PatternSet())
		}
	}
	return set, nil
}

// manualRegions reads --regions when given, otherwise the latest region
// snapshot of the document in the data directory.
func (c *cli) manualRegions(f *runFlags, input string) []region.Region {
	if f.regions != "" {
		regions, err := config.LoadRegions(f.regions)
		c.warn(err)
		return regions
	}
	regions, path, err := c.store().LatestRegions(stem(input))
	if err != nil {
		if !config.IsMissing(err) {
			c.warn(err)
		}
		return nil
	}
	c.logger.Debug("using saved regions", observability.String("path", path), observability.Int("regions", len(regions)))
	return regions
}

func (c *cli) extractor() (extract.Extractor, error) {
	text, err := extract.ByName(c.app.Extract.Engine)
	if err != nil {
		return nil, err
	}
	mode, err := extract.ParseMode(c.app.OCR.Mode)
	if err != nil {
		return nil, err
	}
	o := extract.NewOCR(nil)
	o.Scale = c.app.OCR.Scale
	o.Languages = c.app.OCR.Languages
	o.DPI = c.app.OCR.DPI
	return &extract.Combined{Text: text, OCR: o, Mode: mode, Logger: c.logger}, nil
}

func (c *cli) newEngine(set pattern.Set, metrics *observability.Metrics) (*engine.Engine, error) {
	ext, err := c.extractor()
	if err != nil {
		return nil, err
	}
	fill, err := config.ParseColor(c.app.Apply.Color)
	if err != nil {
		return nil, err
	}
	if set.Empty() {
		c.logger.Info("no patterns configured, applying manual regions only")
	}
	return engine.New(engine.Options{
		Patterns:  set,
		Extractor: ext,
		Resolve: region.ResolverOptions{
			Tolerance:            c.app.Resolve.Tolerance,
			ContainmentThreshold: c.app.Resolve.ContainmentThreshold,
		},
		Apply: redact.Options{
			DrawColor:     fill,
			Fill:          c.app.Apply.Fill,
			ScrubMetadata: c.app.Apply.ScrubMetadata,
		},
		Workers: c.app.Workers,
		Logger:  c.logger,
		Metrics: metrics,
		Tracer:  observability.LogTracer(c.logger),
	}), nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var errNoOutput = errors.New("output PDF required in CLI mode")
