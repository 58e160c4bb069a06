package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. REDACT_OCR_MODE.
const EnvPrefix = "REDACT"

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ApplySettings struct {
	Color         string `mapstructure:"color"`
	ScrubMetadata bool   `mapstructure:"scrub_metadata"`
	Fill          bool   `mapstructure:"fill"`
}

type ExtractSettings struct {
	Engine string `mapstructure:"engine"`
}

type OCRSettings struct {
	Mode      string   `mapstructure:"mode"`
	Languages []string `mapstructure:"languages"`
	Scale     float64  `mapstructure:"scale"`
	DPI       int      `mapstructure:"dpi"`
}

type HistorySettings struct {
	MaxDepth int `mapstructure:"max_depth"`
}

type ResolveSettings struct {
	Tolerance            float64 `mapstructure:"tolerance"`
	ContainmentThreshold float64 `mapstructure:"containment_threshold"`
}

type AutosaveSettings struct {
	Interval time.Duration `mapstructure:"interval"`
}

// App is the process-wide configuration.
type App struct {
	DataDir  string           `mapstructure:"data_dir"`
	Log      LogSettings      `mapstructure:"log"`
	Apply    ApplySettings    `mapstructure:"apply"`
	Extract  ExtractSettings  `mapstructure:"extract"`
	OCR      OCRSettings      `mapstructure:"ocr"`
	History  HistorySettings  `mapstructure:"history"`
	Resolve  ResolveSettings  `mapstructure:"resolve"`
	Workers  int              `mapstructure:"workers"`
	Autosave AutosaveSettings `mapstructure:"autosave"`
}

// FlagKeys maps command line flag names to configuration keys. Flags that
// are set win over the file and the environment.
var FlagKeys = map[string]string{
	"data-dir":       "data_dir",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"color":          "apply.color",
	"scrub-metadata": "apply.scrub_metadata",
	"engine":         "extract.engine",
	"ocr":            "ocr.mode",
	"ocr-lang":       "ocr.languages",
	"workers":        "workers",
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "pdfredact")
	}
	return ".pdfredact"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("apply.color", "#000000")
	v.SetDefault("apply.scrub_metadata", false)
	v.SetDefault("apply.fill", true)
	v.SetDefault("extract.engine", "native")
	v.SetDefault("ocr.mode", "auto")
	v.SetDefault("ocr.languages", []string{"eng"})
	v.SetDefault("ocr.scale", 2.0)
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("history.max_depth", 50)
	v.SetDefault("resolve.tolerance", 1.0)
	v.SetDefault("resolve.containment_threshold", 1.0)
	v.SetDefault("workers", 1)
	v.SetDefault("autosave.interval", "5s")
}

// DefaultApp returns the built-in configuration.
func DefaultApp() *App {
	v := viper.New()
	setDefaults(v)
	var app App
	if err := v.Unmarshal(&app); err != nil {
		panic(err)
	}
	return &app
}

// LoadApp layers defaults, the optional file at path, REDACT_* variables and
// any changed flags. An empty path reads pdfredact.yaml from the working
// directory or the user config directory when one exists.
func LoadApp(path string, flags *pflag.FlagSet) (*App, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pdfredact")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultDataDir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &ConfigError{Path: path, Kind: "app", Missing: errors.Is(err, os.ErrNotExist), Err: err}
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var app App
	if err := v.Unmarshal(&app); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := app.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &app, nil
}

func (a *App) Validate() error {
	switch a.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q (must be debug, info, warn or error)", a.Log.Level)
	}
	if a.Log.Format != "json" && a.Log.Format != "console" {
		return fmt.Errorf("log.format %q (must be json or console)", a.Log.Format)
	}
	switch a.OCR.Mode {
	case "auto", "always", "off":
	default:
		return fmt.Errorf("ocr.mode %q (must be auto, always or off)", a.OCR.Mode)
	}
	if a.Extract.Engine != "native" && a.Extract.Engine != "ledongthuc" {
		return fmt.Errorf("extract.engine %q (must be native or ledongthuc)", a.Extract.Engine)
	}
	if _, err := ParseColor(a.Apply.Color); err != nil {
		return err
	}
	if a.OCR.Scale <= 0 {
		return fmt.Errorf("ocr.scale must be positive")
	}
	if a.Workers < 1 {
		a.Workers = 1
	}
	if a.Resolve.ContainmentThreshold <= 0 || a.Resolve.ContainmentThreshold > 1 {
		return fmt.Errorf("resolve.containment_threshold %v (must be in (0, 1])", a.Resolve.ContainmentThreshold)
	}
	return nil
}

// ParseColor reads #rrggbb or #rgb.
func ParseColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("color %q: want #rrggbb", s)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}, nil
}
