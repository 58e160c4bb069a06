package config

import (
	"errors"
	"fmt"
	"io/fs"
)

// ConfigError reports a configuration file that could not be used. Loaders
// return it next to an empty value; it is a warning, not a failure.
type ConfigError struct {
	Path    string
	Kind    string
	Missing bool
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Missing {
		return fmt.Sprintf("%s file %s not found", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s file %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func newConfigError(path, kind string, err error) *ConfigError {
	return &ConfigError{Path: path, Kind: kind, Missing: errors.Is(err, fs.ErrNotExist), Err: err}
}

// IsMissing reports whether err is a ConfigError for an absent file.
func IsMissing(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce) && ce.Missing
}
