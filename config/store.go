package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wudi/pdfredact/region"
)

// TimestampLayout is the suffix format of timestamped data files.
const TimestampLayout = "2006-01-02-1504"

const (
	PurposeRegions  = "regions"
	PurposePatterns = "patterns"
)

// Store manages the data directory: timestamped snapshots named
// stem_purpose_YYYY-MM-DD-HHMM.json and one stem_purpose_autosave.json per
// document.
type Store struct {
	Dir string
	Now func() time.Time
}

func NewStore(dir string) *Store { return &Store{Dir: dir, Now: time.Now} }

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// TimestampedPath names a new snapshot for stem and purpose.
func (s *Store) TimestampedPath(stem, purpose string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s_%s_%s.json", stem, purpose, s.now().Format(TimestampLayout)))
}

func (s *Store) AutosavePath(stem, purpose string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s_%s_autosave.json", stem, purpose))
}

func (s *Store) PresetsPath() string { return filepath.Join(s.Dir, "presets.json") }

// Latest returns the autosave file when present, otherwise the snapshot with
// the newest timestamp. Files whose suffix is not a timestamp are ranked by
// modification time.
func (s *Store) Latest(stem, purpose string) (string, bool) {
	auto := s.AutosavePath(stem, purpose)
	if _, err := os.Stat(auto); err == nil {
		return auto, true
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return "", false
	}
	prefix := stem + "_" + purpose + "_"
	var (
		best   string
		bestAt time.Time
	)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		at, err := time.ParseInLocation(TimestampLayout, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json"), time.Local)
		if err != nil {
			info, ierr := e.Info()
			if ierr != nil {
				continue
			}
			at = info.ModTime()
		}
		if best == "" || at.After(bestAt) || (at.Equal(bestAt) && name > filepath.Base(best)) {
			best, bestAt = filepath.Join(s.Dir, name), at
		}
	}
	return best, best != ""
}

// SaveRegions writes a new timestamped region snapshot and returns its path.
func (s *Store) SaveRegions(stem string, regions []region.Region) (string, error) {
	path := s.TimestampedPath(stem, PurposeRegions)
	if err := SaveRegions(path, regions); err != nil {
		return "", fmt.Errorf("save regions: %w", err)
	}
	return path, nil
}

// Autosave overwrites the document's autosave file.
func (s *Store) Autosave(stem string, regions []region.Region) error {
	return SaveRegions(s.AutosavePath(stem, PurposeRegions), regions)
}

// LatestRegions loads the most recent region file for stem. With none on
// disk it returns no regions and a missing ConfigError.
func (s *Store) LatestRegions(stem string) ([]region.Region, string, error) {
	path, ok := s.Latest(stem, PurposeRegions)
	if !ok {
		return nil, "", &ConfigError{Path: s.AutosavePath(stem, PurposeRegions), Kind: KindRegions, Missing: true, Err: os.ErrNotExist}
	}
	regions, err := LoadRegions(path)
	return regions, path, err
}
