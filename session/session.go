// Package session owns the editable state of one document: its region set,
// its pattern configuration and the undo/redo log over region edits.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/wudi/pdfredact/geom"
	"github.com/wudi/pdfredact/history"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/pattern"
	"github.com/wudi/pdfredact/preset"
	"github.com/wudi/pdfredact/region"
)

// DefaultAutosaveInterval throttles autosave writes.
const DefaultAutosaveInterval = 5 * time.Second

// AutosaveFunc persists a snapshot of the regions.
type AutosaveFunc func(regions []region.Region) error

type Options struct {
	MaxDepth int
	// AutosaveInterval is the minimum time between two autosaves. A
	// negative interval saves after every edit.
	AutosaveInterval time.Duration
	Autosave         AutosaveFunc
	Patterns         pattern.Set
	Logger           observability.Logger
	Now              func() time.Time
}

// Session serialises every edit behind one mutex. All methods are safe for
// concurrent use.
type Session struct {
	mu       sync.Mutex
	set      *region.Set
	log      *history.Log
	patterns pattern.Set
	preset   string

	save     AutosaveFunc
	throttle *rate.Sometimes
	dirty    bool
	logger   observability.Logger
	now      func() time.Time
}

// New starts a session over an initial region list.
func New(initial []region.Region, opts Options) (*Session, error) {
	set, err := region.NewSet(initial...)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s := &Session{
		set:      set,
		log:      history.NewLog(opts.MaxDepth),
		patterns: opts.Patterns.Clone(),
		save:     opts.Autosave,
		logger:   observability.OrNop(opts.Logger),
		now:      opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	switch {
	case opts.AutosaveInterval < 0:
		s.throttle = &rate.Sometimes{Every: 1}
	case opts.AutosaveInterval == 0:
		s.throttle = &rate.Sometimes{Interval: DefaultAutosaveInterval}
	default:
		s.throttle = &rate.Sometimes{Interval: opts.AutosaveInterval}
	}
	return s, nil
}

// entry records one applied mutation together with its inverse. Replaying
// either direction refreshes the other so repeated undo/redo stays exact.
type entry struct {
	set     *region.Set
	label   string
	forward region.Mutation
	inverse region.Mutation
}

func (e *entry) Label() string { return e.label }

func (e *entry) Apply() error {
	inv, err := region.Apply(e.set, e.forward)
	if err != nil {
		return err
	}
	e.inverse = inv
	return nil
}

func (e *entry) Revert() error {
	fwd, err := region.Apply(e.set, e.inverse)
	if err != nil {
		return err
	}
	e.forward = fwd
	return nil
}

// do applies m, records it and schedules an autosave. Callers hold mu.
func (s *Session) do(m region.Mutation) error {
	inv, err := region.Apply(s.set, m)
	if err != nil {
		return err
	}
	s.log.Record(&entry{set: s.set, label: m.Label(), forward: m, inverse: inv})
	s.changed()
	return nil
}

func (s *Session) changed() {
	s.dirty = true
	if s.save == nil {
		return
	}
	s.throttle.Do(s.persist)
}

func (s *Session) persist() {
	if err := s.save(s.set.All()); err != nil {
		s.logger.Warn("autosave failed", observability.Error("error", err))
		return
	}
	s.dirty = false
}

// Add creates a manual region with a fresh id.
func (s *Session) Add(page int, g geom.Geometry, kind region.Kind) (region.Region, error) {
	r := region.Region{
		ID:        uuid.NewString(),
		Page:      page,
		Geometry:  g.Clone(),
		Kind:      kind,
		Origin:    region.Manual,
		CreatedAt: s.now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.do(region.Add{Region: r, Index: -1}); err != nil {
		return region.Region{}, err
	}
	return r, nil
}

// Insert adds a region that already carries an id.
func (s *Session) Insert(r region.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.do(region.Add{Region: r, Index: -1})
}

func (s *Session) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.do(region.Remove{ID: id})
}

func (s *Session) Move(id string, dx, dy float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.do(region.Move{ID: id, DX: dx, DY: dy})
}

func (s *Session) Resize(id string, g geom.Geometry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.do(region.Resize{ID: id, Geometry: g})
}

func (s *Session) ToggleKind(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.do(region.ToggleKind{ID: id})
}

// Promote turns pattern matches into persistent regions as a single undo
// step. Fragments already present are skipped. It returns the regions
// added.
func (s *Session) Promote(page int, spans []pattern.Span) ([]region.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var added []region.Region
	var muts []region.Mutation
	for _, sp := range spans {
		for _, r := range region.SpanRegions(page, sp) {
			if _, exists := s.set.Get(r.ID); exists {
				continue
			}
			r.CreatedAt = s.now().UTC()
			added = append(added, r)
			muts = append(muts, region.Add{Region: r, Index: -1})
		}
	}
	if len(muts) == 0 {
		return nil, nil
	}
	if err := s.do(region.Batch{Name: fmt.Sprintf("promote %d matches", len(muts)), Mutations: muts}); err != nil {
		return nil, err
	}
	return added, nil
}

// Clear removes every region as one undo step.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set.Len() == 0 {
		return nil
	}
	return s.do(region.Clear{})
}

// Undo reverts the last edit and returns its label. With nothing to undo it
// returns a *history.NoHistoryError and changes nothing.
func (s *Session) Undo() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.log.Undo()
	if err != nil {
		return "", err
	}
	s.changed()
	return e.Label(), nil
}

func (s *Session) Redo() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.log.Redo()
	if err != nil {
		return "", err
	}
	s.changed()
	return e.Label(), nil
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.CanRedo()
}

// History lists edit labels oldest first, and the cursor position.
func (s *Session) History() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Labels(), s.log.Cursor()
}

// Regions returns a copy of the current regions.
func (s *Session) Regions() []region.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.All()
}

func (s *Session) Get(id string) (region.Region, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Get(id)
}

func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Revision()
}

func (s *Session) Patterns() pattern.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patterns.Clone()
}

func (s *Session) SetPatterns(p pattern.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = p.Clone()
	s.preset = ""
}

// ApplyPreset merges a preset into the pattern set, skipping patterns that
// are already present.
func (s *Session) ApplyPreset(p preset.Preset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = s.patterns.Merge(p.PatternSet())
	s.preset = p.Name
	s.logger.Info("preset applied", observability.String("preset", p.Name), observability.Int("patterns", len(s.patterns.Redact)))
}

// ActivePreset is the name of the last preset applied, if the patterns have
// not been replaced since.
func (s *Session) ActivePreset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preset
}

// Flush writes pending edits the throttle held back.
func (s *Session) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty || s.save == nil {
		return nil
	}
	if err := s.save(s.set.All()); err != nil {
		return fmt.Errorf("session: flush: %w", err)
	}
	s.dirty = false
	return nil
}
