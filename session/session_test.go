package session_test

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfredact/geom"
	"github.com/wudi/pdfredact/history"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/pattern"
	"github.com/wudi/pdfredact/preset"
	"github.com/wudi/pdfredact/region"
	"github.com/wudi/pdfredact/session"
)

func box(x0, y0, x1, y1 float64) geom.Geometry { return geom.RectGeometry(geom.R(x0, y0, x1, y1)) }

func fixedClock() func() time.Time {
	t0 := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return t0 }
}

func TestUndoAllRestoresInitialState(t *testing.T) {
	initial := []region.Region{
		{ID: "seed", Page: 0, Geometry: box(0, 0, 10, 10)},
	}
	s, err := session.New(initial, session.Options{Now: fixedClock()})
	require.NoError(t, err)
	before := s.Regions()

	a, err := s.Add(0, box(20, 20, 40, 40), region.Redact)
	require.NoError(t, err)
	b, err := s.Add(1, box(5, 5, 15, 15), region.Protect)
	require.NoError(t, err)
	require.NoError(t, s.Move(a.ID, 0.3, -7.1))
	require.NoError(t, s.Resize(b.ID, box(0, 0, 100, 50)))
	require.NoError(t, s.ToggleKind("seed"))
	require.NoError(t, s.Remove(a.ID))
	require.NoError(t, s.Clear())
	after := s.Regions()
	require.Empty(t, after)

	const n = 7
	for i := 0; i < n; i++ {
		_, err := s.Undo()
		require.NoError(t, err, "undo %d", i)
	}
	assert.Equal(t, before, s.Regions())
	_, err = s.Undo()
	assert.ErrorIs(t, err, history.ErrNoHistory)

	for i := 0; i < n; i++ {
		_, err := s.Redo()
		require.NoError(t, err, "redo %d", i)
	}
	assert.Equal(t, after, s.Regions())
	_, err = s.Redo()
	var nh *history.NoHistoryError
	assert.True(t, errors.As(err, &nh))
}

func TestRedoMatchesPostMutationState(t *testing.T) {
	s, err := session.New(nil, session.Options{Now: fixedClock()})
	require.NoError(t, err)
	a, err := s.Add(0, box(0, 0, 10, 10), region.Redact)
	require.NoError(t, err)
	require.NoError(t, s.Move(a.ID, 1.1, 2.2))
	want := s.Regions()

	_, err = s.Undo()
	require.NoError(t, err)
	_, err = s.Undo()
	require.NoError(t, err)
	_, err = s.Redo()
	require.NoError(t, err)
	label, err := s.Redo()
	require.NoError(t, err)
	assert.Equal(t, "move "+a.ID, label)
	assert.Equal(t, want, s.Regions())
}

func TestNewEditDropsRedo(t *testing.T) {
	s, err := session.New(nil, session.Options{})
	require.NoError(t, err)
	_, err = s.Add(0, box(0, 0, 10, 10), region.Redact)
	require.NoError(t, err)
	_, err = s.Undo()
	require.NoError(t, err)
	require.True(t, s.CanRedo())
	_, err = s.Add(0, box(0, 0, 20, 20), region.Redact)
	require.NoError(t, err)
	assert.False(t, s.CanRedo())
	labels, cursor := s.History()
	assert.Len(t, labels, 1)
	assert.Equal(t, 1, cursor)
}

func TestFailedEditIsNotRecorded(t *testing.T) {
	s, err := session.New(nil, session.Options{})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Remove("nope"), region.ErrNotFound)
	_, err = s.Add(0, box(0, 0, 0, 10), region.Redact)
	assert.Error(t, err)
	assert.False(t, s.CanUndo())
}

func TestHistoryDepth(t *testing.T) {
	s, err := session.New(nil, session.Options{MaxDepth: 2})
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := s.Add(0, box(0, 0, float64(i+1), 1), region.Redact)
		require.NoError(t, err)
	}
	for s.CanUndo() {
		_, err := s.Undo()
		require.NoError(t, err)
	}
	assert.Len(t, s.Regions(), 2)
}

func TestPromote(t *testing.T) {
	s, err := session.New(nil, session.Options{})
	require.NoError(t, err)
	spans := []pattern.Span{
		{Start: 0, End: 4, Rects: []geom.Rect{geom.R(0, 0, 40, 10), geom.R(0, 20, 30, 30)}},
		{Start: 9, End: 12, Rects: []geom.Rect{geom.R(50, 0, 80, 10)}},
	}
	added, err := s.Promote(2, spans)
	require.NoError(t, err)
	assert.Len(t, added, 3)
	for _, r := range added {
		assert.Equal(t, region.FromPattern, r.Origin)
		assert.Equal(t, 2, r.Page)
	}

	again, err := s.Promote(2, spans)
	require.NoError(t, err)
	assert.Empty(t, again)

	_, err = s.Undo()
	require.NoError(t, err)
	assert.Empty(t, s.Regions())
}

func TestApplyPresetMerges(t *testing.T) {
	s, err := session.New(nil, session.Options{Patterns: pattern.Set{Redact: []pattern.Pattern{pattern.NewKeyword("bank", true)}}})
	require.NoError(t, err)
	reg, err := preset.NewRegistry()
	require.NoError(t, err)
	p, _ := reg.Get("Financial Data")

	s.ApplyPreset(p)
	s.ApplyPreset(p)
	assert.Len(t, s.Patterns().Redact, 7)
	assert.Equal(t, "Financial Data", s.ActivePreset())

	s.SetPatterns(pattern.Set{})
	assert.Empty(t, s.ActivePreset())
	assert.True(t, s.Patterns().Empty())
}

func TestAutosaveThrottleAndFlush(t *testing.T) {
	var saves [][]region.Region
	s, err := session.New(nil, session.Options{
		AutosaveInterval: time.Hour,
		Autosave: func(r []region.Region) error {
			saves = append(saves, r)
			return nil
		},
	})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := s.Add(0, box(0, 0, 10, float64(10+i)), region.Redact)
		require.NoError(t, err)
	}
	require.Len(t, saves, 1)
	assert.Len(t, saves[0], 1)

	require.NoError(t, s.Flush())
	require.Len(t, saves, 2)
	assert.Len(t, saves[1], 3)

	require.NoError(t, s.Flush())
	assert.Len(t, saves, 2)
}

func TestAutosaveEveryEdit(t *testing.T) {
	count := 0
	s, err := session.New(nil, session.Options{
		AutosaveInterval: -1,
		Autosave:         func([]region.Region) error { count++; return nil },
	})
	require.NoError(t, err)
	a, err := s.Add(0, box(0, 0, 1, 1), region.Redact)
	require.NoError(t, err)
	require.NoError(t, s.Remove(a.ID))
	_, err = s.Undo()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestAutosaveFailureIsLoggedAndRetried(t *testing.T) {
	var buf bytes.Buffer
	logger, err := observability.NewZapLogger(observability.LogConfig{Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)
	fail := true
	var saved []region.Region
	s, err := session.New(nil, session.Options{
		AutosaveInterval: time.Hour,
		Logger:           logger,
		Autosave: func(r []region.Region) error {
			if fail {
				return errors.New("disk full")
			}
			saved = r
			return nil
		},
	})
	require.NoError(t, err)
	_, err = s.Add(0, box(0, 0, 10, 10), region.Redact)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"autosave failed"`)
	assert.Contains(t, buf.String(), `"error":"disk full"`)

	fail = false
	require.NoError(t, s.Flush())
	assert.Len(t, saved, 1, "failed save leaves the session dirty")
}

func TestConcurrentEdits(t *testing.T) {
	s, err := session.New(nil, session.Options{})
	require.NoError(t, err)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := s.Add(i%3, box(0, 0, float64(i+1), 5), region.Redact)
			if err == nil {
				_ = s.Move(r.ID, 1, 1)
			}
			_ = s.Regions()
		}(i)
	}
	wg.Wait()
	assert.Len(t, s.Regions(), 16)
	assert.Equal(t, uint64(32), s.Revision())
}
