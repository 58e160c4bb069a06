package history_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfredact/history"
)

type counterEntry struct {
	n     *int
	delta int
	fail  bool
}

func (c counterEntry) Label() string { return fmt.Sprintf("add %d", c.delta) }

func (c counterEntry) Apply() error {
	*c.n += c.delta
	return nil
}

func (c counterEntry) Revert() error {
	if c.fail {
		return errors.New("boom")
	}
	*c.n -= c.delta
	return nil
}

func record(l *history.Log, n *int, delta int) {
	e := counterEntry{n: n, delta: delta}
	_ = e.Apply()
	l.Record(e)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	var n int
	l := history.NewLog(0)
	for i := 1; i <= 5; i++ {
		record(l, &n, i)
	}
	require.Equal(t, 15, n)

	for i := 0; i < 5; i++ {
		_, err := l.Undo()
		require.NoError(t, err)
	}
	assert.Equal(t, 0, n)
	assert.False(t, l.CanUndo())
	assert.True(t, l.CanRedo())

	for i := 0; i < 5; i++ {
		_, err := l.Redo()
		require.NoError(t, err)
	}
	assert.Equal(t, 15, n)
	assert.False(t, l.CanRedo())
}

func TestEmptyLogErrors(t *testing.T) {
	l := history.NewLog(3)
	_, err := l.Undo()
	require.Error(t, err)
	assert.ErrorIs(t, err, history.ErrNoHistory)
	var nh *history.NoHistoryError
	require.True(t, errors.As(err, &nh))
	assert.Equal(t, "undo", nh.Op)

	_, err = l.Redo()
	assert.ErrorIs(t, err, history.ErrNoHistory)
}

func TestRecordTruncatesRedoTail(t *testing.T) {
	var n int
	l := history.NewLog(10)
	record(l, &n, 1)
	record(l, &n, 2)
	_, err := l.Undo()
	require.NoError(t, err)
	record(l, &n, 10)

	assert.Equal(t, []string{"add 1", "add 10"}, l.Labels())
	assert.False(t, l.CanRedo())
	assert.Equal(t, 11, n)
}

func TestMaxDepthEvictsOldest(t *testing.T) {
	var n int
	l := history.NewLog(3)
	for i := 1; i <= 5; i++ {
		record(l, &n, i)
	}
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []string{"add 3", "add 4", "add 5"}, l.Labels())

	for l.CanUndo() {
		_, err := l.Undo()
		require.NoError(t, err)
	}
	assert.Equal(t, 3, n)
}

func TestDefaultDepth(t *testing.T) {
	assert.Equal(t, history.DefaultMaxDepth, history.NewLog(-1).MaxDepth())
}

func TestFailedRevertKeepsCursor(t *testing.T) {
	var n int
	l := history.NewLog(5)
	l.Record(counterEntry{n: &n, delta: 1, fail: true})
	_, err := l.Undo()
	require.Error(t, err)
	assert.NotErrorIs(t, err, history.ErrNoHistory)
	assert.Equal(t, 1, l.Cursor())
}
