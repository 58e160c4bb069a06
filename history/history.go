// Package history implements a bounded undo/redo log.
package history

import (
	"errors"
	"fmt"
)

// DefaultMaxDepth is the number of entries kept when none is configured.
const DefaultMaxDepth = 50

var ErrNoHistory = errors.New("history: nothing to replay")

// NoHistoryError is returned by Undo or Redo when the log has nothing in that
// direction. It is recoverable; the log is unchanged.
type NoHistoryError struct {
	Op string
}

func (e *NoHistoryError) Error() string { return fmt.Sprintf("%s: %v", e.Op, ErrNoHistory) }

func (e *NoHistoryError) Unwrap() error { return ErrNoHistory }

// Entry is one recorded transition. Apply moves forward, Revert moves back.
type Entry interface {
	Label() string
	Apply() error
	Revert() error
}

// Log is a stack of entries with a cursor. Entries before the cursor can be
// undone, entries at or after it can be redone. Log is not safe for
// concurrent use; the owner serialises access.
type Log struct {
	entries []Entry
	cursor  int
	max     int
}

func NewLog(maxDepth int) *Log {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Log{max: maxDepth}
}

// Record appends e after the cursor, dropping any redo tail. Once the log
// holds more than its depth the oldest entry is evicted.
func (l *Log) Record(e Entry) {
	l.entries = append(l.entries[:l.cursor], e)
	if len(l.entries) > l.max {
		over := len(l.entries) - l.max
		copy(l.entries, l.entries[over:])
		for i := len(l.entries) - over; i < len(l.entries); i++ {
			l.entries[i] = nil
		}
		l.entries = l.entries[:l.max]
	}
	l.cursor = len(l.entries)
}

// Undo reverts the entry before the cursor. If Revert fails the cursor does
// not move.
func (l *Log) Undo() (Entry, error) {
	if l.cursor == 0 {
		return nil, &NoHistoryError{Op: "undo"}
	}
	e := l.entries[l.cursor-1]
	if err := e.Revert(); err != nil {
		return e, fmt.Errorf("undo %s: %w", e.Label(), err)
	}
	l.cursor--
	return e, nil
}

// Redo reapplies the entry at the cursor.
func (l *Log) Redo() (Entry, error) {
	if l.cursor == len(l.entries) {
		return nil, &NoHistoryError{Op: "redo"}
	}
	e := l.entries[l.cursor]
	if err := e.Apply(); err != nil {
		return e, fmt.Errorf("redo %s: %w", e.Label(), err)
	}
	l.cursor++
	return e, nil
}

func (l *Log) CanUndo() bool { return l.cursor > 0 }
func (l *Log) CanRedo() bool { return l.cursor < len(l.entries) }

// Len is the number of recorded entries, including redoable ones.
func (l *Log) Len() int { return len(l.entries) }

func (l *Log) Cursor() int   { return l.cursor }
func (l *Log) MaxDepth() int { return l.max }

// Labels lists entry labels oldest first.
func (l *Log) Labels() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Label()
	}
	return out
}

// Reset drops every entry.
func (l *Log) Reset() {
	l.entries = nil
	l.cursor = 0
}
