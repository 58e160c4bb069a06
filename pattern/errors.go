package pattern

import (
	"errors"
	"fmt"
)

// ErrInvalidRegex is matched by every PatternError.
var ErrInvalidRegex = errors.New("pattern: invalid regex")

// PatternError reports a regex that could not be compiled or evaluated. The
// pattern is skipped for the run; other patterns still match.
type PatternError struct {
	Index int
	Expr  string
	Err   error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern %d: invalid regex %q: %v", e.Index, e.Expr, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

func (e *PatternError) Is(target error) bool { return target == ErrInvalidRegex }
