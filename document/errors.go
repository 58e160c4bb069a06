package document

import (
	"errors"
	"fmt"
)

var (
	// ErrPageRange is returned for a page index outside the document.
	ErrPageRange = errors.New("document: page out of range")
	// ErrUnsupportedImage marks image encodings that cannot be rewritten in
	// pixel space.
	ErrUnsupportedImage = errors.New("document: unsupported image encoding")
	// ErrNotStream is returned when an object expected to be a stream is not.
	ErrNotStream = errors.New("document: object is not a stream")
)

// IOError reports a failure to read or write a PDF file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s pdf: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
