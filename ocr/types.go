// Package ocr defines the contract between the text extraction pipeline and
// an OCR provider. Engines receive encoded page images and return words with
// pixel boxes; mapping those boxes back onto the page is the caller's job.
package ocr

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by the default engine when no provider has been
// registered, for example in builds without the tesseract tag.
var ErrUnavailable = errors.New("ocr: no engine available")

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
)

// Region is a rectangle in pixel coordinates with the origin in the upper
// left corner of the image.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// IsEmpty reports whether the region has non-positive dimensions.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Input is a single image submitted for OCR.
type Input struct {
	// ID is echoed back in the matching Result.
	ID     string
	Image  []byte
	Format ImageFormat
	// PageIndex is the zero-based page the image was drawn on.
	PageIndex int
	// Width and Height are the pixel size of Image.
	Width, Height int
	// DPI is the effective resolution; zero means unknown.
	DPI int
	// Languages are trained data names such as "eng" or "deu".
	Languages []string
	// Region restricts recognition to part of the image. Nil means all of it.
	Region *Region
	// Metadata passes engine specific variables through unchanged.
	Metadata map[string]string
}

// Word is one recognised token.
type Word struct {
	Text string
	// Bounds is in pixels of the submitted image.
	Bounds     Region
	Confidence float64
}

// Result is the OCR output for one input.
type Result struct {
	InputID string
	Text    string
	// Words are in reading order.
	Words      []Word
	Language   string
	Confidence float64
}

// Engine recognises one image per call.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}

// BatchEngine handles several images in one call so providers can amortise
// setup.
type BatchEngine interface {
	Engine
	RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error)
}
