package redact

import (
	"image/color"

	"github.com/wudi/pdfredact/observability"
)

// Options control how regions are burnt into a document.
type Options struct {
	// DrawColor fills each region after its content is removed.
	DrawColor color.RGBA
	// Fill draws the DrawColor boxes. Content is removed either way.
	Fill bool
	// ScrubMetadata drops document and page metadata.
	ScrubMetadata bool
	Logger        observability.Logger
}

func DefaultOptions() Options {
	return Options{DrawColor: color.RGBA{A: 0xff}, Fill: true}
}
