package extract

import (
	"context"
	"errors"
	"sync"

	"github.com/wudi/pdfredact/document"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/ocr"
	"github.com/wudi/pdfredact/textlayer"
)

// Combined reads the text layer and, depending on Mode, appends the OCR text
// of the page after a newline.
type Combined struct {
	Text   Extractor
	OCR    Extractor
	Mode   Mode
	Logger observability.Logger

	warnOnce sync.Once
}

func (c *Combined) Extract(ctx context.Context, doc *document.Document, index int) (textlayer.PageText, error) {
	text := c.Text
	if text == nil {
		text = NewNative()
	}
	pt, err := text.Extract(ctx, doc, index)
	if err != nil {
		return textlayer.PageText{}, err
	}
	if c.OCR == nil || c.Mode == ModeOff || (c.Mode == ModeAuto && !pt.Blank()) {
		return pt, nil
	}
	extra, err := c.OCR.Extract(ctx, doc, index)
	if err != nil {
		if ctx.Err() != nil {
			return textlayer.PageText{}, ctx.Err()
		}
		log := observability.OrNop(c.Logger)
		if errors.Is(err, ocr.ErrUnavailable) {
			c.warnOnce.Do(func() { log.Warn("ocr unavailable, using the text layer only") })
		} else {
			log.Warn("ocr failed", observability.Int("page", index), observability.Error("error", err))
		}
		return pt, nil
	}
	return textlayer.Concat(pt, extra, "\n"), nil
}
