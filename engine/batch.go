package engine

import (
	"context"
	"time"

	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/region"
)

// Job is one document of a batch run.
type Job struct {
	Input  string
	Output string
	// Regions are manual regions for this document only.
	Regions []region.Region
}

// Outcome reports how one Job went. Err is nil on success.
type Outcome struct {
	Input    string
	Output   string
	Err      error
	Regions  int
	Warnings int
	Duration time.Duration
}

// Batch redacts every job in order and keeps going past failures. The
// context is checked between documents only; a document that has started
// runs to completion. Jobs not started before cancellation report the
// context error.
func (e *Engine) Batch(ctx context.Context, jobs []Job) []Outcome {
	out := make([]Outcome, 0, len(jobs))
	for _, job := range jobs {
		o := Outcome{Input: job.Input, Output: job.Output}
		if err := ctx.Err(); err != nil {
			o.Err = err
			out = append(out, o)
			continue
		}
		start := time.Now()
		res, err := e.RedactFile(context.WithoutCancel(ctx), job.Input, job.Output, job.Regions)
		o.Duration = time.Since(start)
		if err != nil {
			o.Err = err
			e.logger.Error("document failed", observability.String("input", job.Input), observability.Error("error", err))
		} else {
			o.Regions = res.Report.Regions
			o.Warnings = len(res.Warnings())
			e.logger.Info("document redacted",
				observability.String("input", job.Input),
				observability.String("output", job.Output),
				observability.Int("regions", o.Regions),
				observability.Duration("elapsed", o.Duration))
		}
		e.opts.Metrics.DocumentDone(err == nil)
		out = append(out, o)
	}
	return out
}

// Failed counts the outcomes with an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
