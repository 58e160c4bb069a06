// Package engine runs the redaction pipeline over whole documents: text
// extraction, pattern matching with exclusions, region resolution and the
// destructive apply.
package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wudi/pdfredact/document"
	"github.com/wudi/pdfredact/extract"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/pattern"
	"github.com/wudi/pdfredact/redact"
	"github.com/wudi/pdfredact/region"
	"github.com/wudi/pdfredact/textlayer"
)

type Options struct {
	Patterns  pattern.Set
	Extractor extract.Extractor
	Resolve   region.ResolverOptions
	Apply     redact.Options
	// Workers bounds how many pages are analysed at once. Values below 2
	// analyse pages one after another.
	Workers int
	Logger  observability.Logger
	Metrics *observability.Metrics
	Tracer  observability.Tracer
}

// Engine is safe for concurrent use as long as each call works on its own
// document.
type Engine struct {
	opts     Options
	matcher  *pattern.Matcher
	resolver *region.Resolver
	applier  *redact.Applier
	logger   observability.Logger
	tracer   observability.Tracer
}

func New(opts Options) *Engine {
	if opts.Extractor == nil {
		opts.Extractor = extract.NewNative()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	logger := observability.OrNop(opts.Logger)
	if opts.Resolve.Logger == nil {
		opts.Resolve.Logger = logger
	}
	if opts.Apply.Logger == nil {
		opts.Apply.Logger = logger
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	return &Engine{
		opts:     opts,
		matcher:  pattern.NewMatcher(pattern.WithLogger(logger)),
		resolver: region.NewResolver(opts.Resolve),
		applier:  redact.NewApplier(),
		logger:   logger,
		tracer:   tracer,
	}
}

// Patterns returns the pattern set the engine matches with.
func (e *Engine) Patterns() pattern.Set { return e.opts.Patterns.Clone() }

// PageAnalysis is the text of one page and the matches that survived the
// exclusions.
type PageAnalysis struct {
	Page     int
	Text     textlayer.PageText
	Matches  []pattern.Span
	Excluded int
}

type Analysis struct {
	Pages    []PageAnalysis
	Warnings []error
}

// Spans returns the surviving matches keyed by page, as the resolver takes
// them.
func (a *Analysis) Spans() map[int][]pattern.Span {
	out := make(map[int][]pattern.Span, len(a.Pages))
	for _, p := range a.Pages {
		if len(p.Matches) > 0 {
			out[p.Page] = p.Matches
		}
	}
	return out
}

// Matches counts the surviving matches over all pages.
func (a *Analysis) Matches() int {
	n := 0
	for _, p := range a.Pages {
		n += len(p.Matches)
	}
	return n
}

type pageSlot struct {
	analysis PageAnalysis
	warnings []error
}

// Analyze extracts every page and matches the pattern set against it. A
// page that fails to extract is analysed as blank and reported as a
// warning. Only a cancelled context aborts the run.
func (e *Engine) Analyze(ctx context.Context, doc *document.Document) (*Analysis, error) {
	ctx, span := e.tracer.StartSpan(ctx, "engine.analyze")
	defer span.Finish()

	n := doc.PageCount()
	span.SetTag("pages", n)
	slots := make([]pageSlot, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slot, err := e.analyzePage(gctx, doc, i)
			if err != nil {
				return err
			}
			slots[i] = slot
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetError(err)
		return nil, err
	}

	a := &Analysis{Pages: make([]PageAnalysis, 0, n)}
	seen := make(map[string]bool)
	patternErrs := 0
	for _, s := range slots {
		a.Pages = append(a.Pages, s.analysis)
		for _, w := range s.warnings {
			// Regex errors repeat on every page.
			if seen[w.Error()] {
				continue
			}
			seen[w.Error()] = true
			if _, ok := w.(*pattern.PatternError); ok {
				patternErrs++
			}
			a.Warnings = append(a.Warnings, w)
		}
	}
	e.opts.Metrics.PatternErrors(patternErrs)
	span.SetTag("matches", a.Matches())
	return a, nil
}

func (e *Engine) analyzePage(ctx context.Context, doc *document.Document, i int) (pageSlot, error) {
	start := time.Now()
	defer func() { e.opts.Metrics.ObservePage(time.Since(start)) }()

	slot := pageSlot{analysis: PageAnalysis{Page: i}}
	pt, err := e.opts.Extractor.Extract(ctx, doc, i)
	if err != nil {
		if ctx.Err() != nil {
			return slot, ctx.Err()
		}
		e.logger.Warn("text extraction failed", observability.Int("page", i), observability.Error("error", err))
		slot.warnings = append(slot.warnings, fmt.Errorf("page %d: extract: %w", i, err))
		pt = textlayer.PageText{Index: i}
	}
	slot.analysis.Text = pt

	candidates, errs := e.matcher.Match(pt, e.opts.Patterns.Redact)
	slot.warnings = append(slot.warnings, errs...)
	kept, errs := e.matcher.Exclude(pt, candidates, e.opts.Patterns.Exclude)
	slot.warnings = append(slot.warnings, errs...)
	for j := range kept {
		kept[j].Page = i
	}
	slot.analysis.Matches = kept
	slot.analysis.Excluded = len(candidates) - len(kept)

	e.logger.Debug("page analysed",
		observability.Int("page", i),
		observability.Int("candidates", len(candidates)),
		observability.Int("matches", len(kept)),
		observability.Duration("elapsed", time.Since(start)))
	return slot, nil
}

// Resolve merges the analysis matches with manual regions.
func (e *Engine) Resolve(a *Analysis, manual []region.Region) region.Result {
	var spans map[int][]pattern.Span
	if a != nil {
		spans = a.Spans()
	}
	return e.resolver.Resolve(spans, manual)
}

// Result is everything one redaction run produced.
type Result struct {
	Analysis *Analysis
	Resolved region.Result
	Report   *redact.Report
}

// Warnings gathers the non-fatal problems of every stage.
func (r *Result) Warnings() []error {
	var out []error
	if r.Analysis != nil {
		out = append(out, r.Analysis.Warnings...)
	}
	out = append(out, r.Resolved.Warnings...)
	if r.Report != nil {
		out = append(out, r.Report.Warnings...)
	}
	return out
}

// Redact analyses doc, resolves the regions and burns them into doc. The
// context is honoured until the apply starts.
func (e *Engine) Redact(ctx context.Context, doc *document.Document, manual []region.Region) (*Result, error) {
	ctx, span := e.tracer.StartSpan(ctx, "engine.redact")
	defer span.Finish()

	a, err := e.Analyze(ctx, doc)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	res := e.Resolve(a, manual)
	e.logger.Info("regions resolved",
		observability.Int("regions", len(res.Regions)),
		observability.Int("vetoed", res.Vetoed),
		observability.Int("deduplicated", res.Deduplicated))

	rep, err := e.applier.Apply(doc, res.Regions, e.opts.Apply)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	e.opts.Metrics.RegionsApplied(rep.Regions)
	span.SetTag("regions", rep.Regions)
	return &Result{Analysis: a, Resolved: res, Report: rep}, nil
}

// RedactFile redacts src into dst. src is never modified.
func (e *Engine) RedactFile(ctx context.Context, src, dst string, manual []region.Region) (*Result, error) {
	doc, err := document.Open(src)
	if err != nil {
		return nil, err
	}
	res, err := e.Redact(ctx, doc, manual)
	if err != nil {
		return nil, err
	}
	if err := doc.Save(dst, document.SaveOptions{}); err != nil {
		return nil, err
	}
	return res, nil
}

// Scan analyses src and resolves its regions without writing anything.
func (e *Engine) Scan(ctx context.Context, src string, manual []region.Region) (*Result, error) {
	doc, err := document.Open(src)
	if err != nil {
		return nil, err
	}
	a, err := e.Analyze(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &Result{Analysis: a, Resolved: e.Resolve(a, manual)}, nil
}
