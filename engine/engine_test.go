package engine_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfredact/document"
	"github.com/wudi/pdfredact/engine"
	"github.com/wudi/pdfredact/extract"
	"github.com/wudi/pdfredact/geom"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/pattern"
	"github.com/wudi/pdfredact/pdftest"
	"github.com/wudi/pdfredact/redact"
	"github.com/wudi/pdfredact/region"
)

var (
	secret = pdftest.Text{X: 72, Y: 700, Text: "CONFIDENTIAL report"}
	name   = pdftest.Text{X: 72, Y: 680, Text: "Name: John Smith"}
)

func load(t *testing.T, data []byte) *document.Document {
	t.Helper()
	doc, err := document.Load(bytes.NewReader(data))
	require.NoError(t, err)
	return doc
}

func keywords(words ...string) pattern.Set {
	var s pattern.Set
	for _, w := range words {
		s.Redact = append(s.Redact, pattern.NewKeyword(w, true))
	}
	return s
}

func newEngine(set pattern.Set) *engine.Engine {
	return engine.New(engine.Options{Patterns: set, Apply: redact.DefaultOptions()})
}

func pageText(t *testing.T, doc *document.Document, i int) string {
	t.Helper()
	pt, err := extract.NewNative().Extract(context.Background(), doc, i)
	require.NoError(t, err)
	return pt.Text
}

func TestAnalyzeFindsMatches(t *testing.T) {
	doc := load(t, pdftest.TextPDF(secret, name))
	a, err := newEngine(keywords("confidential", "john")).Analyze(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, a.Pages, 1)
	assert.Equal(t, 2, a.Matches())

	texts := []string{a.Pages[0].Matches[0].Text, a.Pages[0].Matches[1].Text}
	assert.Equal(t, []string{"CONFIDENTIAL", "John"}, texts)
	assert.Len(t, a.Spans()[0], 2)
}

func TestAnalyzeAppliesExclusions(t *testing.T) {
	doc := load(t, pdftest.TextPDF(secret, name))
	set := keywords("confidential", "john")
	set.Exclude = []pattern.Pattern{pattern.NewPassage("confidential report")}
	a, err := newEngine(set).Analyze(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, a.Pages[0].Matches, 1)
	assert.Equal(t, "John", a.Pages[0].Matches[0].Text)
	assert.Equal(t, 1, a.Pages[0].Excluded)
}

func TestAnalyzeParallelKeepsPageOrder(t *testing.T) {
	var pages []pdftest.Page
	for i := 0; i < 6; i++ {
		pages = append(pages, pdftest.Page{Lines: []pdftest.Text{secret}})
	}
	doc := load(t, pdftest.Build(pages...))
	e := engine.New(engine.Options{Patterns: keywords("report"), Workers: 4})
	a, err := e.Analyze(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, a.Pages, 6)
	for i, p := range a.Pages {
		assert.Equal(t, i, p.Page)
		require.Len(t, p.Matches, 1)
		assert.Equal(t, i, p.Matches[0].Page)
	}
}

func TestAnalyzeReportsPatternErrorsOnce(t *testing.T) {
	doc := load(t, pdftest.Build(
		pdftest.Page{Lines: []pdftest.Text{secret}},
		pdftest.Page{Lines: []pdftest.Text{name}},
	))
	set := keywords("smith")
	set.Redact = append(set.Redact, pattern.NewRegex("(unclosed", false))
	metrics := observability.NewMetrics()
	e := engine.New(engine.Options{Patterns: set, Metrics: metrics})

	a, err := e.Analyze(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, a.Warnings, 1)
	assert.ErrorIs(t, a.Warnings[0], pattern.ErrInvalidRegex)
	assert.Equal(t, 1, a.Matches(), "valid patterns still match")

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, metrics.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pdfredact_pattern_errors_total 1")
}

func TestAnalyzeCancelled(t *testing.T) {
	doc := load(t, pdftest.TextPDF(secret))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine(keywords("report")).Analyze(ctx, doc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedactRemovesMatches(t *testing.T) {
	doc := load(t, pdftest.TextPDF(secret, name))
	res, err := newEngine(keywords("confidential")).Redact(context.Background(), doc, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.Regions)
	assert.Empty(t, res.Warnings())

	data, err := doc.Bytes()
	require.NoError(t, err)
	got := pageText(t, load(t, data), 0)
	assert.NotContains(t, got, "CONFIDENTIAL")
	assert.Contains(t, got, "John Smith")
}

func TestRedactHonoursProtect(t *testing.T) {
	doc := load(t, pdftest.TextPDF(secret))
	x0, y0, x1, y1 := pdftest.CourierBox(secret, 0, len(secret.Text))
	protect := region.Region{
		ID:       "keep",
		Kind:     region.Protect,
		Geometry: geom.RectGeometry(geom.R(x0-5, y0-5, x1+5, y1+5)),
	}
	res, err := newEngine(keywords("confidential")).Redact(context.Background(), doc, []region.Region{protect})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Resolved.Vetoed)
	assert.Zero(t, res.Report.Regions)
	assert.Contains(t, pageText(t, doc, 0), "CONFIDENTIAL")
}

func TestRedactManualRegion(t *testing.T) {
	doc := load(t, pdftest.TextPDF(secret, name))
	x0, y0, x1, y1 := pdftest.CourierBox(name, 6, 10)
	manual := region.Region{ID: "m1", Origin: region.Manual, Geometry: geom.RectGeometry(geom.R(x0, y0, x1, y1))}
	res, err := newEngine(pattern.Set{}).Redact(context.Background(), doc, []region.Region{manual})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.Regions)
	assert.NotContains(t, pageText(t, doc, 0), "John")
}

func TestBatchFailsOnUnparsedContent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(src, pdftest.Build(pdftest.Page{Lines: []pdftest.Text{secret}, Extra: "]"}), 0o644))
	x0, y0, x1, y1 := pdftest.CourierBox(secret, 0, 12)
	manual := region.Region{ID: "m1", Origin: region.Manual, Geometry: geom.RectGeometry(geom.R(x0, y0, x1, y1))}

	dst := filepath.Join(dir, "out.pdf")
	outcomes := newEngine(pattern.Set{}).Batch(context.Background(), []engine.Job{{Input: src, Output: dst, Regions: []region.Region{manual}}})
	require.Len(t, outcomes, 1)
	require.ErrorIs(t, outcomes[0].Err, redact.ErrUnparsedContent)
	_, err := os.Stat(dst)
	assert.True(t, os.IsNotExist(err), "no output for a page that kept its text")
}

func TestScanWritesNothing(t *testing.T) {
	src := filepath.Join(t.TempDir(), "in.pdf")
	data := pdftest.TextPDF(secret)
	require.NoError(t, os.WriteFile(src, data, 0o644))

	res, err := newEngine(keywords("report")).Scan(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Len(t, res.Resolved.Regions, 1)
	assert.Nil(t, res.Report)

	after, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, data, after)
}

func TestBatchContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.pdf")
	require.NoError(t, os.WriteFile(good, pdftest.TextPDF(secret), 0o644))

	jobs := []engine.Job{
		{Input: filepath.Join(dir, "missing.pdf"), Output: filepath.Join(dir, "missing_out.pdf")},
		{Input: good, Output: filepath.Join(dir, "good_out.pdf")},
	}
	metrics := observability.NewMetrics()
	e := engine.New(engine.Options{Patterns: keywords("confidential"), Apply: redact.DefaultOptions(), Metrics: metrics})
	outcomes := e.Batch(context.Background(), jobs)
	require.Len(t, outcomes, 2)

	var ioErr *document.IOError
	assert.ErrorAs(t, outcomes[0].Err, &ioErr)
	require.NoError(t, outcomes[1].Err)
	assert.Equal(t, 1, outcomes[1].Regions)
	assert.Equal(t, 1, engine.Failed(outcomes))

	out, err := document.Open(jobs[1].Output)
	require.NoError(t, err)
	assert.NotContains(t, pageText(t, out, 0), "CONFIDENTIAL")

	path := filepath.Join(dir, "metrics.prom")
	require.NoError(t, metrics.WriteTextfile(path))
	prom, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(prom), `pdfredact_documents_total{status="failed"} 1`))
	assert.True(t, strings.Contains(string(prom), `pdfredact_documents_total{status="ok"} 1`))
}

func TestBatchStopsBetweenDocuments(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcomes := newEngine(keywords("x")).Batch(ctx, []engine.Job{{Input: "a.pdf"}, {Input: "b.pdf"}})
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}
