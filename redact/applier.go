// Package redact burns resolved regions into a document: covered text,
// images and annotations are removed from the file, then the regions are
// painted over.
package redact

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	cs "github.com/wudi/pdfredact/contentstream"
	"github.com/wudi/pdfredact/contentstream/editor"
	"github.com/wudi/pdfredact/document"
	"github.com/wudi/pdfredact/geom"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/region"
)

// maxFormDepth bounds form XObject recursion. Deeper placements under a
// region are dropped whole.
const maxFormDepth = 8

// PageReport describes what was removed from one page.
type PageReport struct {
	Page    int
	Regions int
	// Glyphs counts removed character codes; RemovedText is their text.
	Glyphs          int
	RemovedText     string
	InlineImages    int
	Images          int
	Forms           int
	DroppedXObjects int
	Annotations     int
}

// Report summarises an Apply call.
type Report struct {
	Pages    []PageReport
	Regions  int
	Warnings []error
}

// Glyphs is the total number of removed glyphs.
func (r *Report) Glyphs() int {
	n := 0
	for _, p := range r.Pages {
		n += p.Glyphs
	}
	return n
}

// Applier removes the content under regions.
type Applier struct {
	editor *editor.Editor
}

func NewApplier() *Applier {
	return &Applier{editor: editor.NewEditor()}
}

// ApplyFile opens src, applies regions and writes the result to dst, which
// may equal src.
func (a *Applier) ApplyFile(src, dst string, regions []region.Region, opts Options) (*Report, error) {
	doc, err := document.Open(src)
	if err != nil {
		return nil, err
	}
	rep, err := a.Apply(doc, regions, opts)
	if err != nil {
		return nil, err
	}
	if err := doc.Save(dst, document.SaveOptions{}); err != nil {
		return nil, err
	}
	return rep, nil
}

// Apply edits doc in memory. Regions must all be Redact regions; Protect
// regions are an error.
func (a *Applier) Apply(doc *document.Document, regions []region.Region, opts Options) (*Report, error) {
	log := observability.OrNop(opts.Logger)
	for _, r := range regions {
		if r.Kind == region.Protect {
			return nil, fmt.Errorf("%w: %s", ErrProtectRegion, r.ID)
		}
	}

	rep := &Report{}
	byPage := make(map[int][]region.Region)
	for _, r := range regions {
		if r.Geometry.Degenerate() {
			rep.Warnings = append(rep.Warnings, &region.GeometryError{RegionID: r.ID, Page: r.Page, Reason: "degenerate geometry"})
			continue
		}
		if r.Page < 0 || r.Page >= doc.PageCount() {
			rep.Warnings = append(rep.Warnings, fmt.Errorf("region %s: %w: %d", r.ID, document.ErrPageRange, r.Page))
			continue
		}
		byPage[r.Page] = append(byPage[r.Page], r)
	}
	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	for _, pi := range pages {
		page, err := doc.Page(pi)
		if err != nil {
			return nil, err
		}
		pr, warns, err := a.applyPage(page, byPage[pi], opts)
		if err != nil {
			return nil, err
		}
		rep.Warnings = append(rep.Warnings, warns...)
		rep.Pages = append(rep.Pages, pr)
		rep.Regions += pr.Regions
		log.Debug("page redacted",
			observability.Int("page", pi),
			observability.Int("regions", pr.Regions),
			observability.Int("glyphs", pr.Glyphs),
			observability.Int("images", pr.Images),
			observability.Int("forms", pr.Forms),
			observability.Int("annotations", pr.Annotations))
	}

	if opts.ScrubMetadata {
		if err := doc.ScrubMetadata(); err != nil {
			return nil, err
		}
	}
	for _, w := range rep.Warnings {
		log.Warn("redaction warning", observability.Error("error", w))
	}
	return rep, nil
}

// pageRun carries the state of one page across nested streams.
type pageRun struct {
	shapes   []geom.Geometry
	opts     Options
	report   *PageReport
	removed  strings.Builder
	warnings []error
}

func (run *pageRun) warn(err error) { run.warnings = append(run.warnings, err) }

func (a *Applier) applyPage(page *document.Page, regions []region.Region, opts Options) (PageReport, []error, error) {
	run := &pageRun{opts: opts, report: &PageReport{Page: page.Index, Regions: len(regions)}}
	toUser := page.PageToUser()
	for _, r := range regions {
		run.shapes = append(run.shapes, r.Geometry.Transform(toUser))
	}

	content, err := page.Contents()
	if err != nil {
		return PageReport{}, nil, err
	}
	body := content
	ops, err := cs.Parse(content)
	if err != nil {
		return PageReport{}, nil, fmt.Errorf("page %d: %w: %w", page.Index, ErrUnparsedContent, err)
	}
	plan := a.redactOps(ops, page.Resources(), geom.Identity(), 0, run)
	if plan.Changed() {
		body = cs.Serialize(plan.Ops())
	}

	run.report.Annotations = page.RemoveAnnotations(func(an document.Annotation) bool {
		return hitAny(run.shapes, an.Rect)
	})

	var out bytes.Buffer
	out.WriteString("q\n")
	out.Write(body)
	out.WriteString("\nQ\n")
	if opts.Fill {
		out.Write(fillOps(run.shapes, opts))
	}
	if err := page.SetContents(out.Bytes()); err != nil {
		return PageReport{}, nil, err
	}
	run.report.RemovedText = run.removed.String()
	return *run.report, run.warnings, nil
}

// redactOps plans removal for one stream traced from ctm and rewrites the
// images and forms it draws under the shapes.
func (a *Applier) redactOps(ops []cs.Operation, res *document.Resources, ctm geom.Matrix, depth int, run *pageRun) *editor.Plan {
	tr := cs.NewTracer(ctm).Trace(ops, res)
	plan := a.editor.Plan(ops, tr, run.shapes)
	run.report.Glyphs += plan.RemovedGlyphs
	run.report.InlineImages += plan.RemovedInline
	run.removed.WriteString(plan.RemovedText())

	for _, pl := range plan.Placements {
		a.redactImage(res, pl, plan, run)
	}
	for _, pl := range tr.Placements {
		if pl.Kind == cs.XObjectForm {
			a.redactForm(res, pl, plan, depth, run)
		}
	}
	return plan
}

func (a *Applier) drop(plan *editor.Plan, pl cs.Placement, run *pageRun) {
	plan.Drop(pl.Op)
	run.report.DroppedXObjects++
}

func (a *Applier) redactImage(res *document.Resources, pl cs.Placement, plan *editor.Plan, run *pageRun) {
	im, err := res.Image(pl.Name)
	if err != nil {
		run.warn(err)
		a.drop(plan, pl, run)
		return
	}
	if !im.Editable() {
		a.drop(plan, pl, run)
		return
	}
	toPixels, err := imageToPixels(pl.Matrix, im.Width, im.Height)
	if err != nil {
		// A singular matrix draws nothing visible.
		a.drop(plan, pl, run)
		return
	}
	decoded, err := im.Decode()
	if err != nil {
		run.warn(err)
		a.drop(plan, pl, run)
		return
	}
	shapes := make([]geom.Geometry, len(run.shapes))
	for i, s := range run.shapes {
		shapes[i] = s.Transform(toPixels)
	}
	dst := editable(decoded)
	if blank(dst, shapes, run.opts.DrawColor) == 0 {
		return
	}
	if err := im.Replace(dst); err != nil {
		run.warn(err)
		a.drop(plan, pl, run)
		return
	}
	run.report.Images++
}

func (a *Applier) redactForm(res *document.Resources, pl cs.Placement, plan *editor.Plan, depth int, run *pageRun) {
	form, err := res.Form(pl.Name)
	if err != nil {
		run.warn(err)
		return
	}
	ctm := form.Matrix.Multiply(pl.Matrix)
	if !form.BBox.Empty() && !hitAny(run.shapes, ctm.TransformRect(form.BBox)) {
		return
	}
	if depth+1 >= maxFormDepth {
		a.drop(plan, pl, run)
		return
	}
	ops, err := cs.Parse(form.Contents())
	if err != nil {
		run.warn(fmt.Errorf("form %s: %w", pl.Name, err))
		a.drop(plan, pl, run)
		return
	}
	sub := a.redactOps(ops, form.Resources, ctm, depth+1, run)
	if !sub.Changed() {
		return
	}
	if err := form.SetContents(cs.Serialize(sub.Ops())); err != nil {
		run.warn(err)
		a.drop(plan, pl, run)
		return
	}
	run.report.Forms++
}

func hitAny(shapes []geom.Geometry, box geom.Rect) bool {
	if box.Empty() {
		return false
	}
	for _, s := range shapes {
		if s.IntersectsRect(box) {
			return true
		}
	}
	return false
}

// fillOps paints shapes, given in user space, with the draw color.
func fillOps(shapes []geom.Geometry, opts Options) []byte {
	c := opts.DrawColor
	ops := []cs.Operation{
		cs.Op("q"),
		cs.Op("rg", cs.Num(float64(c.R)/255), cs.Num(float64(c.G)/255), cs.Num(float64(c.B)/255)),
	}
	for _, s := range shapes {
		if !s.IsPolygon() {
			r := s.Rect
			ops = append(ops, cs.Op("re", cs.Num(r.X0), cs.Num(r.Y0), cs.Num(r.Width()), cs.Num(r.Height())))
		} else {
			for i, p := range s.Polygon {
				op := "l"
				if i == 0 {
					op = "m"
				}
				ops = append(ops, cs.Op(op, cs.Num(p.X), cs.Num(p.Y)))
			}
			ops = append(ops, cs.Op("h"))
		}
		ops = append(ops, cs.Op("f"))
	}
	ops = append(ops, cs.Op("Q"))
	return cs.Serialize(ops)
}
