package document

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/wudi/pdfredact/geom"
)

// letter is used when neither the page nor its ancestors carry a MediaBox.
var letter = geom.Rect{X1: 612, Y1: 792}

// Page is one page of a Document.
type Page struct {
	doc   *Document
	Index int
	// MediaBox is in user space.
	MediaBox geom.Rect

	dict types.Dict
	res  *Resources
}

func newPage(d *Document, index int, dict types.Dict) *Page {
	p := &Page{doc: d, Index: index, dict: dict}
	box, ok := d.rect(d.inherited(dict, "MediaBox"))
	if !ok || box.Empty() {
		box = letter
	}
	p.MediaBox = box
	p.res = newResources(d, d.dict(d.inherited(dict, "Resources")))
	return p
}

func (p *Page) Width() float64  { return p.MediaBox.Width() }
func (p *Page) Height() float64 { return p.MediaBox.Height() }

// UserToPage maps user space to page space.
func (p *Page) UserToPage() geom.Matrix {
	return geom.Matrix{1, 0, 0, -1, -p.MediaBox.X0, p.MediaBox.Y1}
}

// PageToUser maps page space to user space.
func (p *Page) PageToUser() geom.Matrix {
	return geom.Matrix{1, 0, 0, -1, p.MediaBox.X0, p.MediaBox.Y1}
}

func (p *Page) Resources() *Resources { return p.res }

// Contents returns the page content streams decoded and joined.
func (p *Page) Contents() ([]byte, error) {
	var buf bytes.Buffer
	for i, o := range p.contentRefs() {
		sd, _, err := p.doc.stream(o)
		if err != nil {
			return nil, fmt.Errorf("page %d contents: %w", p.Index, err)
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(sd.Content)
	}
	return buf.Bytes(), nil
}

func (p *Page) contentRefs() []types.Object {
	c, ok := p.dict["Contents"]
	if !ok {
		return nil
	}
	if arr := p.doc.array(c); arr != nil {
		return arr
	}
	return []types.Object{c}
}

// SetContents replaces the page content. The new bytes go into the first
// content stream; the remaining streams are emptied so no copy of the old
// content stays reachable through shared references.
func (p *Page) SetContents(content []byte) error {
	refs := p.contentRefs()
	var first *types.IndirectRef
	for _, o := range refs {
		ref, ok := o.(types.IndirectRef)
		if !ok {
			continue
		}
		sd, ok := p.doc.resolve(ref).(types.StreamDict)
		if !ok {
			continue
		}
		data := []byte(nil)
		if first == nil {
			data = content
		}
		ns, err := flateStream(sd.Dict, data)
		if err != nil {
			return fmt.Errorf("page %d contents: %w", p.Index, err)
		}
		r := ref
		if err := p.doc.replace(&r, ns); err != nil {
			return fmt.Errorf("page %d contents: %w", p.Index, err)
		}
		if first == nil {
			first = &r
		}
	}
	if first == nil {
		ns, err := flateStream(types.NewDict(), content)
		if err != nil {
			return fmt.Errorf("page %d contents: %w", p.Index, err)
		}
		first, err = p.doc.add(ns)
		if err != nil {
			return fmt.Errorf("page %d contents: %w", p.Index, err)
		}
	}
	p.dict["Contents"] = *first
	return nil
}

// Annotation is an entry of the page /Annots array.
type Annotation struct {
	Index   int
	Subtype string
	// Rect is in user space.
	Rect geom.Rect
}

func (p *Page) Annotations() []Annotation {
	arr := p.doc.array(p.dict["Annots"])
	out := make([]Annotation, 0, len(arr))
	for i, o := range arr {
		d := p.doc.dict(o)
		if d == nil {
			continue
		}
		r, _ := p.doc.rect(d["Rect"])
		out = append(out, Annotation{Index: i, Subtype: p.doc.name(d["Subtype"]), Rect: r})
	}
	return out
}

// RemoveAnnotations drops every annotation for which remove returns true and
// reports how many were dropped.
func (p *Page) RemoveAnnotations(remove func(Annotation) bool) int {
	arr := p.doc.array(p.dict["Annots"])
	if len(arr) == 0 {
		return 0
	}
	drop := make(map[int]bool)
	for _, a := range p.Annotations() {
		if remove(a) {
			drop[a.Index] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}
	kept := make(types.Array, 0, len(arr)-len(drop))
	for i, o := range arr {
		if !drop[i] {
			kept = append(kept, o)
		}
	}
	if len(kept) == 0 {
		delete(p.dict, "Annots")
	} else {
		p.dict["Annots"] = kept
	}
	return len(drop)
}
