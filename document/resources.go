package document

import (
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	cs "github.com/wudi/pdfredact/contentstream"
	"github.com/wudi/pdfredact/geom"
)

// Resources resolves the fonts and XObjects of a page or form. It satisfies
// contentstream.Resources.
type Resources struct {
	doc  *Document
	dict types.Dict

	mu    sync.Mutex
	fonts map[string]*Font
}

func newResources(d *Document, dict types.Dict) *Resources {
	return &Resources{doc: d, dict: dict, fonts: make(map[string]*Font)}
}

// Font returns the font registered under name, or nil when it is missing.
func (r *Resources) Font(name string) cs.Font {
	f := r.LoadFont(name)
	if f == nil {
		return nil
	}
	return f
}

// LoadFont is Font with the concrete type.
func (r *Resources) LoadFont(name string) *Font {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.fonts[name]; ok {
		return f
	}
	var f *Font
	if fd := r.doc.dict(r.doc.dict(r.dict["Font"])[name]); fd != nil {
		f = loadFont(r.doc, fd)
	}
	r.fonts[name] = f
	return f
}

func (r *Resources) xobject(name string) (types.Object, types.Dict) {
	o, ok := r.doc.dict(r.dict["XObject"])[name]
	if !ok {
		return nil, nil
	}
	return o, r.doc.dict(o)
}

func (r *Resources) XObject(name string) cs.XObjectKind {
	_, d := r.xobject(name)
	switch r.doc.name(d["Subtype"]) {
	case "Image":
		return cs.XObjectImage
	case "Form":
		return cs.XObjectForm
	}
	return cs.XObjectUnknown
}

// Form is a form XObject.
type Form struct {
	doc *Document
	ref types.IndirectRef
	sd  *types.StreamDict

	Name      string
	Matrix    geom.Matrix
	BBox      geom.Rect
	Resources *Resources
}

// Form loads the form XObject name. Forms without their own /Resources use
// the resources of the calling stream.
func (r *Resources) Form(name string) (*Form, error) {
	o, d := r.xobject(name)
	if r.doc.name(d["Subtype"]) != "Form" {
		return nil, fmt.Errorf("xobject %s: not a form", name)
	}
	ref, ok := o.(types.IndirectRef)
	if !ok {
		return nil, fmt.Errorf("xobject %s: %w", name, ErrNotStream)
	}
	sd, _, err := r.doc.stream(ref)
	if err != nil {
		return nil, fmt.Errorf("xobject %s: %w", name, err)
	}
	f := &Form{doc: r.doc, ref: ref, sd: sd, Name: name, Matrix: r.doc.matrix(sd.Dict["Matrix"])}
	f.BBox, _ = r.doc.rect(sd.Dict["BBox"])
	if rd := r.doc.dict(sd.Dict["Resources"]); rd != nil {
		f.Resources = newResources(r.doc, rd)
	} else {
		f.Resources = r
	}
	return f, nil
}

// ID identifies the form object so callers can visit shared forms once.
func (f *Form) ID() int { return int(f.ref.ObjectNumber) }

func (f *Form) Contents() []byte { return f.sd.Content }

// SetContents rewrites the form stream in place.
func (f *Form) SetContents(content []byte) error {
	ns, err := flateStream(f.sd.Dict, content)
	if err != nil {
		return fmt.Errorf("form %s: %w", f.Name, err)
	}
	ref := f.ref
	if err := f.doc.replace(&ref, ns); err != nil {
		return fmt.Errorf("form %s: %w", f.Name, err)
	}
	f.sd = ns
	f.sd.Content = content
	return nil
}
