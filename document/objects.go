package document

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/wudi/pdfredact/geom"
)

const maxInheritDepth = 32

func (d *Document) resolve(o types.Object) types.Object {
	if o == nil {
		return nil
	}
	d.mu.Lock()
	obj, err := d.ctx.Dereference(o)
	d.mu.Unlock()
	if err != nil {
		return nil
	}
	return obj
}

func (d *Document) dict(o types.Object) types.Dict {
	if sd, ok := d.resolve(o).(types.StreamDict); ok {
		return sd.Dict
	}
	v, _ := d.resolve(o).(types.Dict)
	return v
}

func (d *Document) array(o types.Object) types.Array {
	v, _ := d.resolve(o).(types.Array)
	return v
}

func (d *Document) name(o types.Object) string {
	v, _ := d.resolve(o).(types.Name)
	return string(v)
}

func (d *Document) number(o types.Object) (float64, bool) {
	switch v := d.resolve(o).(type) {
	case types.Integer:
		return float64(v), true
	case types.Float:
		return float64(v), true
	}
	return 0, false
}

func (d *Document) numberOr(o types.Object, def float64) float64 {
	if v, ok := d.number(o); ok {
		return v
	}
	return def
}

func (d *Document) numbers(o types.Object) []float64 {
	arr := d.array(o)
	out := make([]float64, 0, len(arr))
	for _, it := range arr {
		v, _ := d.number(it)
		out = append(out, v)
	}
	return out
}

func (d *Document) rect(o types.Object) (geom.Rect, bool) {
	v := d.numbers(o)
	if len(v) != 4 {
		return geom.Rect{}, false
	}
	return geom.R(v[0], v[1], v[2], v[3]), true
}

func (d *Document) matrix(o types.Object) geom.Matrix {
	v := d.numbers(o)
	if len(v) != 6 {
		return geom.Identity()
	}
	return geom.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
}

// stream dereferences o to a stream and decodes it.
func (d *Document) stream(o types.Object) (*types.StreamDict, *types.IndirectRef, error) {
	ref, _ := o.(types.IndirectRef)
	sd, ok := d.resolve(o).(types.StreamDict)
	if !ok {
		return nil, nil, ErrNotStream
	}
	if sd.Content == nil {
		if err := sd.Decode(); err != nil {
			return nil, nil, err
		}
	}
	if ref.ObjectNumber == 0 {
		return &sd, nil, nil
	}
	return &sd, &ref, nil
}

// replace stores sd as the object behind ref.
func (d *Document) replace(ref *types.IndirectRef, sd *types.StreamDict) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.ctx.FindTableEntryForIndRef(ref)
	if !ok || entry == nil {
		return ErrNotStream
	}
	entry.Object = *sd
	return nil
}

// add stores sd as a new indirect object.
func (d *Document) add(sd *types.StreamDict) (*types.IndirectRef, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctx.IndRefForNewObject(*sd)
}

// flateStream builds a Flate encoded stream around content, keeping the
// entries of base that survive a re-encode.
func flateStream(base types.Dict, content []byte) (*types.StreamDict, error) {
	d := types.NewDict()
	for k, v := range base {
		switch k {
		case "Length", "Filter", "DecodeParms", "DL":
			continue
		}
		d[k] = v
	}
	d["Filter"] = types.Name("FlateDecode")
	sd := types.StreamDict{
		Dict:           d,
		Content:        content,
		FilterPipeline: []types.PDFFilter{{Name: "FlateDecode"}},
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	n := int64(len(sd.Raw))
	sd.StreamLength = &n
	sd.Dict["Length"] = types.Integer(n)
	return &sd, nil
}
