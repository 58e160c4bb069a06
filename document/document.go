// Package document reads, edits and writes PDF files on top of pdfcpu.
//
// Pages are exposed with their MediaBox in user space together with the
// transforms to and from page space, whose origin is the top-left corner of
// the MediaBox with y growing downward.
package document

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func init() {
	// Keep pdfcpu from creating a configuration directory under $HOME.
	model.ConfigPath = "disable"
}

// Document is an open PDF.
//
// pdfcpu updates the xref table while it dereferences objects, so every
// access to ctx holds mu. Pages may be read from several goroutines; edits
// must come from one.
type Document struct {
	mu   sync.Mutex
	ctx  *model.Context
	src  []byte
	path string
}

// Open reads and validates the PDF at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	d, err := Load(bytes.NewReader(data))
	if err != nil {
		if ioe, ok := err.(*IOError); ok {
			ioe.Path = path
		}
		return nil, err
	}
	d.path = path
	return d, nil
}

// Load reads a PDF from r.
func Load(r io.ReadSeeker) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(src), model.NewDefaultConfiguration())
	if err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}
	return &Document{ctx: ctx, src: src}, nil
}

// Source is the file as it was loaded, before any edit.
func (d *Document) Source() []byte { return d.src }

// Path is the file the document was opened from, if any.
func (d *Document) Path() string { return d.path }

func (d *Document) PageCount() int { return d.ctx.PageCount }

// Page returns page i, counted from zero.
func (d *Document) Page(i int) (*Page, error) {
	if i < 0 || i >= d.ctx.PageCount {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageRange, i, d.ctx.PageCount)
	}
	d.mu.Lock()
	dict, _, _, err := d.ctx.PageDict(i+1, false)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", i, err)
	}
	if dict == nil {
		return nil, fmt.Errorf("page %d: %w", i, ErrPageRange)
	}
	return newPage(d, i, dict), nil
}

// ScrubMetadata drops the document information dictionary, the catalog XMP
// stream and per page metadata and PieceInfo entries.
func (d *Document) ScrubMetadata() error {
	d.mu.Lock()
	d.ctx.Info = nil
	root, err := d.ctx.Catalog()
	d.mu.Unlock()
	if err != nil {
		return fmt.Errorf("scrub metadata: %w", err)
	}
	delete(root, "Metadata")
	delete(root, "PieceInfo")
	for i := 0; i < d.PageCount(); i++ {
		p, err := d.Page(i)
		if err != nil {
			return fmt.Errorf("scrub metadata: %w", err)
		}
		delete(p.dict, "Metadata")
		delete(p.dict, "PieceInfo")
	}
	return nil
}

// Write serialises the document to w.
func (d *Document) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	d.mu.Lock()
	err := api.WriteContext(d.ctx, bw)
	d.mu.Unlock()
	if err != nil {
		return err
	}
	return bw.Flush()
}

// Bytes serialises the document into memory.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, &IOError{Op: "write", Err: err}
	}
	return buf.Bytes(), nil
}

// SaveOptions tunes Save.
type SaveOptions struct {
	// Perm is the mode of a newly created file. Zero means 0o644.
	Perm os.FileMode
}

// Save writes the document to path atomically: the bytes go to a temporary
// file in the same directory that is synced and renamed over path. On
// failure path is left as it was.
func (d *Document) Save(path string, opts SaveOptions) error {
	perm := opts.Perm
	if perm == 0 {
		perm = 0o644
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &IOError{Op: "save", Path: path, Err: err}
	}
	name := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(name)
		return &IOError{Op: "save", Path: path, Err: err}
	}
	if err := d.Write(tmp); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return &IOError{Op: "save", Path: path, Err: err}
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return &IOError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// inherited looks key up on dict and then along its /Parent chain.
func (d *Document) inherited(dict types.Dict, key string) types.Object {
	for depth := 0; dict != nil && depth < maxInheritDepth; depth++ {
		if v, ok := dict[key]; ok {
			return v
		}
		dict = d.dict(dict["Parent"])
	}
	return nil
}
