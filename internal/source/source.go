package source

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI is used when rendering PDF pages as backgrounds.
const DefaultDPI = 150

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

// RenderPage opens its own document handle so loader goroutines never share one.
func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

// Ref is a parsed background reference: a file path, plus a 1-based page
// number for PDF documents ("deck.pdf#3").
type Ref struct {
	Path string
	Page int
}

func (r Ref) IsPDF() bool {
	return strings.HasSuffix(strings.ToLower(r.Path), ".pdf")
}

func (r Ref) String() string {
	if r.IsPDF() {
		return fmt.Sprintf("%s#%d", r.Path, r.Page)
	}
	return r.Path
}

// ParseRef splits a "#page" suffix off PDF references.
func ParseRef(ref string) (Ref, error) {
	if ref == "" {
		return Ref{}, fmt.Errorf("empty background reference")
	}
	path, frag, found := strings.Cut(ref, "#")
	r := Ref{Path: path}
	if !r.IsPDF() {
		return Ref{Path: ref}, nil
	}
	r.Page = 1
	if found && frag != "" {
		n, err := strconv.Atoi(frag)
		if err != nil || n < 1 {
			return Ref{}, fmt.Errorf("invalid page %q in %s", frag, ref)
		}
		r.Page = n
	}
	return r, nil
}

// Open decodes the image a reference points to.
func Open(ref string, dpi int) (image.Image, error) {
	r, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	if !r.IsPDF() {
		return decodeFile(r.Path)
	}

	if dpi <= 0 {
		dpi = DefaultDPI
	}
	pdf, err := NewFitzPDFSource(r.Path)
	if err != nil {
		return nil, err
	}
	defer pdf.Close()
	if r.Page > pdf.PageCount() {
		return nil, fmt.Errorf("%s has %d pages, page %d requested", r.Path, pdf.PageCount(), r.Page)
	}
	return pdf.RenderPage(r.Page-1, dpi)
}
