package source

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

const DefaultPDFDPI = 96

// PDFSource treats page i of a document as frame i.
type PDFSource struct {
	doc  *fitz.Document
	path string
	dpi  int
}

func NewPDFSource(path string, dpi int) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &PDFSource{doc: doc, path: path, dpi: dpi}, nil
}

func (s *PDFSource) Count() int {
	return s.doc.NumPage()
}

func (s *PDFSource) Name(seq int) string {
	return fmt.Sprintf("%s#page=%d", s.path, seq)
}

func (s *PDFSource) Frame(ctx context.Context, seq int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seq < 1 || seq > s.Count() {
		return nil, fmt.Errorf("page %d out of range 1..%d", seq, s.Count())
	}
	// frames load in parallel; a document handle is not safe to share between them
	workerDoc, err := fitz.New(s.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(seq-1, float64(s.dpi))
}

func (s *PDFSource) Close() error {
	return s.doc.Close()
}
