// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render rasterizes PDF pages to pixel buffers. The PDF library is
// treated as a black box behind the Renderer interface so the pipeline can
// be tested with synthetic documents.
package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// ErrPageRange reports a page index outside [0, PageCount).
var ErrPageRange = errors.New("page index out of range")

// Document is an open source document whose pages can be rendered.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int

	// RenderPage rasterizes the 0-based page at the given DPI.
	RenderPage(index int, dpi float64) (image.Image, error)

	// Close releases the underlying document resources.
	Close() error
}

// Renderer opens source documents for rendering.
type Renderer interface {
	Open(path string) (Document, error)
}

// FitzRenderer renders PDFs through go-fitz (MuPDF).
type FitzRenderer struct{}

// NewFitzRenderer creates the MuPDF-backed renderer.
func NewFitzRenderer() *FitzRenderer {
	return &FitzRenderer{}
}

// Open opens the PDF at path. A missing or corrupt file surfaces here,
// not at render time.
func (r *FitzRenderer) Open(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening document %s: %w", path, err)
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) PageCount() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) RenderPage(index int, dpi float64) (image.Image, error) {
	if index < 0 || index >= d.doc.NumPage() {
		return nil, fmt.Errorf("%w: %d (document has %d pages)", ErrPageRange, index, d.doc.NumPage())
	}
	img, err := d.doc.ImageDPI(index, dpi)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", index, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
