// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates the conversion of PDF documents and raster
// images into Markdown: pages are rendered to pixel buffers, resized and
// encoded by the resolution policy, sent to the vision model across a
// bounded worker pool, and stitched back together in page order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdiddy/pagemark/internal/cache"
	"github.com/pdiddy/pagemark/internal/render"
	"github.com/pdiddy/pagemark/internal/scale"
	"github.com/pdiddy/pagemark/internal/vision"
	"github.com/pdiddy/pagemark/pkg/types"
)

// Pipeline wires the conversion stages together. Renderer and Caller are
// required; Cache is optional and skips model calls for unchanged pages.
type Pipeline struct {
	Renderer render.Renderer
	Caller   vision.Caller
	Cache    *cache.Cache

	// Model is the model identifier, used for cache keys and the run
	// manifest.
	Model string
}

// DocumentResult is the outcome of one PDF conversion: every page's
// Markdown, tagged with its source index, plus the combined document.
type DocumentResult struct {
	Source   string
	Pages    []types.PageResult
	Combined string
}

// ConvertPDF converts every page of the PDF at pdfPath to Markdown.
// Progress lines go to w. A failure on any page fails the whole
// conversion: the current batch still runs to completion (siblings are
// not cancelled) and all page failures are reported, but no partial
// document is assembled or written.
func (p *Pipeline) ConvertPDF(ctx context.Context, pdfPath string, cfg types.ConversionConfig, w io.Writer) (*DocumentResult, error) {
	cfg.Normalize()
	if cfg.Prompt == "" {
		cfg.Prompt = types.DefaultPDFPrompt
	}
	if w == nil {
		w = io.Discard
	}
	w = &syncWriter{w: w}

	doc, err := p.Renderer.Open(pdfPath)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	pageCount := doc.PageCount()
	fmt.Fprintf(w, "converting %s: %d page(s), %d worker(s), batches of %d\n",
		pdfPath, pageCount, cfg.MaxWorkers, cfg.BatchSize)

	results := make([]types.PageResult, pageCount)
	var failures []pageError

	for _, batch := range Batches(pageCount, cfg.BatchSize) {
		fmt.Fprintf(w, "pages %d-%d...\n", batch.Start+1, batch.End)

		failed := runBatch(ctx, batch, cfg.MaxWorkers, results, func(ctx context.Context, index int) (types.PageResult, error) {
			return p.convertPage(ctx, doc, index, cfg, w)
		})
		failures = append(failures, failed...)

		// Batches are sequential; once a page has failed there is no
		// point rendering the rest of the document.
		if len(failures) > 0 {
			break
		}
	}

	if len(failures) > 0 {
		errs := make([]error, len(failures))
		for i, f := range failures {
			errs[i] = fmt.Errorf("page %d: %w", f.Index+1, f.Err)
		}
		return nil, fmt.Errorf("converting %s: %w", pdfPath, errors.Join(errs...))
	}

	combined, err := CombineDocument(results, pageCount)
	if err != nil {
		return nil, fmt.Errorf("assembling %s: %w", pdfPath, err)
	}

	res := &DocumentResult{Source: pdfPath, Pages: results, Combined: combined}
	if cfg.OutputDir != "" {
		if err := writeDocumentOutputs(res, cfg, p.Model, w); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// convertPage renders one page, applies the resolution policy, and obtains
// its Markdown.
func (p *Pipeline) convertPage(ctx context.Context, doc render.Document, index int, cfg types.ConversionConfig, w io.Writer) (types.PageResult, error) {
	img, err := doc.RenderPage(index, float64(cfg.DPI))
	if err != nil {
		return types.PageResult{}, err
	}

	name := fmt.Sprintf("page_%03d", index+1)
	enc, err := scale.Apply(img, name, scaleOptions(cfg))
	if err != nil {
		return types.PageResult{}, err
	}

	return p.unitMarkdown(ctx, index, enc, cfg.Prompt, w)
}

// unitMarkdown resolves the Markdown for one encoded unit, consulting the
// cache first when one is configured. Cache write failures degrade to a
// warning; the conversion already has its result at that point.
func (p *Pipeline) unitMarkdown(ctx context.Context, index int, enc types.EncodedImage, prompt string, w io.Writer) (types.PageResult, error) {
	var key string
	if p.Cache != nil {
		key = cache.Key(enc.Data, p.Model, prompt)
		md, ok, err := p.Cache.Lookup(ctx, key)
		if err != nil {
			return types.PageResult{}, err
		}
		if ok {
			fmt.Fprintf(w, "cached: %s\n", enc.Name)
			return types.PageResult{Index: index, Name: enc.Name, Markdown: md, FromCache: true}, nil
		}
	}

	md, err := p.Caller.Markdown(ctx, enc, prompt)
	if err != nil {
		return types.PageResult{}, fmt.Errorf("%s: %w", enc.Name, err)
	}
	fmt.Fprintf(w, "converted: %s (%dx%d %s)\n", enc.Name, enc.Width, enc.Height, enc.Encoding)

	if p.Cache != nil {
		if err := p.Cache.Store(ctx, key, enc.Name, p.Model, md); err != nil {
			fmt.Fprintf(w, "warning: caching %s: %v\n", enc.Name, err)
		}
	}
	return types.PageResult{Index: index, Name: enc.Name, Markdown: md}, nil
}

// scaleOptions maps the conversion configuration onto the resolution
// policy options.
func scaleOptions(cfg types.ConversionConfig) scale.Options {
	return scale.Options{
		TargetPx:        cfg.TargetHeightPx,
		AspectThreshold: cfg.AspectThreshold,
		FastMode:        cfg.FastMode,
		Quality:         cfg.Quality,
	}
}
