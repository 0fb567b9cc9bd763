// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/pdiddy/pagemark/internal/scale"
	"github.com/pdiddy/pagemark/pkg/types"
)

// BatchResult holds the outcome of a multi-image conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int

	// Results are the successful units in input order.
	Results []types.PageResult

	// Combined is the joined Markdown across successful units.
	Combined string
}

// Total returns the number of images processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any images failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertImage converts a single raster image to Markdown. The renderer
// and batcher are bypassed: the image is already a pixel buffer, so only
// the resolution policy and the model call apply.
func (p *Pipeline) ConvertImage(ctx context.Context, imagePath string, cfg types.ConversionConfig, w io.Writer) (string, error) {
	cfg.Normalize()
	if cfg.Prompt == "" {
		cfg.Prompt = types.DefaultImagePrompt
	}
	if w == nil {
		w = io.Discard
	}

	res, err := p.convertImageFile(ctx, 0, imagePath, cfg, w)
	if err != nil {
		return "", err
	}

	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
		outPath := filepath.Join(cfg.OutputDir, res.Name+".md")
		if err := os.WriteFile(outPath, []byte(res.Markdown), 0o644); err != nil {
			return "", fmt.Errorf("writing %s: %w", outPath, err)
		}
		fmt.Fprintf(w, "wrote %s\n", outPath)
	}
	return res.Markdown, nil
}

// ConvertImages converts a list of raster images, batching them through
// the same worker pool as document pages. Unlike ConvertPDF it follows
// batch semantics: per-image failures are counted and reported in the
// summary rather than aborting the run, and the combined output is
// assembled from the successes.
func (p *Pipeline) ConvertImages(ctx context.Context, imagePaths []string, cfg types.ConversionConfig, w io.Writer) (*BatchResult, error) {
	cfg.Normalize()
	if cfg.Prompt == "" {
		cfg.Prompt = types.DefaultImagePrompt
	}
	if w == nil {
		w = io.Discard
	}
	w = &syncWriter{w: w}

	var valid []string
	for _, path := range imagePaths {
		if _, err := os.Stat(path); err != nil {
			fmt.Fprintf(w, "warning: image not found: %s\n", path)
			continue
		}
		valid = append(valid, path)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no valid image files found")
	}

	fmt.Fprintf(w, "converting %d image(s), %d worker(s), batches of %d\n",
		len(valid), cfg.MaxWorkers, cfg.BatchSize)

	results := make([]types.PageResult, len(valid))
	skipped := make([]bool, len(valid))
	var failures []pageError

	for _, batch := range Batches(len(valid), cfg.BatchSize) {
		failed := runBatch(ctx, batch, cfg.MaxWorkers, results, func(ctx context.Context, index int) (types.PageResult, error) {
			path := valid[index]

			// An output file from a previous run stands in for the
			// model call.
			if cfg.OutputDir != "" {
				outPath := filepath.Join(cfg.OutputDir, imageStem(path)+".md")
				if data, err := os.ReadFile(outPath); err == nil {
					fmt.Fprintf(w, "skipped: %s (already exists)\n", imageStem(path))
					skipped[index] = true
					return types.PageResult{Index: index, Name: imageStem(path), Markdown: string(data)}, nil
				}
			}

			return p.convertImageFile(ctx, index, path, cfg, w)
		})
		for _, f := range failed {
			fmt.Fprintf(w, "failed:  %s (%v)\n", imageStem(valid[f.Index]), f.Err)
		}
		failures = append(failures, failed...)
	}

	out := &BatchResult{Failed: len(failures)}
	failedIdx := make(map[int]bool, len(failures))
	for _, f := range failures {
		failedIdx[f.Index] = true
	}
	for i, r := range results {
		if failedIdx[i] {
			continue
		}
		if skipped[i] {
			out.Skipped++
		} else {
			out.Converted++
		}
		out.Results = append(out.Results, r)
	}
	out.Combined = CombineImages(out.Results)

	if cfg.OutputDir != "" {
		if err := writeImageOutputs(out, cfg, p.Model, w); err != nil {
			return nil, err
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		out.Converted, out.Skipped, out.Failed, out.Total())
	return out, nil
}

// convertImageFile loads one image from disk, applies the resolution
// policy, and obtains its Markdown.
func (p *Pipeline) convertImageFile(ctx context.Context, index int, path string, cfg types.ConversionConfig, w io.Writer) (types.PageResult, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return types.PageResult{}, fmt.Errorf("opening image %s: %w", path, err)
	}

	enc, err := scale.Apply(img, imageStem(path), scaleOptions(cfg))
	if err != nil {
		return types.PageResult{}, err
	}

	return p.unitMarkdown(ctx, index, enc, cfg.Prompt, w)
}

// imageStem returns the file name without directory or extension, used to
// name results and output files.
func imageStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
