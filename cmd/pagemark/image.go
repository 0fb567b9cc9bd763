// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pagemark/internal/cache"
	"github.com/pdiddy/pagemark/internal/pipeline"
	"github.com/pdiddy/pagemark/internal/vision"
)

var imageCmd = &cobra.Command{
	Use:   "image [files...]",
	Short: "Convert raster images to Markdown",
	Long: `Image converts one or more raster images (PNG, JPEG, GIF, TIFF, BMP)
through the vision model. A single image prints its Markdown to stdout
unless --output-dir is set. With multiple images the run follows batch
semantics: failures are counted and summarized rather than aborting,
images whose output file already exists are skipped, and the command
exits non-zero if any image failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImage,
}

func init() {
	addConversionFlags(imageCmd)

	rootCmd.AddCommand(imageCmd)
}

func runImage(cmd *cobra.Command, args []string) error {
	cfg := conversionFromFlags(cmd)

	mc, err := modelFromFlags(cmd)
	if err != nil {
		return err
	}

	p := &pipeline.Pipeline{
		Caller: vision.NewClient(mc),
		Model:  mc.Model,
	}
	if cfg.CacheDir != "" {
		store, err := cache.Open(cfg.CacheDir)
		if err != nil {
			return fmt.Errorf("opening result cache: %w", err)
		}
		defer store.Close()
		p.Cache = store
	}

	ctx := cmd.Context()

	if len(args) == 1 {
		md, err := p.ConvertImage(ctx, args[0], cfg, progressWriter(cfg))
		if err != nil {
			return err
		}
		if cfg.OutputDir == "" {
			fmt.Fprintln(os.Stdout, md)
		}
		return nil
	}

	res, err := p.ConvertImages(ctx, args, cfg, progressWriter(cfg))
	if err != nil {
		return err
	}
	if cfg.OutputDir == "" {
		fmt.Fprintln(os.Stdout, res.Combined)
	}
	// The pipeline's summary line went to the progress writer; without
	// --verbose it still belongs on stderr.
	if !cfg.Verbose {
		fmt.Fprintf(os.Stderr, "Batch summary: %d converted, %d skipped, %d failed (total: %d)\n",
			res.Converted, res.Skipped, res.Failed, res.Total())
	}
	if res.HasFailures() {
		return fmt.Errorf("%d image(s) failed conversion", res.Failed)
	}
	return nil
}
