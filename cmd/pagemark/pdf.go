// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pagemark/internal/cache"
	"github.com/pdiddy/pagemark/internal/fetch"
	"github.com/pdiddy/pagemark/internal/pipeline"
	"github.com/pdiddy/pagemark/internal/render"
	"github.com/pdiddy/pagemark/internal/vision"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf [file-or-url]",
	Short: "Convert a PDF document to Markdown",
	Long: `Pdf renders every page of a PDF to an image, converts each page through
the vision model, and joins the results into a single Markdown document
in page order. The argument is a local file path or an http(s) URL;
remote documents are downloaded to a temporary file first.

Without --output-dir the combined Markdown is printed to stdout. With it,
each page is written as page_NNN.md beside combined.md and a run manifest.`,
	Args: cobra.ExactArgs(1),
	RunE: runPDF,
}

func init() {
	addConversionFlags(pdfCmd)
	pdfCmd.Flags().Int("dpi", 0, "rendering density for page rasterization (default 300)")

	rootCmd.AddCommand(pdfCmd)
}

func runPDF(cmd *cobra.Command, args []string) error {
	cfg := conversionFromFlags(cmd)
	cfg.DPI, _ = cmd.Flags().GetInt("dpi")
	cfg.Normalize()

	mc, err := modelFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pdfPath := args[0]
	if fetch.IsRemote(pdfPath) {
		client := &http.Client{Timeout: mc.Timeout}
		local, cleanup, err := fetch.Download(ctx, client, pdfPath, mc.HTTPConfig)
		if err != nil {
			return fmt.Errorf("downloading %s: %w", pdfPath, err)
		}
		defer cleanup()
		pdfPath = local
	}

	p := &pipeline.Pipeline{
		Renderer: render.NewFitzRenderer(),
		Caller:   vision.NewClient(mc),
		Model:    mc.Model,
	}
	if cfg.CacheDir != "" {
		store, err := cache.Open(cfg.CacheDir)
		if err != nil {
			return fmt.Errorf("opening result cache: %w", err)
		}
		defer store.Close()
		p.Cache = store
	}

	res, err := p.ConvertPDF(ctx, pdfPath, cfg, progressWriter(cfg))
	if err != nil {
		return err
	}

	if cfg.OutputDir == "" {
		fmt.Fprintln(os.Stdout, res.Combined)
	}
	return nil
}
