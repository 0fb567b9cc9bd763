// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pagemark/pkg/types"
)

const (
	combinedFile = "combined.md"
	manifestFile = "manifest.yaml"
)

// manifest records what one conversion run produced, written beside the
// output files.
type manifest struct {
	Source      string         `yaml:"source"`
	Model       string         `yaml:"model"`
	ConvertedAt string         `yaml:"converted_at"`
	Settings    manifestConfig `yaml:"settings"`
	Combined    string         `yaml:"combined,omitempty"`
	Pages       []manifestPage `yaml:"pages"`
}

// manifestConfig is the subset of settings that affect output content.
type manifestConfig struct {
	DPI             int     `yaml:"dpi"`
	TargetHeightPx  int     `yaml:"target_height_px"`
	AspectThreshold float64 `yaml:"aspect_threshold"`
	Quality         int     `yaml:"quality"`
	FastMode        bool    `yaml:"fast_mode"`
}

type manifestPage struct {
	Index     int    `yaml:"index"`
	Name      string `yaml:"name"`
	File      string `yaml:"file"`
	FromCache bool   `yaml:"from_cache,omitempty"`
}

// writeDocumentOutputs persists one Markdown file per page plus the
// combined document and the run manifest.
func writeDocumentOutputs(res *DocumentResult, cfg types.ConversionConfig, model string, w io.Writer) error {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	m := newManifest(res.Source, model, cfg)
	for _, page := range res.Pages {
		file := page.Name + ".md"
		path := filepath.Join(cfg.OutputDir, file)
		if err := os.WriteFile(path, []byte(page.Markdown), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		m.Pages = append(m.Pages, manifestPage{
			Index:     page.Index,
			Name:      page.Name,
			File:      file,
			FromCache: page.FromCache,
		})
	}

	if cfg.CombinedOutput {
		path := filepath.Join(cfg.OutputDir, combinedFile)
		if err := os.WriteFile(path, []byte(res.Combined), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		m.Combined = combinedFile
	}

	if err := writeManifest(cfg.OutputDir, m); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %d file(s) to %s\n", len(res.Pages), cfg.OutputDir)
	return nil
}

// writeImageOutputs persists one Markdown file per image plus the combined
// document and the run manifest. Skipped units already have their files.
func writeImageOutputs(res *BatchResult, cfg types.ConversionConfig, model string, w io.Writer) error {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	m := newManifest("", model, cfg)
	for _, unit := range res.Results {
		file := unit.Name + ".md"
		path := filepath.Join(cfg.OutputDir, file)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(unit.Markdown), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
		}
		m.Pages = append(m.Pages, manifestPage{
			Index:     unit.Index,
			Name:      unit.Name,
			File:      file,
			FromCache: unit.FromCache,
		})
	}

	if cfg.CombinedOutput {
		path := filepath.Join(cfg.OutputDir, combinedFile)
		if err := os.WriteFile(path, []byte(res.Combined), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		m.Combined = combinedFile
	}

	if err := writeManifest(cfg.OutputDir, m); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %d file(s) to %s\n", len(res.Results), cfg.OutputDir)
	return nil
}

func newManifest(source, model string, cfg types.ConversionConfig) manifest {
	return manifest{
		Source:      source,
		Model:       model,
		ConvertedAt: time.Now().UTC().Format(time.RFC3339),
		Settings: manifestConfig{
			DPI:             cfg.DPI,
			TargetHeightPx:  cfg.TargetHeightPx,
			AspectThreshold: cfg.AspectThreshold,
			Quality:         cfg.Quality,
			FastMode:        cfg.FastMode,
		},
	}
}

func writeManifest(dir string, m manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	path := filepath.Join(dir, manifestFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
