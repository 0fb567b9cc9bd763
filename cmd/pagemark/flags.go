// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pagemark/internal/secrets"
	"github.com/pdiddy/pagemark/pkg/types"
)

const (
	defaultTimeout   = 2 * time.Minute
	defaultUserAgent = "pagemark/0.1"
)

// addConversionFlags registers the flags the pdf and image subcommands
// share. Zero defaults mean "use the library default"; the effective
// values come from ConversionConfig.Normalize.
func addConversionFlags(cmd *cobra.Command) {
	cmd.Flags().String("output-dir", "", "write one Markdown file per unit plus combined output here (default: print to stdout)")
	cmd.Flags().Int("target-height", 0, "pixel size of the constrained axis after resizing (default 2048)")
	cmd.Flags().Float64("aspect-threshold", 0, "width/height ratio above which width becomes the constrained axis (default 1.5)")
	cmd.Flags().Int("quality", 0, "JPEG quality in fast mode, 1-100 (default 95)")
	cmd.Flags().Bool("fast", false, "cap output at 1024 px and encode as JPEG for smaller payloads")
	cmd.Flags().String("prompt", "", "per-page text prompt sent with each image")
	cmd.Flags().Int("max-workers", 0, "concurrent model calls (default 4)")
	cmd.Flags().Int("batch-size", 0, "pages rendered per batch (default 5)")
	cmd.Flags().Bool("separate", false, "skip the combined Markdown file, keep only per-unit files")
	cmd.Flags().String("cache-dir", "", "enable the SQLite result cache under this directory")
	cmd.Flags().BoolP("verbose", "v", false, "print per-page progress")

	cmd.Flags().String("model", "", "model identifier on OpenRouter (default "+types.DefaultModel+")")
	cmd.Flags().String("api-key", "", "OpenRouter API key (default: .secrets/ or OPENROUTER_API_KEY)")
	cmd.Flags().String("site-url", "", "HTTP-Referer value for OpenRouter rankings")
	cmd.Flags().String("app-name", "", "X-Title value for OpenRouter rankings")
	cmd.Flags().Duration("timeout", 0, "model request timeout (default 2m)")
}

// conversionFromFlags builds the per-run conversion settings.
func conversionFromFlags(cmd *cobra.Command) types.ConversionConfig {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	targetHeight, _ := cmd.Flags().GetInt("target-height")
	aspectThreshold, _ := cmd.Flags().GetFloat64("aspect-threshold")
	quality, _ := cmd.Flags().GetInt("quality")
	fast, _ := cmd.Flags().GetBool("fast")
	prompt, _ := cmd.Flags().GetString("prompt")
	maxWorkers, _ := cmd.Flags().GetInt("max-workers")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	separate, _ := cmd.Flags().GetBool("separate")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg := types.ConversionConfig{
		TargetHeightPx:  targetHeight,
		AspectThreshold: aspectThreshold,
		Quality:         quality,
		FastMode:        fast,
		Prompt:          prompt,
		MaxWorkers:      maxWorkers,
		BatchSize:       batchSize,
		CombinedOutput:  !separate,
		OutputDir:       outputDir,
		CacheDir:        cacheDir,
		Verbose:         verbose,
	}
	cfg.Normalize()
	return cfg
}

// modelFromFlags builds the model endpoint settings. Flags win over the
// config file; the API key additionally falls back to .secrets/ and the
// environment.
func modelFromFlags(cmd *cobra.Command) (types.ModelConfig, error) {
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("model")
	}
	if model == "" {
		model = types.DefaultModel
	}
	siteURL, _ := cmd.Flags().GetString("site-url")
	if siteURL == "" {
		siteURL = viper.GetString("site_url")
	}
	appName, _ := cmd.Flags().GetString("app-name")
	if appName == "" {
		appName = viper.GetString("app_name")
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	apiKeyFlag, _ := cmd.Flags().GetString("api-key")
	apiKey := secrets.APIKey(apiKeyFlag, loadedSecrets)
	if apiKey == "" {
		return types.ModelConfig{}, fmt.Errorf("OpenRouter API key required: pass --api-key, add %s to .secrets/, or set %s",
			secrets.KeyOpenRouter, secrets.EnvOpenRouter)
	}

	return types.ModelConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		Model:   model,
		APIKey:  apiKey,
		SiteURL: siteURL,
		AppName: appName,
	}, nil
}

// progressWriter returns where per-page progress lines go.
func progressWriter(cfg types.ConversionConfig) io.Writer {
	if cfg.Verbose {
		return os.Stderr
	}
	return io.Discard
}
