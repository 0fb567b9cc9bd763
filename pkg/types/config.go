// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared configuration and result structures used
// across the conversion pipeline stages.
package types

import "time"

// Defaults for conversion settings. Exposed so the CLI and library callers
// agree on the same values.
const (
	DefaultDPI             = 300
	DefaultTargetHeightPx  = 2048
	DefaultAspectThreshold = 1.5
	DefaultQuality         = 95
	DefaultMaxWorkers      = 4
	DefaultBatchSize       = 5
	DefaultModel           = "google/gemini-2.0-flash-001"
	DefaultPDFPrompt       = "Convert this document to markdown"
	DefaultImagePrompt     = "Convert this image to markdown"
)

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pagemark/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ModelConfig holds settings for the vision model endpoint.
type ModelConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the model identifier on OpenRouter
	// (e.g. "google/gemini-2.0-flash-001").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the OpenRouter API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// SiteURL is an optional HTTP-Referer value for OpenRouter rankings.
	SiteURL string `json:"site_url,omitempty" yaml:"site_url,omitempty"`

	// AppName is an optional X-Title value for OpenRouter rankings.
	AppName string `json:"app_name,omitempty" yaml:"app_name,omitempty"`

	// MaxRetries is the number of retry attempts for rate-limited or
	// transient API failures (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ConversionConfig holds immutable per-call settings for one conversion run.
// Each call is independent; there is no shared mutable configuration.
type ConversionConfig struct {
	// DPI is the rendering density for page rasterization (default 300).
	DPI int `json:"dpi" yaml:"dpi"`

	// TargetHeightPx is the pixel size of the constrained axis after
	// resizing (default 2048).
	TargetHeightPx int `json:"target_height_px" yaml:"target_height_px"`

	// AspectThreshold is the width/height ratio above which the larger
	// dimension becomes the constrained axis (default 1.5).
	AspectThreshold float64 `json:"aspect_threshold" yaml:"aspect_threshold"`

	// Quality is the JPEG quality (1-100) used in fast mode (default 95).
	Quality int `json:"quality" yaml:"quality"`

	// FastMode trades fidelity for payload size: output is capped at
	// 1024 px on the constrained axis and encoded as JPEG.
	FastMode bool `json:"fast_mode" yaml:"fast_mode"`

	// Prompt is the per-page text prompt sent with each image.
	Prompt string `json:"prompt" yaml:"prompt"`

	// MaxWorkers is the size of the page worker pool (default 4).
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`

	// BatchSize bounds how many page buffers are live at once (default 5).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// CombinedOutput joins all pages into one document; otherwise the
	// result is one Markdown unit per page.
	CombinedOutput bool `json:"combined_output" yaml:"combined_output"`

	// OutputDir, when set, receives one Markdown file per page plus a
	// combined file. Empty means no files are written.
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`

	// CacheDir, when set, enables the SQLite result cache under this
	// directory so unchanged pages skip the model call.
	CacheDir string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`

	// Verbose adds progress output. It never suppresses errors.
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// Normalize fills zero-valued fields with defaults and clamps
// out-of-range values.
func (c *ConversionConfig) Normalize() {
	if c.DPI <= 0 {
		c.DPI = DefaultDPI
	}
	if c.TargetHeightPx <= 0 {
		c.TargetHeightPx = DefaultTargetHeightPx
	}
	if c.AspectThreshold <= 0 {
		c.AspectThreshold = DefaultAspectThreshold
	}
	if c.Quality <= 0 || c.Quality > 100 {
		c.Quality = DefaultQuality
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = DefaultMaxWorkers
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
}
