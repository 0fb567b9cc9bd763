// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scale

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/pdiddy/pagemark/pkg/types"
)

func testImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

// --- Compute ---

func TestComputePortraitConstrainsHeight(t *testing.T) {
	plan, err := Compute(1700, 2200, Options{TargetPx: 2048, AspectThreshold: 1.5})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if plan.Height != 2048 {
		t.Errorf("Height = %d, want 2048", plan.Height)
	}
	if plan.Width >= 1700 {
		t.Errorf("Width = %d, want < 1700 (downscaled)", plan.Width)
	}
}

func TestComputeWidePageConstrainsLargerAxis(t *testing.T) {
	// Aspect 3.0 exceeds the 1.5 threshold, so the width is the
	// constrained axis and the height must NOT land on the target.
	plan, err := Compute(3000, 1000, Options{TargetPx: 2048, AspectThreshold: 1.5})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if plan.Height == 2048 {
		t.Errorf("Height = 2048; wide page must not be scaled to the target height directly")
	}
	if plan.Width != 2048 {
		t.Errorf("Width = %d, want 2048 (constrained axis)", plan.Width)
	}
	// Aspect ratio preserved within rounding.
	if plan.Height < 681 || plan.Height > 684 {
		t.Errorf("Height = %d, want ~683 (aspect preserved)", plan.Height)
	}
}

func TestComputeNeverUpscales(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"small portrait", 600, 800},
		{"small landscape", 900, 300},
		{"exact target", 1536, 2048},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Compute(tt.w, tt.h, Options{TargetPx: 2048, AspectThreshold: 1.5})
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if plan.Width > tt.w || plan.Height > tt.h {
				t.Errorf("Compute(%d, %d) = %dx%d: output exceeds input",
					tt.w, tt.h, plan.Width, plan.Height)
			}
		})
	}
}

func TestComputeDegenerateDimensions(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero height", 1000, 0},
		{"zero width", 0, 1000},
		{"negative", -1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.w, tt.h, Options{})
			if !errors.Is(err, ErrBadDimensions) {
				t.Errorf("Compute(%d, %d) error = %v, want ErrBadDimensions", tt.w, tt.h, err)
			}
		})
	}
}

func TestComputeFastModeCapsTarget(t *testing.T) {
	plan, err := Compute(1700, 2200, Options{TargetPx: 2048, AspectThreshold: 1.5, FastMode: true})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if plan.Height != 1024 {
		t.Errorf("Height = %d, want 1024 (fast-mode cap)", plan.Height)
	}
	if plan.Encoding != types.EncodingJPEG {
		t.Errorf("Encoding = %q, want jpeg", plan.Encoding)
	}
}

func TestComputeEncodingTag(t *testing.T) {
	normal, err := Compute(1000, 1400, Options{})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if normal.Encoding != types.EncodingPNG {
		t.Errorf("default Encoding = %q, want png", normal.Encoding)
	}

	fast, err := Compute(1000, 1400, Options{FastMode: true})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if fast.Encoding != types.EncodingJPEG {
		t.Errorf("fast-mode Encoding = %q, want jpeg", fast.Encoding)
	}
}

// --- Apply ---

func TestApplyProducesDecodablePNG(t *testing.T) {
	enc, err := Apply(testImage(400, 600), "page_001", Options{TargetPx: 300, AspectThreshold: 1.5})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if enc.Encoding != types.EncodingPNG {
		t.Fatalf("Encoding = %q, want png", enc.Encoding)
	}

	img, err := png.Decode(bytes.NewReader(enc.Data))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if got := img.Bounds().Dy(); got != 300 {
		t.Errorf("decoded height = %d, want 300", got)
	}
	if enc.Width != img.Bounds().Dx() || enc.Height != img.Bounds().Dy() {
		t.Errorf("tagged size %dx%d does not match decoded %dx%d",
			enc.Width, enc.Height, img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestApplyFastModeProducesJPEG(t *testing.T) {
	enc, err := Apply(testImage(400, 600), "page_001", Options{TargetPx: 300, FastMode: true, Quality: 80})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if enc.Encoding != types.EncodingJPEG {
		t.Fatalf("Encoding = %q, want jpeg", enc.Encoding)
	}
	if _, err := jpeg.Decode(bytes.NewReader(enc.Data)); err != nil {
		t.Fatalf("decoding output as JPEG: %v", err)
	}
}

func TestApplySmallImagePassesThrough(t *testing.T) {
	enc, err := Apply(testImage(200, 150), "thumb", Options{TargetPx: 2048})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if enc.Width != 200 || enc.Height != 150 {
		t.Errorf("size = %dx%d, want 200x150 (no upscaling)", enc.Width, enc.Height)
	}
}

func TestEncodingMIME(t *testing.T) {
	if got := types.EncodingPNG.MIME(); got != "image/png" {
		t.Errorf("MIME() = %q, want image/png", got)
	}
	if got := types.EncodingJPEG.MIME(); got != "image/jpeg" {
		t.Errorf("MIME() = %q, want image/jpeg", got)
	}
}
