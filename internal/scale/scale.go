// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scale implements the resolution and encoding policy applied to
// rendered pages before they are sent to the model endpoint. The policy is
// a pure function of the input dimensions and options, so it can be tested
// without the rendering or network stages.
package scale

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/disintegration/imaging"

	"github.com/pdiddy/pagemark/pkg/types"
)

// ErrBadDimensions reports a degenerate input buffer (zero or negative
// width or height).
var ErrBadDimensions = errors.New("degenerate image dimensions")

// fastModeMaxPx caps the constrained axis in fast mode.
const fastModeMaxPx = 1024

// Options control the resolution and encoding policy for one conversion run.
type Options struct {
	// TargetPx is the pixel size of the constrained axis (default 2048).
	TargetPx int

	// AspectThreshold is the width/height ratio at or above which the
	// larger dimension becomes the constrained axis, so landscape pages
	// are not over-shrunk (default 1.5).
	AspectThreshold float64

	// FastMode caps the constrained axis at 1024 px and switches the
	// output encoding to JPEG.
	FastMode bool

	// Quality is the JPEG quality (1-100) used in fast mode.
	Quality int
}

func (o Options) normalized() Options {
	if o.TargetPx <= 0 {
		o.TargetPx = types.DefaultTargetHeightPx
	}
	if o.AspectThreshold <= 0 {
		o.AspectThreshold = types.DefaultAspectThreshold
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = types.DefaultQuality
	}
	return o
}

// Plan is the computed output size and encoding for one image.
type Plan struct {
	Width    int
	Height   int
	Encoding types.Encoding
}

// Compute determines the output dimensions and encoding for an image of
// the given size. The constrained axis is scaled to the target; the other
// axis follows to preserve aspect ratio. Images smaller than the target
// are never upscaled.
func Compute(width, height int, opts Options) (Plan, error) {
	if width <= 0 || height <= 0 {
		return Plan{}, fmt.Errorf("%w: %dx%d", ErrBadDimensions, width, height)
	}
	opts = opts.normalized()

	target := opts.TargetPx
	if opts.FastMode && target > fastModeMaxPx {
		target = fastModeMaxPx
	}

	encoding := types.EncodingPNG
	if opts.FastMode {
		encoding = types.EncodingJPEG
	}

	// Wide pages constrain the width instead of the height.
	aspect := float64(width) / float64(height)
	constrained := height
	if aspect >= opts.AspectThreshold {
		constrained = width
	}

	ratio := float64(target) / float64(constrained)
	if ratio >= 1 {
		// Never upscale beyond the original render.
		return Plan{Width: width, Height: height, Encoding: encoding}, nil
	}

	outW := int(math.Round(float64(width) * ratio))
	outH := int(math.Round(float64(height) * ratio))
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	return Plan{Width: outW, Height: outH, Encoding: encoding}, nil
}

// Apply resizes img according to the policy and encodes it, returning the
// bytes ready for transmission. name tags the result with its source unit.
func Apply(img image.Image, name string, opts Options) (types.EncodedImage, error) {
	opts = opts.normalized()
	bounds := img.Bounds()

	plan, err := Compute(bounds.Dx(), bounds.Dy(), opts)
	if err != nil {
		return types.EncodedImage{}, err
	}

	out := img
	if plan.Width != bounds.Dx() || plan.Height != bounds.Dy() {
		out = imaging.Resize(img, plan.Width, plan.Height, imaging.Lanczos)
	}

	data, err := encode(out, plan.Encoding, opts.Quality)
	if err != nil {
		return types.EncodedImage{}, fmt.Errorf("encoding %s: %w", name, err)
	}

	return types.EncodedImage{
		Name:     name,
		Width:    plan.Width,
		Height:   plan.Height,
		Encoding: plan.Encoding,
		Data:     data,
	}, nil
}

func encode(img image.Image, enc types.Encoding, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch enc {
	case types.EncodingJPEG:
		// JPEG has no alpha channel; flatten first so transparent
		// regions come out white rather than black.
		flat := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
		flat = imaging.Overlay(flat, img, image.Point{}, 1.0)
		if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case types.EncodingPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
	return buf.Bytes(), nil
}
