// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Encoding identifies the wire format of an encoded page image.
type Encoding string

const (
	EncodingPNG  Encoding = "png"
	EncodingJPEG Encoding = "jpeg"
)

// MIME returns the image MIME type for the encoding.
func (e Encoding) MIME() string {
	return "image/" + string(e)
}

// EncodedImage is one page or image rendered, resized, and encoded for
// transmission to the model endpoint.
type EncodedImage struct {
	// Name identifies the source unit (e.g. "page_003" or an image
	// file stem).
	Name string `json:"name" yaml:"name"`

	// Width and Height are the final pixel dimensions after resizing.
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// Encoding is the output format tag (png or jpeg).
	Encoding Encoding `json:"encoding" yaml:"encoding"`

	// Data is the encoded image bytes.
	Data []byte `json:"-" yaml:"-"`
}

// PageResult is the Markdown produced for a single page or image, tagged
// with its source index so ordering is recoverable after parallel
// processing.
type PageResult struct {
	// Index is the 0-based page position within the source document.
	Index int `json:"index" yaml:"index"`

	// Name is the source unit name, matching EncodedImage.Name.
	Name string `json:"name" yaml:"name"`

	// Markdown is the model output for this page.
	Markdown string `json:"-" yaml:"-"`

	// FromCache reports whether the Markdown came from the result cache
	// instead of a model call.
	FromCache bool `json:"from_cache,omitempty" yaml:"from_cache,omitempty"`
}
