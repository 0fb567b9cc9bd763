// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestPNG drops a small PNG into dir and returns its path.
func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 10, 20))); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConvertImageReturnsMarkdown(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "invoice.png")

	p := &Pipeline{Caller: &fakeCaller{}}
	got, err := p.ConvertImage(context.Background(), path, testConfig(), nil)
	if err != nil {
		t.Fatalf("ConvertImage() error = %v", err)
	}
	if got != "content of invoice" {
		t.Errorf("ConvertImage() = %q", got)
	}
}

func TestConvertImageWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "invoice.png")

	cfg := testConfig()
	cfg.OutputDir = filepath.Join(dir, "out")

	p := &Pipeline{Caller: &fakeCaller{}}
	if _, err := p.ConvertImage(context.Background(), path, cfg, nil); err != nil {
		t.Fatalf("ConvertImage() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "invoice.md"))
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	if string(data) != "content of invoice" {
		t.Errorf("invoice.md = %q", data)
	}
}

func TestConvertImageMissingFile(t *testing.T) {
	p := &Pipeline{Caller: &fakeCaller{}}
	_, err := p.ConvertImage(context.Background(), "/nonexistent/scan.png", testConfig(), nil)
	if err == nil {
		t.Fatal("ConvertImage() expected error for missing file")
	}
}

func TestConvertImagesCombined(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeTestPNG(t, dir, "scan-a.png"),
		writeTestPNG(t, dir, "scan-b.png"),
	}

	p := &Pipeline{Caller: &fakeCaller{}}
	res, err := p.ConvertImages(context.Background(), paths, testConfig(), nil)
	if err != nil {
		t.Fatalf("ConvertImages() error = %v", err)
	}

	if res.Converted != 2 || res.Skipped != 0 || res.Failed != 0 {
		t.Errorf("counts = %d/%d/%d, want 2/0/0", res.Converted, res.Skipped, res.Failed)
	}
	want := "## Image: scan-a\n\ncontent of scan-a\n\n---\n\n## Image: scan-b\n\ncontent of scan-b"
	if res.Combined != want {
		t.Errorf("Combined = %q, want %q", res.Combined, want)
	}
}

func TestConvertImagesMissingPathWarns(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeTestPNG(t, dir, "scan-a.png"),
		filepath.Join(dir, "no-such.png"),
	}

	var buf bytes.Buffer
	p := &Pipeline{Caller: &fakeCaller{}}
	res, err := p.ConvertImages(context.Background(), paths, testConfig(), &buf)
	if err != nil {
		t.Fatalf("ConvertImages() error = %v", err)
	}

	if !strings.Contains(buf.String(), "warning: image not found") {
		t.Errorf("missing-file warning not printed:\n%s", buf.String())
	}
	if res.Total() != 1 || res.Converted != 1 {
		t.Errorf("counts = %d converted of %d total, want 1 of 1", res.Converted, res.Total())
	}
}

func TestConvertImagesAllMissing(t *testing.T) {
	p := &Pipeline{Caller: &fakeCaller{}}
	_, err := p.ConvertImages(context.Background(), []string{"/nope/a.png"}, testConfig(), nil)
	if err == nil {
		t.Fatal("ConvertImages() expected error when no inputs exist")
	}
}

func TestConvertImagesFailureContinues(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeTestPNG(t, dir, "scan-a.png"),
		writeTestPNG(t, dir, "scan-b.png"),
	}

	caller := &fakeCaller{failOn: map[string]error{"scan-a": fmt.Errorf("model refused")}}
	var buf bytes.Buffer
	p := &Pipeline{Caller: caller}
	res, err := p.ConvertImages(context.Background(), paths, testConfig(), &buf)
	if err != nil {
		t.Fatalf("ConvertImages() error = %v, want summary-level reporting", err)
	}

	if res.Converted != 1 || res.Failed != 1 {
		t.Errorf("counts = %d converted, %d failed, want 1 and 1", res.Converted, res.Failed)
	}
	if !res.HasFailures() {
		t.Error("HasFailures() = false")
	}
	if res.Combined != "content of scan-b" {
		t.Errorf("Combined = %q, want surviving image only", res.Combined)
	}
	out := buf.String()
	if !strings.Contains(out, "failed:") || !strings.Contains(out, "Batch summary: 1 converted, 0 skipped, 1 failed (total: 2)") {
		t.Errorf("summary output missing failure lines:\n%s", out)
	}
}

func TestConvertImagesSkipExisting(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeTestPNG(t, dir, "scan-a.png"),
		writeTestPNG(t, dir, "scan-b.png"),
	}

	cfg := testConfig()
	cfg.OutputDir = filepath.Join(dir, "out")
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.OutputDir, "scan-a.md"), []byte("prior run"), 0o644); err != nil {
		t.Fatal(err)
	}

	caller := &fakeCaller{}
	p := &Pipeline{Caller: caller}
	res, err := p.ConvertImages(context.Background(), paths, cfg, nil)
	if err != nil {
		t.Fatalf("ConvertImages() error = %v", err)
	}

	if res.Skipped != 1 || res.Converted != 1 {
		t.Errorf("counts = %d converted, %d skipped, want 1 and 1", res.Converted, res.Skipped)
	}
	if got := caller.calls.Load(); got != 1 {
		t.Errorf("caller invoked %d times, want 1 (existing output reused)", got)
	}
	if !strings.Contains(res.Combined, "prior run") {
		t.Errorf("Combined = %q, missing reused content", res.Combined)
	}

	// The prior file must survive untouched.
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "scan-a.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "prior run" {
		t.Errorf("scan-a.md overwritten: %q", data)
	}
}
