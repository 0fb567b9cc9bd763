// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiddy/pagemark/pkg/types"
)

func TestIsRemote(t *testing.T) {
	tests := []struct {
		arg  string
		want bool
	}{
		{"https://example.com/doc.pdf", true},
		{"http://example.com/doc.pdf", true},
		{"/home/user/doc.pdf", false},
		{"doc.pdf", false},
		{"ftp://example.com/doc.pdf", false},
	}
	for _, tt := range tests {
		if got := IsRemote(tt.arg); got != tt.want {
			t.Errorf("IsRemote(%q) = %v, want %v", tt.arg, got, tt.want)
		}
	}
}

func TestDownload(t *testing.T) {
	var gotAccept, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer ts.Close()

	cfg := types.HTTPConfig{UserAgent: "pagemark-test/0.1"}
	path, cleanup, err := Download(context.Background(), ts.Client(), ts.URL+"/papers/report.pdf", cfg)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer cleanup()

	if gotAccept != "application/pdf" {
		t.Errorf("Accept header = %q, want application/pdf", gotAccept)
	}
	if gotUA != "pagemark-test/0.1" {
		t.Errorf("User-Agent = %q, want pagemark-test/0.1", gotUA)
	}
	if filepath.Base(path) != "report.pdf" {
		t.Errorf("downloaded name = %q, want report.pdf", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != "%PDF-1.4 fake" {
		t.Errorf("content = %q", data)
	}
}

func TestDownloadCleanupRemovesFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("x"))
	}))
	defer ts.Close()

	path, cleanup, err := Download(context.Background(), ts.Client(), ts.URL+"/a.pdf", types.HTTPConfig{})
	if err != nil {
		t.Fatal(err)
	}
	cleanup()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still exists after cleanup: %v", err)
	}
}

func TestDownloadHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, _, err := Download(context.Background(), ts.Client(), ts.URL+"/missing.pdf", types.HTTPConfig{})
	if err == nil {
		t.Fatal("Download() of 404: expected error, got nil")
	}
}
