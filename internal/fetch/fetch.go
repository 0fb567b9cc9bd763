// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads remote source documents to local temporary files
// so the rest of the pipeline only ever sees filesystem paths.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pagemark/pkg/types"
)

// IsRemote reports whether arg is an HTTP(S) URL rather than a local path.
func IsRemote(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// Download fetches url into a temporary file and returns its path together
// with a cleanup function that removes the file. The download goes to a
// separate temp name first and is renamed on success so a partial transfer
// never masquerades as a complete document.
func Download(ctx context.Context, client *http.Client, url string, cfg types.HTTPConfig) (string, func(), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	dir, err := os.MkdirTemp("", "pagemark-fetch-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	name := path.Base(req.URL.Path)
	if name == "" || name == "/" || name == "." {
		name = "document.pdf"
	}
	destPath := filepath.Join(dir, name)

	tmpFile, err := os.CreateTemp(dir, ".fetch-*.tmp")
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("renaming temp file: %w", err)
	}
	return destPath, cleanup, nil
}
