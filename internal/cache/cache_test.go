// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"testing"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLookupMiss(t *testing.T) {
	c := openTestCache(t)

	_, ok, err := c.Lookup(context.Background(), Key([]byte("img"), "m", "p"))
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if ok {
		t.Error("Lookup() on empty cache: ok = true, want false")
	}
}

func TestStoreAndLookup(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	key := Key([]byte("image-bytes"), "google/gemini-2.0-flash-001", "Convert this document to markdown")
	if err := c.Store(ctx, key, "page_001", "google/gemini-2.0-flash-001", "# Page one"); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	md, ok, err := c.Lookup(ctx, key)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !ok {
		t.Fatal("Lookup() ok = false, want true")
	}
	if md != "# Page one" {
		t.Errorf("Lookup() = %q, want %q", md, "# Page one")
	}
}

func TestStoreReplacesExisting(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	key := Key([]byte("img"), "m", "p")
	if err := c.Store(ctx, key, "page_001", "m", "old"); err != nil {
		t.Fatal(err)
	}
	if err := c.Store(ctx, key, "page_001", "m", "new"); err != nil {
		t.Fatal(err)
	}

	md, ok, err := c.Lookup(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Lookup() = %v, %v", ok, err)
	}
	if md != "new" {
		t.Errorf("Lookup() = %q, want %q", md, "new")
	}
}

func TestKeySensitivity(t *testing.T) {
	base := Key([]byte("img"), "model-a", "prompt")
	tests := []struct {
		name string
		key  string
	}{
		{"different image", Key([]byte("other"), "model-a", "prompt")},
		{"different model", Key([]byte("img"), "model-b", "prompt")},
		{"different prompt", Key([]byte("img"), "model-a", "other prompt")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key == base {
				t.Error("key collision: inputs differ but keys match")
			}
		})
	}

	if Key([]byte("img"), "model-a", "prompt") != base {
		t.Error("Key is not deterministic")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	c1, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	key := Key([]byte("img"), "m", "p")
	if err := c1.Store(context.Background(), key, "s", "m", "md"); err != nil {
		t.Fatal(err)
	}
	c1.Close()

	// Reopening must see the persisted entry.
	c2, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Close()

	md, ok, err := c2.Lookup(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("Lookup() after reopen = %v, %v", ok, err)
	}
	if md != "md" {
		t.Errorf("Lookup() = %q, want %q", md, "md")
	}
}
