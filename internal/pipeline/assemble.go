// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/pagemark/pkg/types"
)

// pageSeparator joins per-page Markdown in combined output so page
// boundaries stay visible as horizontal rules.
const pageSeparator = "\n\n---\n\n"

// ErrIncomplete reports a result set whose page indices do not cover
// [0, pageCount) exactly. A dropped page must surface as a failure, never
// as a silently shortened document.
var ErrIncomplete = errors.New("conversion result is incomplete")

// checkComplete verifies that results holds exactly the indices [0, n),
// each once.
func checkComplete(results []types.PageResult, n int) error {
	if len(results) != n {
		return fmt.Errorf("%w: have %d results, want %d", ErrIncomplete, len(results), n)
	}
	seen := make([]bool, n)
	for _, r := range results {
		if r.Index < 0 || r.Index >= n {
			return fmt.Errorf("%w: index %d outside [0,%d)", ErrIncomplete, r.Index, n)
		}
		if seen[r.Index] {
			return fmt.Errorf("%w: duplicate index %d", ErrIncomplete, r.Index)
		}
		seen[r.Index] = true
	}
	return nil
}

// sortByIndex orders results by their source page index ascending.
// Completion order of the workers never affects the assembled document.
func sortByIndex(results []types.PageResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
}

// CombineDocument joins per-page Markdown in index order. With more than
// one page each unit is prefixed with a "## Page N" header.
func CombineDocument(results []types.PageResult, pageCount int) (string, error) {
	if err := checkComplete(results, pageCount); err != nil {
		return "", err
	}
	ordered := append([]types.PageResult(nil), results...)
	sortByIndex(ordered)

	parts := make([]string, len(ordered))
	for i, r := range ordered {
		if len(ordered) > 1 {
			parts[i] = fmt.Sprintf("## Page %d\n\n%s", r.Index+1, r.Markdown)
		} else {
			parts[i] = r.Markdown
		}
	}
	return strings.Join(parts, pageSeparator), nil
}

// CombineImages joins per-image Markdown in input order. With more than
// one image each unit is prefixed with an "## Image: <name>" header.
// Unlike CombineDocument it tolerates gaps: the image batch operation
// reports failures through its summary instead.
func CombineImages(results []types.PageResult) string {
	ordered := append([]types.PageResult(nil), results...)
	sortByIndex(ordered)

	parts := make([]string, 0, len(ordered))
	for _, r := range ordered {
		if len(ordered) > 1 {
			parts = append(parts, fmt.Sprintf("## Image: %s\n\n%s", r.Name, r.Markdown))
		} else {
			parts = append(parts, r.Markdown)
		}
	}
	return strings.Join(parts, pageSeparator)
}
