// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"io"
	"sync"

	"github.com/pdiddy/pagemark/pkg/types"
)

// syncWriter serializes progress writes from concurrent workers. The
// pipeline accepts arbitrary io.Writers and workers report progress as
// they finish, so every write must hold the lock to keep lines whole.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// pageFunc converts the page at index, returning its tagged result.
type pageFunc func(ctx context.Context, index int) (types.PageResult, error)

// pageError records a failure against the page slot that produced it.
type pageError struct {
	Index int
	Err   error
}

// runBatch fans the batch's pages out across at most workers goroutines
// and blocks until every page has either produced a result or failed.
// Results land in out at their own index; no two workers share a slot, so
// the writes need no lock. A failed page is recorded and does not cancel
// its siblings.
func runBatch(ctx context.Context, batch Range, workers int, out []types.PageResult, fn pageFunc) []pageError {
	if workers < 1 {
		workers = 1
	}

	errs := make([]error, len(out))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := batch.Start; i < batch.End; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := fn(ctx, index)
			if err != nil {
				errs[index] = err
				return
			}
			out[index] = res
		}(i)
	}
	wg.Wait()

	var failed []pageError
	for i := batch.Start; i < batch.End; i++ {
		if errs[i] != nil {
			failed = append(failed, pageError{Index: i, Err: errs[i]})
		}
	}
	return failed
}
