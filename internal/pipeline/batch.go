// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

// Range is a half-open interval [Start, End) of page indices.
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Batches splits [0, pageCount) into contiguous ranges of at most
// batchSize indices, in order, the final range possibly shorter. Only one
// batch of page buffers is materialized at a time, which bounds peak
// memory by batchSize regardless of document length.
func Batches(pageCount, batchSize int) []Range {
	if pageCount <= 0 {
		return nil
	}
	if batchSize < 1 {
		batchSize = 1
	}

	batches := make([]Range, 0, (pageCount+batchSize-1)/batchSize)
	for start := 0; start < pageCount; start += batchSize {
		end := start + batchSize
		if end > pageCount {
			end = pageCount
		}
		batches = append(batches, Range{Start: start, End: end})
	}
	return batches
}
