package contract

import (
	"context"
	"io"
)

// ArtifactID names a persisted output relative to the writer's root.
type ArtifactID string

// Writer persists a byte stream to the target medium.
// Constraints:
//  1. one writer per ArtifactID;
//  2. streamed, bytes passed through untouched;
//  3. returns promptly once ctx is cancelled;
//  4. errors are returned as is (no retry).
type Writer interface {
	Write(ctx context.Context, id ArtifactID, r io.Reader) error
}

// HistogramWriter persists the histograms of one run in a specific format.
// Writers are invoked sequentially after all bins are integrated.
type HistogramWriter interface {
	WriteHistograms(ctx context.Context, run RunInfo, hs []Histogram) error
}
