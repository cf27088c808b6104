package store

import (
	"context"
	"fmt"

	"github.com/roach88/sseqchart/internal/chart"
)

// ReplayResult is a chart rebuilt from the store.
type ReplayResult struct {
	Chart *chart.Chart

	// SnapshotSeq is the seq the snapshot already covered.
	SnapshotSeq int64

	// Batches is the number of logged batches applied on top of it.
	Batches int
}

// Replay rebuilds the chart saved under name: the snapshot is decoded and
// every batch logged after it is applied in seq order. The result has no
// pending messages and keeps logging to s.
func (s *Store) Replay(ctx context.Context, name string) (ReplayResult, error) {
	snap, err := s.ReadSnapshot(ctx, name)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}
	c, err := chart.Decode(snap.Document, s.chartOptions()...)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %q: %w", name, err)
	}

	batches, err := s.ReadBatches(ctx, snap.ChartID, snap.Seq)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %q: %w", name, err)
	}
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return ReplayResult{}, fmt.Errorf("replay %q: %w", name, err)
		}
		for i, m := range b.Messages {
			if err := c.Apply(m); err != nil {
				return ReplayResult{}, fmt.Errorf("replay %q: seq %d message %d: %w", name, b.Seq, i, err)
			}
		}
	}
	c.Discard()

	s.logger.Info("chart replayed",
		"name", name,
		"chart", snap.ChartID,
		"snapshot_seq", snap.Seq,
		"batches", len(batches))
	return ReplayResult{Chart: c, SnapshotSeq: snap.Seq, Batches: len(batches)}, nil
}
