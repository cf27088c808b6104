package store

import (
	"context"
	"fmt"

	"github.com/roach88/sseqchart/internal/chart"
)

// Snapshot is a saved chart document.
type Snapshot struct {
	Name     string
	ChartID  string
	Seq      int64
	Digest   string
	Document []byte
}

// Batch is one logged batch.
type Batch struct {
	ChartID  string
	Seq      int64
	Messages []chart.Message
}

// ReadSnapshot retrieves the snapshot saved under name.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadSnapshot(ctx context.Context, name string) (Snapshot, error) {
	var snap Snapshot
	var doc string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, chart_id, document, digest, seq
		FROM snapshots
		WHERE name = ?
	`, name).Scan(&snap.Name, &snap.ChartID, &doc, &snap.Digest, &snap.Seq)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot %q: %w", name, err)
	}
	snap.Document = []byte(doc)
	return snap, nil
}

// ListSnapshots returns every snapshot without its document, ordered by
// name.
func (s *Store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, chart_id, digest, seq
		FROM snapshots
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.Name, &snap.ChartID, &snap.Digest, &snap.Seq); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snapshots, nil
}

// ReadBatches returns the batches logged for chartID with seq greater than
// after, in seq order.
func (s *Store) ReadBatches(ctx context.Context, chartID string, after int64) ([]Batch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, messages
		FROM batches
		WHERE chart_id = ? AND seq > ?
		ORDER BY seq ASC
	`, chartID, after)
	if err != nil {
		return nil, fmt.Errorf("read batches: %w", err)
	}
	defer rows.Close()

	batches := []Batch{}
	for rows.Next() {
		b := Batch{ChartID: chartID}
		var data string
		if err := rows.Scan(&b.Seq, &data); err != nil {
			return nil, fmt.Errorf("read batches: %w", err)
		}
		if b.Messages, err = chart.UnmarshalBatch([]byte(data)); err != nil {
			return nil, fmt.Errorf("read batches: seq %d: %w", b.Seq, err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read batches: %w", err)
	}
	return batches, nil
}

// LastSeq returns the seq of the newest batch logged for chartID, or 0.
func (s *Store) LastSeq(ctx context.Context, chartID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM batches WHERE chart_id = ?
	`, chartID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return seq, nil
}

// Load decodes the snapshot saved under name. The loaded chart keeps
// logging to s.
func (s *Store) Load(ctx context.Context, name string) (*chart.Chart, error) {
	snap, err := s.ReadSnapshot(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	c, err := chart.Decode(snap.Document, s.chartOptions()...)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	s.logger.Info("snapshot loaded", "name", name, "chart", snap.ChartID, "seq", snap.Seq)
	return c, nil
}

func (s *Store) chartOptions() []chart.Option {
	return []chart.Option{chart.WithAgent(s), chart.WithLogger(s.logger)}
}
