package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/sseqchart/internal/chart"
)

// ErrPending is returned when a chart with queued messages is saved
// directly to the store.
var ErrPending = errors.New("chart has undelivered messages")

// SendBatch appends batch to the log of the chart that produced it. The
// batch gets the next seq of that chart's log.
func (s *Store) SendBatch(ctx context.Context, batch []chart.Message) error {
	if len(batch) == 0 {
		return nil
	}
	chartID := batch[0].ChartID
	for i, m := range batch {
		if m.ChartID != chartID {
			return fmt.Errorf("append batch: message %d belongs to chart %s, batch to %s", i, m.ChartID, chartID)
		}
	}

	data, err := chart.MarshalBatch(batch)
	if err != nil {
		return fmt.Errorf("append batch: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := lastSeq(ctx, tx, chartID)
	if err != nil {
		return fmt.Errorf("append batch: %w", err)
	}
	seq++

	_, err = tx.ExecContext(ctx, `
		INSERT INTO batches (chart_id, seq, size, messages, digest)
		VALUES (?, ?, ?, ?, ?)
	`, chartID, seq, len(batch), string(data), BatchDigest(data))
	if err != nil {
		return fmt.Errorf("append batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append batch: commit: %w", err)
	}

	s.logger.Debug("batch appended", "chart", chartID, "seq", seq, "batch_size", len(batch))
	return nil
}

// Save stores a snapshot of c under its own name.
func (s *Store) Save(ctx context.Context, c *chart.Chart) error {
	return s.SaveAs(ctx, c, c.Name())
}

// SaveAs stores a snapshot of c under name, replacing any earlier snapshot
// with that name. The snapshot covers every batch already in c's log, so
// c must have nothing queued: flush it first (Chart.SaveAs does) or
// discard the queue of a chart that has never been delivered.
func (s *Store) SaveAs(ctx context.Context, c *chart.Chart, name string) error {
	if n := c.Pending(); n > 0 {
		return fmt.Errorf("save %q: %w: %d messages", name, ErrPending, n)
	}
	doc, err := c.Encode()
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	if err := s.writeSnapshot(ctx, name, c.ID(), doc); err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	return nil
}

// Import stores an encoded chart document under name. The document must
// decode; it is stored exactly as given.
func (s *Store) Import(ctx context.Context, name string, doc []byte) error {
	c, err := chart.Decode(doc)
	if err != nil {
		return fmt.Errorf("import %q: %w", name, err)
	}
	if err := s.writeSnapshot(ctx, name, c.ID(), doc); err != nil {
		return fmt.Errorf("import %q: %w", name, err)
	}
	return nil
}

func (s *Store) writeSnapshot(ctx context.Context, name, chartID string, doc []byte) error {
	if name == "" {
		return fmt.Errorf("empty snapshot name")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := lastSeq(ctx, tx, chartID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (name, chart_id, document, digest, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			chart_id = excluded.chart_id,
			document = excluded.document,
			digest = excluded.digest,
			seq = excluded.seq
	`, name, chartID, string(doc), SnapshotDigest(doc), seq)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("snapshot saved", "name", name, "chart", chartID, "seq", seq)
	return nil
}

// lastSeq returns the seq of the newest batch logged for chartID, or 0.
func lastSeq(ctx context.Context, tx *sql.Tx, chartID string) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM batches WHERE chart_id = ?
	`, chartID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return seq, nil
}
