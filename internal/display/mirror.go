package display

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/sseqchart/internal/chart"
)

// Mirror is an agent that keeps a replica of the source chart.
//
// Every batch is marshaled and parsed again before it is applied, so the
// replica only ever sees what a remote display would see. After a
// successful SendBatch the replica encodes identically to the source.
//
// Thread-safety: SendBatch, Encode and Batches are safe for concurrent use.
// The chart returned by Chart must not be used while batches arrive.
type Mirror struct {
	mu      sync.Mutex
	chart   *chart.Chart
	batches int
}

// NewMirror starts a replica from the source chart's encoding, taken
// before the source's first flush.
func NewMirror(initial []byte, opts ...chart.Option) (*Mirror, error) {
	c, err := chart.Decode(initial, opts...)
	if err != nil {
		return nil, fmt.Errorf("start mirror: %w", err)
	}
	return &Mirror{chart: c}, nil
}

// SendBatch applies batch to the replica.
//
// Messages are applied in order; a failing message stops the batch and
// leaves the replica diverged from the source.
func (m *Mirror) SendBatch(_ context.Context, batch []chart.Message) error {
	data, err := chart.MarshalBatch(batch)
	if err != nil {
		return fmt.Errorf("mirror: %w", err)
	}
	messages, err := chart.UnmarshalBatch(data)
	if err != nil {
		return fmt.Errorf("mirror: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, msg := range messages {
		if err := m.chart.Apply(msg); err != nil {
			return fmt.Errorf("mirror: message %d (%s %s): %w", i, msg.Command, msg.TargetType, err)
		}
	}
	m.chart.Discard()
	m.batches++
	return nil
}

// Chart returns the replica.
func (m *Mirror) Chart() *chart.Chart {
	return m.chart
}

// Encode returns the replica's canonical encoding.
func (m *Mirror) Encode() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chart.Encode()
}

// Batches returns how many batches have been applied.
func (m *Mirror) Batches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}
