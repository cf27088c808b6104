package display

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/sseqchart/internal/chart"
	"github.com/roach88/sseqchart/internal/value"
)

// Recorder is an agent that keeps every batch it receives.
type Recorder struct {
	mu      sync.Mutex
	batches [][]chart.Message
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SendBatch records batch.
func (r *Recorder) SendBatch(_ context.Context, batch []chart.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, slices.Clone(batch))
	return nil
}

// Batches returns the recorded batches in delivery order.
func (r *Recorder) Batches() [][]chart.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.batches)
}

// Messages returns every recorded message in delivery order.
func (r *Recorder) Messages() []chart.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chart.Message
	for _, batch := range r.batches {
		out = append(out, batch...)
	}
	return out
}

// Reset forgets every recorded batch.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = nil
}

// Encode renders the recorded batches as a canonical JSON array of
// batches, suitable for golden files.
func (r *Recorder) Encode() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	arr := make(value.Array, len(r.batches))
	for i, batch := range r.batches {
		msgs := make(value.Array, len(batch))
		for j, m := range batch {
			msgs[j] = m.Object()
		}
		arr[i] = msgs
	}
	data, err := value.MarshalCanonical(arr)
	if err != nil {
		return nil, fmt.Errorf("encode recorded batches: %w", err)
	}
	return data, nil
}
