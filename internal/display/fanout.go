package display

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/sseqchart/internal/chart"
)

// FanOut is an agent that delivers each batch to every wrapped agent
// concurrently.
//
// SendBatch waits for every agent and returns the first error. The first
// failure cancels the context handed to the others.
type FanOut struct {
	agents []chart.Agent
}

// NewFanOut broadcasts to agents.
func NewFanOut(agents ...chart.Agent) *FanOut {
	return &FanOut{agents: agents}
}

// Add appends an agent. Not safe to call concurrently with SendBatch.
func (f *FanOut) Add(a chart.Agent) {
	f.agents = append(f.agents, a)
}

// Len returns the number of wrapped agents.
func (f *FanOut) Len() int {
	return len(f.agents)
}

// SendBatch delivers batch to every agent.
func (f *FanOut) SendBatch(ctx context.Context, batch []chart.Message) error {
	g, gCtx := errgroup.WithContext(ctx)
	for i, agent := range f.agents {
		g.Go(func() error {
			if err := agent.SendBatch(gCtx, batch); err != nil {
				return fmt.Errorf("fan-out agent %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
