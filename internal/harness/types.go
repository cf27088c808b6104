package harness

import (
	"github.com/roach88/sseqchart/internal/chart"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall success: every step behaved as expected, the
	// mirror and the replayed store agreed with the chart, and every
	// assertion held.
	Pass bool `json:"pass"`

	// Batches are the delivered batches in order.
	Batches [][]chart.Message `json:"-"`

	// Document is the final canonical chart encoding.
	Document []byte `json:"-"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Messages returns every delivered message in order.
func (r *Result) Messages() []chart.Message {
	var out []chart.Message
	for _, b := range r.Batches {
		out = append(out, b...)
	}
	return out
}
