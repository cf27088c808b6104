package display

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/sseqchart/internal/chart"
)

// Metrics are the delivery metrics recorded by Instrumented.
type Metrics struct {
	// batches counts delivered batches.
	// Labels: status (success, error)
	batches *prometheus.CounterVec

	// messages counts delivered messages.
	// Labels: command (create, update, delete)
	messages *prometheus.CounterVec

	// batchSize tracks messages per batch.
	batchSize prometheus.Histogram

	// latency measures how long the wrapped agent takes per batch.
	latency prometheus.Histogram
}

// NewMetrics registers the delivery metrics with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		batches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sseqchart",
			Subsystem: "display",
			Name:      "batches_total",
			Help:      "Total batches delivered to the display agent",
		}, []string{"status"}),
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sseqchart",
			Subsystem: "display",
			Name:      "messages_total",
			Help:      "Total messages delivered to the display agent",
		}, []string{"command"}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sseqchart",
			Subsystem: "display",
			Name:      "batch_size",
			Help:      "Messages per delivered batch",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 1000},
		}),
		latency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sseqchart",
			Subsystem: "display",
			Name:      "delivery_seconds",
			Help:      "Time spent delivering one batch",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Instrumented wraps an agent and records Metrics for every batch.
type Instrumented struct {
	next    chart.Agent
	metrics *Metrics
}

// NewInstrumented records deliveries to next in metrics.
func NewInstrumented(next chart.Agent, metrics *Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: metrics}
}

// SendBatch delivers batch to the wrapped agent.
func (a *Instrumented) SendBatch(ctx context.Context, batch []chart.Message) error {
	start := time.Now()
	err := a.next.SendBatch(ctx, batch)
	a.metrics.latency.Observe(time.Since(start).Seconds())

	if err != nil {
		a.metrics.batches.WithLabelValues("error").Inc()
		return err
	}
	a.metrics.batches.WithLabelValues("success").Inc()
	a.metrics.batchSize.Observe(float64(len(batch)))
	for _, m := range batch {
		a.metrics.messages.WithLabelValues(string(m.Command)).Inc()
	}
	return nil
}
