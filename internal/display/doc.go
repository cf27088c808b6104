// Package display provides agents that consume the batches a chart flushes.
//
// A chart pushes every flush to exactly one chart.Agent. The agents here
// cover the in-process cases:
//
//   - Mirror replays batches into a second chart through the wire format,
//     which is how mirror consistency is checked.
//   - Recorder keeps every batch for inspection and golden files.
//   - FanOut broadcasts one batch to many agents concurrently.
//   - Instrumented wraps an agent with Prometheus metrics.
//
// The SQLite store in package store is also an agent and can sit behind
// FanOut next to a Mirror.
package display
