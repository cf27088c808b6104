// Package store provides SQLite-backed persistence for charts.
//
// A Store is a display agent: attached to a chart it appends every
// delivered batch to a per-chart log, and it implements the optional
// Save, SaveAs and Load capabilities.
//
//   - Snapshots: the canonical chart document saved under a name
//   - Batches: the append-only log of delivered batches
//
// # Ordering
//
// Batches are numbered by a per-chart seq (logical clock), never by
// timestamps. A snapshot records the seq of the last batch it contains, so
// Replay rebuilds a chart from its snapshot plus every later batch.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
