// Package harness runs chart scenarios and checks every display path
// against the chart itself.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: differential_kills
//	description: "A differential truncates both endpoints"
//	config: charts/adams.yaml      # or an inline chart: block
//	steps:
//	  - op: add_class
//	    ref: a
//	    degree: [1, 0]
//	  - op: add_differential
//	    ref: d
//	    source: a
//	    target: b
//	    page: 2
//	    auto: true
//	  - op: flush
//	  - op: set
//	    target: a
//	    attr: name
//	    value: h_0
//	    from: 3
//	assertions:
//	  - type: attr
//	    target: a
//	    attr: max_page
//	    expect: 2
//	  - type: batch_count
//	    count: 1
//
// # Assertion Types
//
//   - class_count, edge_count: live entities in the chart
//   - batch_count, message_count: delivered traffic, optionally one command
//   - attr: an attribute value on a page
//   - visible_on, drawn_on: display visibility of a class or an edge
//   - deleted, index, style_group: entity bookkeeping
//
// # Checks
//
// Each run wires the chart to a mirror, a recorder and an in-memory store.
// After every flush the mirror must encode identically to the chart, and
// at the end the chart rebuilt from the store's snapshot and batch log
// must too. Ids come from a sequential generator so the recorded batches
// are stable enough for golden comparison (see RunWithGolden).
package harness
