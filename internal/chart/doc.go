// Package chart implements the spectral sequence chart model and its
// synchronization protocol.
//
// A Chart owns classes and edges (structlines, differentials and
// extensions) whose visual attributes vary by page. Every mutation of a
// committed entity queues a create, update or delete message keyed by the
// entity id; Update hands the coalesced batch to the attached Agent.
//
// Ownership flows one way: the chart's maps own entities, entities own
// their page properties and user data. Back-references (class to incident
// edges, edge to endpoints, entity to chart) are non-owning pointers set
// once at commit.
//
// Concurrency: a Chart is mutated by one owning goroutine. The page list
// and the message queue are additionally safe to touch from a second
// producer goroutine, and Update may run concurrently with mutation.
package chart
