// Package search implements the PRP Search Node and the six-case FOND
// Search Driver of spec.md 4.8: a priority-queued expansion of full
// states that grows the PSGraph, dispatching each popped node into one of
// six cases and learning dead-ends along the way.
package search

import (
	"fondsynth.dev/planner/internal/psgraph"
	"fondsynth.dev/planner/internal/task"
)

// Node is a PRP Search Node: a full state reached during expansion,
// together with the expected partial state along the solution graph and
// bookkeeping needed by the six-case dispatcher.
type Node struct {
	ID int

	FullState     task.PartialState // the full (totally assigned) state reached
	ExpectedState task.PartialState // the expected partial state along the solution graph

	ParentStep *psgraph.Step // previous_step
	Parent     *Node         // previous search node
	FromOutcome int          // the outcome index leading from Parent to this node

	Children []*Node // next_nodes, for poisoning propagation

	MatchedStep *psgraph.Step

	Open     bool
	Init     bool
	Subsumed bool
	Poisoned bool
}

// Preference selects the driver's search-node expansion order.
type Preference int

const (
	PreferFIFO Preference = iota
	PreferLIFO
	PreferNearInit
	PreferAwayInit
	PreferRandom
)
