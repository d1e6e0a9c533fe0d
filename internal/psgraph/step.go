// Package psgraph implements the Policy-Graph (spec.md 4.7): the evolving
// strong-cyclic policy represented as a directed graph of solution steps,
// with fixed-point regression, strong-cyclic marking, and garbage
// collection of unreachable steps.
package psgraph

import (
	"fondsynth.dev/planner/internal/task"
)

// InvariantViolation is panicked when a structural invariant of the
// PSGraph is found broken — a bug, never a task problem (spec.md 7).
type InvariantViolation struct {
	Msg string
}

func (e InvariantViolation) Error() string { return "psgraph: invariant violation: " + e.Msg }

// Step is a Solution Step: a node of the PSGraph.
type Step struct {
	ID    int
	State task.PartialState
	Op    *task.Action // nil iff this is the unique goal step

	Distance   int
	ExpectedID int // the outcome index of Op intended as the "expected" successor

	Successors   []*Step // length = len(Op.Outcomes), or empty for the goal
	Predecessors []predEdge

	IsGoal     bool
	IsSC       bool
	IsRelevant bool
	IsActive   bool
}

type predEdge struct {
	step    *Step
	outcome int
}

// Key satisfies policy.Keyed so Steps can be indexed alongside FSAPs.
func (s *Step) Key() task.PartialState { return s.State }
func (s *Step) Active() bool           { return s.IsActive }

// Less is the Solution Step order of spec.md 4.6: active precedes
// inactive; strong-cyclic precedes non-strong-cyclic; smaller distance
// precedes larger; ties broken by older (smaller) step id first.
func Less(a, b *Step) bool {
	if a.IsActive != b.IsActive {
		return a.IsActive
	}
	if a.IsSC != b.IsSC {
		return a.IsSC
	}
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}
