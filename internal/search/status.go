package search

import (
	"fondsynth.dev/planner/internal/fsap"
	"fondsynth.dev/planner/internal/psgraph"
	"fondsynth.dev/planner/internal/task"
)

// Status is the per-round Search Status of spec.md 4.8: the priority
// queue of search nodes, the seen-state set, the state-to-node and
// solution-step-to-nodes indexes, the failed-tuple list, and the
// original init/goal backup needed to detect case 6's "initial state is
// a dead-end" terminal condition.
type Status struct {
	Queue *Queue

	seen             map[string]*Node
	solstep2searchnodes map[int][]*Node

	Failed []fsap.FailedTuple

	CreatedNodes []*Node
	nextNodeID   int

	InitState task.PartialState
	Goal      task.PartialState
}

// NewStatus returns a fresh Status for one driver round.
func NewStatus(pref Preference, initState, goal task.PartialState) *Status {
	return &Status{
		Queue:               NewQueue(pref),
		seen:                map[string]*Node{},
		solstep2searchnodes: map[int][]*Node{},
		InitState:           initState,
		Goal:                goal,
	}
}

// NewNode allocates and registers a new search node.
func (s *Status) NewNode(full, expected task.PartialState, parentStep *psgraph.Step, parent *Node, fromOutcome int) *Node {
	s.nextNodeID++
	n := &Node{
		ID:            s.nextNodeID,
		FullState:     full,
		ExpectedState: expected,
		ParentStep:    parentStep,
		Parent:        parent,
		FromOutcome:   fromOutcome,
		Open:          true,
	}
	if parent != nil {
		parent.Children = append(parent.Children, n)
	}
	s.CreatedNodes = append(s.CreatedNodes, n)
	return n
}

// Seen reports whether full has already been recorded, returning its
// primary search node if so.
func (s *Status) Seen(full task.PartialState) (*Node, bool) {
	n, ok := s.seen[full.Key()]
	return n, ok
}

// Record inserts full into the seen set, keyed to node.
func (s *Status) Record(full task.PartialState, node *Node) {
	s.seen[full.Key()] = node
}

// NodesFor returns the search nodes matched to step.
func (s *Status) NodesFor(step *psgraph.Step) []*Node {
	return s.solstep2searchnodes[step.ID]
}

// MatchNode records that node is now matched to step.
func (s *Status) MatchNode(step *psgraph.Step, node *Node) {
	s.solstep2searchnodes[step.ID] = append(s.solstep2searchnodes[step.ID], node)
}

// Depth returns a node's path length from the root, used for
// near-init/away-init queue ordering.
func Depth(n *Node) int {
	d := 0
	for cur := n; cur.Parent != nil; cur = cur.Parent {
		d++
	}
	return d
}
