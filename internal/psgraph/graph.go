package psgraph

import (
	"fondsynth.dev/planner/internal/policy"
	"fondsynth.dev/planner/internal/task"
)

// Graph is the PSGraph: the owning container of Solution Steps, indexed
// by partial-state key through the generic Policy container of spec.md
// 4.2 so get_step queries can use entailment lookup directly.
type Graph struct {
	t *task.Task

	steps  []*Step
	index  *policy.Policy[*Step]
	nextID int

	Goal *Step
	Init *Step
}

// New creates a Graph for t, seeded with the unique goal step.
func New(t *task.Task) *Graph {
	g := &Graph{t: t, index: policy.New[*Step]()}
	goal := &Step{
		State:      t.Goal.Copy(),
		IsGoal:     true,
		IsSC:       true,
		IsActive:   true,
		IsRelevant: true,
		Distance:   0,
	}
	g.addStep(goal)
	g.Goal = goal
	return g
}

// GetStep returns the best (minimum under the Solution Step order) active
// step whose state is entailed by q, or nil if none match.
func (g *Graph) GetStep(q task.PartialState) *Step {
	matches := g.index.Entailed(q)
	if len(matches) == 0 {
		return nil
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if Less(m, best) {
			best = m
		}
	}
	return best
}

func (g *Graph) addStep(s *Step) {
	g.nextID++
	s.ID = g.nextID
	s.IsActive = true
	g.steps = append(g.steps, s)
	g.index.Add(s)
}

// AddStep inserts a new, non-goal step for action op over state, with
// successor slots sized to op's outcome count.
func (g *Graph) AddStep(state task.PartialState, op *task.Action) *Step {
	s := &Step{
		State:      state,
		Op:         op,
		Successors: make([]*Step, len(op.Outcomes)),
		IsRelevant: true,
	}
	g.addStep(s)
	return s
}

// Reset discards the incumbent and reinstates an empty policy containing
// only the goal step, per spec.md 4.8's end-of-round invalidation when
// new dead-ends were found.
func (g *Graph) Reset() {
	*g = *New(g.t)
}

// RemoveStep marks s inactive and severs it from the predecessor/successor
// structure of the graph.
func (g *Graph) RemoveStep(s *Step) {
	if !s.IsActive {
		return
	}
	for i, succ := range s.Successors {
		if succ != nil {
			g.disconnect(s, i, succ)
		}
	}
	for _, pe := range append([]predEdge(nil), s.Predecessors...) {
		pe.step.Successors[pe.outcome] = nil
	}
	s.Predecessors = nil
	s.IsActive = false
}

// Connect wires src's outcome-th successor slot to dst, recording the
// reverse predecessor edge.
func (g *Graph) Connect(src *Step, outcome int, dst *Step) {
	if src.Successors[outcome] == dst {
		return
	}
	if existing := src.Successors[outcome]; existing != nil {
		g.disconnect(src, outcome, existing)
	}
	src.Successors[outcome] = dst
	dst.Predecessors = append(dst.Predecessors, predEdge{step: src, outcome: outcome})
}

// Disconnect severs src's outcome-th successor edge, if any.
func (g *Graph) Disconnect(src *Step, outcome int) {
	dst := src.Successors[outcome]
	if dst == nil {
		return
	}
	g.disconnect(src, outcome, dst)
}

func (g *Graph) disconnect(src *Step, outcome int, dst *Step) {
	src.Successors[outcome] = nil
	filtered := dst.Predecessors[:0]
	removed := false
	for _, pe := range dst.Predecessors {
		if !removed && pe.step == src && pe.outcome == outcome {
			removed = true
			continue
		}
		filtered = append(filtered, pe)
	}
	dst.Predecessors = filtered
}

// CheckInvariants verifies the predecessor/successor symmetry invariant
// of spec.md 3 across every active step. Panics with an
// InvariantViolation on the first break found, per spec.md 7.
func (g *Graph) CheckInvariants() {
	for _, s := range g.steps {
		if !s.IsActive {
			continue
		}
		for o, succ := range s.Successors {
			if succ == nil {
				continue
			}
			found := false
			for _, pe := range succ.Predecessors {
				if pe.step == s && pe.outcome == o {
					found = true
					break
				}
			}
			if !found {
				panic(InvariantViolation{Msg: "successor edge has no matching predecessor entry"})
			}
		}
		for _, pe := range s.Predecessors {
			if pe.step.Successors[pe.outcome] != s {
				panic(InvariantViolation{Msg: "predecessor edge has no matching successor entry"})
			}
		}
	}
	if g.Goal.State.Equal(g.t.Goal) && (!g.Goal.IsGoal || !g.Goal.IsSC || g.Goal.Distance != 0) {
		panic(InvariantViolation{Msg: "goal step violates its required flags"})
	}
}

// Steps returns every step, active or not.
func (g *Graph) Steps() []*Step {
	return g.steps
}
