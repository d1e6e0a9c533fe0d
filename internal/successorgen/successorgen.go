// Package successorgen implements the Deadend-Aware Successor Generator
// of spec.md 4.5: the base applicable-action computation filtered by the
// FSAP policy, with an optional combination rule that synthesises new
// dead-ends when every applicable action turns out forbidden.
package successorgen

import (
	"fondsynth.dev/planner/internal/fsap"
	"fondsynth.dev/planner/internal/task"
)

// Generator wraps a Task and an FSAP store.
type Generator struct {
	t     *task.Task
	store *fsap.Store

	// CombineDeadends enables the combination rule (config deadend.combine).
	CombineDeadends bool
}

// New returns a Generator for t, using store for FSAP lookups.
func New(t *task.Task, store *fsap.Store) *Generator {
	return &Generator{t: t, store: store}
}

// Result holds the surviving actions and, if the combination rule fired,
// the newly synthesised dead-end.
type Result struct {
	Actions    []*task.Action
	NewDeadend task.PartialState // nil unless the combination rule fired
}

// Applicable computes the deadend-aware successor set for q.
func (g *Generator) Applicable(q task.PartialState) Result {
	base := g.t.ApplicableActions(q)
	if len(base) == 0 {
		return Result{}
	}

	forbidden := g.store.ForbiddenActions(q)
	var kept []*task.Action
	for _, a := range base {
		if _, blocked := forbidden[a.Index]; !blocked {
			kept = append(kept, a)
		}
	}
	if len(kept) > 0 || !g.CombineDeadends {
		return Result{Actions: kept}
	}

	// Combination rule: every applicable action was forbidden. Synthesise
	// a dead-end by combining the representative FSAPs, then extend it to
	// rule out every other non-forbidden action reachable from q.
	d := task.New(g.t.NumVars)
	for _, f := range forbidden {
		combined, err := d.CombineWith(f.State)
		if err != nil {
			// FSAPs that disagree can't be combined soundly; skip it
			// rather than synthesise an unsound dead-end.
			continue
		}
		d = combined
	}

	for _, a := range g.t.Actions {
		if _, blocked := forbidden[a.Index]; blocked {
			continue
		}
		for _, op := range a.Outcomes {
			if !possiblyApplicableIn(d, op) {
				continue
			}
			for _, pre := range op.Pre {
				if d[pre.Var] != q[pre.Var] {
					d[pre.Var] = q[pre.Var]
					break
				}
			}
		}
	}

	g.store.Learn(fsap.FailedTuple{FailedState: d})
	return Result{NewDeadend: d}
}

// possiblyApplicableIn reports whether op's preconditions are consistent
// with (not necessarily entailed by) state — i.e. op could still apply
// once state's unset variables are filled in.
func possiblyApplicableIn(state task.PartialState, op *task.Operator) bool {
	for _, p := range op.Pre {
		if state[p.Var] != task.Unset && state[p.Var] != p.Val {
			return false
		}
	}
	return true
}
