package psgraph

import "fondsynth.dev/planner/internal/task"

// FixedPointRegression is the core structural edit used after driver
// cases 2, 4, and 5 (spec.md 4.7): ensure src's outcome-th successor is
// newDst. If src's outcome slot is already connected to a different step,
// split: clone src into a new step whose state is strengthened so it
// entails newDst's state through outcome's regression (evaluated in
// context, the full state that produced the edit), carrying forward
// src's other outcome edges, then redirect src's own outcome-th slot to
// the clone — per spec.md 4.7's "redirect src_node's match to the
// clone" — so src is no longer wired to the stale destination and every
// future traversal through src's outcome-th slot reaches the clone (and
// from there, newDst) instead of silently keeping the old, now-wrong
// edge. Returns every newly created step.
//
// Design note (spec.md 9 open question on case 2 subtlety): this
// implementation does not recurse toward predecessors re-splitting
// earlier prefixes, since the spec itself flags that recursive
// consistency propagation as unresolved in the original source. A single
// split at src is performed; callers that need search-node redistribution
// across the split receive both steps and do that redistribution
// themselves (kept out of this package to avoid a psgraph <-> search
// import cycle).
func (g *Graph) FixedPointRegression(src *Step, outcome int, newDst *Step, context task.PartialState) (created []*Step, changedStep *Step) {
	existing := src.Successors[outcome]
	if existing == newDst {
		return nil, src
	}
	if existing == nil {
		g.Connect(src, outcome, newDst)
		return nil, src
	}

	op := src.Op.Outcomes[outcome]
	strengthened := strengthenForRegression(src.State, context, op, newDst.State)

	clone := &Step{
		State:      strengthened,
		Op:         src.Op,
		Successors: make([]*Step, len(src.Op.Outcomes)),
		IsRelevant: true,
	}
	g.addStep(clone)
	g.Connect(clone, outcome, newDst)
	for i, succ := range src.Successors {
		if i != outcome && succ != nil {
			g.Connect(clone, i, succ)
		}
	}
	g.Connect(src, outcome, clone)
	return []*Step{clone}, clone
}

// strengthenForRegression computes a state entailing newDstState's
// regression through op in context, while starting from (and trying to
// stay close to) base.
func strengthenForRegression(base, context task.PartialState, op *task.Operator, newDstState task.PartialState) task.PartialState {
	regressed := newDstState.Regress(op, context)
	combined, err := base.CombineWith(regressed)
	if err != nil {
		// base and the regression target disagree: the regressed state
		// alone is the strongest sound choice.
		return regressed
	}
	return combined
}

// Strengthen implements spec.md 4.6: given a new solution step with
// partial state s and operator op, and the full context state c that
// produced it, for every FSAP whose non-det id equals op's and whose key
// is consistent with s, set s[j] <- c[j] for the first variable j set in
// the FSAP but differing from c and unset in s. Iteration stops after the
// first variable fixed per FSAP. fsaps is the set of candidate FSAP keys
// (already filtered to the matching non-det id and consistency) with
// their forbidden states.
func Strengthen(s task.PartialState, context task.PartialState, fsapStates []task.PartialState) task.PartialState {
	out := s.Copy()
	for _, fsapState := range fsapStates {
		for j, v := range fsapState {
			if v == task.Unset {
				continue
			}
			if out[j] == task.Unset && v != context[j] {
				out[j] = context[j]
				break
			}
		}
	}
	return out
}
