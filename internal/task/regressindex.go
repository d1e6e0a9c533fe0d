package task

// RegressEntry is one entry of the Regressable-Operator Index (spec.md
// 4.3): a post-value conjunction that, if entailed by a state, means that
// state may have been produced by Op, plus the context to regress with.
type RegressEntry struct {
	Op      *Operator
	PostKey PartialState // conjunction of the effects' post-values
	Context PartialState // the all-fire context to regress with (nil for unconditional entries)
}

// RegressIndex is the pre-computed Regressable-Operator Index: the
// unconditional and all-fire regressable-operator lists of spec.md 4.3,
// built once from a Task and reused by FSAP/dead-end learning.
type RegressIndex struct {
	Unconditional []RegressEntry
	AllFire       []RegressEntry
}

// BuildRegressIndex computes the index for t.
func BuildRegressIndex(t *Task) *RegressIndex {
	idx := &RegressIndex{}
	for _, op := range t.Operators {
		if !op.hasConditionalEffects() {
			idx.Unconditional = append(idx.Unconditional, RegressEntry{
				Op:      op,
				PostKey: unconditionalPostKey(t.NumVars, op),
			})
			continue
		}
		if ctx, ok := allFireContext(t.NumVars, op); ok {
			idx.AllFire = append(idx.AllFire, RegressEntry{
				Op:      op,
				PostKey: postKeyFromContext(t.NumVars, op, ctx),
				Context: ctx,
			})
		}
	}
	return idx
}

// unconditionalPostKey builds the conjunction of post-values for an
// operator with no conditional effects: every effect always fires.
func unconditionalPostKey(numVars int, op *Operator) PartialState {
	key := New(numVars)
	for _, eff := range op.Effects {
		key[eff.Var] = eff.Val
	}
	return key
}

// allFireContext checks that op's preconditions, every effect condition,
// and the resulting post-values are all mutually consistent, and if so
// returns the single complete-enough context in which every effect fires.
func allFireContext(numVars int, op *Operator) (PartialState, bool) {
	ctx := New(numVars)
	for _, pre := range op.Pre {
		if ctx[pre.Var] != Unset && ctx[pre.Var] != pre.Val {
			return nil, false
		}
		ctx[pre.Var] = pre.Val
	}
	for _, eff := range op.Effects {
		for _, c := range eff.Cond {
			if ctx[c.Var] != Unset && ctx[c.Var] != c.Val {
				return nil, false
			}
			ctx[c.Var] = c.Val
		}
	}
	post := New(numVars)
	for _, eff := range op.Effects {
		if post[eff.Var] != Unset && post[eff.Var] != eff.Val {
			return nil, false
		}
		post[eff.Var] = eff.Val
	}
	return ctx, true
}

func postKeyFromContext(numVars int, op *Operator, ctx PartialState) PartialState {
	key := New(numVars)
	for _, eff := range op.Effects {
		if eff.conditionHoldsIn(ctx) {
			key[eff.Var] = eff.Val
		}
	}
	return key
}

// CandidatesFor returns every regress-index entry (unconditional and
// all-fire) whose post-key is entailed by failedState, i.e. every
// operator that may have produced failedState.
func (idx *RegressIndex) CandidatesFor(failedState PartialState) []RegressEntry {
	var out []RegressEntry
	for _, e := range idx.Unconditional {
		if failedState.Entails(e.PostKey) {
			out = append(out, e)
		}
	}
	for _, e := range idx.AllFire {
		if failedState.Entails(e.PostKey) {
			out = append(out, e)
		}
	}
	return out
}

// Regress computes the forbidden predecessor state for a (failed_state,
// entry) match, per spec.md 4.4: regress failedState through entry.Op
// using entry.Context (empty for unconditional entries) as the context.
func (e RegressEntry) Regress(numVars int, failedState PartialState) PartialState {
	ctx := e.Context
	if ctx == nil {
		ctx = New(numVars)
	}
	return failedState.Regress(e.Op, ctx)
}
