// Package fsap implements forbidden state-action pair and dead-end
// learning (spec.md 4.4): given failure tuples discovered by the driver,
// derive new FSAPs and dead-ends from the task's Regressable-Operator
// Index, and expose the Deadend-Aware Successor Generator (spec.md 4.5).
package fsap

import (
	"fondsynth.dev/planner/internal/policy"
	"fondsynth.dev/planner/internal/task"
)

// FSAP is a forbidden state-action pair: an action, identified by its
// non-deterministic index, is forbidden whenever the current state
// entails State.
type FSAP struct {
	ID     int
	State  task.PartialState
	ActID  int
	active bool
}

func (f *FSAP) Key() task.PartialState { return f.State }
func (f *FSAP) Active() bool           { return f.active }

// Deadend is a partial state known to admit no solution.
type Deadend struct {
	ID     int
	State  task.PartialState
	active bool
}

func (d *Deadend) Key() task.PartialState { return d.State }
func (d *Deadend) Active() bool           { return d.active }

// FailedTuple is one input to Learn: failed_state is a known dead-end;
// PrevState/PrevOp optionally describe how it was reached.
type FailedTuple struct {
	FailedState task.PartialState
	PrevState   task.PartialState // nil if unknown
	PrevOp      *task.Operator    // nil if unknown
}

// Store holds the FSAP policy and the dead-end policy together with the
// regressable-operator index they're learned against.
type Store struct {
	t   *task.Task
	idx *task.RegressIndex

	FSAPs    *policy.Policy[*FSAP]
	Deadends *policy.Policy[*Deadend]

	nextFSAPID    int
	nextDeadendID int
}

// NewStore builds a Store for t, computing its regress index once.
func NewStore(t *task.Task) *Store {
	return &Store{
		t:        t,
		idx:      task.BuildRegressIndex(t),
		FSAPs:    policy.New[*FSAP](),
		Deadends: policy.New[*Deadend](),
	}
}

// Learn processes one failed tuple per spec.md 4.4, registering a
// Deadend item plus every FSAP derivable from the regress index and
// (optionally) the prev_op edge. Returns the newly created FSAPs, for
// callers (e.g. the driver) that need to act on them immediately.
func (s *Store) Learn(ft FailedTuple) []*FSAP {
	s.nextDeadendID++
	s.Deadends.Add(&Deadend{ID: s.nextDeadendID, State: ft.FailedState, active: true})

	var created []*FSAP
	for _, m := range s.idx.CandidatesFor(ft.FailedState) {
		st := m.Regress(s.t.NumVars, ft.FailedState)
		created = append(created, s.addFSAP(st, m.Op.NondetIndex))
	}

	if ft.PrevOp != nil && ft.PrevState != nil {
		st := ft.FailedState.Regress(ft.PrevOp, ft.PrevState)
		created = append(created, s.addFSAP(st, ft.PrevOp.NondetIndex))
	}
	return created
}

func (s *Store) addFSAP(state task.PartialState, actID int) *FSAP {
	s.nextFSAPID++
	f := &FSAP{ID: s.nextFSAPID, State: state, ActID: actID, active: true}
	s.FSAPs.Add(f)
	return f
}

// Generalize implements the optional dead-end generalisation of spec.md
// 4.4: iteratively unset each variable of state and keep the relaxation
// unset if isDeadend (typically the reachability heuristic) still
// reports a dead-end, yielding a minimal relaxed dead-end partial state.
// state is not mutated; a new, generalised state is returned.
func Generalize(state task.PartialState, isDeadend func(task.PartialState) bool) task.PartialState {
	out := state.Copy()
	for i, v := range out {
		if v == task.Unset {
			continue
		}
		out[i] = task.Unset
		if !isDeadend(out) {
			out[i] = v
		}
	}
	return out
}

// Less is the FSAP order of spec.md 4.6: reverse of the solution-step
// order, i.e. newer FSAPs (higher id) sort first.
func Less(a, b *FSAP) bool {
	if a.active != b.active {
		return a.active
	}
	return a.ID > b.ID
}

// ForbiddenActions returns, for query state q, the set of non-det action
// ids forbidden by an entailed FSAP, each with its smallest-keyed FSAP as
// representative (spec.md 4.5 step 2).
func (s *Store) ForbiddenActions(q task.PartialState) map[int]*FSAP {
	matches := s.FSAPs.Entailed(q)
	reps := map[int]*FSAP{}
	for _, f := range matches {
		cur, ok := reps[f.ActID]
		if !ok || f.State.Less(cur.State) {
			reps[f.ActID] = f
		}
	}
	return reps
}
