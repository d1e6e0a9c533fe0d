// Package heuristic implements the FSAP-penalised relaxed-reachability
// heuristic of spec.md 4.9: a classical h-add/h-ff-style relaxation over
// propositions (var, val), with a penalty charged per enabled FSAP and an
// extended mode extracting a relaxed plan and preferred operators.
package heuristic

import (
	"sync"

	"github.com/charmbracelet/log"

	"fondsynth.dev/planner/internal/fsap"
	"fondsynth.dev/planner/internal/task"
)

const (
	// Inf represents an unreached proposition.
	Inf = 1 << 30
	// costCap clamps overflow from accumulated FSAP penalties.
	costCap = 100_000_000
)

// Heuristic computes relaxed-reachability costs over propositions keyed
// by [var][val], since variable domains vary in size.
type Heuristic struct {
	t           *task.Task
	store       *fsap.Store
	FSAPPenalty int
	Penalize    bool // weaksearch.penalize_potential_fsaps

	warnOverflow sync.Once
}

// New returns a Heuristic computed against t's operators, penalised using
// store's FSAP policy when Penalize is enabled.
func New(t *task.Task, store *fsap.Store) *Heuristic {
	return &Heuristic{t: t, store: store}
}

// Result is the outcome of one heuristic computation.
type Result struct {
	DeadEnd    bool
	Value      int
	RelaxedOps []*task.Operator // the relaxed plan, extended mode only
	Preferred  []*task.Action   // preferred operators, extended mode only
}

// Compute runs the relaxed-reachability computation from state toward the
// task's own goal. extended additionally extracts a relaxed plan and
// marks preferred operators among those applicable (and unforbidden) in
// state.
func (h *Heuristic) Compute(state task.PartialState, extended bool) Result {
	return h.ComputeToGoal(state, h.t.Goal, extended)
}

// ComputeToGoal is Compute generalised to an arbitrary goal, used by the
// weak planner when it is asked to reach a goal other than the task's own
// (e.g. a solution-step's partial state during regression). The task
// itself is never mutated to answer this query.
func (h *Heuristic) ComputeToGoal(state, goal task.PartialState, extended bool) Result {
	cost := make([][]int, h.t.NumVars)
	reachedBy := make([][]*task.Operator, h.t.NumVars)
	for v := 0; v < h.t.NumVars; v++ {
		cost[v] = make([]int, h.t.Domains[v])
		reachedBy[v] = make([]*task.Operator, h.t.Domains[v])
		for val := range cost[v] {
			cost[v][val] = Inf
		}
		if state[v] != task.Unset {
			cost[v][state[v]] = 0
		}
	}

	chargedFSAP := map[int]bool{}

	changed := true
	for changed {
		changed = false
		for _, op := range h.t.Operators {
			if !h.preApplicable(op, cost) {
				continue
			}
			base := op.Cost
			for _, pre := range op.Pre {
				base += cost[pre.Var][pre.Val]
			}
			base += h.fsapPenalty(op, cost, chargedFSAP)
			if base > costCap {
				h.warnOverflow.Do(func() {
					log.Warn("relaxed-reachability cost overflowed, clamping", "op", op.Name, "cap", costCap)
				})
				base = costCap
			}
			for _, eff := range op.Effects {
				if !h.condHolds(eff, cost) {
					continue
				}
				c := base
				for _, cd := range eff.Cond {
					c += cost[cd.Var][cd.Val]
				}
				if c < cost[eff.Var][eff.Val] {
					cost[eff.Var][eff.Val] = c
					reachedBy[eff.Var][eff.Val] = op
					changed = true
				}
			}
		}
	}

	res := Result{}
	for v, val := range goal {
		if val == task.Unset {
			continue
		}
		c := cost[v][val]
		if c >= Inf {
			res.DeadEnd = true
			return res
		}
		res.Value += c
	}

	if extended {
		res.RelaxedOps = h.extractRelaxedPlan(reachedBy, goal)
		res.Preferred = h.preferredActions(state, res.RelaxedOps)
	}
	return res
}

// preApplicable reports whether every precondition of op has finite cost.
func (h *Heuristic) preApplicable(op *task.Operator, cost [][]int) bool {
	for _, pre := range op.Pre {
		if cost[pre.Var][pre.Val] >= Inf {
			return false
		}
	}
	return true
}

func (h *Heuristic) condHolds(eff task.Effect, cost [][]int) bool {
	for _, c := range eff.Cond {
		if cost[c.Var][c.Val] >= Inf {
			return false
		}
	}
	return true
}

// fsapPenalty charges a fixed penalty, once per FSAP, for every FSAP on
// op's non-det id whose key is entirely reached (finite cost) already.
func (h *Heuristic) fsapPenalty(op *task.Operator, cost [][]int, charged map[int]bool) int {
	if !h.Penalize || h.store == nil || h.FSAPPenalty == 0 {
		return 0
	}
	total := 0
	for _, f := range h.store.FSAPs.All() {
		if f.ActID != op.NondetIndex || charged[f.ID] {
			continue
		}
		if fsapReached(f.State, cost) {
			charged[f.ID] = true
			total += h.FSAPPenalty
		}
	}
	return total
}

func fsapReached(state task.PartialState, cost [][]int) bool {
	for v, val := range state {
		if val == task.Unset {
			continue
		}
		if cost[v][val] >= Inf {
			return false
		}
	}
	return true
}

// extractRelaxedPlan walks backward from goal propositions through
// reachedBy, collecting every operator on the chain.
func (h *Heuristic) extractRelaxedPlan(reachedBy [][]*task.Operator, goal task.PartialState) []*task.Operator {
	seen := map[int]bool{}
	var ops []*task.Operator
	var visit func(v, val int)
	visit = func(v, val int) {
		op := reachedBy[v][val]
		if op == nil || seen[op.ID] {
			return
		}
		seen[op.ID] = true
		ops = append(ops, op)
		for _, pre := range op.Pre {
			visit(pre.Var, pre.Val)
		}
		for _, eff := range op.Effects {
			for _, c := range eff.Cond {
				visit(c.Var, c.Val)
			}
		}
	}
	for v, val := range goal {
		if val != task.Unset {
			visit(v, val)
		}
	}
	return ops
}

// preferredActions marks applicable actions in state whose relaxed-plan
// outcome is unforbidden as preferred.
func (h *Heuristic) preferredActions(state task.PartialState, relaxed []*task.Operator) []*task.Action {
	inPlan := map[int]bool{}
	for _, op := range relaxed {
		inPlan[op.NondetIndex] = true
	}
	var forbidden map[int]*fsap.FSAP
	if h.store != nil {
		forbidden = h.store.ForbiddenActions(state)
	}
	var out []*task.Action
	for _, a := range h.t.Actions {
		if !inPlan[a.Index] {
			continue
		}
		if _, blocked := forbidden[a.Index]; blocked {
			continue
		}
		for _, op := range a.Outcomes {
			if applicableIn(op, state) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

func applicableIn(op *task.Operator, state task.PartialState) bool {
	for _, p := range op.Pre {
		if state[p.Var] != p.Val {
			return false
		}
	}
	return true
}

// IsDeadend is a convenience predicate for callers (e.g. dead-end
// generalisation) that only need the boolean verdict.
func (h *Heuristic) IsDeadend(state task.PartialState) bool {
	return h.Compute(state, false).DeadEnd
}
