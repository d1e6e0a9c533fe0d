package task

import (
	"fmt"
	"sort"
)

// Action groups the deterministic outcomes sharing one non-deterministic
// index: exactly the operators a weak planner or the driver treats as one
// indivisible non-deterministic choice.
type Action struct {
	Index    int
	Name     string
	Outcomes []*Operator
}

// Task is the immutable finite-domain planning problem: variables with
// finite domains, a set of non-deterministic actions, an initial complete
// state, and a partial goal. Nothing in this package mutates a Task after
// Build returns it.
type Task struct {
	NumVars   int
	Domains   []int    // Domains[i] = size of variable i's domain
	VarNames  []string // optional, for diagnostics; may be nil
	FactNames [][]string

	Init PartialState
	Goal PartialState

	Actions    []*Action
	Operators  []*Operator // flat list, indexed by Operator.ID
}

// Build assembles a Task from its operators, grouping them into Actions by
// NondetIndex (outcomes of one action must appear contiguously or not;
// grouping is done by index, not by position).
func Build(numVars int, domains []int, init, goal PartialState, operators []*Operator) (*Task, error) {
	if len(domains) != numVars {
		return nil, fmt.Errorf("task: %d domains for %d variables", len(domains), numVars)
	}
	if len(init) != numVars || init.Size() != numVars {
		return nil, fmt.Errorf("task: initial state must be complete over %d variables", numVars)
	}
	if len(goal) != numVars {
		return nil, fmt.Errorf("task: goal vector must have length %d", numVars)
	}

	byIndex := map[int]*Action{}
	var order []int
	for id, op := range operators {
		op.ID = id
		a, ok := byIndex[op.NondetIndex]
		if !ok {
			a = &Action{Index: op.NondetIndex, Name: op.NondetName}
			byIndex[op.NondetIndex] = a
			order = append(order, op.NondetIndex)
		}
		a.Outcomes = append(a.Outcomes, op)
	}
	actions := make([]*Action, 0, len(order))
	for _, idx := range order {
		a := byIndex[idx]
		sortOutcomesByIndex(a.Outcomes)
		actions = append(actions, a)
	}

	return &Task{
		NumVars:   numVars,
		Domains:   domains,
		Init:      init,
		Goal:      goal,
		Actions:   actions,
		Operators: operators,
	}, nil
}

// IsGoal reports whether state satisfies the task's goal.
func (t *Task) IsGoal(state PartialState) bool {
	return state.Entails(t.Goal)
}

// ApplicableActions returns the base applicable-action computation of
// spec.md 4.5: every action with at least one outcome whose preconditions
// are entailed by state. Deadend filtering is layered on top of this by
// the successor generator, not here.
func (t *Task) ApplicableActions(state PartialState) []*Action {
	var out []*Action
	for _, a := range t.Actions {
		if a.applicableIn(state) {
			out = append(out, a)
		}
	}
	return out
}

func sortOutcomesByIndex(outcomes []*Operator) {
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].OutcomeIndex < outcomes[j].OutcomeIndex
	})
}

func (a *Action) applicableIn(state PartialState) bool {
	for _, op := range a.Outcomes {
		if op.applicable(state) {
			return true
		}
	}
	return false
}
