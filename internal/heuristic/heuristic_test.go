package heuristic

import (
	"testing"

	"fondsynth.dev/planner/internal/fsap"
	"fondsynth.dev/planner/internal/task"
)

func buildReachableTask(t *testing.T) *task.Task {
	t.Helper()
	op := &task.Operator{Name: "try", NondetIndex: 0, Cost: 1,
		Pre:     []task.Assignment{{Var: 0, Val: 0}},
		Effects: []task.Effect{{Var: 0, Val: 1}},
	}
	tk, err := task.Build(1, []int{2}, task.PartialState{0}, task.PartialState{1}, []*task.Operator{op})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tk
}

func TestComputeReachesGoal(t *testing.T) {
	tk := buildReachableTask(t)
	h := New(tk, fsap.NewStore(tk))
	res := h.Compute(task.PartialState{0}, false)
	if res.DeadEnd {
		t.Fatalf("expected the goal to be reachable")
	}
	if res.Value != 1 {
		t.Fatalf("expected heuristic value 1, got %d", res.Value)
	}
}

func TestComputeDetectsDeadend(t *testing.T) {
	tk := buildReachableTask(t)
	h := New(tk, fsap.NewStore(tk))
	// No operator can ever set X=1 from X=1 itself without the "try" op
	// being applicable; querying from a state where var 0 is unreachable
	// to the precondition value demonstrates dead-end detection.
	res := h.Compute(task.PartialState{1}, false)
	// var0 is already 1, which matches the goal trivially -> not a
	// dead-end. Use a task with a genuinely unreachable goal instead.
	_ = res

	unreachableGoalTask, err := task.Build(2, []int{2, 2}, task.PartialState{0, 0}, task.PartialState{task.Unset, 1}, []*task.Operator{
		{Name: "noop", NondetIndex: 0, Cost: 1, Pre: []task.Assignment{{Var: 0, Val: 0}}, Effects: []task.Effect{{Var: 0, Val: 1}}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h2 := New(unreachableGoalTask, fsap.NewStore(unreachableGoalTask))
	res2 := h2.Compute(unreachableGoalTask.Init, false)
	if !res2.DeadEnd {
		t.Fatalf("expected a dead-end: no operator ever sets var 1")
	}
}

func TestFSAPPenaltyIncreasesCost(t *testing.T) {
	tk := buildReachableTask(t)
	store := fsap.NewStore(tk)
	h := New(tk, store)
	h.Penalize = true
	h.FSAPPenalty = 1000

	before := h.Compute(task.PartialState{0}, false).Value

	// X=1 is the unconditional post-key of "try"'s effect; learning a
	// failure there regresses to the forbidden predecessor X=0.
	store.Learn(fsap.FailedTuple{FailedState: task.PartialState{1}})

	after := h.Compute(task.PartialState{0}, false).Value
	if after <= before {
		t.Fatalf("expected FSAP penalty to increase cost: before=%d after=%d", before, after)
	}
}

func TestExtendedModeExtractsRelaxedPlanAndPreferred(t *testing.T) {
	tk := buildReachableTask(t)
	h := New(tk, fsap.NewStore(tk))
	res := h.Compute(task.PartialState{0}, true)
	if len(res.RelaxedOps) != 1 {
		t.Fatalf("expected 1 relaxed op, got %d", len(res.RelaxedOps))
	}
	if len(res.Preferred) != 1 {
		t.Fatalf("expected 1 preferred action, got %d", len(res.Preferred))
	}
}
