package weakplan

import (
	"context"
	"testing"

	"fondsynth.dev/planner/internal/fsap"
	"fondsynth.dev/planner/internal/heuristic"
	"fondsynth.dev/planner/internal/successorgen"
	"fondsynth.dev/planner/internal/task"
)

func TestPlanFindsTrivialPlan(t *testing.T) {
	op := &task.Operator{Name: "try", NondetIndex: 0, Cost: 1,
		Pre:     []task.Assignment{{Var: 0, Val: 0}},
		Effects: []task.Effect{{Var: 0, Val: 1}},
	}
	tk, err := task.Build(1, []int{2}, task.PartialState{0}, task.PartialState{1}, []*task.Operator{op})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	store := fsap.NewStore(tk)
	h := heuristic.New(tk, store)
	p := New(tk, h, successorgen.New(tk, store))

	plan, found := p.Plan(context.Background(), tk.Init, tk.Goal)
	if !found {
		t.Fatalf("expected a plan to be found")
	}
	if len(plan.Steps) != 1 {
		t.Fatalf("expected a 1-step plan, got %d", len(plan.Steps))
	}
}

func TestPlanReportsNoPlan(t *testing.T) {
	tk, err := task.Build(1, []int{2}, task.PartialState{0}, task.PartialState{1}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	store := fsap.NewStore(tk)
	p := New(tk, heuristic.New(tk, store), successorgen.New(tk, store))
	_, found := p.Plan(context.Background(), tk.Init, tk.Goal)
	if found {
		t.Fatalf("expected no plan with zero operators")
	}
}
