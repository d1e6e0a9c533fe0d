package search

import (
	"context"
	"testing"

	"fondsynth.dev/planner/internal/fsap"
	"fondsynth.dev/planner/internal/heuristic"
	"fondsynth.dev/planner/internal/psgraph"
	"fondsynth.dev/planner/internal/successorgen"
	"fondsynth.dev/planner/internal/task"
	"fondsynth.dev/planner/internal/weakplan"
)

// buildS1Task is scenario S1 of spec.md 8: V=1, D_0=2, init X=0, goal
// X=1, single action with two outcomes both setting X=1.
func buildS1Task(t *testing.T) *task.Task {
	t.Helper()
	o0 := &task.Operator{Name: "try_outcome0", NondetIndex: 0, NondetName: "try", OutcomeIndex: 0, Cost: 1,
		Pre: []task.Assignment{{Var: 0, Val: 0}}, Effects: []task.Effect{{Var: 0, Val: 1}}}
	o1 := &task.Operator{Name: "try_outcome1", NondetIndex: 0, NondetName: "try", OutcomeIndex: 1, Cost: 1,
		Pre: []task.Assignment{{Var: 0, Val: 0}}, Effects: []task.Effect{{Var: 0, Val: 1}}}
	tk, err := task.Build(1, []int{2}, task.PartialState{0}, task.PartialState{1}, []*task.Operator{o0, o1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tk
}

func newDriverAndStatus(tk *task.Task) (*Driver, *Status) {
	g := psgraph.New(tk)
	store := fsap.NewStore(tk)
	h := heuristic.New(tk, store)
	gen := successorgen.New(tk, store)
	planner := weakplan.New(tk, h, gen)
	d := New(tk, g, store, h, planner, Options{DeadendEnabled: true, PoisonSearch: true, FullSCDMarking: true})

	status := NewStatus(PreferFIFO, tk.Init, tk.Goal)
	root := status.NewNode(tk.Init, tk.Goal, nil, nil, 0)
	root.Init = true
	status.Queue.PushNode(root, 0)
	return d, status
}

func TestDriverFindsStrongCyclicSolutionS1(t *testing.T) {
	tk := buildS1Task(t)
	d, status := newDriverAndStatus(tk)

	outcome := d.RunRound(context.Background(), status)
	if outcome != RoundStrongCyclic {
		t.Fatalf("expected a strong-cyclic verdict for S1, got %v", outcome)
	}
}

// buildS2Task is scenario S2 of spec.md 8: an unavoidable dead-end.
func buildS2Task(t *testing.T) *task.Task {
	t.Helper()
	toOne := &task.Operator{Name: "try_outcome0", NondetIndex: 0, NondetName: "try", OutcomeIndex: 0, Cost: 1,
		Pre: []task.Assignment{{Var: 0, Val: 0}}, Effects: []task.Effect{{Var: 0, Val: 1}}}
	toTwo := &task.Operator{Name: "try_outcome1", NondetIndex: 0, NondetName: "try", OutcomeIndex: 1, Cost: 1,
		Pre: []task.Assignment{{Var: 0, Val: 0}}, Effects: []task.Effect{{Var: 0, Val: 2}}}
	tk, err := task.Build(1, []int{3}, task.PartialState{0}, task.PartialState{2}, []*task.Operator{toOne, toTwo})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tk
}

func TestDriverReportsNoSolutionS2(t *testing.T) {
	tk := buildS2Task(t)
	g := psgraph.New(tk)
	store := fsap.NewStore(tk)
	h := heuristic.New(tk, store)
	gen := successorgen.New(tk, store)
	planner := weakplan.New(tk, h, gen)
	d := New(tk, g, store, h, planner, Options{DeadendEnabled: true, PoisonSearch: true, FullSCDMarking: true})

	status := NewStatus(PreferFIFO, tk.Init, tk.Goal)
	root := status.NewNode(tk.Init, tk.Goal, nil, nil, 0)
	root.Init = true
	status.Queue.PushNode(root, 0)

	// First round: discovers X=1 is a dead-end, learns an FSAP on "try" at
	// X=0, resets the incumbent, and reports RoundContinues.
	first := d.RunRound(context.Background(), status)
	if first != RoundContinues {
		t.Fatalf("expected the first round to continue after learning a dead-end, got %v", first)
	}
	if store.FSAPs.Len() == 0 {
		t.Fatalf("expected an FSAP to have been learned")
	}

	// Second round from a fresh status: "try" is now wholly forbidden at
	// X=0, so the driver should report no strong-cyclic solution.
	status2 := NewStatus(PreferFIFO, tk.Init, tk.Goal)
	root2 := status2.NewNode(tk.Init, tk.Goal, nil, nil, 0)
	root2.Init = true
	status2.Queue.PushNode(root2, 0)

	second := d.RunRound(context.Background(), status2)
	if second != RoundNoSolution {
		t.Fatalf("expected RoundNoSolution on the second round, got %v", second)
	}
}
