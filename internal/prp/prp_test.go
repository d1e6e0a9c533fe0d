package prp

import (
	"context"
	"testing"
	"time"

	"fondsynth.dev/planner/internal/search"
	"fondsynth.dev/planner/internal/task"
)

// buildS1Task mirrors scenario S1 of spec.md 8.
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

// buildS2Task mirrors scenario S2 of spec.md 8: an unavoidable dead-end.
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

func TestRunFindsStrongCyclicWithinOneEpoch(t *testing.T) {
	tk := buildS1Task(t)
	opts := search.Options{DeadendEnabled: true, PoisonSearch: true, NodePreference: search.PreferFIFO, FullSCDMarking: true}
	g, store, h, planner, driver := NewCollaborators(tk, opts, true)
	w := New(tk, g, store, h, planner, driver, Config{EpochMax: 1, NodePreference: search.PreferFIFO})

	result := w.Run(context.Background())
	if result.Outcome != search.RoundStrongCyclic {
		t.Fatalf("expected a strong-cyclic verdict, got %v", result.Outcome)
	}
	if len(result.Epochs) != 1 {
		t.Fatalf("expected exactly one epoch, got %d", len(result.Epochs))
	}
}

func TestRunReportsNoSolutionWithinEpochBudget(t *testing.T) {
	tk := buildS2Task(t)
	opts := search.Options{DeadendEnabled: true, PoisonSearch: true, NodePreference: search.PreferFIFO, FullSCDMarking: true}
	g, store, h, planner, driver := NewCollaborators(tk, opts, true)
	w := New(tk, g, store, h, planner, driver, Config{EpochMax: 2, NodePreference: search.PreferFIFO})

	result := w.Run(context.Background())
	if result.Outcome != search.RoundNoSolution {
		t.Fatalf("expected RoundNoSolution, got %v", result.Outcome)
	}
	if len(result.Epochs) != 2 {
		t.Fatalf("expected the dead-end to surface on the second epoch, got %d epochs", len(result.Epochs))
	}
	if result.Epochs[0].Outcome != search.RoundContinues {
		t.Fatalf("expected the first epoch to learn the dead-end and continue, got %v", result.Epochs[0].Outcome)
	}
}

// TestRunResumesSavedStatusAcrossEpochs exercises the S6 epoch-resume
// mechanism: an epoch whose context is already expired makes zero
// progress and must leave its Status's queue populated for the wrapper to
// resume verbatim next epoch, rather than starting over from the task's
// initial state.
func TestRunResumesSavedStatusAcrossEpochs(t *testing.T) {
	tk := buildS1Task(t)
	opts := search.Options{DeadendEnabled: true, PoisonSearch: true, NodePreference: search.PreferFIFO, FullSCDMarking: true}
	g, store, h, planner, driver := NewCollaborators(tk, opts, true)
	w := New(tk, g, store, h, planner, driver, Config{EpochMax: 1, NodePreference: search.PreferFIFO})

	expired, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	time.Sleep(time.Millisecond)

	status, _ := w.statusForEpoch()
	outcome := w.driver.RunRound(expired, status)
	if outcome != search.RoundContinues {
		t.Fatalf("expected an expired context to report RoundContinues without a verdict, got %v", outcome)
	}
	if status.Queue.Len() == 0 {
		t.Fatalf("expected the root node to remain queued after a zero-progress epoch")
	}
	w.saved = status

	// Resume with an unbounded context: the previously-queued root is
	// still there and the round should now run to a verdict.
	second, _ := w.statusForEpoch()
	if second != status {
		t.Fatalf("expected statusForEpoch to return the saved status verbatim")
	}
	final := w.driver.RunRound(context.Background(), second)
	if final != search.RoundStrongCyclic {
		t.Fatalf("expected the resumed epoch to reach a strong-cyclic verdict, got %v", final)
	}
}

// TestNewCollaboratorsWiresWeaksearchPenaltyIntoHeuristic is spec.md 8
// Scenario S4: weaksearch.fsap_penalty must actually reach the heuristic
// through the standard collaborator wiring, not only via hand-set fields
// in a heuristic-package test.
func TestNewCollaboratorsWiresWeaksearchPenaltyIntoHeuristic(t *testing.T) {
	tk := buildS1Task(t)
	opts := search.Options{
		DeadendEnabled:         true,
		PoisonSearch:           true,
		NodePreference:         search.PreferFIFO,
		PenalizePotentialFSAPs: true,
		FSAPPenalty:            1000,
	}
	_, _, h, _, _ := NewCollaborators(tk, opts, true)

	if !h.Penalize {
		t.Fatalf("expected NewCollaborators to propagate PenalizePotentialFSAPs to the heuristic")
	}
	if h.FSAPPenalty != 1000 {
		t.Fatalf("expected NewCollaborators to propagate FSAPPenalty to the heuristic, got %d", h.FSAPPenalty)
	}
}
