package psgraph

import (
	"testing"

	"fondsynth.dev/planner/internal/task"
)

func TestFixedPointRegressionConnectsWhenSlotEmpty(t *testing.T) {
	tk := buildS1Task(t)
	g := New(tk)
	init := g.AddStep(task.PartialState{0}, tk.Actions[0])

	created, changed := g.FixedPointRegression(init, 0, g.Goal, task.PartialState{0})
	if len(created) != 0 {
		t.Fatalf("expected no new steps when the slot was empty, got %d", len(created))
	}
	if changed != init {
		t.Fatalf("expected the changed step to be init itself")
	}
	if init.Successors[0] != g.Goal {
		t.Fatalf("expected init's successor to now be the goal")
	}
}

func TestFixedPointRegressionSplitsOnConflict(t *testing.T) {
	tk := buildS1Task(t)
	g := New(tk)
	init := g.AddStep(task.PartialState{0}, tk.Actions[0])
	otherGoal := &Step{State: task.PartialState{1}, IsGoal: true, IsSC: true}
	g.addStep(otherGoal)
	g.Connect(init, 0, otherGoal)

	created, changed := g.FixedPointRegression(init, 0, g.Goal, task.PartialState{0})
	if len(created) != 1 {
		t.Fatalf("expected a split to create exactly one new step, got %d", len(created))
	}
	if changed == init {
		t.Fatalf("expected the changed step to be the new clone, not the original")
	}
	clone := created[0]
	if init.Successors[0] != clone {
		t.Fatalf("expected the original step's outcome slot to be redirected to the clone")
	}
	if clone.Successors[0] != g.Goal {
		t.Fatalf("expected the clone to be wired to the new destination")
	}
	found := false
	for _, pe := range otherGoal.Predecessors {
		if pe.step == init {
			found = true
		}
	}
	if found {
		t.Fatalf("expected the old destination to no longer list the original step as a predecessor")
	}
}

func TestStrengthenSetsDisagreeingVariable(t *testing.T) {
	s := task.PartialState{task.Unset, task.Unset}
	context := task.PartialState{0, 1}
	fsapStates := []task.PartialState{{1, task.Unset}} // forbids var0=1, which differs from context's 0

	out := Strengthen(s, context, fsapStates)
	if out[0] != 0 {
		t.Fatalf("expected var 0 strengthened to context's value 0, got %v", out)
	}
}
