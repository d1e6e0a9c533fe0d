package psgraph

import (
	"testing"
	"time"

	"fondsynth.dev/planner/internal/task"
)

func TestBuildControllerIncludesActiveStepsOnly(t *testing.T) {
	tk := buildS1Task(t)
	g := New(tk)
	init := g.AddStep(task.PartialState{0}, tk.Actions[0])
	g.Connect(init, 0, g.Goal)
	g.Init = init

	removed := g.AddStep(task.PartialState{1}, tk.Actions[0])
	g.RemoveStep(removed)

	c := BuildController(g, time.Unix(0, 0).UTC())

	if _, ok := c.Nodes[removed.ID]; ok {
		t.Fatalf("expected inactive step %d to be excluded from the controller document", removed.ID)
	}
	if _, ok := c.Nodes[init.ID]; !ok {
		t.Fatalf("expected active step %d present in the controller document", init.ID)
	}
	if c.GoalID != g.Goal.ID {
		t.Errorf("GoalID = %d, want %d", c.GoalID, g.Goal.ID)
	}
	if c.InitID != init.ID {
		t.Errorf("InitID = %d, want %d", c.InitID, init.ID)
	}
	if c.Metadata.TotalNodes != len(c.Nodes) {
		t.Errorf("TotalNodes = %d, want %d", c.Metadata.TotalNodes, len(c.Nodes))
	}

	node := c.Nodes[init.ID]
	if node.Action != "try" {
		t.Errorf("expected action name %q, got %q", "try", node.Action)
	}
	succID, ok := node.Successors["try_outcome0"]
	if !ok || succID == nil || *succID != g.Goal.ID {
		t.Fatalf("expected init's try_outcome0 successor to point at the goal step, got %+v", node.Successors)
	}
}

func TestSortedStepIDsIsAscendingAndActiveOnly(t *testing.T) {
	tk := buildS1Task(t)
	g := New(tk)
	a := g.AddStep(task.PartialState{0}, tk.Actions[0])
	b := g.AddStep(task.PartialState{1}, tk.Actions[0])
	g.RemoveStep(a)

	ids := SortedStepIDs(g)
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("expected ascending ids, got %v", ids)
		}
	}
	for _, id := range ids {
		if id == a.ID {
			t.Fatalf("expected removed step %d excluded from sorted ids %v", a.ID, ids)
		}
	}
	found := false
	for _, id := range ids {
		if id == b.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected active step %d present in sorted ids %v", b.ID, ids)
	}
}
