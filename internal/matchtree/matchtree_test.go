package matchtree

import (
	"encoding/json"
	"testing"

	"fondsynth.dev/planner/internal/psgraph"
	"fondsynth.dev/planner/internal/task"
)

func buildTwoVarTask(t *testing.T) *task.Task {
	t.Helper()
	op := &task.Operator{Name: "move", NondetIndex: 0, NondetName: "move", OutcomeIndex: 0, Cost: 1,
		Pre:     []task.Assignment{{Var: 0, Val: 0}},
		Effects: []task.Effect{{Var: 0, Val: 1}},
	}
	tk, err := task.Build(2, []int{2, 2}, task.PartialState{0, 0}, task.PartialState{task.Unset, 1}, []*task.Operator{op})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tk
}

func TestBuildMatchesEveryActiveStepExactly(t *testing.T) {
	tk := buildTwoVarTask(t)
	g := psgraph.New(tk)
	s1 := g.AddStep(task.PartialState{0, 0}, tk.Actions[0])
	s2 := g.AddStep(task.PartialState{1, 0}, tk.Actions[0])

	tree := Build(g, tk.NumVars)

	if got := tree.Match(task.PartialState{0, 0}); got != s1 {
		t.Errorf("Match({0,0}) = step %v, want %v", idOf(got), idOf(s1))
	}
	if got := tree.Match(task.PartialState{1, 0}); got != s2 {
		t.Errorf("Match({1,0}) = step %v, want %v", idOf(got), idOf(s2))
	}
	if got := tree.Match(task.PartialState{1, 1}); got != g.Goal {
		t.Errorf("Match({1,1}) = step %v, want goal %v", idOf(got), idOf(g.Goal))
	}
}

func TestBuildIsDeterministicAcrossRuns(t *testing.T) {
	tk := buildTwoVarTask(t)
	g := psgraph.New(tk)
	g.AddStep(task.PartialState{0, 0}, tk.Actions[0])
	g.AddStep(task.PartialState{1, 0}, tk.Actions[0])

	first := Build(g, tk.NumVars).Document()
	second := Build(g, tk.NumVars).Document()

	if firstJSON, secondJSON := mustJSON(t, first), mustJSON(t, second); firstJSON != secondJSON {
		t.Fatalf("expected identical tree documents across builds:\n%s\nvs\n%s", firstJSON, secondJSON)
	}
}

func idOf(s *psgraph.Step) int {
	if s == nil {
		return -1
	}
	return s.ID
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}
