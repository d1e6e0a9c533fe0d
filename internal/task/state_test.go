package task

import "testing"

func TestEntailsTrivialOnUnset(t *testing.T) {
	s := PartialState{0, 1, Unset}
	q := PartialState{0, Unset, Unset}
	if !s.Entails(q) {
		t.Fatalf("expected %v to entail %v", s, q)
	}
	q2 := PartialState{1, Unset, Unset}
	if s.Entails(q2) {
		t.Fatalf("did not expect %v to entail %v", s, q2)
	}
}

func TestConsistentWith(t *testing.T) {
	cases := []struct {
		name     string
		a, b     PartialState
		expected bool
	}{
		{"agree", PartialState{0, Unset}, PartialState{0, 1}, true},
		{"disagree", PartialState{0, Unset}, PartialState{1, 1}, false},
		{"both unset", PartialState{Unset, Unset}, PartialState{Unset, Unset}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.a.ConsistentWith(c.b); got != c.expected {
				t.Fatalf("ConsistentWith(%v, %v) = %v, want %v", c.a, c.b, got, c.expected)
			}
		})
	}
}

func TestCombineWith(t *testing.T) {
	a := PartialState{0, Unset, 2}
	b := PartialState{Unset, 1, 2}
	out, err := a.CombineWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := PartialState{0, 1, 2}
	if !out.Equal(want) {
		t.Fatalf("CombineWith = %v, want %v", out, want)
	}

	c := PartialState{0, Unset, 2}
	d := PartialState{1, Unset, Unset}
	if _, err := c.CombineWith(d); err == nil {
		t.Fatalf("expected a disagreement error")
	}
}

func TestSize(t *testing.T) {
	s := PartialState{0, Unset, 2, Unset}
	if got := s.Size(); got != 2 {
		t.Fatalf("Size() = %d, want 2", got)
	}
}

// TestProgressRegressRoundTrip checks the round-trip law: regressing the
// progression of a complete state through an unconditional operator,
// given that same state as context, recovers the preconditions merged
// with the parts of the original state the operator doesn't touch.
func TestProgressRegressRoundTrip(t *testing.T) {
	// X (var 0), Y (var 1); op: pre X=0, effect X=1 (unconditional).
	op := &Operator{
		ID:  0,
		Pre: []Assignment{{Var: 0, Val: 0}},
		Effects: []Effect{
			{Var: 0, Val: 1},
		},
	}
	init := PartialState{0, 1}
	progressed := init.Progress(op)
	want := PartialState{1, 1}
	if !progressed.Equal(want) {
		t.Fatalf("Progress = %v, want %v", progressed, want)
	}

	regressed := progressed.Regress(op, init)
	if regressed[0] != 0 {
		t.Fatalf("Regress should set precondition var 0 to 0, got %v", regressed)
	}
}

// TestRegressConditionalEffect is scenario S5: an operator with a
// conditional effect "if Y=0 then X=1" regressed with a matching context
// must unset X and copy Y=0 into the predecessor.
func TestRegressConditionalEffect(t *testing.T) {
	op := &Operator{
		ID: 0,
		Effects: []Effect{
			{Var: 0, Val: 1, Cond: []Assignment{{Var: 1, Val: 0}}},
		},
	}
	successor := PartialState{1, Unset}
	context := PartialState{Unset, 0}

	predecessor := successor.Regress(op, context)
	if predecessor[0] != Unset {
		t.Fatalf("expected var 0 unset after regression, got %v", predecessor)
	}
	if predecessor[1] != 0 {
		t.Fatalf("expected var 1 = 0 copied from context, got %v", predecessor)
	}
}

func TestRegressPanicsOnDisagreement(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected a panic on disagreeing regression")
		}
	}()
	op := &Operator{
		ID:      0,
		Effects: []Effect{{Var: 0, Val: 1}},
	}
	successor := PartialState{0} // var 0 already 0, effect says it should be 1
	successor.Regress(op, PartialState{Unset})
}

func TestKeyStableOrdering(t *testing.T) {
	a := PartialState{0, 1, Unset}
	b := PartialState{0, 1, Unset}
	if a.Key() != b.Key() {
		t.Fatalf("Key() not stable: %q vs %q", a.Key(), b.Key())
	}
}

func TestLess(t *testing.T) {
	a := PartialState{0, 1}
	b := PartialState{0, 2}
	if !a.Less(b) {
		t.Fatalf("expected %v < %v", a, b)
	}
	if b.Less(a) {
		t.Fatalf("did not expect %v < %v", b, a)
	}
}
