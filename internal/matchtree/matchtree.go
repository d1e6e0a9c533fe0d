// Package matchtree compiles a PSGraph's solution steps into a decision
// tree for fast state lookup, per SPEC_FULL.md 6.2: recursively split the
// policy's steps on the variable that discriminates the largest group.
// Grounded on the pack's graph.Validate deterministic sort-before-traverse
// DFS idiom (samgonzalez27-script-weaver/internal/graph/validate.go):
// always sort node/variable candidates before branching, so two builds
// over the same PSGraph produce byte-identical trees.
package matchtree

import (
	"sort"

	"fondsynth.dev/planner/internal/psgraph"
	"fondsynth.dev/planner/internal/task"
)

// jsonNode is the wire shape for Node, for MarshalJSON below.
type jsonNode struct {
	StepID   int              `json:"step_id,omitempty"`
	Action   string           `json:"action,omitempty"`
	Var      *int             `json:"var,omitempty"`
	Children map[int]*jsonNode `json:"children,omitempty"`
	Default  *jsonNode        `json:"default,omitempty"`
}

func toJSONNode(n *Node) *jsonNode {
	if n == nil {
		return nil
	}
	if n.Children == nil {
		jn := &jsonNode{}
		if n.Step != nil {
			jn.StepID = n.Step.ID
			if n.Step.Op != nil {
				jn.Action = n.Step.Op.Name
			}
		}
		return jn
	}
	v := n.Var
	jn := &jsonNode{Var: &v, Children: make(map[int]*jsonNode, len(n.Children))}
	for val, child := range n.Children {
		jn.Children[val] = toJSONNode(child)
	}
	jn.Default = toJSONNode(n.Default)
	return jn
}

// Document returns tree's JSON-serialisable form, for CLI --format
// match-tree output.
func (t *Tree) Document() any {
	return toJSONNode(t.root)
}

// Node is one node of the compiled tree: either a leaf carrying the
// matched step, or a branch splitting on one variable's value.
type Node struct {
	// Leaf fields.
	Step *psgraph.Step

	// Branch fields.
	Var      int
	Children map[int]*Node // value -> subtree for states with Var == value
	Default  *Node         // subtree for states where Var is unset or unmatched
}

// Tree is a compiled match-tree over a PSGraph's active steps.
type Tree struct {
	root *Node
}

// Match walks the tree for a complete state, returning the step whose
// partial state it entails, or nil if none match.
func (t *Tree) Match(state task.PartialState) *psgraph.Step {
	return matchNode(t.root, state)
}

func matchNode(n *Node, state task.PartialState) *psgraph.Step {
	if n == nil {
		return nil
	}
	if n.Children == nil {
		if n.Step == nil || !state.Entails(n.Step.State) {
			return nil
		}
		return n.Step
	}
	val := state[n.Var]
	if child, ok := n.Children[val]; ok {
		if s := matchNode(child, state); s != nil {
			return s
		}
	}
	return matchNode(n.Default, state)
}

// entry pairs a step with its state for building.
type entry struct {
	step *psgraph.Step
}

// Build compiles g's active steps into a Tree, splitting at each level on
// the variable whose values partition the remaining steps into the most
// groups (ties broken by lowest variable index), stopping when a group
// has collapsed to zero or one entailing candidate.
func Build(g *psgraph.Graph, numVars int) *Tree {
	ids := psgraph.SortedStepIDs(g)
	steps := make([]*psgraph.Step, 0, len(ids))
	byID := make(map[int]*psgraph.Step, len(ids))
	for _, s := range g.Steps() {
		byID[s.ID] = s
	}
	for _, id := range ids {
		steps = append(steps, byID[id])
	}

	entries := make([]entry, 0, len(steps))
	for _, s := range steps {
		entries = append(entries, entry{step: s})
	}

	allVars := make([]int, numVars)
	for i := range allVars {
		allVars[i] = i
	}

	return &Tree{root: build(entries, allVars)}
}

func build(entries []entry, candidateVars []int) *Node {
	if len(entries) == 0 {
		return nil
	}
	if len(entries) == 1 {
		return &Node{Step: entries[0].step}
	}

	bestVar, groups, unset, ok := pickSplitVar(entries, candidateVars)
	if !ok {
		// No variable discriminates further: every remaining step is
		// consistent with every other at this point in the partial
		// order. Keep the best (per psgraph.Less) as the leaf.
		best := entries[0].step
		for _, e := range entries[1:] {
			if psgraph.Less(e.step, best) {
				best = e.step
			}
		}
		return &Node{Step: best}
	}

	remaining := removeVar(candidateVars, bestVar)
	children := make(map[int]*Node, len(groups))
	vals := make([]int, 0, len(groups))
	for v := range groups {
		vals = append(vals, v)
	}
	sort.Ints(vals)
	for _, v := range vals {
		children[v] = build(groups[v], remaining)
	}

	node := &Node{Var: bestVar, Children: children}
	if len(unset) > 0 {
		node.Default = build(unset, remaining)
	}
	return node
}

// pickSplitVar finds the candidate variable that partitions entries into
// the most non-trivial groups, scanning candidates in ascending index
// order so ties resolve deterministically to the lowest index.
func pickSplitVar(entries []entry, candidateVars []int) (bestVar int, bestGroups map[int][]entry, bestUnset []entry, ok bool) {
	bestCount := 1
	for _, v := range candidateVars {
		groups := map[int][]entry{}
		var unset []entry
		for _, e := range entries {
			val := e.step.State[v]
			if val == task.Unset {
				unset = append(unset, e)
				continue
			}
			groups[val] = append(groups[val], e)
		}
		if len(groups) > bestCount {
			bestCount = len(groups)
			bestVar = v
			bestGroups = groups
			bestUnset = unset
			ok = true
		}
	}
	return
}

func removeVar(vars []int, v int) []int {
	out := make([]int, 0, len(vars)-1)
	for _, c := range vars {
		if c != v {
			out = append(out, c)
		}
	}
	return out
}
