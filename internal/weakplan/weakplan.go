// Package weakplan provides the external "weak planner" collaborator
// spec.md treats as a wrapper: given an initial state and goal, return a
// sequenced deterministic plan or report none exists. The reference
// implementation is an A* search over full states grounded on the
// teacher's container/heap priority queue, reusing the FSAP-penalised
// reachability heuristic (internal/heuristic) as its h-function so the
// weak planner and the driver's own dead-end checks share one
// implementation, the way the source's prp_search_engine does. Successors
// are generated through the deadend-aware successor generator
// (internal/successorgen) over the same FSAP store the driver learns
// into, so a learned FSAP actually removes an action from consideration
// here too, not just from the graph.
package weakplan

import (
	"container/heap"
	"context"

	"fondsynth.dev/planner/internal/heuristic"
	"fondsynth.dev/planner/internal/successorgen"
	"fondsynth.dev/planner/internal/task"
)

// Step is one (operator, outcome) edge of a weak plan: Op is the chosen
// deterministic outcome of a non-deterministic action.
type Step struct {
	Action *task.Action
	Op     *task.Operator
}

// Plan is an ordered sequence of weak-plan steps from an initial state to
// a state entailing the goal.
type Plan struct {
	Steps []Step
	Cost  int
}

// Planner is the collaborator interface spec.md treats as external.
type Planner interface {
	Plan(ctx context.Context, init task.PartialState, goal task.PartialState) (*Plan, bool)
}

// AStarPlanner is the reference A* implementation.
type AStarPlanner struct {
	t             *task.Task
	h             *heuristic.Heuristic
	gen           *successorgen.Generator
	maxIterations int
}

// New returns an AStarPlanner over t, scoring with h and generating
// successors through gen so FSAP-forbidden actions are never replanned
// through.
func New(t *task.Task, h *heuristic.Heuristic, gen *successorgen.Generator) *AStarPlanner {
	return &AStarPlanner{t: t, h: h, gen: gen, maxIterations: 100_000}
}

type pqNode struct {
	state task.PartialState
	path  []Step
	gCost int
	hCost int
	index int
}

func (n *pqNode) fCost() int { return n.gCost + n.hCost }

type priorityQueue []*pqNode

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].fCost() != pq[j].fCost() {
		return pq[i].fCost() < pq[j].fCost()
	}
	return pq[i].hCost < pq[j].hCost
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}
func (pq *priorityQueue) Push(x any) {
	n := x.(*pqNode)
	n.index = len(*pq)
	*pq = append(*pq, n)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// Plan runs A* from init to a state entailing goal, determinising each
// non-deterministic action into one classical action per outcome.
func (p *AStarPlanner) Plan(ctx context.Context, init task.PartialState, goal task.PartialState) (*Plan, bool) {
	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqNode{state: init, hCost: p.heuristicValue(init, goal)})

	visited := map[string]int{}
	visited[init.Key()] = 0

	for i := 0; i < p.maxIterations && pq.Len() > 0; i++ {
		select {
		case <-ctx.Done():
			return nil, false
		default:
		}

		cur := heap.Pop(pq).(*pqNode)
		if cur.state.Entails(goal) {
			return &Plan{Steps: cur.path, Cost: cur.gCost}, true
		}

		actions := p.gen.Applicable(cur.state).Actions
		for _, a := range actions {
			for _, op := range a.Outcomes {
				if !operatorApplicable(op, cur.state) {
					continue
				}
				next := cur.state.Progress(op)
				g := cur.gCost + op.Cost
				if best, ok := visited[next.Key()]; ok && best <= g {
					continue
				}
				visited[next.Key()] = g
				path := append(append([]Step{}, cur.path...), Step{Action: a, Op: op})
				heap.Push(pq, &pqNode{state: next, path: path, gCost: g, hCost: p.heuristicValue(next, goal)})
			}
		}
	}
	return nil, false
}

func (p *AStarPlanner) heuristicValue(state, goal task.PartialState) int {
	if p.h == nil {
		return 0
	}
	res := p.h.ComputeToGoal(state, goal, false)
	if res.DeadEnd {
		return heuristic.Inf
	}
	return res.Value
}

func operatorApplicable(op *task.Operator, state task.PartialState) bool {
	for _, pre := range op.Pre {
		if state[pre.Var] != pre.Val {
			return false
		}
	}
	return true
}
