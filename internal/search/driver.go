package search

import (
	"context"

	"fondsynth.dev/planner/internal/fsap"
	"fondsynth.dev/planner/internal/heuristic"
	"fondsynth.dev/planner/internal/psgraph"
	"fondsynth.dev/planner/internal/task"
	"fondsynth.dev/planner/internal/weakplan"
)

// Options configures one driver round, mirroring the "Recognised
// configuration options" of spec.md 6.
type Options struct {
	DeadendEnabled bool // deadend.enabled
	PoisonSearch   bool // deadend.poison_search
	NodePreference Preference

	PenalizePotentialFSAPs bool // weaksearch.penalize_potential_fsaps
	FSAPPenalty            int  // weaksearch.fsap_penalty

	// FullSCDMarking runs a full strong-cyclic re-marking sweep at the end
	// of every round (psgraph.full_scd_marking); when false, end-of-round
	// processing relies solely on the incremental FixedPointMarking calls
	// already performed by strengthenAndMark as edges are wired during
	// the round.
	FullSCDMarking bool
}

// Outcome is the terminal result of a driver round.
type Outcome int

const (
	// RoundContinues means the queue emptied or time ran out mid-round
	// without a verdict; the PRP wrapper should run another round.
	RoundContinues Outcome = iota
	// RoundStrongCyclic means the incumbent is now strong-cyclic.
	RoundStrongCyclic
	// RoundNoSolution means the initial state was proved a dead-end.
	RoundNoSolution
)

// Driver runs the six-case FOND Search Driver over one Task.
type Driver struct {
	t       *task.Task
	g       *psgraph.Graph
	store   *fsap.Store
	h       *heuristic.Heuristic
	planner weakplan.Planner
	opts    Options
}

// New returns a Driver wiring together the PSGraph, FSAP store,
// reachability heuristic, and weak planner for t.
func New(t *task.Task, g *psgraph.Graph, store *fsap.Store, h *heuristic.Heuristic, planner weakplan.Planner, opts Options) *Driver {
	return &Driver{t: t, g: g, store: store, h: h, planner: planner, opts: opts}
}

// RunRound drives status's queue to completion, dispatching each popped
// node into one of the six cases, then performs end-of-round processing
// (full-marking, FSAP/dead-end application, incumbent invalidation).
func (d *Driver) RunRound(ctx context.Context, status *Status) Outcome {
	for status.Queue.Len() > 0 {
		select {
		case <-ctx.Done():
			return RoundContinues
		default:
		}

		node := status.Queue.PopNode()
		if verdict, terminal := d.dispatch(ctx, status, node); terminal {
			return verdict
		}
	}
	return d.endOfRound(status)
}

func (d *Driver) endOfRound(status *Status) Outcome {
	if d.opts.FullSCDMarking {
		d.g.FullMarking()
	}
	d.g.Init = d.g.GetStep(status.InitState)
	if len(status.Failed) > 0 {
		for _, ft := range status.Failed {
			d.store.Learn(ft)
		}
		status.Failed = nil
		d.g.Reset()
		return RoundContinues
	}
	if d.g.Init != nil && d.g.Init.IsSC {
		return RoundStrongCyclic
	}
	return RoundContinues
}

// dispatch applies cases 1-6 in order, returning (outcome, true) only
// when the round must terminate immediately (case 6 hitting the original
// init state, or ctx expiring while the weak planner ran, in which case
// the node is re-queued); every other case returns (_, false) and the
// loop continues.
func (d *Driver) dispatch(ctx context.Context, status *Status, node *Node) (Outcome, bool) {
	previousStep := node.ParentStep
	currentState := node.FullState
	currentGoal := node.ExpectedState

	var previousNode *Node
	var prevToCurrOutcome int
	var previousOp *task.Operator
	if node.Parent != nil {
		previousNode = node.Parent
		prevToCurrOutcome = node.FromOutcome
		if previousStep != nil && previousStep.Op != nil {
			previousOp = previousStep.Op.Outcomes[prevToCurrOutcome]
		}
	}

	// Case 1 - Poisoned.
	if node.Poisoned || d.store.Deadends.CheckEntailedMatch(currentState) || (d.opts.DeadendEnabled && d.h.IsDeadend(currentState)) {
		if d.opts.PoisonSearch {
			d.poison(node)
		} else {
			node.Poisoned = true
		}
		status.Failed = append(status.Failed, d.failedTuple(currentState, previousNode, previousOp))
		return RoundContinues, false
	}

	// Case 2 - Duplicate full state.
	if original, ok := status.Seen(currentState); ok {
		node.Subsumed = true
		if original.MatchedStep != nil && previousStep != nil {
			d.strengthenAndMark(status, previousStep, prevToCurrOutcome, original.MatchedStep, previousNode.FullState)
		}
		return RoundContinues, false
	}
	status.Record(currentState, node)

	// Case 3 - Predefined path.
	if previousStep != nil && previousStep.Successors[prevToCurrOutcome] != nil {
		step := previousStep.Successors[prevToCurrOutcome]
		if !currentState.Entails(step.State) {
			panic(psgraph.InvariantViolation{Msg: "predefined path step does not entail the reached state"})
		}
		d.expand(status, node, step)
		return RoundContinues, false
	}

	// Case 4 - Hook-up.
	if step := d.g.GetStep(currentState); step != nil {
		d.expand(status, node, step)
		if previousStep != nil {
			d.strengthenAndMark(status, previousStep, prevToCurrOutcome, step, previousNode.FullState)
		}
		return RoundContinues, false
	}

	// Case 5 - New path.
	if plan, found := d.planner.Plan(ctx, currentState, currentGoal); found {
		head := d.insertPlanChain(status, node, plan)
		d.expand(status, node, head)
		if previousStep != nil {
			d.strengthenAndMark(status, previousStep, prevToCurrOutcome, head, previousNode.FullState)
		}
		return RoundContinues, false
	}

	// A deadline that stopped the weak planner is not a dead-end: undo the
	// record and re-queue the node so a resumed round dispatches it again.
	if ctx.Err() != nil {
		delete(status.seen, currentState.Key())
		status.Queue.PushNode(node, Depth(node))
		return RoundContinues, true
	}

	// Case 6 - Dead-end.
	if currentState.Equal(status.InitState) {
		return RoundNoSolution, true
	}
	if d.opts.PoisonSearch {
		node.Poisoned = true
	}
	status.Failed = append(status.Failed, d.failedTuple(currentState, previousNode, previousOp))
	return RoundContinues, false
}

func (d *Driver) failedTuple(failedState task.PartialState, previousNode *Node, previousOp *task.Operator) fsap.FailedTuple {
	var prevFull task.PartialState
	if previousNode != nil {
		prevFull = previousNode.FullState
	}
	return fsap.FailedTuple{FailedState: failedState, PrevState: prevFull, PrevOp: previousOp}
}

// expand is Expand(node, step) of spec.md 4.8: record the match, and
// unless step is terminal (goal or already strong-cyclic), enumerate
// every outcome of step's action, progress node's full state through
// each, and push a child search node per outcome. Returns the child
// matching step.ExpectedID, or node itself when step is terminal.
func (d *Driver) expand(status *Status, node *Node, step *psgraph.Step) *Node {
	node.MatchedStep = step
	status.MatchNode(step, node)

	if step.IsGoal || step.IsSC || step.Op == nil {
		return node
	}

	depth := Depth(node)
	var expectedChild *Node
	for outcome, op := range step.Op.Outcomes {
		full := node.FullState.Progress(op)
		expectedState := status.Goal
		if succ := step.Successors[outcome]; succ != nil {
			expectedState = succ.State
		}
		child := status.NewNode(full, expectedState, step, node, outcome)
		status.Queue.PushNode(child, depth+1)
		if outcome == step.ExpectedID {
			expectedChild = child
		}
	}
	return expectedChild
}

// poison marks node poisoned and propagates forward through its
// children (its next_nodes), stopping once a node is already poisoned.
func (d *Driver) poison(node *Node) {
	queue := []*Node{node}
	seen := map[int]bool{}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		n.Poisoned = true
		for _, c := range n.Children {
			if !c.Poisoned {
				queue = append(queue, c)
			}
		}
	}
}

// strengthenAndMark ensures the PSGraph edge src--outcome-->dst exists
// (splitting if necessary via FixedPointRegression), re-homes any search
// nodes already matched to src that the split's clone now better
// describes, and re-marks the graph for strong cyclicity from the
// affected step.
func (d *Driver) strengthenAndMark(status *Status, src *psgraph.Step, outcome int, dst *psgraph.Step, context task.PartialState) {
	created, changed := d.g.FixedPointRegression(src, outcome, dst, context)
	if len(created) > 0 {
		clone := created[0]
		for _, n := range status.NodesFor(src) {
			if n.FullState.Entails(clone.State) {
				n.MatchedStep = clone
				status.MatchNode(clone, n)
			}
		}
	}
	d.g.FixedPointMarking(changed)
}

// insertPlanChain regresses plan's steps from the goal backward,
// producing a chain of new solution steps, each strengthened against the
// FSAP policy (spec.md 4.6), wired to the graph's goal at the tail.
// Returns the head of the new chain (the first step reached from node).
func (d *Driver) insertPlanChain(status *Status, node *Node, plan *weakplan.Plan) *psgraph.Step {
	if len(plan.Steps) == 0 {
		return d.g.Goal
	}

	states := make([]task.PartialState, len(plan.Steps)+1)
	states[0] = node.FullState
	for i, st := range plan.Steps {
		states[i+1] = states[i].Progress(st.Op)
	}

	next := d.g.Goal
	for i := len(plan.Steps) - 1; i >= 0; i-- {
		st := plan.Steps[i]
		context := states[i]

		regressed := next.State.Regress(st.Op, context)
		fsapStates := d.fsapStatesFor(st.Action.Index, regressed)
		strengthened := psgraph.Strengthen(regressed, context, fsapStates)

		newStep := d.g.AddStep(strengthened, st.Action)
		newStep.ExpectedID = st.Op.OutcomeIndex
		d.g.Connect(newStep, st.Op.OutcomeIndex, next)

		next = newStep
	}
	return next
}

func (d *Driver) fsapStatesFor(actionIndex int, q task.PartialState) []task.PartialState {
	var out []task.PartialState
	for _, f := range d.store.FSAPs.Consistent(q) {
		if f.ActID == actionIndex {
			out = append(out, f.State)
		}
	}
	return out
}
