// Package prp implements the PRP Wrapper of spec.md 2's ninth component:
// the epoch/time-budget controller that invokes the FOND Search Driver
// repeatedly until a strong-cyclic policy is found, the time limit is
// exceeded, or the initial state is proved a dead-end. Grounded on the
// teacher's goap.Orchestrator.ExecuteGoal phased loop (internal/goap/
// orchestrator.go), adapted from a hierarchical-plan-then-execute pipeline
// into a bounded epoch loop around one driver.
package prp

import (
	"context"
	"time"

	"fondsynth.dev/planner/internal/fsap"
	"fondsynth.dev/planner/internal/heuristic"
	"fondsynth.dev/planner/internal/psgraph"
	"fondsynth.dev/planner/internal/search"
	"fondsynth.dev/planner/internal/successorgen"
	"fondsynth.dev/planner/internal/task"
	"fondsynth.dev/planner/internal/weakplan"
)

// Config is the subset of spec.md 6's recognised configuration options the
// epoch wrapper itself consults; the rest are consumed by the driver,
// heuristic, and successor generator it wires together.
type Config struct {
	EpochMax           int
	TimeLimit          time.Duration
	NodePreference     search.Preference
	FinalFSAPFreeRound bool
	DriverOptions      search.Options
}

// EpochReport describes one completed epoch, for progress reporting and
// metrics (internal/progress, internal/o11y).
type EpochReport struct {
	Index    int
	Outcome  search.Outcome
	Duration time.Duration
	Resumed  bool
}

// Result is the outcome of a full Run: the terminal driver verdict, the
// resulting PSGraph/FSAP store (the incumbent policy), and a per-epoch
// history.
type Result struct {
	Outcome search.Outcome
	Epochs  []EpochReport
	Graph   *psgraph.Graph
	Store   *fsap.Store
}

// Wrapper owns the Task and its collaborators across epochs; the Search
// Status it saves on time expiry is the only cross-epoch mutable state,
// per spec.md 5's "epoch slot" resume mechanism.
type Wrapper struct {
	t       *task.Task
	g       *psgraph.Graph
	store   *fsap.Store
	h       *heuristic.Heuristic
	planner weakplan.Planner
	driver  *search.Driver
	cfg     Config

	saved *search.Status
}

// New wires a Wrapper around an already-constructed driver and its
// collaborators. Callers typically build g/store/h/planner/driver via
// psgraph.New, fsap.NewStore, heuristic.New, successorgen.New,
// weakplan.New, and search.New in that order, then pass them here.
func New(t *task.Task, g *psgraph.Graph, store *fsap.Store, h *heuristic.Heuristic, planner weakplan.Planner, driver *search.Driver, cfg Config) *Wrapper {
	if cfg.EpochMax <= 0 {
		cfg.EpochMax = 1
	}
	return &Wrapper{t: t, g: g, store: store, h: h, planner: planner, driver: driver, cfg: cfg}
}

// Run drives epochs until a strong-cyclic verdict, a no-solution verdict,
// or epoch.max is exhausted. Each epoch is given its own wall-clock
// deadline (cfg.TimeLimit); if the driver's round is still running when
// the deadline fires, RunRound returns RoundContinues with its Status's
// queue still populated, and that Status is saved for the next epoch to
// resume, matching spec.md 5's "re-queueing the in-flight current_node"
// (here the whole in-flight queue, since no node is left partially
// dispatched between synchronous case handlers).
func (w *Wrapper) Run(ctx context.Context) Result {
	result := Result{Graph: w.g, Store: w.store}

	for epoch := 1; epoch <= w.cfg.EpochMax; epoch++ {
		status, resumed := w.statusForEpoch()

		start := time.Now()
		epochCtx := ctx
		var cancel context.CancelFunc
		if w.cfg.TimeLimit > 0 {
			epochCtx, cancel = context.WithTimeout(ctx, w.cfg.TimeLimit)
		}
		outcome := w.driver.RunRound(epochCtx, status)
		if cancel != nil {
			cancel()
		}
		result.Epochs = append(result.Epochs, EpochReport{
			Index:    epoch,
			Outcome:  outcome,
			Duration: time.Since(start),
			Resumed:  resumed,
		})

		switch outcome {
		case search.RoundStrongCyclic, search.RoundNoSolution:
			w.saved = nil
			result.Outcome = outcome
			return result
		case search.RoundContinues:
			if status.Queue.Len() > 0 {
				// Time expired mid-round: resume this exact status next epoch.
				w.saved = status
			} else {
				// The round ran to completion (a dead-end reset the
				// incumbent); start the next epoch fresh against the
				// now-reset graph.
				w.saved = nil
			}
		}

		if ctx.Err() != nil {
			result.Outcome = search.RoundContinues
			return result
		}
	}

	if w.cfg.FinalFSAPFreeRound {
		return w.runFinalFSAPFreeRound(ctx, result)
	}

	result.Outcome = search.RoundContinues
	return result
}

// statusForEpoch returns the saved status from a prior time-exhausted
// epoch, or a fresh one seeded with the task's initial state.
func (w *Wrapper) statusForEpoch() (*search.Status, bool) {
	if w.saved != nil {
		return w.saved, true
	}
	status := search.NewStatus(w.cfg.NodePreference, w.t.Init, w.t.Goal)
	root := status.NewNode(w.t.Init, w.t.Goal, nil, nil, 0)
	root.Init = true
	status.Queue.PushNode(root, 0)
	return status, false
}

// runFinalFSAPFreeRound implements spec.md 6's general.final_fsap_free_round:
// after the last epoch, a single best-effort round from a fresh status,
// over the same PSGraph built so far, with the driver's heuristic
// dead-end check and forward poisoning turned off, so an overly
// pessimistic heuristic cannot mask a usable (if not strong-cyclic)
// policy. Learned FSAPs and dead-ends are still consulted (the weak
// planner's successor generator and case 1's dead-end match), and
// failures found in this round are still learned. The round gets half of
// one epoch's time limit, in addition to the epochs already run.
func (w *Wrapper) runFinalFSAPFreeRound(ctx context.Context, result Result) Result {
	freeDriver := search.New(w.t, w.g, w.store, w.h, w.planner, search.Options{
		DeadendEnabled: false,
		PoisonSearch:   false,
		NodePreference: w.cfg.NodePreference,
		FullSCDMarking: w.cfg.DriverOptions.FullSCDMarking,
	})

	status := search.NewStatus(w.cfg.NodePreference, w.t.Init, w.t.Goal)
	root := status.NewNode(w.t.Init, w.t.Goal, nil, nil, 0)
	root.Init = true
	status.Queue.PushNode(root, 0)

	deadline := w.cfg.TimeLimit / 2
	runCtx := ctx
	var cancel context.CancelFunc
	if deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, deadline)
	}
	start := time.Now()
	outcome := freeDriver.RunRound(runCtx, status)
	if cancel != nil {
		cancel()
	}
	result.Epochs = append(result.Epochs, EpochReport{
		Index:    len(result.Epochs) + 1,
		Outcome:  outcome,
		Duration: time.Since(start),
	})
	result.Outcome = outcome
	return result
}

// NewCollaborators wires the standard collaborator chain (PSGraph, FSAP
// store, heuristic, deadend-aware successor generator, A* weak planner,
// driver) for task t, the order every caller (CLI, tests) should follow.
// combineDeadends mirrors spec.md 6's deadend.combine option. opts'
// weaksearch.* fields (spec.md 8 Scenario S4) are threaded into the
// heuristic so potential-FSAP penalisation actually takes effect.
func NewCollaborators(t *task.Task, opts search.Options, combineDeadends bool) (*psgraph.Graph, *fsap.Store, *heuristic.Heuristic, weakplan.Planner, *search.Driver) {
	g := psgraph.New(t)
	store := fsap.NewStore(t)
	h := heuristic.New(t, store)
	h.Penalize = opts.PenalizePotentialFSAPs
	h.FSAPPenalty = opts.FSAPPenalty
	gen := successorgen.New(t, store)
	gen.CombineDeadends = combineDeadends
	planner := weakplan.New(t, h, gen)
	driver := search.New(t, g, store, h, planner, opts)
	return g, store, h, planner, driver
}
