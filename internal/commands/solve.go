package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fondsynth.dev/planner/internal/config"
	"fondsynth.dev/planner/internal/matchtree"
	"fondsynth.dev/planner/internal/prp"
	"fondsynth.dev/planner/internal/psgraph"
	"fondsynth.dev/planner/internal/search"
	"fondsynth.dev/planner/internal/taskio"
	"fondsynth.dev/planner/internal/task"
	"fondsynth.dev/planner/internal/validation"
	"fondsynth.dev/planner/internal/progress"
)

// BestEffortError signals spec.md 6's exit code 1: a policy was produced
// but it is not proven strong-cyclic. Distinguished from a plain error
// (exit code 2, malformed task / bad options) so cmd/prpctl can map it to
// the right status.
type BestEffortError struct {
	Outcome search.Outcome
}

func (e *BestEffortError) Error() string {
	return "solve: no strong-cyclic policy found within the epoch budget"
}

// SolveCommand runs the PRP wrapper over a task document and emits the
// resulting policy in one of three formats.
type SolveCommand struct {
	TaskFile    string `name:"task" help:"Task document to solve (- for stdin)" required:""`
	Format      string `name:"format" help:"Output format: list, match-tree, controller" enum:"list,match-tree,controller" default:"list"`
	EpochMax    int    `name:"epoch-max" help:"Override epoch.max from config"`
	TimeLimit   string `name:"time-limit" help:"Override epoch.time_limit from config (e.g. 30s)"`
	SnapshotDir string `name:"snapshot-dir" help:"Directory to write PSGraph snapshots into"`
	ConfigFile  string `name:"config" help:"Configuration file path" type:"path"`
	Resume      string `name:"resume" help:"Run ID of a prior solve to resume snapshots under (mints a fresh one if omitted)"`
}

// Run executes the solve command.
func (cmd *SolveCommand) Run() error {
	prog := progress.NewIndicator(true)

	cfg, err := config.LoadConfig(cmd.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.EpochMax > 0 {
		cfg.Epoch.Max = cmd.EpochMax
	}
	if cmd.TimeLimit != "" {
		cfg.Epoch.TimeLimit = cmd.TimeLimit
	}
	if cmd.Format != "" {
		cfg.Output.Format = cmd.Format
	}
	if cmd.SnapshotDir != "" {
		cfg.Output.SnapshotDir = cmd.SnapshotDir
	}

	var runID string
	if cmd.Resume != "" {
		runID = cmd.Resume
		prog.Info(fmt.Sprintf("resuming run: %s", runID))
	} else {
		u, err := uuid.NewUUID()
		if err != nil {
			return fmt.Errorf("mint run id: %w", err)
		}
		runID = u.String()
		prog.Info(fmt.Sprintf("starting new run: %s", runID))
	}
	if cfg.Output.SnapshotDir != "" {
		cfg.Output.SnapshotDir = filepath.Join(cfg.Output.SnapshotDir, runID)
	}

	timeLimit, err := time.ParseDuration(cfg.Epoch.TimeLimit)
	if err != nil {
		return fmt.Errorf("bad epoch.time_limit %q: %w", cfg.Epoch.TimeLimit, err)
	}
	pref, err := parseNodePreference(cfg.Fondsearch.NodePreference)
	if err != nil {
		return err
	}

	prog.Phase("Loading task")
	t, err := loadTask(cmd.TaskFile)
	if err != nil {
		return err
	}
	prog.Success(fmt.Sprintf("%d variables, %d operators", t.NumVars, len(t.Operators)))

	prog.Phase("Validation")
	result := validation.ValidateTask(t)
	if !result.IsValid() {
		fmt.Print(validation.Summary(result))
		return fmt.Errorf("task failed structural validation")
	}
	prog.Success("task is structurally valid")

	opts := search.Options{
		DeadendEnabled:         cfg.Deadend.Enabled,
		PoisonSearch:           cfg.Deadend.PoisonSearch,
		NodePreference:         pref,
		PenalizePotentialFSAPs: cfg.Weaksearch.PenalizePotentialFSAPs,
		FSAPPenalty:            cfg.Weaksearch.FSAPPenalty,
		FullSCDMarking:         cfg.PSGraph.FullSCDMarking,
	}
	g, store, h, planner, driver := prp.NewCollaborators(t, opts, cfg.Deadend.Combine)

	wrapper := prp.New(t, g, store, h, planner, driver, prp.Config{
		EpochMax:           cfg.Epoch.Max,
		TimeLimit:          timeLimit,
		NodePreference:     pref,
		FinalFSAPFreeRound: cfg.General.FinalFSAPFreeRound,
		DriverOptions:      opts,
	})

	prog.Phase("Solving")
	runResult := wrapper.Run(context.Background())
	for _, e := range runResult.Epochs {
		prog.EpochResult(outcomeLabel(e.Outcome), e.Duration)
	}

	if cfg.Output.SnapshotDir != "" {
		if err := psgraph.WriteSnapshot(cfg.Output.SnapshotDir, len(runResult.Epochs), runResult.Graph, time.Now()); err != nil {
			prog.Error("snapshot write failed", err)
		}
	}

	if err := emit(cfg.Output.Format, runResult.Graph, t.NumVars, os.Stdout); err != nil {
		return fmt.Errorf("emit policy: %w", err)
	}

	switch runResult.Outcome {
	case search.RoundStrongCyclic:
		prog.Summary(true, "strong-cyclic policy found")
		return nil
	case search.RoundNoSolution:
		prog.Summary(false, "initial state proved a dead-end")
		return &BestEffortError{Outcome: runResult.Outcome}
	default:
		prog.Summary(false, "best-effort policy (not strong-cyclic)")
		return &BestEffortError{Outcome: runResult.Outcome}
	}
}

func loadTask(path string) (*task.Task, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	return taskio.Load(r)
}

func parseNodePreference(s string) (search.Preference, error) {
	switch strings.ToLower(s) {
	case "", "fifo":
		return search.PreferFIFO, nil
	case "lifo":
		return search.PreferLIFO, nil
	case "near-init":
		return search.PreferNearInit, nil
	case "away-init":
		return search.PreferAwayInit, nil
	case "random":
		return search.PreferRandom, nil
	default:
		return 0, fmt.Errorf("unknown fondsearch.node_preference %q", s)
	}
}

func outcomeLabel(o search.Outcome) string {
	switch o {
	case search.RoundStrongCyclic:
		return "strong-cyclic"
	case search.RoundNoSolution:
		return "no-solution"
	default:
		return "continues"
	}
}

func emit(format string, g *psgraph.Graph, numVars int, w io.Writer) error {
	switch format {
	case "match-tree":
		tree := matchtree.Build(g, numVars)
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree.Document())
	case "controller":
		c := psgraph.BuildController(g, time.Now())
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	default:
		return emitList(g, w)
	}
}

func emitList(g *psgraph.Graph, w io.Writer) error {
	ids := psgraph.SortedStepIDs(g)
	byID := map[int]*psgraph.Step{}
	for _, s := range g.Steps() {
		byID[s.ID] = s
	}
	for _, id := range ids {
		s := byID[id]
		action := "(goal)"
		if s.Op != nil {
			action = s.Op.Name
		}
		fmt.Fprintf(w, "step %d: %s distance=%d sc=%v\n", s.ID, action, s.Distance, s.IsSC)
	}
	return nil
}
