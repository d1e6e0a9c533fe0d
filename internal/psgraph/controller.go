package psgraph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"fondsynth.dev/planner/internal/task"
)

// ControllerNode is one JSON-serialised Solution Step, keyed by its id.
// Grounded on the teacher's GraphNode shape (internal/goap/persistence.go),
// adapted from a hierarchical-plan node to a Solution Step.
type ControllerNode struct {
	ID           int                `json:"id"`
	Action       string             `json:"action,omitempty"`
	State        map[string]int     `json:"state"`
	Distance     int                `json:"distance"`
	ExpectedID   int                `json:"expected_outcome,omitempty"`
	IsGoal       bool               `json:"is_goal"`
	IsStrongCyclic bool             `json:"is_strong_cyclic"`
	Successors   map[string]*int    `json:"successors,omitempty"` // outcome name -> successor id
}

// Controller is the JSON-serialisable PSGraph document: nodes keyed by
// solution-step id, grounded on the teacher's PlanGraph shape.
type Controller struct {
	InitID   int              `json:"init_id,omitempty"`
	GoalID   int              `json:"goal_id"`
	Nodes    map[int]*ControllerNode `json:"nodes"`
	Metadata ControllerMetadata      `json:"metadata"`
}

// ControllerMetadata mirrors the teacher's GraphMetadata.
type ControllerMetadata struct {
	CreatedAt  string `json:"created_at"`
	TotalNodes int    `json:"total_nodes"`
}

// BuildController converts g's active steps into a serialisable
// Controller document. now is injected so callers (and tests) control the
// created_at timestamp rather than this package calling time.Now itself.
func BuildController(g *Graph, now time.Time) *Controller {
	c := &Controller{
		GoalID: g.Goal.ID,
		Nodes:  make(map[int]*ControllerNode),
	}
	if g.Init != nil {
		c.InitID = g.Init.ID
	}

	for _, s := range g.steps {
		if !s.IsActive {
			continue
		}
		node := &ControllerNode{
			ID:             s.ID,
			State:          stateToMap(s.State),
			Distance:       s.Distance,
			ExpectedID:     s.ExpectedID,
			IsGoal:         s.IsGoal,
			IsStrongCyclic: s.IsSC,
		}
		if s.Op != nil {
			node.Action = s.Op.Name
			node.Successors = make(map[string]*int, len(s.Successors))
			for i, succ := range s.Successors {
				outcomeName := fmt.Sprintf("outcome_%d", i)
				if i < len(s.Op.Outcomes) && s.Op.Outcomes[i].Name != "" {
					outcomeName = s.Op.Outcomes[i].Name
				}
				if succ != nil {
					id := succ.ID
					node.Successors[outcomeName] = &id
				} else {
					node.Successors[outcomeName] = nil
				}
			}
		}
		c.Nodes[s.ID] = node
	}

	c.Metadata = ControllerMetadata{
		CreatedAt:  now.Format(time.RFC3339),
		TotalNodes: len(c.Nodes),
	}
	return c
}

func stateToMap(s task.PartialState) map[string]int {
	m := make(map[string]int, len(s))
	for v, val := range s {
		if val == task.Unset {
			continue
		}
		m[fmt.Sprintf("var%d", v)] = val
	}
	return m
}

// WriteSnapshot writes a numbered snapshot-NNNN.json file under dir,
// containing the PSGraph's controller document, grounded on the teacher's
// GraphPersistence.SaveGraph directory-per-run/indented-JSON idiom.
func WriteSnapshot(dir string, seq int, g *Graph, now time.Time) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("psgraph: create snapshot directory %s: %w", dir, err)
	}

	c := BuildController(g, now)
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("psgraph: marshal snapshot: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot-%04d.json", seq))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("psgraph: write snapshot %s: %w", path, err)
	}
	return nil
}

// SortedStepIDs returns the active step ids of g in ascending order, the
// deterministic traversal order list/match-tree output relies on.
func SortedStepIDs(g *Graph) []int {
	ids := make([]int, 0, len(g.steps))
	for _, s := range g.steps {
		if s.IsActive {
			ids = append(ids, s.ID)
		}
	}
	sort.Ints(ids)
	return ids
}
