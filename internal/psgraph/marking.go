package psgraph

// FixedPointMarking propagates strong-cyclic marking and distance
// backward from step, per spec.md 4.7: step is is_sc iff it is the goal,
// or it has an Op and at least one outcome successor exists and is is_sc
// (the other outcomes may loop back through not-yet-solved steps; under
// fairness they eventually take the outcome that is already solved).
// Distance is 1 + the minimum distance among is_sc outcome successors
// (the length of the shortest already-solved path to the goal, used only
// for step ordering). Propagates to predecessors whose own marking may
// now change, stopping once a predecessor's marking is unaffected.
func (g *Graph) FixedPointMarking(step *Step) {
	frontier := []*Step{step}
	visited := map[int]bool{}
	for len(frontier) > 0 {
		s := frontier[0]
		frontier = frontier[1:]
		if visited[s.ID] {
			continue
		}
		visited[s.ID] = true

		wasSC := s.IsSC
		wasDist := s.Distance
		markOne(s)

		if s.IsSC != wasSC || s.Distance != wasDist {
			for _, pe := range s.Predecessors {
				frontier = append(frontier, pe.step)
			}
		}
	}
}

func markOne(s *Step) {
	if s.IsGoal {
		s.IsSC = true
		s.Distance = 0
		return
	}
	if s.Op == nil || len(s.Successors) == 0 {
		return
	}
	anySC := false
	minDist := 0
	for _, succ := range s.Successors {
		if succ == nil || !succ.IsSC {
			continue
		}
		if !anySC || succ.Distance < minDist {
			minDist = succ.Distance
		}
		anySC = true
	}
	if anySC {
		s.IsSC = true
		s.Distance = 1 + minDist
	}
}

// FullMarking marks every step's is_sc via a fixed-point reverse sweep
// starting from the goal.
func (g *Graph) FullMarking() {
	for _, s := range g.steps {
		if s.IsActive && !s.IsGoal {
			s.IsSC = false
		}
	}
	changed := true
	for changed {
		changed = false
		for _, s := range g.steps {
			if !s.IsActive || s.IsSC {
				continue
			}
			before := s.IsSC
			markOne(s)
			if s.IsSC != before {
				changed = true
			}
		}
	}
}

// CrawlSteps traverses the graph from start, following successor edges
// (reversed=false) or predecessor edges (reversed=true), and returns
// every step reached.
func (g *Graph) CrawlSteps(start *Step, reversed bool) []*Step {
	seen := map[int]bool{start.ID: true}
	order := []*Step{start}
	queue := []*Step{start}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		var neighbors []*Step
		if reversed {
			for _, pe := range s.Predecessors {
				neighbors = append(neighbors, pe.step)
			}
		} else {
			neighbors = s.Successors
		}
		for _, n := range neighbors {
			if n == nil || seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			order = append(order, n)
			queue = append(queue, n)
		}
	}
	return order
}

// ClearDeadSolsteps removes every active step not reachable forward from
// init.
func (g *Graph) ClearDeadSolsteps(init *Step) {
	reachable := map[int]bool{}
	for _, s := range g.CrawlSteps(init, false) {
		reachable[s.ID] = true
	}
	for _, s := range g.steps {
		if s.IsActive && !reachable[s.ID] {
			g.RemoveStep(s)
		}
	}
}
