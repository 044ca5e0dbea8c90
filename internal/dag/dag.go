// Package dag builds and analyses the dependency graph derived from a
// decomposition's subtasks: cycle detection, topological leveling,
// critical path, and parallel groups.
package dag

import (
	"sort"

	"github.com/ralphcore/ralph/internal/types"
)

type color int

const (
	white color = iota
	gray
	black
)

// Build derives a DependencyGraph from subtasks. It never mutates its input.
func Build(subtasks []*types.Subtask) *types.DependencyGraph {
	forward := map[string][]string{}
	reverse := map[string][]string{}
	byID := map[string]*types.Subtask{}

	for _, s := range subtasks {
		byID[s.ID] = s
		if _, ok := forward[s.ID]; !ok {
			forward[s.ID] = nil
		}
		if _, ok := reverse[s.ID]; !ok {
			reverse[s.ID] = nil
		}
	}
	for _, s := range subtasks {
		for _, dep := range s.DependsOn {
			if _, ok := byID[dep]; !ok {
				continue // unknown deps are a validator concern, not a graph-build failure
			}
			reverse[s.ID] = append(reverse[s.ID], dep)
			forward[dep] = append(forward[dep], s.ID)
		}
	}

	cycles := detectCycles(subtasks, reverse)
	cyclic := map[string]bool{}
	for _, c := range cycles {
		for _, id := range c {
			cyclic[id] = true
		}
	}

	levels := assignLevels(subtasks, reverse, cyclic)

	var parallelGroups [][]string
	for _, level := range levels {
		if len(level) >= 2 {
			group := append([]string(nil), level...)
			sort.Strings(group)
			parallelGroups = append(parallelGroups, group)
		}
	}

	g := &types.DependencyGraph{
		Forward:        forward,
		Reverse:        reverse,
		Levels:         levels,
		Cycles:         cycles,
		ParallelGroups: parallelGroups,
		HasCycles:      len(cycles) > 0,
	}
	g.CriticalPath = criticalPath(subtasks, byID, reverse, levels)
	return g
}

// detectCycles runs DFS with three-colour marking over the dependency
// (reverse) edges. Every on-stack successor that's re-reached emits one
// cycle: the path from that successor to the current node.
func detectCycles(subtasks []*types.Subtask, reverse map[string][]string) [][]string {
	colors := map[string]color{}
	var stack []string
	var cycles [][]string

	ids := make([]string, len(subtasks))
	for i, s := range subtasks {
		ids[i] = s.ID
	}
	sort.Strings(ids) // deterministic traversal order

	var visit func(id string)
	visit = func(id string) {
		colors[id] = gray
		stack = append(stack, id)
		deps := append([]string(nil), reverse[id]...)
		sort.Strings(deps)
		for _, dep := range deps {
			switch colors[dep] {
			case white:
				visit(dep)
			case gray:
				// found a back-edge to an on-stack node: extract the cycle
				idx := indexOf(stack, dep)
				cycle := append([]string(nil), stack[idx:]...)
				cycle = append(cycle, dep)
				cycles = append(cycles, cycle)
			case black:
				// already fully explored, no new cycle
			}
		}
		stack = stack[:len(stack)-1]
		colors[id] = black
	}

	for _, id := range ids {
		if colors[id] == white {
			visit(id)
		}
	}
	return cycles
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// assignLevels performs Kahn-style layering over the reverse (dependency)
// graph: level 0 is every non-cyclic node with no dependencies; level k+1
// is every node whose dependencies are all already leveled at <= k.
func assignLevels(subtasks []*types.Subtask, reverse map[string][]string, cyclic map[string]bool) [][]string {
	remaining := map[string][]string{}
	for _, s := range subtasks {
		if cyclic[s.ID] {
			continue
		}
		var deps []string
		for _, d := range reverse[s.ID] {
			if !cyclic[d] {
				deps = append(deps, d)
			}
		}
		remaining[s.ID] = deps
	}

	leveled := map[string]bool{}
	var levels [][]string
	for len(leveled) < len(remaining) {
		var level []string
		for id, deps := range remaining {
			if leveled[id] {
				continue
			}
			ready := true
			for _, d := range deps {
				if !leveled[d] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, id)
			}
		}
		if len(level) == 0 {
			break // defensive: shouldn't happen once cyclic nodes are excluded
		}
		sort.Strings(level)
		levels = append(levels, level)
		for _, id := range level {
			leveled[id] = true
		}
	}
	return levels
}

// criticalPath finds the longest path by cumulative effort-hours from any
// root to any leaf via dynamic programming over the topological order
// implied by levels. Ties break on lexicographic subtask id.
func criticalPath(subtasks []*types.Subtask, byID map[string]*types.Subtask, reverse map[string][]string, levels [][]string) []string {
	bestCost := map[string]float64{}
	bestPrev := map[string]string{}

	var order []string
	for _, level := range levels {
		order = append(order, level...)
	}

	for _, id := range order {
		s := byID[id]
		selfCost := s.Effort.Hours
		if selfCost == 0 {
			selfCost = s.Effort.Level.Midpoint()
		}
		best := selfCost
		bestDep := ""
		deps := append([]string(nil), reverse[id]...)
		sort.Strings(deps)
		for _, dep := range deps {
			candidate := bestCost[dep] + selfCost
			if candidate > best || (candidate == best && bestDep != "" && dep < bestDep) {
				best = candidate
				bestDep = dep
			}
		}
		bestCost[id] = best
		if bestDep != "" {
			bestPrev[id] = bestDep
		}
	}

	var endID string
	var endCost float64 = -1
	for _, id := range order {
		c := bestCost[id]
		if c > endCost || (c == endCost && id < endID) {
			endCost = c
			endID = id
		}
	}
	if endID == "" {
		return nil
	}

	var path []string
	for cur := endID; cur != ""; {
		path = append([]string{cur}, path...)
		prev, ok := bestPrev[cur]
		if !ok {
			break
		}
		cur = prev
	}
	return path
}
