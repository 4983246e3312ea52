package validation

import (
	"fmt"
	"sort"

	"github.com/vantagerisk/procanvas/internal/graph"
	"github.com/vantagerisk/procanvas/pkg/schema"
)

// validateDAG performs graph analysis over the full edge set (plain
// connections plus routed branches): cycle detection via Kahn's
// algorithm, reachability from the start step, and backward-ordinal
// branch routing. A process graph models a finite, terminating flow,
// so a cycle is an error; a branch routed to an earlier ordinal is
// only a potential cycle and surfaces as a warning.
func validateDAG(g *graph.Graph) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	edges := g.Edges()

	// forward[id] = successors, inDegree counts incoming edges.
	forward := make(map[string][]string, g.Len())
	inDegree := make(map[string]int, g.Len())
	for _, s := range g.Steps() {
		inDegree[s.ID] = 0
	}
	for _, e := range edges {
		forward[e.From] = append(forward[e.From], e.To)
		inDegree[e.To]++
	}

	queue := make([]string, 0, g.Len())
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	// Sort roots for deterministic output.
	sort.Strings(queue)

	visited := 0
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range forward[node] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited != g.Len() {
		result.AddError("steps", schema.ErrCodeCycleDetected, "process graph contains a cycle")
		return result // cycle makes the remaining analysis meaningless
	}

	checkBackwardBranches(g, result)
	checkReachability(g, forward, result)

	return result
}

// checkBackwardBranches flags branches routed to a step with a smaller
// ordinal than the decision step that owns them.
func checkBackwardBranches(g *graph.Graph, result *schema.ValidationResult) {
	for _, s := range g.Steps() {
		for i, b := range s.Branches {
			if b.NextStepID == nil {
				continue
			}
			target := g.Step(*b.NextStepID)
			if target == nil {
				continue // dangling refs already caught by structural
			}
			if target.Ordinal < s.Ordinal {
				result.AddStepWarning(fmt.Sprintf("steps[%s].branches[%d]", s.ID, i),
					schema.ErrCodeCycleDetected, s.ID,
					fmt.Sprintf("branch %q routes to earlier step %q (ordinal %d < %d): potential cycle",
						b.ConditionLabel, target.Name, target.Ordinal, s.Ordinal))
			}
		}
	}
}

// checkReachability warns about steps not reachable from the start
// step via BFS over the forward edges.
func checkReachability(g *graph.Graph, forward map[string][]string, result *schema.ValidationResult) {
	var startID string
	for _, s := range g.Steps() {
		if s.Kind == schema.StepKindStart {
			startID = s.ID
			break
		}
	}
	if startID == "" {
		return // no start step; cardinality check already reported it
	}

	reachable := map[string]bool{startID: true}
	queue := []string{startID}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range forward[node] {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, s := range g.Steps() {
		if !reachable[s.ID] {
			result.AddStepWarning(fmt.Sprintf("steps[%s]", s.ID),
				schema.ErrCodeValidation, s.ID,
				fmt.Sprintf("step %q is unreachable from the start step", s.Name))
		}
	}
}
