package skills

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Source provides a graph snapshot for one planning call. The SQLite-backed
// store implements this; the planner falls back to the compiled-in catalog
// when the source is unreachable.
type Source interface {
	Graph(ctx context.Context) (*Graph, error)
}

// Step is one entry in an ordered learning path.
type Step struct {
	Skill          string `json:"skill"`
	EstimatedDays  int    `json:"estimated_days"`
	EstimatedWeeks int    `json:"estimated_weeks"`
	Rationale      string `json:"rationale"`
}

// Path is a prerequisite-ordered learning plan.
//
// TotalWeeks is derived from the critical path (longest prerequisite chain)
// through the induced DAG, not the flat sum of all steps: skills on parallel
// branches can be learned side by side. TotalDays keeps the flat sum for
// callers that want cumulative effort.
type Path struct {
	Steps            []Step `json:"steps"`
	TotalDays        int    `json:"total_days"`
	CriticalPathDays int    `json:"critical_path_days"`
	TotalWeeks       int    `json:"total_weeks"`
	Degraded         bool   `json:"degraded"`
}

// Planner orders missing skills into a learning path. It is stateless; each
// Plan call works on a fresh graph snapshot.
type Planner struct {
	source Source
}

// NewPlanner creates a Planner reading from the given graph source.
// A nil source always uses the compiled-in catalog.
func NewPlanner(source Source) *Planner {
	return &Planner{source: source}
}

// Plan produces a prerequisite-ordered learning path for the missing skills.
// Transitive prerequisites of missing skills are pulled into the plan unless
// the candidate already possesses them. The ordering is deterministic:
// among ready skills, shorter base duration first, then name.
//
// Plan never fails: an unreachable graph source degrades to the built-in
// catalog, and cycles in malformed graph data are broken deterministically.
func (p *Planner) Plan(ctx context.Context, missing, possessed []string) Path {
	if len(missing) == 0 {
		return Path{Steps: []Step{}}
	}

	graph, degraded := p.loadGraph(ctx)

	// Case-insensitive lookup preserving the caller's casing for skills
	// they named; catalog casing is used for pulled-in prerequisites.
	display := make(map[string]string, len(missing))
	for _, s := range missing {
		n := normalize(s)
		if n == "" {
			continue
		}
		if _, ok := display[n]; !ok {
			display[n] = strings.TrimSpace(s)
		}
	}

	possessedSet := make(map[string]bool, len(possessed))
	for _, s := range possessed {
		possessedSet[normalize(s)] = true
	}

	nodes := inducedNodes(graph, display, possessedSet)
	edges := inducedEdges(graph, nodes)
	order := topoSort(graph, nodes, edges)

	steps := make([]Step, 0, len(order))
	for _, n := range order {
		name := display[n]
		if name == "" {
			name = graph.Lookup(n).Name
		}
		days := graph.EstimatedDays(n)
		steps = append(steps, Step{
			Skill:          name,
			EstimatedDays:  days,
			EstimatedWeeks: daysToWeeks(days),
			Rationale:      rationale(graph, n, nodes),
		})
	}

	totalDays := 0
	for _, s := range steps {
		totalDays += s.EstimatedDays
	}
	critical := criticalPathDays(graph, order, edges)

	return Path{
		Steps:            steps,
		TotalDays:        totalDays,
		CriticalPathDays: critical,
		TotalWeeks:       daysToWeeks(critical),
		Degraded:         degraded,
	}
}

// loadGraph fetches a snapshot from the source with a single retry, falling
// back to the compiled-in catalog. The fallback is degraded-but-valid, never
// an error.
func (p *Planner) loadGraph(ctx context.Context) (*Graph, bool) {
	if p.source == nil {
		return DefaultGraph(), false
	}
	g, err := p.source.Graph(ctx)
	if err != nil {
		g, err = p.source.Graph(ctx)
	}
	if err != nil {
		slog.Warn("graph source unavailable, using built-in catalog", "error", err)
		return DefaultGraph(), true
	}
	return g, false
}

// inducedNodes returns the missing skills plus their transitive prerequisites,
// excluding skills the candidate already possesses.
func inducedNodes(g *Graph, display map[string]string, possessed map[string]bool) map[string]bool {
	nodes := make(map[string]bool, len(display))
	var frontier []string
	for n := range display {
		if !possessed[n] {
			nodes[n] = true
			frontier = append(frontier, n)
		}
	}
	for len(frontier) > 0 {
		n := frontier[0]
		frontier = frontier[1:]
		for _, pre := range g.prerequisitesOf(n) {
			if possessed[pre] || nodes[pre] {
				continue
			}
			nodes[pre] = true
			frontier = append(frontier, pre)
		}
	}
	return nodes
}

// inducedEdges filters graph edges to those with both endpoints in the node set.
func inducedEdges(g *Graph, nodes map[string]bool) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if nodes[e.Prerequisite] && nodes[e.Dependent] {
			out = append(out, e)
		}
	}
	return out
}

// topoSort runs Kahn's algorithm over the induced subgraph. Ready nodes are
// consumed in ascending (base duration, name) order so the output is total
// and deterministic. When a cycle blocks progress it is broken by removing
// an unresolved edge whose source has the highest in-degree; ties fall back
// to lexicographic edge order.
func topoSort(g *Graph, nodes map[string]bool, edges []Edge) []string {
	inDegree := make(map[string]int, len(nodes))
	for n := range nodes {
		inDegree[n] = 0
	}
	remaining := make([]Edge, len(edges))
	copy(remaining, edges)
	for _, e := range remaining {
		inDegree[e.Dependent]++
	}

	done := make(map[string]bool, len(nodes))
	order := make([]string, 0, len(nodes))

	for len(order) < len(nodes) {
		next := ""
		for n := range nodes {
			if done[n] || inDegree[n] != 0 {
				continue
			}
			if next == "" || readyLess(g, n, next) {
				next = n
			}
		}

		if next == "" {
			// Cycle within the induced subgraph.
			remaining = breakCycle(remaining, done, inDegree)
			continue
		}

		done[next] = true
		order = append(order, next)
		var rest []Edge
		for _, e := range remaining {
			if e.Prerequisite == next {
				inDegree[e.Dependent]--
				continue
			}
			rest = append(rest, e)
		}
		remaining = rest
	}
	return order
}

// readyLess orders ready nodes by ascending base duration, then name.
func readyLess(g *Graph, a, b string) bool {
	da, db := g.EstimatedDays(a), g.EstimatedDays(b)
	if da != db {
		return da < db
	}
	return a < b
}

// breakCycle removes one unresolved edge to unblock the sort: the edge whose
// source node carries the highest unresolved in-degree, ties broken by edge
// name order. Deterministic and logged, never an error.
func breakCycle(edges []Edge, done map[string]bool, inDegree map[string]int) []Edge {
	victim := -1
	for i, e := range edges {
		if done[e.Prerequisite] || done[e.Dependent] {
			continue
		}
		if victim == -1 {
			victim = i
			continue
		}
		v := edges[victim]
		if inDegree[e.Prerequisite] > inDegree[v.Prerequisite] ||
			(inDegree[e.Prerequisite] == inDegree[v.Prerequisite] && edgeLess(e, v)) {
			victim = i
		}
	}
	if victim == -1 {
		// Nothing removable; should not happen, but never loop forever.
		return nil
	}
	e := edges[victim]
	slog.Warn("cycle detected in skill graph, removing edge",
		"prerequisite", e.Prerequisite, "dependent", e.Dependent)
	inDegree[e.Dependent]--
	return append(edges[:victim:victim], edges[victim+1:]...)
}

func edgeLess(a, b Edge) bool {
	if a.Prerequisite != b.Prerequisite {
		return a.Prerequisite < b.Prerequisite
	}
	return a.Dependent < b.Dependent
}

// criticalPathDays computes the longest prerequisite chain through the
// induced DAG, walking nodes in topological order.
func criticalPathDays(g *Graph, order []string, edges []Edge) int {
	if len(order) == 0 {
		return 0
	}
	prereqs := make(map[string][]string)
	for _, e := range edges {
		prereqs[e.Dependent] = append(prereqs[e.Dependent], e.Prerequisite)
	}
	dist := make(map[string]int, len(order))
	longest := 0
	for _, n := range order {
		best := 0
		for _, pre := range prereqs[n] {
			if dist[pre] > best {
				best = dist[pre]
			}
		}
		dist[n] = best + g.EstimatedDays(n)
		if dist[n] > longest {
			longest = dist[n]
		}
	}
	return longest
}

// rationale explains a step's position in the plan.
func rationale(g *Graph, node string, nodes map[string]bool) string {
	var within []string
	for _, pre := range g.prerequisitesOf(node) {
		if nodes[pre] {
			within = append(within, g.Lookup(pre).Name)
		}
	}
	if len(within) == 0 {
		return "foundation skill with no prerequisites in this plan"
	}
	sort.Strings(within)
	return fmt.Sprintf("builds on %s", strings.Join(within, ", "))
}

// daysToWeeks converts days to a display figure in whole weeks,
// rounding to the nearest week with a floor of one.
func daysToWeeks(days int) int {
	if days <= 0 {
		return 0
	}
	w := (days + 3) / 7
	if w < 1 {
		w = 1
	}
	return w
}
