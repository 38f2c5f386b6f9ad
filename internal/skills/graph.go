// Package skills holds the skill prerequisite graph and the learning-path
// planner that orders missing skills so prerequisites come first.
package skills

import (
	"log/slog"
	"strings"
)

// Graph is an immutable snapshot of the skill DAG for one planning call.
// Lookups are case-insensitive; original casing is preserved in values.
type Graph struct {
	skills map[string]Skill // keyed by normalized name
	edges  []Edge           // normalized endpoints
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewGraph builds a Graph from skills and edges. Edges referencing unknown
// skills are dropped and logged rather than failing the call — a dangling
// edge is malformed reference data, not a caller error.
func NewGraph(list []Skill, edges []Edge) *Graph {
	g := &Graph{skills: make(map[string]Skill, len(list))}
	for _, s := range list {
		g.skills[normalize(s.Name)] = s
	}
	for _, e := range edges {
		pre, dep := normalize(e.Prerequisite), normalize(e.Dependent)
		if _, ok := g.skills[pre]; !ok {
			slog.Warn("dropping edge with unknown prerequisite", "prerequisite", e.Prerequisite, "dependent", e.Dependent)
			continue
		}
		if _, ok := g.skills[dep]; !ok {
			slog.Warn("dropping edge with unknown dependent", "prerequisite", e.Prerequisite, "dependent", e.Dependent)
			continue
		}
		if pre == dep {
			slog.Warn("dropping self-referential edge", "skill", e.Prerequisite)
			continue
		}
		g.edges = append(g.edges, Edge{Prerequisite: pre, Dependent: dep})
	}
	return g
}

// DefaultGraph returns the compiled-in catalog graph.
func DefaultGraph() *Graph {
	return NewGraph(Catalog(), CatalogEdges())
}

// Lookup returns the catalog entry for a skill name, or a synthetic entry
// with the default duration when the skill is outside the catalog.
func (g *Graph) Lookup(name string) Skill {
	if s, ok := g.skills[normalize(name)]; ok {
		return s
	}
	return Skill{Name: strings.TrimSpace(name), Category: "general", EstimatedDays: defaultEstimatedDays}
}

// EstimatedDays returns the base duration for a skill name.
func (g *Graph) EstimatedDays(name string) int {
	return g.Lookup(name).EstimatedDays
}

// Len returns the number of skills in the graph.
func (g *Graph) Len() int { return len(g.skills) }

// prerequisitesOf returns the normalized prerequisite names of a skill.
func (g *Graph) prerequisitesOf(name string) []string {
	var out []string
	for _, e := range g.edges {
		if e.Dependent == name {
			out = append(out, e.Prerequisite)
		}
	}
	return out
}
