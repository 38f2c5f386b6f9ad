package skills

import "testing"

func TestNewGraph_DropsDanglingEdges(t *testing.T) {
	g := NewGraph(
		[]Skill{{Name: "SQL", EstimatedDays: 5}, {Name: "Spark", EstimatedDays: 10}},
		[]Edge{
			{Prerequisite: "SQL", Dependent: "Spark"},
			{Prerequisite: "SQL", Dependent: "Snowflake"}, // unknown dependent
			{Prerequisite: "Hadoop", Dependent: "Spark"},  // unknown prerequisite
			{Prerequisite: "SQL", Dependent: "SQL"},       // self edge
		},
	)
	if len(g.edges) != 1 {
		t.Fatalf("kept %d edges, want 1", len(g.edges))
	}
	if g.edges[0].Prerequisite != "sql" || g.edges[0].Dependent != "spark" {
		t.Errorf("kept edge = %+v, want sql->spark", g.edges[0])
	}
}

func TestGraph_LookupIsCaseInsensitive(t *testing.T) {
	g := DefaultGraph()
	if got := g.Lookup("  kubernetes "); got.Name != "Kubernetes" {
		t.Errorf("Lookup = %q, want Kubernetes", got.Name)
	}
	if got := g.EstimatedDays("DOCKER"); got != 5 {
		t.Errorf("EstimatedDays(DOCKER) = %d, want 5", got)
	}
}

func TestCatalog_EdgesReferenceKnownSkills(t *testing.T) {
	g := DefaultGraph()
	if len(g.edges) != len(CatalogEdges()) {
		t.Errorf("catalog graph kept %d of %d edges; catalog has a dangling reference",
			len(g.edges), len(CatalogEdges()))
	}
}
