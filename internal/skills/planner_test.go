package skills

import (
	"context"
	"errors"
	"testing"
)

// fakeSource returns a fixed graph or an error.
type fakeSource struct {
	graph *Graph
	err   error
	calls int
}

func (f *fakeSource) Graph(ctx context.Context) (*Graph, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.graph, nil
}

func chainGraph() *Graph {
	return NewGraph(
		[]Skill{
			{Name: "Python", Category: "language", EstimatedDays: 7},
			{Name: "Docker", Category: "devops", EstimatedDays: 5},
			{Name: "Kubernetes", Category: "devops", EstimatedDays: 7},
		},
		[]Edge{
			{Prerequisite: "Python", Dependent: "Docker"},
			{Prerequisite: "Docker", Dependent: "Kubernetes"},
		},
	)
}

func indexOf(steps []Step, skill string) int {
	for i, s := range steps {
		if s.Skill == skill {
			return i
		}
	}
	return -1
}

func TestPlan_ChainOrder(t *testing.T) {
	p := NewPlanner(&fakeSource{graph: chainGraph()})

	path := p.Plan(context.Background(), []string{"Docker", "Kubernetes", "Python"}, nil)

	want := []string{"Python", "Docker", "Kubernetes"}
	if len(path.Steps) != len(want) {
		t.Fatalf("got %d steps, want %d", len(path.Steps), len(want))
	}
	for i, w := range want {
		if path.Steps[i].Skill != w {
			t.Errorf("step %d = %q, want %q", i, path.Steps[i].Skill, w)
		}
	}
	if path.Degraded {
		t.Error("path marked degraded with a healthy source")
	}
	// A pure chain's critical path equals the flat sum.
	if path.CriticalPathDays != 19 || path.TotalDays != 19 {
		t.Errorf("critical=%d total=%d, want 19/19", path.CriticalPathDays, path.TotalDays)
	}
}

func TestPlan_EachSkillExactlyOnce(t *testing.T) {
	p := NewPlanner(nil) // built-in catalog

	missing := []string{"Kubernetes", "React", "Airflow", "Kubernetes"}
	path := p.Plan(context.Background(), missing, nil)

	seen := map[string]int{}
	for _, s := range path.Steps {
		seen[s.Skill]++
	}
	for _, m := range []string{"Kubernetes", "React", "Airflow"} {
		if seen[m] != 1 {
			t.Errorf("skill %q appears %d times, want 1", m, seen[m])
		}
	}
}

func TestPlan_PrerequisitesComeFirst(t *testing.T) {
	p := NewPlanner(nil)

	path := p.Plan(context.Background(), []string{"Kubernetes", "Terraform"}, nil)

	// Catalog pulls Linux, Docker and AWS transitively.
	pairs := [][2]string{
		{"Linux", "Docker"},
		{"Docker", "Kubernetes"},
		{"Linux", "AWS"},
		{"AWS", "Terraform"},
	}
	for _, pr := range pairs {
		pre, dep := indexOf(path.Steps, pr[0]), indexOf(path.Steps, pr[1])
		if pre == -1 || dep == -1 {
			t.Fatalf("plan missing %q or %q: %+v", pr[0], pr[1], path.Steps)
		}
		if pre >= dep {
			t.Errorf("%q at %d not before %q at %d", pr[0], pre, pr[1], dep)
		}
	}
}

func TestPlan_PossessedPrerequisitesExcluded(t *testing.T) {
	p := NewPlanner(nil)

	path := p.Plan(context.Background(), []string{"Kubernetes"}, []string{"linux", "Docker"})

	if got := indexOf(path.Steps, "Linux"); got != -1 {
		t.Errorf("possessed skill Linux pulled into plan at %d", got)
	}
	if got := indexOf(path.Steps, "Docker"); got != -1 {
		t.Errorf("possessed skill Docker pulled into plan at %d", got)
	}
	if len(path.Steps) != 1 || path.Steps[0].Skill != "Kubernetes" {
		t.Fatalf("steps = %+v, want just Kubernetes", path.Steps)
	}
}

func TestPlan_SourceUnavailableFallsBack(t *testing.T) {
	src := &fakeSource{err: errors.New("graph store unreachable")}
	p := NewPlanner(src)

	path := p.Plan(context.Background(), []string{"Airflow"}, []string{"Python", "SQL"})

	if !path.Degraded {
		t.Error("path not marked degraded after source failure")
	}
	if src.calls != 2 {
		t.Errorf("source called %d times, want 2 (one retry)", src.calls)
	}
	if len(path.Steps) != 1 || path.Steps[0].Skill != "Airflow" {
		t.Fatalf("steps = %+v, want single Airflow step", path.Steps)
	}
	if path.Steps[0].EstimatedDays != 7 {
		t.Errorf("Airflow days = %d, want catalog default 7", path.Steps[0].EstimatedDays)
	}
}

func TestPlan_CycleTerminates(t *testing.T) {
	g := NewGraph(
		[]Skill{
			{Name: "A", EstimatedDays: 3},
			{Name: "B", EstimatedDays: 5},
			{Name: "C", EstimatedDays: 7},
		},
		[]Edge{
			{Prerequisite: "A", Dependent: "B"},
			{Prerequisite: "B", Dependent: "C"},
			{Prerequisite: "C", Dependent: "A"},
		},
	)
	p := NewPlanner(&fakeSource{graph: g})

	path := p.Plan(context.Background(), []string{"A", "B", "C"}, nil)

	if len(path.Steps) != 3 {
		t.Fatalf("got %d steps, want 3 (total ordering despite cycle)", len(path.Steps))
	}
	seen := map[string]bool{}
	for _, s := range path.Steps {
		if seen[s.Skill] {
			t.Errorf("skill %q repeated", s.Skill)
		}
		seen[s.Skill] = true
	}
}

func TestPlan_TieBreakByDurationThenName(t *testing.T) {
	g := NewGraph(
		[]Skill{
			{Name: "Gamma", EstimatedDays: 4},
			{Name: "Alpha", EstimatedDays: 9},
			{Name: "Beta", EstimatedDays: 4},
		},
		nil, // no edges: everything ready at once
	)
	p := NewPlanner(&fakeSource{graph: g})

	path := p.Plan(context.Background(), []string{"Alpha", "Beta", "Gamma"}, nil)

	want := []string{"Beta", "Gamma", "Alpha"}
	for i, w := range want {
		if path.Steps[i].Skill != w {
			t.Errorf("step %d = %q, want %q", i, path.Steps[i].Skill, w)
		}
	}
}

func TestPlan_CriticalPathOnParallelBranches(t *testing.T) {
	g := NewGraph(
		[]Skill{
			{Name: "Base", EstimatedDays: 2},
			{Name: "Left", EstimatedDays: 10},
			{Name: "Right", EstimatedDays: 3},
		},
		[]Edge{
			{Prerequisite: "Base", Dependent: "Left"},
			{Prerequisite: "Base", Dependent: "Right"},
		},
	)
	p := NewPlanner(&fakeSource{graph: g})

	path := p.Plan(context.Background(), []string{"Base", "Left", "Right"}, nil)

	if path.TotalDays != 15 {
		t.Errorf("TotalDays = %d, want flat sum 15", path.TotalDays)
	}
	if path.CriticalPathDays != 12 {
		t.Errorf("CriticalPathDays = %d, want 12 (Base+Left)", path.CriticalPathDays)
	}
	if path.TotalWeeks != 2 {
		t.Errorf("TotalWeeks = %d, want 2", path.TotalWeeks)
	}
}

func TestPlan_EmptyInput(t *testing.T) {
	p := NewPlanner(nil)
	path := p.Plan(context.Background(), nil, nil)
	if path.Steps == nil || len(path.Steps) != 0 {
		t.Fatalf("steps = %#v, want empty non-nil slice", path.Steps)
	}
}

func TestPlan_UnknownSkillGetsDefaultDuration(t *testing.T) {
	p := NewPlanner(nil)
	path := p.Plan(context.Background(), []string{"Quantum Basketweaving"}, nil)
	if len(path.Steps) != 1 {
		t.Fatalf("got %d steps, want 1", len(path.Steps))
	}
	if path.Steps[0].EstimatedDays != defaultEstimatedDays {
		t.Errorf("days = %d, want default %d", path.Steps[0].EstimatedDays, defaultEstimatedDays)
	}
}

func TestDaysToWeeks(t *testing.T) {
	cases := []struct{ days, weeks int }{
		{0, 0},
		{1, 1},
		{3, 1},
		{7, 1},
		{10, 1},
		{11, 2},
		{14, 2},
		{19, 3},
	}
	for _, c := range cases {
		if got := daysToWeeks(c.days); got != c.weeks {
			t.Errorf("daysToWeeks(%d) = %d, want %d", c.days, got, c.weeks)
		}
	}
}
