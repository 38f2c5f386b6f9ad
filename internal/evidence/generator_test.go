package evidence

import (
	"context"
	"errors"
	"testing"

	"github.com/skillvector/skillvector/internal/engine"
	"github.com/skillvector/skillvector/internal/skills"
)

type fakeChatter struct {
	response string
	err      error
	calls    int
}

func (f *fakeChatter) Chat(ctx context.Context, model string, messages []engine.Message, jsonSchema *engine.Schema) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestProjects_CatalogAndFallback(t *testing.T) {
	g := NewGenerator(nil, "")
	steps := []skills.Step{
		{Skill: "Docker", EstimatedWeeks: 1},
		{Skill: "Quantum Computing", EstimatedWeeks: 3},
	}

	projects := g.Projects(steps)
	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}
	if projects[0].Title != "Dockerize a FastAPI Application" {
		t.Errorf("Docker project = %q, want catalog entry", projects[0].Title)
	}
	if projects[1].Skill != "Quantum Computing" || len(projects[1].Deliverables) == 0 {
		t.Errorf("fallback project = %+v, want generic entry with deliverables", projects[1])
	}
	if projects[1].EstimatedWeeks != 3 {
		t.Errorf("fallback weeks = %d, want step estimate 3", projects[1].EstimatedWeeks)
	}
}

func TestProjects_EmptyPath(t *testing.T) {
	g := NewGenerator(nil, "")
	projects := g.Projects(nil)
	if projects == nil {
		t.Fatal("projects should be empty, not nil")
	}
	if len(projects) != 0 {
		t.Errorf("got %d projects, want 0", len(projects))
	}
}

func TestRubrics(t *testing.T) {
	g := NewGenerator(nil, "")
	rubrics := g.Rubrics([]string{"Kubernetes", "Quantum Computing"})

	if len(rubrics) != 2 {
		t.Fatalf("got %d rubrics, want 2", len(rubrics))
	}
	for _, r := range rubrics {
		if r.TotalPoints != 100 {
			t.Errorf("%s total = %d, want 100", r.Skill, r.TotalPoints)
		}
		total := 0
		for _, c := range r.Criteria {
			total += c.Weight
		}
		if total != 100 {
			t.Errorf("%s criteria weights sum to %d, want 100", r.Skill, total)
		}
	}
	if rubrics[0].Criteria[0].Name != "Manifest Quality" {
		t.Errorf("Kubernetes rubric = %q, want catalog criteria", rubrics[0].Criteria[0].Name)
	}
}

func TestInterview_LLMQuestions(t *testing.T) {
	chatter := &fakeChatter{
		response: `{"questions":["Q1","Q2","Q3","Q4","Q5"]}`,
	}
	g := NewGenerator(chatter, "chat-model")

	preps := g.Interview(context.Background(), []string{"Kubernetes"}, "platform team role")
	if len(preps) != 1 {
		t.Fatalf("got %d preps, want 1", len(preps))
	}
	if len(preps[0].Questions) != 5 || preps[0].Questions[0] != "Q1" {
		t.Errorf("questions = %v, want LLM output", preps[0].Questions)
	}
	if preps[0].Difficulty != "Advanced" {
		t.Errorf("difficulty = %q, want Advanced", preps[0].Difficulty)
	}
	if len(preps[0].Tips) == 0 {
		t.Error("expected preparation tips")
	}
}

func TestInterview_FallsBackOnLLMError(t *testing.T) {
	chatter := &fakeChatter{err: errors.New("model offline")}
	g := NewGenerator(chatter, "m")

	preps := g.Interview(context.Background(), []string{"Docker"}, "")
	if len(preps) != 1 {
		t.Fatalf("got %d preps, want 1", len(preps))
	}
	if len(preps[0].Questions) != 5 {
		t.Fatalf("questions = %v, want 5 catalog questions", preps[0].Questions)
	}
	if preps[0].Questions[0] != "What is the difference between a Docker image and a container?" {
		t.Errorf("questions[0] = %q, want catalog question", preps[0].Questions[0])
	}
}

func TestInterview_FallsBackOnMalformedJSON(t *testing.T) {
	chatter := &fakeChatter{response: "here are some questions..."}
	g := NewGenerator(chatter, "m")

	preps := g.Interview(context.Background(), []string{"Docker"}, "")
	if len(preps[0].Questions) != 5 {
		t.Errorf("questions = %v, want catalog fallback", preps[0].Questions)
	}
}

func TestInterview_NilClientUsesCatalog(t *testing.T) {
	g := NewGenerator(nil, "")

	preps := g.Interview(context.Background(), []string{"Some Framework"}, "")
	if len(preps) != 1 {
		t.Fatalf("got %d preps, want 1", len(preps))
	}
	if len(preps[0].Questions) != 5 {
		t.Errorf("questions = %v, want 5 generic questions", preps[0].Questions)
	}
	if preps[0].Difficulty != "Foundational" {
		t.Errorf("difficulty = %q, want Foundational for unknown skill", preps[0].Difficulty)
	}
}

func TestInterview_TruncatesExcessQuestions(t *testing.T) {
	chatter := &fakeChatter{
		response: `{"questions":["1","2","3","4","5","6","7"]}`,
	}
	g := NewGenerator(chatter, "m")

	preps := g.Interview(context.Background(), []string{"Go"}, "")
	if len(preps[0].Questions) != questionsPerSkill {
		t.Errorf("got %d questions, want %d", len(preps[0].Questions), questionsPerSkill)
	}
}
