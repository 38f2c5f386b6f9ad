package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// Gemini is an Engine backed by the hosted Gemini API.
type Gemini struct {
	client *genai.Client
}

var _ Engine = (*Gemini)(nil)

// NewGemini creates a Gemini engine authenticated with the given API key.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

// Chat sends messages to the given model. System messages become the system
// instruction; the remainder map to user/model turns. A non-nil jsonSchema
// requests a JSON response and is echoed into the prompt so the model knows
// the expected shape.
func (g *Gemini) Chat(ctx context.Context, model string, messages []Message, jsonSchema *Schema) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	var contents []*genai.Content

	for _, m := range messages {
		switch m.Role {
		case "system":
			cfg.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: m.Content}},
			}
		case "assistant":
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}

	if jsonSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		if hint, err := json.Marshal(jsonSchema); err == nil && len(contents) > 0 {
			last := contents[len(contents)-1]
			last.Parts = append(last.Parts, &genai.Part{
				Text: fmt.Sprintf("\nRespond with JSON matching this schema:\n%s", hint),
			})
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini chat: %w", err)
	}
	return resp.Text(), nil
}

// Embed returns the embedding vector for the given text.
func (g *Gemini) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	contents := []*genai.Content{{Parts: []*genai.Part{{Text: text}}}}
	resp, err := g.client.Models.EmbedContent(ctx, model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini embed: empty embedding response")
	}
	return resp.Embeddings[0].Values, nil
}

// IsRunning reports whether the hosted backend is usable. There is no cheap
// unauthenticated probe, so a configured client is treated as reachable;
// real failures surface on the first Chat or Embed call.
func (g *Gemini) IsRunning(ctx context.Context) bool {
	return g.client != nil
}
