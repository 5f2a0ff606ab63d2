// Package gemini implements the advisor port on top of Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// Generator answers prompts with a single GenerateContent call. No retries.
type Generator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// New builds a Generator. An empty model selects DefaultModel; a zero timeout means none
// beyond the caller's context.
func New(ctx context.Context, apiKey, model string, timeout time.Duration) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Generator{client: client, model: model, timeout: timeout}, nil
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	return resp.Text(), nil
}
