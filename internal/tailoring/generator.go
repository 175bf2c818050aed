package tailoring

import (
	"context"

	"github.com/jonathan/resume-tailor/internal/llm"
)

// Generator produces a labeled plain-text response for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMGenerator generates sections with an LLM client
type LLMGenerator struct {
	Client llm.Client
	Tier   llm.ModelTier
}

// NewLLMGenerator uses the advanced tier for section rewriting.
func NewLLMGenerator(client llm.Client) *LLMGenerator {
	return &LLMGenerator{Client: client, Tier: llm.TierAdvanced}
}

// Generate calls the model and strips any code fence around the answer.
func (g *LLMGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := g.Client.GenerateContent(ctx, prompt, g.Tier)
	if err != nil {
		return "", &GenerationError{Message: "model call failed", Cause: err}
	}
	return llm.StripCodeFence(text), nil
}
