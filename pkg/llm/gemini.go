// Package llm provides LLM provider implementations.
package llm

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// Provider is the chat-completion capability consumed by the agent.
type Provider interface {
	// Generate produces a response given a prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Usage reports token consumption of one call, used for cost
// accounting in the curation pipeline.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// GeminiProvider implements Provider using Google GenAI Gemini.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey string // If empty, uses GOOGLE_API_KEY env var
	Model  string // e.g., "gemini-3-pro"
}

// DefaultGeminiConfig returns default configuration.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{}
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = os.Getenv("GOOGLE_MODEL")
	}
	if model == "" {
		model = "gemini-3-pro"
	}

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

// Generate produces a response from Gemini using the default model.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	text, _, err := p.GenerateModel(ctx, p.model, prompt, 0)
	return text, err
}

// GenerateModel produces a response from a specific model, returning
// token usage alongside the text. maxTokens caps the response when
// positive.
func (p *GeminiProvider) GenerateModel(ctx context.Context, model, prompt string, maxTokens int) (string, Usage, error) {
	var config *genai.GenerateContentConfig
	if maxTokens > 0 {
		config = &genai.GenerateContentConfig{MaxOutputTokens: int32(maxTokens)}
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", Usage{}, fmt.Errorf("gemini generate failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", Usage{}, fmt.Errorf("no response from gemini")
	}

	// Extract text from response
	var result string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			result += part.Text
		}
	}

	var usage Usage
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return result, usage, nil
}

// Close closes the provider.
func (p *GeminiProvider) Close() {
	// Client doesn't need explicit close in current SDK
}

// Model returns the model name.
func (p *GeminiProvider) Model() string {
	return p.model
}
