package ai

import (
	"context"
	"fmt"

	"retention-analyzer/internal/models"
	"retention-analyzer/shared/config"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Generator sends one prompt to a text model and returns its raw answer.
type Generator interface {
	Source() models.ReportSource
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFactory builds a Generator for a stored analysis key. Keys can
// change between runs, so a client is built per request.
type GeneratorFactory func(ctx context.Context, apiKey string) (Generator, error)

// NewGeneratorFactory returns the factory for the configured provider.
func NewGeneratorFactory(cfg config.AIConfig) GeneratorFactory {
	return func(ctx context.Context, apiKey string) (Generator, error) {
		switch cfg.Provider {
		case config.ProviderOpenAI:
			return NewOpenAIGenerator(apiKey, cfg.Model, cfg.BaseURL), nil
		case config.ProviderGemini, "":
			return NewGeminiGenerator(ctx, apiKey, cfg.Model, cfg.BaseURL)
		}
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}

type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model, baseURL string) (*GeminiGenerator, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Source() models.ReportSource {
	return models.ReportSourceGemini
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		// Usually content filtering or a truncated candidate
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator talks to the OpenAI chat completions API or any
// compatible gateway at baseURL.
func NewOpenAIGenerator(apiKey, model, baseURL string) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

func (g *OpenAIGenerator) Source() models.ReportSource {
	return models.ReportSourceOpenAI
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai returned an empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
