// Package ollama backs the engine's model capabilities with a local Ollama
// server, as an alternative to the OpenAI provider.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ekamlabs/ekamquery/internal/domain"
	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// Client implements the inference capability contracts using the Ollama API.
type Client struct {
	client     *api.Client
	chatModel  string
	embedModel string
}

// Config holds Ollama client configuration.
type Config struct {
	Host       string
	ChatModel  string
	EmbedModel string
}

// NewClient creates a new Ollama client. An empty host falls back to the
// OLLAMA_HOST environment variable handled by the Ollama SDK.
func NewClient(cfg Config) (*Client, error) {
	hostURL := envconfig.Host()
	if cfg.Host != "" {
		parsed, err := url.Parse(cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", cfg.Host, err)
		}
		hostURL = parsed
	}

	return &Client{
		client:     api.NewClient(hostURL, http.DefaultClient),
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbedModel,
	}, nil
}

// Embed generates an embedding for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	req := api.EmbeddingRequest{
		Model:  c.embedModel,
		Prompt: text,
	}

	resp, err := c.client.Embeddings(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	embedding := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// Generate produces one completion for the given prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt)
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := api.GenerateRequest{
		Model:  c.chatModel,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": 0.0,
		},
	}

	var responseBuilder strings.Builder
	err := c.client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return strings.TrimSpace(responseBuilder.String()), nil
}

const classifyPromptFormat = "Score how well the input matches each of these labels, independently, " +
	"between 0 and 1. Respond with a single JSON object mapping each label to its score and nothing else.\n\n" +
	"Labels: %s\n\nInput: %s\n\nJSON:"

// ClassifyZeroShot scores the text against each candidate label.
func (c *Client) ClassifyZeroShot(ctx context.Context, text string, labels []string) (map[string]float64, error) {
	raw, err := c.generate(ctx, fmt.Sprintf(classifyPromptFormat, strings.Join(labels, ", "), text))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInferenceFailure, "classification failed", err)
	}

	var parsed map[string]float64
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInferenceFailure,
			"classifier returned unparseable scores", err)
	}

	scores := make(map[string]float64, len(labels))
	for _, label := range labels {
		scores[label] = clamp01(parsed[label])
	}
	return scores, nil
}

const extractPromptFormat = "Answer the question using only information from the context passage. " +
	"Respond with a single JSON object {\"answer\": string, \"score\": number} where score is your confidence " +
	"between 0 and 1. If the passage does not contain the answer, use an empty answer and score 0.\n\n" +
	"Question: %s\n\nContext:\n%s\n\nJSON:"

// ExtractAnswer finds an answer span for the question within the passage.
func (c *Client) ExtractAnswer(ctx context.Context, question, passage string) (string, float64, error) {
	raw, err := c.generate(ctx, fmt.Sprintf(extractPromptFormat, question, passage))
	if err != nil {
		return "", 0, domain.NewDomainErrorWithCause(domain.ErrCodeInferenceFailure, "extraction failed", err)
	}

	var parsed struct {
		Answer string  `json:"answer"`
		Score  float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return "", 0, domain.NewDomainErrorWithCause(domain.ErrCodeInferenceFailure,
			"extractor returned unparseable answer", err)
	}

	return parsed.Answer, clamp01(parsed.Score), nil
}

// extractJSON pulls the first JSON object out of a completion that may be
// wrapped in prose or a code fence.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
