// Package openai backs the engine's model capabilities with the OpenAI API:
// embeddings for the vector index, chat completions for SQL generation,
// zero-shot classification, and extractive answering.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ekamlabs/ekamquery/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel is the chat model backing generation, classification, and extraction
	DefaultChatModel = "gpt-4o-mini"
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// API is the slice of the OpenAI surface the client depends on
type API interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
	Complete(ctx context.Context, system, user string) (string, error)
}

// Client implements the inference capability contracts on top of OpenAI
type Client struct {
	api        API
	dimensions int
}

// Adapter wraps the go-openai client behind the API interface
type Adapter struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
}

func NewAdapter(apiKey string, embeddingModel openai.EmbeddingModel, chatModel string) *Adapter {
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	return &Adapter{
		client:         openai.NewClient(apiKey),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}
}

// CreateEmbeddings calls the OpenAI API to create an embedding
func (a *Adapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// Complete runs a single-turn chat completion at temperature zero
func (a *Adapter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.chatModel,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// Config holds OpenAI client configuration
type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	ChatModel           string
	EmbeddingDimensions int
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{
		api:        NewAdapter(cfg.APIKey, cfg.EmbeddingModel, cfg.ChatModel),
		dimensions: dimensions,
	}
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Embed generates an embedding for the given text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.api.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(embedding) != c.dimensions {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

const generateSystemPrompt = "You are a SQL generator. " +
	"Respond with exactly one SQL statement and nothing else: no markdown fences, no commentary."

// Generate produces one completion for the given prompt
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyText
	}

	text, err := c.api.Complete(ctx, generateSystemPrompt, prompt)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeInferenceFailure, "completion failed", err)
	}

	return strings.TrimSpace(stripCodeFence(text)), nil
}

const classifySystemPrompt = "You are a zero-shot text classifier. " +
	"Score how well the input matches each candidate label, independently, between 0 and 1. " +
	"Respond with a single JSON object mapping each label to its score and nothing else."

// ClassifyZeroShot scores the text against each candidate label
func (c *Client) ClassifyZeroShot(ctx context.Context, text string, labels []string) (map[string]float64, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	user := fmt.Sprintf("Labels: %s\n\nInput: %s", strings.Join(labels, ", "), text)
	raw, err := c.api.Complete(ctx, classifySystemPrompt, user)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInferenceFailure, "classification failed", err)
	}

	var parsed map[string]float64
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInferenceFailure,
			"classifier returned unparseable scores", err)
	}

	scores := make(map[string]float64, len(labels))
	for _, label := range labels {
		scores[label] = clampScore(parsed[label])
	}
	return scores, nil
}

const extractSystemPrompt = "You are an extractive question answering system. " +
	"Given a question and a context passage, answer using only information from the passage. " +
	"Respond with a single JSON object {\"answer\": string, \"score\": number} where score is your " +
	"confidence between 0 and 1. If the passage does not contain the answer, use an empty answer and score 0."

type extractedAnswer struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
}

// ExtractAnswer finds an answer span for the question within the passage
func (c *Client) ExtractAnswer(ctx context.Context, question, passage string) (string, float64, error) {
	if question == "" || passage == "" {
		return "", 0, ErrEmptyText
	}

	user := fmt.Sprintf("Question: %s\n\nContext:\n%s", question, passage)
	raw, err := c.api.Complete(ctx, extractSystemPrompt, user)
	if err != nil {
		return "", 0, domain.NewDomainErrorWithCause(domain.ErrCodeInferenceFailure, "extraction failed", err)
	}

	var parsed extractedAnswer
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return "", 0, domain.NewDomainErrorWithCause(domain.ErrCodeInferenceFailure,
			"extractor returned unparseable answer", err)
	}

	return parsed.Answer, clampScore(parsed.Score), nil
}

// stripCodeFence removes a surrounding markdown code fence if the model
// added one despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
