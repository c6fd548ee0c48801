// Package inference defines the model capability contracts the engine
// depends on. The engine is agnostic to which concrete model backs each
// capability; providers live in internal/openai and internal/ollama.
package inference

import "context"

// Embedder maps text to a fixed-dimension dense vector. The same Embedder
// must be used at ingestion and at query time: mixing embedding models
// across the two is a correctness bug.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces text for a prompt. Used for text-to-SQL generation.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ZeroShotClassifier scores text against a set of candidate labels,
// returning a score in [0,1] per label.
type ZeroShotClassifier interface {
	ClassifyZeroShot(ctx context.Context, text string, labels []string) (map[string]float64, error)
}

// AnswerExtractor finds an answer span for a question within a context
// passage, returning the span and a confidence score in [0,1].
type AnswerExtractor interface {
	ExtractAnswer(ctx context.Context, question, passage string) (string, float64, error)
}

// Capabilities bundles the four model capabilities the engine needs.
// Initialized once at startup and passed explicitly into components.
type Capabilities struct {
	Embedder   Embedder
	Generator  Generator
	Classifier ZeroShotClassifier
	Extractor  AnswerExtractor
}
