package inference

import (
	"context"
	"errors"
	"time"

	"github.com/ekamlabs/ekamquery/internal/domain"
)

// Bound wraps every capability with a per-invocation deadline. A call that
// exceeds the deadline fails with an INFERENCE_TIMEOUT domain error instead
// of hanging the request.
func Bound(caps Capabilities, timeout time.Duration) Capabilities {
	if timeout <= 0 {
		return caps
	}
	out := caps
	if caps.Embedder != nil {
		out.Embedder = &timeoutEmbedder{inner: caps.Embedder, timeout: timeout}
	}
	if caps.Generator != nil {
		out.Generator = &timeoutGenerator{inner: caps.Generator, timeout: timeout}
	}
	if caps.Classifier != nil {
		out.Classifier = &timeoutClassifier{inner: caps.Classifier, timeout: timeout}
	}
	if caps.Extractor != nil {
		out.Extractor = &timeoutExtractor{inner: caps.Extractor, timeout: timeout}
	}
	return out
}

type timeoutEmbedder struct {
	inner   Embedder
	timeout time.Duration
}

func (t *timeoutEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	vec, err := t.inner.Embed(ctx, text)
	if err != nil {
		return nil, mapTimeout(ctx, err)
	}
	return vec, nil
}

type timeoutGenerator struct {
	inner   Generator
	timeout time.Duration
}

func (t *timeoutGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	text, err := t.inner.Generate(ctx, prompt)
	if err != nil {
		return "", mapTimeout(ctx, err)
	}
	return text, nil
}

type timeoutClassifier struct {
	inner   ZeroShotClassifier
	timeout time.Duration
}

func (t *timeoutClassifier) ClassifyZeroShot(ctx context.Context, text string, labels []string) (map[string]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	scores, err := t.inner.ClassifyZeroShot(ctx, text, labels)
	if err != nil {
		return nil, mapTimeout(ctx, err)
	}
	return scores, nil
}

type timeoutExtractor struct {
	inner   AnswerExtractor
	timeout time.Duration
}

func (t *timeoutExtractor) ExtractAnswer(ctx context.Context, question, passage string) (string, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	span, score, err := t.inner.ExtractAnswer(ctx, question, passage)
	if err != nil {
		return "", 0, mapTimeout(ctx, err)
	}
	return span, score, nil
}

// mapTimeout converts a deadline hit on the bounded context into the
// INFERENCE_TIMEOUT taxonomy; other errors pass through untouched.
func mapTimeout(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeInferenceTimeout,
			"model inference exceeded its deadline", err)
	}
	return err
}
