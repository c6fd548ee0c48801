package inference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ekamlabs/ekamquery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowEmbedder blocks until its context is done.
type slowEmbedder struct{}

func (s *slowEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// fastGenerator returns immediately.
type fastGenerator struct{}

func (f *fastGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "SELECT 1", nil
}

// failingClassifier returns a non-timeout error.
type failingClassifier struct{}

func (f *failingClassifier) ClassifyZeroShot(ctx context.Context, text string, labels []string) (map[string]float64, error) {
	return nil, errors.New("model unavailable")
}

func TestBound_TimeoutMapsToDomainError(t *testing.T) {
	caps := Bound(Capabilities{Embedder: &slowEmbedder{}}, 10*time.Millisecond)

	_, err := caps.Embedder.Embed(context.Background(), "some text")
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domain.ErrCodeInferenceTimeout, domainErr.Code)
}

func TestBound_FastCallSucceeds(t *testing.T) {
	caps := Bound(Capabilities{Generator: &fastGenerator{}}, time.Second)

	text, err := caps.Generator.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", text)
}

func TestBound_NonTimeoutErrorPassesThrough(t *testing.T) {
	caps := Bound(Capabilities{Classifier: &failingClassifier{}}, time.Second)

	_, err := caps.Classifier.ClassifyZeroShot(context.Background(), "q", []string{"a", "b"})
	require.Error(t, err)

	var domainErr *domain.DomainError
	assert.False(t, errors.As(err, &domainErr))
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestBound_ZeroTimeoutLeavesCapabilitiesUnchanged(t *testing.T) {
	gen := &fastGenerator{}
	caps := Bound(Capabilities{Generator: gen}, 0)
	assert.Equal(t, Generator(gen), caps.Generator)
}

func TestBound_NilCapabilitiesStayNil(t *testing.T) {
	caps := Bound(Capabilities{}, time.Second)
	assert.Nil(t, caps.Embedder)
	assert.Nil(t, caps.Generator)
	assert.Nil(t, caps.Classifier)
	assert.Nil(t, caps.Extractor)
}
