package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Target relational store: introspected for schema discovery, queried by
	// generated SQL, and home of the vector index and query log.
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Inference provider selection: "openai" or "ollama".
	InferenceProvider string `envconfig:"INFERENCE_PROVIDER" default:"openai"`

	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	OpenAIChatModel string `envconfig:"OPENAI_CHAT_MODEL" default:"gpt-4o-mini"`

	OllamaHost       string `envconfig:"OLLAMA_HOST"`
	OllamaChatModel  string `envconfig:"OLLAMA_CHAT_MODEL" default:"llama3.1"`
	OllamaEmbedModel string `envconfig:"OLLAMA_EMBED_MODEL" default:"nomic-embed-text"`

	EmbeddingDimensions int           `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	InferenceTimeout    time.Duration `envconfig:"INFERENCE_TIMEOUT" default:"30s"`

	ChunkMaxChars int `envconfig:"CHUNK_MAX_CHARS" default:"1200"`
	ChunkOverlap  int `envconfig:"CHUNK_OVERLAP" default:"200"`

	RetrievalTopK   int     `envconfig:"RETRIEVAL_TOP_K" default:"5"`
	SimilarityFloor float64 `envconfig:"SIMILARITY_FLOOR" default:"0.1"`

	SQLTimeout time.Duration `envconfig:"SQL_TIMEOUT" default:"10s"`
	SQLMaxRows int           `envconfig:"SQL_MAX_ROWS" default:"500"`

	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"300s"`
	CacheMaxSize int           `envconfig:"CACHE_MAX_SIZE" default:"1000"`
	RedisURL     string        `envconfig:"REDIS_URL"`

	// Optional S3-compatible archival of raw uploads
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"ekam-uploads"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("EKAM", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}
