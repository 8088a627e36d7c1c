package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cloo-solutions/stylechat/internal/retry"
	"github.com/cloo-solutions/stylechat/internal/service"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	KnowledgeDir     string `envconfig:"KNOWLEDGE_DIR" default:"data/knowledge"`
	StyleDir         string `envconfig:"STYLE_DIR" default:"data/style"`
	StyleProfilePath string `envconfig:"STYLE_PROFILE" default:"style_profile.txt"`
	Persona          string `envconfig:"PERSONA"`

	Provider            string `envconfig:"PROVIDER" default:"openai"`
	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string `envconfig:"OPENAI_BASE_URL"`
	GeminiAPIKey        string `envconfig:"GEMINI_API_KEY"`
	// Empty model names fall back to the provider's defaults.
	ChatModel           string `envconfig:"CHAT_MODEL"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"0"`

	VectorStore string `envconfig:"VECTOR_STORE" default:"sqlite"`
	IndexPath   string `envconfig:"INDEX_PATH" default:".stylechat/index.db"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	Collection  string `envconfig:"COLLECTION" default:"knowledge"`

	ChunkSize     int `envconfig:"CHUNK_SIZE" default:"900"`
	ChunkOverlap  int `envconfig:"CHUNK_OVERLAP" default:"150"`
	ChunkMinChars int `envconfig:"CHUNK_MIN_CHARS" default:"50"`
	BatchSize     int `envconfig:"BATCH_SIZE" default:"64"`
	TopK          int `envconfig:"TOP_K" default:"5"`
	MaxTurns      int `envconfig:"MAX_TURNS" default:"20"`

	// Retries are opt-in; zero means every external call is tried once.
	RetryMaxAttempts     int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"0"`
	RetryInitialInterval time.Duration `envconfig:"RETRY_INITIAL_INTERVAL" default:"500ms"`
	RetryMaxInterval     time.Duration `envconfig:"RETRY_MAX_INTERVAL" default:"10s"`
	RateLimit            float64       `envconfig:"RATE_LIMIT" default:"0"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Prefix    string `envconfig:"S3_PREFIX"`

	APIToken        string        `envconfig:"API_TOKEN"`
	ReindexInterval time.Duration `envconfig:"REINDEX_INTERVAL" default:"0"`

	SentryDSN         string `envconfig:"SENTRY_DSN"`
	SentryEnvironment string `envconfig:"SENTRY_ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("STYLECHAT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Normalize lowercases the enum settings so later switches match exactly.
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.VectorStore = strings.ToLower(strings.TrimSpace(c.VectorStore))
}

// Validate normalizes enum values and checks them and the numeric ranges.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("invalid PROVIDER %q: want openai or gemini", c.Provider)
	}

	switch c.VectorStore {
	case StoreSQLite:
		if c.IndexPath == "" {
			return fmt.Errorf("INDEX_PATH is required for the sqlite vector store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres vector store")
		}
	default:
		return fmt.Errorf("invalid VECTOR_STORE %q: want sqlite or postgres", c.VectorStore)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap)
	}
	if c.ChunkMinChars < 0 || c.ChunkMinChars > c.ChunkSize {
		return fmt.Errorf("CHUNK_MIN_CHARS must be in [0, CHUNK_SIZE], got %d", c.ChunkMinChars)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	if c.MaxTurns <= 0 {
		return fmt.Errorf("MAX_TURNS must be positive, got %d", c.MaxTurns)
	}
	if c.RetryMaxAttempts < 0 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS cannot be negative, got %d", c.RetryMaxAttempts)
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Bucket != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != "" || c.OpenAIBaseURL != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

func (c *Config) UsesPostgres() bool {
	return c.VectorStore == StorePostgres
}

func (c *Config) ChunkConfig() service.ChunkConfig {
	return service.ChunkConfig{
		MaxChars: c.ChunkSize,
		Overlap:  c.ChunkOverlap,
		MinChars: c.ChunkMinChars,
	}
}

func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries:      c.RetryMaxAttempts,
		InitialInterval: c.RetryInitialInterval,
		MaxInterval:     c.RetryMaxInterval,
		RatePerSecond:   c.RateLimit,
		Burst:           1,
	}
}
