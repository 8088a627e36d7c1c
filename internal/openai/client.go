package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloo-solutions/stylechat/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)
	DefaultChatModel      = openai.GPT4oMini
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding does not have the configured length
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoAPIKey is returned when neither an API key nor a custom base URL is configured
	ErrNoAPIKey = errors.New("OPENAI_API_KEY not set and no OPENAI_BASE_URL configured")
	// ErrNoMessages is returned when a chat request has no messages
	ErrNoMessages = errors.New("chat request has no messages")
	// ErrEmptyResponse is returned when the API answers without data
	ErrEmptyResponse = errors.New("empty response from API")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, model, text string) ([]float32, error)
}

// ChatAPI defines the interface for chat completions
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, model string, messages []domain.Message) (string, error)
}

// OpenAIAdapter talks to OpenAI or any OpenAI-compatible server such as
// Ollama's /v1 endpoint.
type OpenAIAdapter struct {
	client *openai.Client
}

func NewOpenAIAdapter(apiKey, baseURL string) *OpenAIAdapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIAdapter{client: openai.NewClientWithConfig(cfg)}
}

// CreateEmbeddings calls the embeddings endpoint for a single input
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, model, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, ErrEmptyResponse
	}

	return resp.Data[0].Embedding, nil
}

// CreateChatCompletion calls the chat completions endpoint
func (a *OpenAIAdapter) CreateChatCompletion(ctx context.Context, model string, messages []domain.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      string
	ChatModel           string
	EmbeddingDimensions int
}

func (c Config) validate() error {
	if c.APIKey == "" && c.BaseURL == "" {
		return ErrNoAPIKey
	}
	return nil
}

// Embedder generates embeddings with one fixed model.
type Embedder struct {
	api        EmbeddingAPI
	model      string
	dimensions int
}

// NewEmbedder creates an embedder. Dimensions of 0 disable the length check.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &Embedder{
		api:        NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL),
		model:      model,
		dimensions: cfg.EmbeddingDimensions,
	}, nil
}

func (e *Embedder) ModelName() string {
	return e.model
}

// GenerateEmbedding generates an embedding for the given text
func (e *Embedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := e.api.CreateEmbeddings(ctx, e.model, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if e.dimensions > 0 && len(embedding) != e.dimensions {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrWrongDimensions, len(embedding), e.dimensions)
	}

	return embedding, nil
}

// Chat produces replies with one fixed model.
type Chat struct {
	api   ChatAPI
	model string
}

func NewChat(cfg Config) (*Chat, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	model := cfg.ChatModel
	if model == "" {
		model = DefaultChatModel
	}
	return &Chat{
		api:   NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL),
		model: model,
	}, nil
}

func (c *Chat) ModelName() string {
	return c.model
}

// GenerateReply sends the conversation and returns the assistant message
func (c *Chat) GenerateReply(ctx context.Context, messages []domain.Message) (domain.Message, error) {
	if len(messages) == 0 {
		return domain.Message{}, ErrNoMessages
	}

	content, err := c.api.CreateChatCompletion(ctx, c.model, messages)
	if err != nil {
		return domain.Message{}, fmt.Errorf("failed to create chat completion: %w", err)
	}

	return domain.AssistantMessage(content), nil
}
