// Package gemini provides embedding and chat providers backed by the
// Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	DefaultEmbeddingModel = "text-embedding-004"
	DefaultChatModel      = "gemini-1.5-flash"

	roleUser  = "user"
	roleModel = "model"
)

var (
	ErrNoAPIKey        = errors.New("GEMINI_API_KEY not set")
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrEmptyResponse   = errors.New("empty response from gemini")
	ErrLastMessageRole = errors.New("last message must come from the user")
)

// API is the subset of the Gemini SDK the providers use.
type API interface {
	EmbedText(ctx context.Context, model, text string) ([]float32, error)
	Generate(ctx context.Context, model string, system *genai.Content, history []*genai.Content, last *genai.Content) (string, error)
}

// SDKAdapter implements API with the official client.
type SDKAdapter struct {
	client *genai.Client
}

func NewSDKAdapter(ctx context.Context, apiKey string) (*SDKAdapter, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &SDKAdapter{client: client}, nil
}

func (a *SDKAdapter) Close() error {
	return a.client.Close()
}

func (a *SDKAdapter) EmbedText(ctx context.Context, model, text string) ([]float32, error) {
	res, err := a.client.EmbeddingModel(model).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, ErrEmptyResponse
	}
	return res.Embedding.Values, nil
}

func (a *SDKAdapter) Generate(ctx context.Context, model string, system *genai.Content, history []*genai.Content, last *genai.Content) (string, error) {
	gm := a.client.GenerativeModel(model)
	gm.SystemInstruction = system

	session := gm.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

// Embedder generates embeddings with one fixed Gemini model.
type Embedder struct {
	api   API
	model string
}

func NewEmbedder(api API, model string) *Embedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &Embedder{api: api, model: model}
}

func (e *Embedder) ModelName() string {
	return e.model
}

func (e *Embedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	vec, err := e.api.EmbedText(ctx, e.model, text)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding failed: %w", err)
	}
	return vec, nil
}

// Chat produces replies with one fixed Gemini model.
type Chat struct {
	api   API
	model string
}

func NewChat(api API, model string) *Chat {
	if model == "" {
		model = DefaultChatModel
	}
	return &Chat{api: api, model: model}
}

func (c *Chat) ModelName() string {
	return c.model
}

func (c *Chat) GenerateReply(ctx context.Context, messages []domain.Message) (domain.Message, error) {
	system, history, last, err := toContents(messages)
	if err != nil {
		return domain.Message{}, err
	}

	text, err := c.api.Generate(ctx, c.model, system, history, last)
	if err != nil {
		return domain.Message{}, fmt.Errorf("gemini chat failed: %w", err)
	}
	return domain.AssistantMessage(text), nil
}

// toContents maps chat messages onto Gemini's shape: every system message
// is merged into one system instruction, assistant becomes "model", and
// the final user message is split off to be sent.
func toContents(messages []domain.Message) (*genai.Content, []*genai.Content, *genai.Content, error) {
	var systemParts []string
	var turns []*genai.Content

	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			systemParts = append(systemParts, m.Content)
		case domain.RoleUser:
			turns = append(turns, &genai.Content{Role: roleUser, Parts: []genai.Part{genai.Text(m.Content)}})
		case domain.RoleAssistant:
			turns = append(turns, &genai.Content{Role: roleModel, Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			return nil, nil, nil, domain.ErrInvalidRole
		}
	}

	if len(turns) == 0 || turns[len(turns)-1].Role != roleUser {
		return nil, nil, nil, ErrLastMessageRole
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(systemParts, "\n\n"))}}
	}

	return system, turns[:len(turns)-1], turns[len(turns)-1], nil
}
