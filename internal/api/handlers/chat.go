package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/cloo-solutions/stylechat/internal/api"
	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/cloo-solutions/stylechat/internal/service"
)

type Searcher interface {
	RetrieveK(ctx context.Context, query string, k int) (*service.Retrieval, error)
}

type TurnService interface {
	Turn(ctx context.Context, conv domain.Conversation, input string) (domain.Conversation, *service.TurnResult, error)
}

// ChatHandler serves retrieval and chat turns. It holds no conversation
// state: each chat request carries its own history.
type ChatHandler struct {
	search  Searcher
	chat    TurnService
	persona string
	topK    int
	mu      *sync.RWMutex
}

// NewChatHandler returns a handler that takes mu's read lock around every
// store access. mu is shared with the index rebuild paths.
func NewChatHandler(search Searcher, chat TurnService, persona string, topK int, mu *sync.RWMutex) *ChatHandler {
	if mu == nil {
		mu = &sync.RWMutex{}
	}
	if topK <= 0 {
		topK = service.DefaultTopK
	}
	return &ChatHandler{search: search, chat: chat, persona: persona, topK: topK, mu: mu}
}

type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

type SearchResultResponse struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Index  int     `json:"chunk_index"`
	Score  float32 `json:"score"`
	Text   string  `json:"text"`
}

type SearchResponse struct {
	Context string                  `json:"context"`
	Sources []string                `json:"sources"`
	Results []*SearchResultResponse `json:"results"`
}

func (h *ChatHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	k := req.K
	if k <= 0 {
		k = h.topK
	}

	h.mu.RLock()
	retrieval, err := h.search.RetrieveK(r.Context(), req.Query, k)
	h.mu.RUnlock()
	if err != nil {
		api.HandleError(w, err)
		return
	}

	results := make([]*SearchResultResponse, 0, len(retrieval.Chunks))
	for _, c := range retrieval.Chunks {
		results = append(results, &SearchResultResponse{
			ID:     c.ID,
			Source: c.Source,
			Index:  c.Index,
			Score:  c.Score,
			Text:   c.Content,
		})
	}

	api.Success(w, http.StatusOK, SearchResponse{
		Context: retrieval.Context,
		Sources: retrieval.Sources,
		Results: results,
	})
}

type ChatRequest struct {
	History []domain.Message `json:"history"`
	Message string           `json:"message"`
}

type ChatResponse struct {
	Reply   string           `json:"reply"`
	Sources []string         `json:"sources"`
	History []domain.Message `json:"history"`
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		api.Error(w, http.StatusBadRequest, "message is required")
		return
	}

	conv, err := h.conversationFrom(req.History)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	h.mu.RLock()
	next, result, err := h.chat.Turn(r.Context(), conv, req.Message)
	h.mu.RUnlock()
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ChatResponse{
		Reply:   result.Reply,
		Sources: result.Sources,
		History: next.History(),
	})
}

// conversationFrom rebuilds a conversation from client-held history. The
// persona is always the server's; clients may not send system messages.
func (h *ChatHandler) conversationFrom(history []domain.Message) (domain.Conversation, error) {
	conv := domain.NewConversation(h.persona)
	for _, m := range history {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			return conv, domain.ErrInvalidRole
		}
		conv = conv.Append(m)
	}
	return conv, nil
}
