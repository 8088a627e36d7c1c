package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/cloo-solutions/stylechat/internal/telemetry"
)

// ContextRetriever is the retrieval step of a chat turn.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string) (*Retrieval, error)
}

// TurnResult is what one answered query produces besides the new history.
type TurnResult struct {
	Reply     string     `json:"reply"`
	Sources   []string   `json:"sources"`
	Retrieval *Retrieval `json:"-"`
}

// ChatService answers one query at a time against an explicit conversation.
type ChatService struct {
	retriever ContextRetriever
	chat      ChatProvider
	style     domain.StyleProfile
	maxTurns  int
}

func NewChatService(retriever ContextRetriever, chat ChatProvider, style domain.StyleProfile, maxTurns int) *ChatService {
	if maxTurns <= 0 {
		maxTurns = domain.DefaultMaxTurns
	}
	return &ChatService{
		retriever: retriever,
		chat:      chat,
		style:     style,
		maxTurns:  maxTurns,
	}
}

// Turn retrieves context, truncates history and asks the model for a reply.
// On any error the input conversation is returned unchanged.
func (s *ChatService) Turn(ctx context.Context, conv domain.Conversation, input string) (domain.Conversation, *TurnResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "ChatService.Turn", telemetry.SpanAttributes{
		Model:     s.chat.ModelName(),
		Operation: "turn",
	})
	defer span.End()

	input = strings.TrimSpace(input)
	if input == "" {
		return conv, nil, domain.ErrEmptyQuery
	}

	retrieval, err := s.retriever.Retrieve(ctx, input)
	if err != nil {
		span.SetError(err)
		return conv, nil, err
	}

	next := conv.Append(domain.UserMessage(input)).Truncate(s.maxTurns)

	reply, err := s.chat.GenerateReply(ctx, BuildRequest(next, s.style, retrieval))
	if err != nil {
		span.SetError(err)
		return conv, nil, fmt.Errorf("failed to generate reply: %w", domain.ErrChatFailed.WithCause(err))
	}

	reply.Role = domain.RoleAssistant
	reply.Content = strings.TrimSpace(reply.Content)

	return next.Append(reply), &TurnResult{
		Reply:     reply.Content,
		Sources:   retrieval.Sources,
		Retrieval: retrieval,
	}, nil
}
