package service

import (
	"testing"

	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest_Order(t *testing.T) {
	conv := domain.NewConversation("persona").
		Append(domain.UserMessage("q1")).
		Append(domain.AssistantMessage("a1")).
		Append(domain.UserMessage("q2"))

	req := BuildRequest(conv, domain.StyleProfile{Text: "Be cheerful."}, &Retrieval{Context: "[a.txt#chunk0]\nfacts"})

	require.Len(t, req, 6)
	assert.Equal(t, domain.SystemMessage("persona"), req[0])
	assert.Equal(t, domain.RoleSystem, req[1].Role)
	assert.Contains(t, req[1].Content, "Be cheerful.")
	assert.Equal(t, domain.RoleSystem, req[2].Role)
	assert.Contains(t, req[2].Content, "[a.txt#chunk0]\nfacts")
	assert.Equal(t, []domain.Message{
		domain.UserMessage("q1"),
		domain.AssistantMessage("a1"),
		domain.UserMessage("q2"),
	}, req[3:])
}

func TestBuildRequest_DoesNotPersistInjections(t *testing.T) {
	conv := domain.NewConversation("persona").Append(domain.UserMessage("q"))
	before := conv.Messages()

	_ = BuildRequest(conv, domain.StyleProfile{Text: "style"}, &Retrieval{Context: "ctx"})

	assert.Equal(t, before, conv.Messages())
	assert.Equal(t, 2, conv.Len())
}

func TestBuildRequest_NoStyleNoContext(t *testing.T) {
	conv := domain.NewConversation("persona").Append(domain.UserMessage("q"))

	req := BuildRequest(conv, domain.StyleProfile{}, &Retrieval{Sources: []string{}})

	require.Len(t, req, 3)
	assert.Equal(t, noContextInstruction, req[1].Content)
	assert.Equal(t, domain.UserMessage("q"), req[2])
}
