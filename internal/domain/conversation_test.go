package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversation(t *testing.T) {
	conv := NewConversation("persona")

	require.Equal(t, 1, conv.Len())
	assert.Equal(t, SystemMessage("persona"), conv.Persona())
	assert.Empty(t, conv.History())
}

func TestConversation_AppendDoesNotAlias(t *testing.T) {
	base := NewConversation("persona").Append(UserMessage("one"))
	a := base.Append(AssistantMessage("a"))
	b := base.Append(AssistantMessage("b"))

	assert.Equal(t, 2, base.Len())
	assert.Equal(t, "a", a.Messages()[2].Content)
	assert.Equal(t, "b", b.Messages()[2].Content)

	msgs := a.Messages()
	msgs[0].Content = "mutated"
	assert.Equal(t, "persona", a.Persona().Content)
}

func TestConversation_Reset(t *testing.T) {
	conv := NewConversation("persona").
		Append(UserMessage("hi")).
		Append(AssistantMessage("hello"))

	reset := conv.Reset()

	assert.Equal(t, 1, reset.Len())
	assert.Equal(t, "persona", reset.Persona().Content)
	assert.Equal(t, 3, conv.Len())
}

func TestConversation_TruncateBound(t *testing.T) {
	const maxTurns = 20

	for _, turns := range []int{1, 5, 20, 21, 35, 100} {
		t.Run(fmt.Sprintf("%d turns", turns), func(t *testing.T) {
			conv := NewConversation("persona")
			for i := 0; i < turns; i++ {
				conv = conv.Append(UserMessage(fmt.Sprintf("q%d", i))).Truncate(maxTurns)
				conv = conv.Append(AssistantMessage(fmt.Sprintf("a%d", i)))
			}

			want := 1 + 2*min(turns, maxTurns)
			assert.Equal(t, want, conv.Len())
			assert.Equal(t, "persona", conv.Persona().Content)
			assert.Equal(t, RoleSystem, conv.Persona().Role)

			history := conv.History()
			assert.Equal(t, RoleUser, history[0].Role)
			assert.Equal(t, fmt.Sprintf("a%d", turns-1), history[len(history)-1].Content)
		})
	}
}

func TestConversation_TruncateKeepsCurrentUserMessage(t *testing.T) {
	conv := NewConversation("persona")
	for i := 0; i < 3; i++ {
		conv = conv.Append(UserMessage(fmt.Sprintf("q%d", i))).Append(AssistantMessage("a"))
	}

	conv = conv.Append(UserMessage("latest")).Truncate(2)

	msgs := conv.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "q2", msgs[1].Content)
	assert.Equal(t, "latest", msgs[3].Content)
}

func TestConversation_TruncateDefaultsNonPositive(t *testing.T) {
	conv := NewConversation("persona")
	for i := 0; i < 30; i++ {
		conv = conv.Append(UserMessage("q")).Truncate(0).Append(AssistantMessage("a"))
	}

	assert.Equal(t, 1+2*DefaultMaxTurns, conv.Len())
	assert.Equal(t, DefaultMaxTurns, conv.Turns())
}

func TestConversation_ZeroValue(t *testing.T) {
	var conv Conversation

	assert.Equal(t, DefaultPersona, conv.Persona().Content)
	assert.Equal(t, 2, conv.Append(UserMessage("hi")).Len())
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleSystem.IsValid())
	assert.True(t, RoleUser.IsValid())
	assert.True(t, RoleAssistant.IsValid())
	assert.False(t, Role("tool").IsValid())
}

func TestStyleProfile_IsEmpty(t *testing.T) {
	assert.True(t, StyleProfile{}.IsEmpty())
	assert.True(t, StyleProfile{Text: " \n\t"}.IsEmpty())
	assert.False(t, StyleProfile{Text: "Be brief."}.IsEmpty())
}
