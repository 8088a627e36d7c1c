package domain

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one entry of a chat exchange.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func SystemMessage(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func UserMessage(content string) Message      { return Message{Role: RoleUser, Content: content} }
func AssistantMessage(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// DefaultPersona is the pinned first message of every conversation.
const DefaultPersona = "You are a helpful, factual assistant. You answer briefly and precisely, and you never make things up."

// StyleProfile is the offline-derived description of the voice to imitate.
// It is loaded once and never modified.
type StyleProfile struct {
	Text string
}

// IsEmpty reports whether the profile carries no instructions.
func (p StyleProfile) IsEmpty() bool {
	for _, r := range p.Text {
		if r != ' ' && r != '\n' && r != '\t' && r != '\r' {
			return false
		}
	}
	return true
}
