package domain

// DefaultMaxTurns bounds stored history to 1+2*DefaultMaxTurns messages.
const DefaultMaxTurns = 20

// Conversation is the stored chat history. Message 0 is always the persona.
// Values are immutable: every method returns a new Conversation and never
// shares its backing array with the receiver.
type Conversation struct {
	messages []Message
}

// NewConversation starts a history holding only the persona.
func NewConversation(persona string) Conversation {
	return Conversation{messages: []Message{SystemMessage(persona)}}
}

// Persona returns the pinned system message.
func (c Conversation) Persona() Message {
	if len(c.messages) == 0 {
		return SystemMessage(DefaultPersona)
	}
	return c.messages[0]
}

// Messages returns a copy of the full history, persona included.
func (c Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// History returns a copy of everything after the persona.
func (c Conversation) History() []Message {
	if len(c.messages) <= 1 {
		return []Message{}
	}
	out := make([]Message, len(c.messages)-1)
	copy(out, c.messages[1:])
	return out
}

// Len is the number of stored messages, persona included.
func (c Conversation) Len() int {
	return len(c.messages)
}

// Append returns a conversation with msg added at the end.
func (c Conversation) Append(msg Message) Conversation {
	if len(c.messages) == 0 {
		c = NewConversation(DefaultPersona)
	}
	out := make([]Message, len(c.messages), len(c.messages)+1)
	copy(out, c.messages)
	return Conversation{messages: append(out, msg)}
}

// Reset returns a conversation holding only the persona.
func (c Conversation) Reset() Conversation {
	return Conversation{messages: []Message{c.Persona()}}
}

// Truncate keeps the persona plus everything from the maxTurns-th most recent
// user message onward. Called right after appending a user message, the
// stored history never exceeds 1+2*maxTurns once the reply is appended.
func (c Conversation) Truncate(maxTurns int) Conversation {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if len(c.messages) == 0 {
		return NewConversation(DefaultPersona)
	}

	cut := 1
	seen := 0
	for i := len(c.messages) - 1; i >= 1; i-- {
		if c.messages[i].Role != RoleUser {
			continue
		}
		seen++
		if seen == maxTurns {
			cut = i
			break
		}
	}

	out := make([]Message, 0, 1+len(c.messages)-cut)
	out = append(out, c.messages[0])
	out = append(out, c.messages[cut:]...)
	return Conversation{messages: out}
}

// Turns counts stored user messages.
func (c Conversation) Turns() int {
	n := 0
	for _, m := range c.messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}
