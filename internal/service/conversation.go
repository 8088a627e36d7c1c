package service

import (
	"github.com/cloo-solutions/stylechat/internal/domain"
)

const (
	stylePreamble = "Imitate the following writing style as closely as possible, without adopting any facts from it:\n\n"

	contextPreamble = "Answer using only the context below. Cite the bracketed tags you relied on. " +
		"If the context does not contain the answer, say so instead of guessing.\n\nContext:\n"

	noContextInstruction = "No relevant context was found in the knowledge base. " +
		"Tell the user you cannot answer this from the available documents instead of guessing."
)

// BuildRequest assembles the messages sent to the chat provider:
// persona, style instruction, context instruction, then the stored history.
// The injected system messages exist only in the returned slice and are
// never written back into conv.
func BuildRequest(conv domain.Conversation, style domain.StyleProfile, retrieval *Retrieval) []domain.Message {
	history := conv.History()
	out := make([]domain.Message, 0, len(history)+3)
	out = append(out, conv.Persona())

	if !style.IsEmpty() {
		out = append(out, domain.SystemMessage(stylePreamble+style.Text))
	}

	if retrieval != nil && retrieval.Context != "" {
		out = append(out, domain.SystemMessage(contextPreamble+retrieval.Context))
	} else {
		out = append(out, domain.SystemMessage(noContextInstruction))
	}

	return append(out, history...)
}
