package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/cloo-solutions/stylechat/internal/domain"
)

// HashEmbedder is a deterministic bag-of-words embedder. Each lowercase
// token is hashed into one of Dims buckets and the vector is L2-normalized,
// so texts sharing words score higher under cosine similarity.
type HashEmbedder struct {
	Dims int
}

func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 1024
	}
	return &HashEmbedder{Dims: dims}
}

func (e *HashEmbedder) ModelName() string {
	return "hash-bow"
}

func (e *HashEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.Dims)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.Dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

// EchoChat answers with the last user message and remembers every request.
type EchoChat struct {
	mu       sync.Mutex
	requests [][]domain.Message
}

func (c *EchoChat) ModelName() string {
	return "echo"
}

func (c *EchoChat) GenerateReply(_ context.Context, messages []domain.Message) (domain.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := make([]domain.Message, len(messages))
	copy(req, messages)
	c.requests = append(c.requests, req)

	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return domain.AssistantMessage("echo: " + messages[i].Content), nil
		}
	}
	return domain.AssistantMessage("echo"), nil
}

// LastRequest returns the most recent request, or nil.
func (c *EchoChat) LastRequest() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) == 0 {
		return nil
	}
	return c.requests[len(c.requests)-1]
}
