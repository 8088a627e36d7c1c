package service

import (
	"context"

	"github.com/cloo-solutions/stylechat/internal/domain"
)

// EmbeddingProvider turns text into a vector.
type EmbeddingProvider interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

// ChatProvider produces the assistant's reply for an ordered message list.
type ChatProvider interface {
	GenerateReply(ctx context.Context, messages []domain.Message) (domain.Message, error)
	ModelName() string
}

// VectorStore persists embedding records for one collection.
type VectorStore interface {
	Collection() string
	Upsert(ctx context.Context, records []domain.EmbeddingRecord) error
	// Prune deletes every record whose ID is not in keep and reports how
	// many were removed.
	Prune(ctx context.Context, keep []string) (int, error)
	Query(ctx context.Context, model string, vector []float32, k int) ([]domain.RetrievedChunk, error)
	Count(ctx context.Context) (int, error)
	Drop(ctx context.Context) error
}

// DocumentLoader lists and reads eligible documents under a root.
// Load never fails: unreadable files come back with empty text.
type DocumentLoader interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, path string) domain.Document
}
