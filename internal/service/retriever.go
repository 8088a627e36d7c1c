package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/cloo-solutions/stylechat/internal/telemetry"
)

const (
	// DefaultTopK is the number of chunks retrieved per query.
	DefaultTopK = 5
	// ContextSeparator joins labeled chunks in the context block.
	ContextSeparator = "\n\n---\n\n"
)

// Retrieval is the outcome of one top-K lookup.
type Retrieval struct {
	Context string                  `json:"context"`
	Sources []string                `json:"sources"`
	Chunks  []domain.RetrievedChunk `json:"-"`
}

// Retriever embeds queries and fetches the nearest chunks.
type Retriever struct {
	embedder EmbeddingProvider
	store    VectorStore
	topK     int
}

func NewRetriever(embedder EmbeddingProvider, store VectorStore, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

func (r *Retriever) TopK() int {
	return r.topK
}

// Retrieve returns the top-K context for query. An empty index yields an
// empty context and no sources, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) (*Retrieval, error) {
	return r.RetrieveK(ctx, query, r.topK)
}

// RetrieveK is Retrieve with an explicit k.
func (r *Retriever) RetrieveK(ctx context.Context, query string, k int) (*Retrieval, error) {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.Retrieve", telemetry.SpanAttributes{
		Collection: r.store.Collection(),
		Model:      r.embedder.ModelName(),
		Operation:  "retrieve",
	})
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if k <= 0 {
		k = r.topK
	}

	vector, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to embed query: %w", domain.ErrEmbeddingFailed.WithCause(err))
	}

	chunks, err := r.store.Query(ctx, r.embedder.ModelName(), vector, k)
	if err != nil {
		span.SetError(err)
		return nil, domain.ErrStoreFailed.WithCause(err)
	}

	text, sources := FormatContext(chunks)
	return &Retrieval{
		Context: text,
		Sources: sources,
		Chunks:  chunks,
	}, nil
}

// FormatContext renders chunks as "[tag]\ncontent" blocks in the given order.
func FormatContext(chunks []domain.RetrievedChunk) (string, []string) {
	sources := make([]string, 0, len(chunks))
	blocks := make([]string, 0, len(chunks))
	for _, c := range chunks {
		tag := c.Tag()
		sources = append(sources, tag)
		blocks = append(blocks, "["+tag+"]\n"+c.Content)
	}
	return strings.Join(blocks, ContextSeparator), sources
}
