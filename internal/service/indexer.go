package service

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/cloo-solutions/stylechat/internal/telemetry"
)

// DefaultBatchSize is the number of records sent to the store per upsert.
const DefaultBatchSize = 64

// Indexer builds the vector index from a document loader.
type Indexer struct {
	loader    DocumentLoader
	chunker   *Chunker
	embedder  EmbeddingProvider
	store     VectorStore
	batchSize int
	verbose   bool
}

type IndexerOption func(*Indexer)

func WithBatchSize(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

func WithVerboseLogging(v bool) IndexerOption {
	return func(ix *Indexer) { ix.verbose = v }
}

func NewIndexer(loader DocumentLoader, chunker *Chunker, embedder EmbeddingProvider, store VectorStore, opts ...IndexerOption) *Indexer {
	if chunker == nil {
		chunker = NewChunker(DefaultChunkConfig())
	}
	ix := &Indexer{
		loader:    loader,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Index embeds every chunk of every eligible document and upserts the
// records in batches. Once every document is written, records the run did
// not produce (edited chunks, deleted or emptied files) are pruned, so the
// store mirrors the current documents. An embedding failure aborts the run
// before pruning and the pending batch is discarded; batches flushed before
// the failure remain stored.
func (ix *Indexer) Index(ctx context.Context) (*domain.IndexStats, error) {
	ctx, span := telemetry.StartSpan(ctx, "Indexer.Index", telemetry.SpanAttributes{
		Collection: ix.store.Collection(),
		Model:      ix.embedder.ModelName(),
		Operation:  "index",
	})
	defer span.End()

	stats, err := ix.index(ctx)
	if err != nil {
		span.SetError(err)
	}
	return stats, err
}

// indexRun carries the state of one Index call across documents.
type indexRun struct {
	ix    *Indexer
	stats *domain.IndexStats
	model string
	batch []domain.EmbeddingRecord
	keep  []string
}

func (ix *Indexer) index(ctx context.Context) (*domain.IndexStats, error) {
	run := &indexRun{
		ix:    ix,
		stats: &domain.IndexStats{},
		model: ix.embedder.ModelName(),
		batch: make([]domain.EmbeddingRecord, 0, ix.batchSize),
	}

	paths, err := ix.loader.List(ctx)
	if err != nil {
		return run.stats, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(paths) == 0 {
		// an emptied knowledge folder empties the index
		if err := run.prune(ctx); err != nil {
			return run.stats, err
		}
		return run.stats, domain.ErrNoDocuments
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return run.stats, err
		}
		if err := run.document(ctx, path); err != nil {
			return run.stats, err
		}
	}

	if err := run.flush(ctx); err != nil {
		return run.stats, err
	}
	if err := run.prune(ctx); err != nil {
		return run.stats, err
	}

	log.Printf("indexer: indexed %d chunks from %d files (%d skipped, %d stale removed)",
		run.stats.Chunks, run.stats.Files, run.stats.SkippedFiles, run.stats.Removed)
	return run.stats, nil
}

func (r *indexRun) document(ctx context.Context, path string) error {
	ctx, span := telemetry.StartSpan(ctx, "Indexer.Document", telemetry.SpanAttributes{
		Source:    path,
		Operation: "index_document",
	})
	defer span.End()

	doc := r.ix.loader.Load(ctx, path)
	r.stats.Files++

	text := NormalizeText(doc.Text)
	if text == "" {
		r.stats.SkippedFiles++
		log.Printf("indexer: skipping %s: no extractable text", doc.Path)
		return nil
	}

	index := 0
	for content := range r.ix.chunker.Chunks(text) {
		chunk := domain.NewChunk(doc.Path, index, content)

		embedding, err := r.ix.embedder.GenerateEmbedding(ctx, content)
		if err != nil {
			err = fmt.Errorf("failed to embed %s: %w", chunk.Tag(), domain.ErrEmbeddingFailed.WithCause(err))
			span.SetError(err)
			return err
		}

		r.batch = append(r.batch, domain.EmbeddingRecord{
			Chunk:     chunk,
			Model:     r.model,
			Embedding: embedding,
		})
		r.keep = append(r.keep, chunk.ID)
		r.stats.Chunks++
		index++

		if len(r.batch) >= r.ix.batchSize {
			if err := r.flush(ctx); err != nil {
				return err
			}
		}
	}

	if r.ix.verbose {
		log.Printf("indexer: %s -> %d chunks", doc.Path, index)
	}
	return nil
}

func (r *indexRun) flush(ctx context.Context) error {
	if len(r.batch) == 0 {
		return nil
	}
	if err := r.ix.store.Upsert(ctx, r.batch); err != nil {
		return domain.ErrStoreFailed.WithCause(err)
	}
	r.stats.Batches++
	msg := fmt.Sprintf("upserted batch of %d records", len(r.batch))
	telemetry.AddBreadcrumb(ctx, "indexer", msg)
	if r.ix.verbose {
		log.Printf("indexer: %s", msg)
	}
	r.batch = r.batch[:0]
	return nil
}

func (r *indexRun) prune(ctx context.Context) error {
	removed, err := r.ix.store.Prune(ctx, r.keep)
	if err != nil {
		return domain.ErrStoreFailed.WithCause(err)
	}
	r.stats.Removed = removed
	if removed > 0 {
		telemetry.AddBreadcrumb(ctx, "indexer", fmt.Sprintf("pruned %d stale records", removed))
	}
	return nil
}

// Rebuild drops the collection and indexes from scratch.
func (ix *Indexer) Rebuild(ctx context.Context) (*domain.IndexStats, error) {
	if err := ix.store.Drop(ctx); err != nil {
		return nil, domain.ErrStoreFailed.WithCause(err)
	}
	return ix.Index(ctx)
}

// EnsureIndexed builds the index only when the store holds no records.
func (ix *Indexer) EnsureIndexed(ctx context.Context) (*domain.IndexStats, bool, error) {
	n, err := ix.store.Count(ctx)
	if err != nil {
		return nil, false, domain.ErrStoreFailed.WithCause(err)
	}
	if n > 0 {
		return nil, false, nil
	}
	stats, err := ix.Index(ctx)
	return stats, true, err
}
