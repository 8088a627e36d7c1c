package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/cloo-solutions/stylechat/internal/domain"
)

// Reindexer rebuilds or refreshes the vector index.
type Reindexer interface {
	Index(ctx context.Context) (*domain.IndexStats, error)
}

// ReindexProcessor re-runs the indexer on every tick. Unchanged chunks keep
// their IDs and are overwritten in place; the indexer prunes the rest.
type ReindexProcessor struct {
	indexer Reindexer
	lock    sync.Locker
}

// NewReindexProcessor returns a processor holding lock, if non-nil, for the
// duration of each run.
func NewReindexProcessor(indexer Reindexer, lock sync.Locker) *ReindexProcessor {
	return &ReindexProcessor{indexer: indexer, lock: lock}
}

func (p *ReindexProcessor) ProcessJobs(ctx context.Context) error {
	if p.lock != nil {
		p.lock.Lock()
		defer p.lock.Unlock()
	}

	stats, err := p.indexer.Index(ctx)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	log.Printf("Reindexed %d files into %d chunks (%d skipped, %d stale removed)",
		stats.Files, stats.Chunks, stats.SkippedFiles, stats.Removed)
	return nil
}
