package repository

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const upsertChunkSQL = `
	INSERT INTO chunk_embeddings
		(collection, id, source, chunk_index, content, embedding_model, embedding)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (collection, id) DO UPDATE SET
		source = EXCLUDED.source,
		chunk_index = EXCLUDED.chunk_index,
		content = EXCLUDED.content,
		embedding_model = EXCLUDED.embedding_model,
		embedding = EXCLUDED.embedding,
		updated_at = now()`

// PostgresStore keeps one collection of embedding records in Postgres with
// pgvector and ranks them by cosine distance.
type PostgresStore struct {
	pool       *pgxpool.Pool
	collection string
}

func NewPostgresStore(pool *pgxpool.Pool, collection string) *PostgresStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &PostgresStore{pool: pool, collection: collection}
}

func (s *PostgresStore) Collection() string {
	return s.collection
}

// Upsert writes all records in a single transaction.
func (s *PostgresStore) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range records {
			batch.Queue(upsertChunkSQL,
				s.collection,
				r.ID,
				r.Source,
				r.Index,
				r.Content,
				r.Model,
				pgvector.NewVector(r.Embedding),
			)
		}

		br := tx.SendBatch(ctx, batch)
		for _, r := range records {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to upsert %s: %w", r.Tag(), err)
			}
		}
		return br.Close()
	})
}

// Query returns the k records of the given model closest to vector.
func (s *PostgresStore) Query(ctx context.Context, model string, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	results := make([]domain.RetrievedChunk, 0, k)
	if k <= 0 {
		return results, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, source, chunk_index, content, 1 - (embedding <=> $1) AS score
		FROM chunk_embeddings
		WHERE collection = $2 AND embedding_model = $3 AND vector_dims(embedding) = $4
		ORDER BY embedding <=> $1, source, chunk_index
		LIMIT $5`,
		pgvector.NewVector(vector), s.collection, model, len(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.RetrievedChunk
		var score float64
		if err := rows.Scan(&c.ID, &c.Source, &c.Index, &c.Content, &score); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		c.Score = float32(score)
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunk_embeddings WHERE collection = $1`, s.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return n, nil
}

// Drop removes every record of the collection.
func (s *PostgresStore) Drop(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM chunk_embeddings WHERE collection = $1`, s.collection)
	if err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", s.collection, err)
	}
	return nil
}

// Prune deletes the collection's records whose id is not in keep.
func (s *PostgresStore) Prune(ctx context.Context, keep []string) (int, error) {
	if keep == nil {
		keep = []string{}
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM chunk_embeddings WHERE collection = $1 AND NOT (id = ANY($2))`,
		s.collection, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune collection %s: %w", s.collection, err)
	}
	return int(tag.RowsAffected()), nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
