package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cloo-solutions/stylechat/internal/domain"
	_ "modernc.org/sqlite"
)

// DefaultCollection is used when no collection name is configured.
const DefaultCollection = "knowledge"

// SQLiteStore keeps one collection of embedding records in an on-disk
// SQLite database and ranks them by brute-force cosine similarity.
type SQLiteStore struct {
	db         *sql.DB
	collection string
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path, collection string) (*SQLiteStore, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite index: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sqlite index: %w", err)
	}
	if err := MigrateSQLite(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, collection: collection}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Collection() string {
	return s.collection
}

// Upsert inserts or overwrites records by (collection, id) in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunk_embeddings
			(collection, id, source, chunk_index, content, embedding_model, dimensions, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			source = excluded.source,
			chunk_index = excluded.chunk_index,
			content = excluded.content,
			embedding_model = excluded.embedding_model,
			dimensions = excluded.dimensions,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Unix()
	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			s.collection,
			r.ID,
			r.Source,
			r.Index,
			r.Content,
			r.Model,
			len(r.Embedding),
			encodeVector(r.Embedding),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert %s: %w", r.Tag(), err)
		}
	}

	return tx.Commit()
}

// Query returns the k records of the given model closest to vector.
func (s *SQLiteStore) Query(ctx context.Context, model string, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	results := make([]domain.RetrievedChunk, 0, k)
	if k <= 0 {
		return results, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, chunk_index, content, embedding
		FROM chunk_embeddings
		WHERE collection = ? AND embedding_model = ? AND dimensions = ?`,
		s.collection, model, len(vector))
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.RetrievedChunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Source, &c.Index, &c.Content, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		embedding, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", c.ID, err)
		}
		c.Score = cosineSimilarity(vector, embedding)
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Source != results[j].Source {
			return results[i].Source < results[j].Source
		}
		return results[i].Index < results[j].Index
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunk_embeddings WHERE collection = ?`, s.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return n, nil
}

// Drop removes every record of the collection.
func (s *SQLiteStore) Drop(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunk_embeddings WHERE collection = ?`, s.collection)
	if err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", s.collection, err)
	}
	return nil
}

// Prune deletes the collection's records whose id is not in keep.
func (s *SQLiteStore) Prune(ctx context.Context, keep []string) (int, error) {
	wanted := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		wanted[id] = struct{}{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM chunk_embeddings WHERE collection = ?`, s.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to list embeddings: %w", err)
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan embedding id: %w", err)
		}
		if _, ok := wanted[id]; !ok {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM chunk_embeddings WHERE collection = ? AND id = ?`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare prune: %w", err)
	}
	defer stmt.Close()

	for _, id := range stale {
		if _, err := stmt.ExecContext(ctx, s.collection, id); err != nil {
			return 0, fmt.Errorf("failed to delete %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(stale), nil
}
