package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Document is a loaded source file. Path is relative to the source root and
// always uses forward slashes.
type Document struct {
	Path string
	Text string
}

// Chunk is a contiguous window of a document's normalized text.
type Chunk struct {
	ID      string
	Source  string
	Index   int
	Content string
}

// NewChunk builds a chunk with its deterministic identifier.
func NewChunk(source string, index int, content string) Chunk {
	return Chunk{
		ID:      ChunkID(source, index, content),
		Source:  source,
		Index:   index,
		Content: content,
	}
}

// Tag is the citation label shown to users, e.g. "notes/faq.txt#chunk3".
func (c Chunk) Tag() string {
	return fmt.Sprintf("%s#chunk%d", c.Source, c.Index)
}

// ChunkID hashes (source, index, content). The same input always yields the
// same identifier, which makes re-indexing an overwrite.
func ChunkID(source string, index int, content string) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(index)))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// EmbeddingRecord is what a vector store persists for one chunk.
type EmbeddingRecord struct {
	Chunk
	Model     string
	Embedding []float32
}

// RetrievedChunk is a store hit. Score is cosine similarity, higher is closer.
type RetrievedChunk struct {
	Chunk
	Score float32
}

// IndexStats summarizes one indexing run.
type IndexStats struct {
	Files        int `json:"files"`
	SkippedFiles int `json:"skipped_files"`
	Chunks       int `json:"chunks"`
	Batches      int `json:"batches"`
	Removed      int `json:"removed"`
}
