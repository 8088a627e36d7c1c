package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("guide.txt", 0, "hello world")
	b := ChunkID("guide.txt", 0, "hello world")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestChunkID_DependsOnEveryField(t *testing.T) {
	base := ChunkID("guide.txt", 1, "hello")

	assert.NotEqual(t, base, ChunkID("other.txt", 1, "hello"))
	assert.NotEqual(t, base, ChunkID("guide.txt", 2, "hello"))
	assert.NotEqual(t, base, ChunkID("guide.txt", 1, "hello!"))
	// field separators keep adjacent fields from bleeding into each other
	assert.NotEqual(t, ChunkID("a1", 1, "x"), ChunkID("a", 11, "x"))
}

func TestChunk_Tag(t *testing.T) {
	c := NewChunk("docs/faq.pdf", 3, "text")

	assert.Equal(t, "docs/faq.pdf#chunk3", c.Tag())
	assert.Equal(t, ChunkID("docs/faq.pdf", 3, "text"), c.ID)
}
