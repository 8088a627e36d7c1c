package service

import (
	"iter"
	"strings"
	"unicode/utf8"
)

// ChunkConfig controls how normalized text is split into windows.
// Sizes are measured in runes.
type ChunkConfig struct {
	MaxChars int
	Overlap  int
	MinChars int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: 900,
		Overlap:  150,
		MinChars: 50,
	}
}

func (c ChunkConfig) normalized() ChunkConfig {
	if c.MaxChars <= 0 {
		c.MaxChars = DefaultChunkConfig().MaxChars
	}
	if c.Overlap < 0 {
		c.Overlap = 0
	}
	if c.Overlap >= c.MaxChars {
		c.Overlap = c.MaxChars / 4
	}
	if c.MinChars < 0 {
		c.MinChars = 0
	}
	return c
}

// Chunker splits text into fixed-size overlapping windows.
type Chunker struct {
	cfg ChunkConfig
}

func NewChunker(cfg ChunkConfig) *Chunker {
	return &Chunker{cfg: cfg.normalized()}
}

func (c *Chunker) Config() ChunkConfig {
	return c.cfg
}

// NormalizeText collapses every whitespace run to one space and trims.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Chunks yields windows of at most MaxChars runes starting every
// MaxChars-Overlap runes. The window that reaches the end of the text is the
// last one. Windows whose trimmed length is under MinChars are skipped.
// Chunks are raw substrings, so dropping the first Overlap runes of every
// chunk after the first reconstructs the input. Windows may split words.
func (c *Chunker) Chunks(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		runes := []rune(text)
		step := c.cfg.MaxChars - c.cfg.Overlap

		for start := 0; start < len(runes); start += step {
			end := min(start+c.cfg.MaxChars, len(runes))
			chunk := string(runes[start:end])

			if trimmed := strings.TrimSpace(chunk); trimmed != "" && utf8.RuneCountInString(trimmed) >= c.cfg.MinChars {
				if !yield(chunk) {
					return
				}
			}

			if end == len(runes) {
				return
			}
		}
	}
}

// Split collects Chunks into a slice.
func (c *Chunker) Split(text string) []string {
	var out []string
	for chunk := range c.Chunks(text) {
		out = append(out, chunk)
	}
	return out
}
