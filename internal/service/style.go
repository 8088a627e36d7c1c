package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/cloo-solutions/stylechat/internal/telemetry"
)

const (
	DefaultStyleSamples      = 6
	DefaultStyleLinesPerText = 100

	styleSampleSeparator = "\n\n---\n\n"
)

const styleProfilePrompt = `Analyse the writing style of the texts below and describe it as a style profile.

Cover:
- tone and register
- typical sentence length
- structure (paragraphs, lists, headings)
- recurring phrases and greetings
- use of emoji and punctuation

Then list at most 10 short dos and don'ts for imitating this style.
Finish with three short sample replies in this style:
1. a greeting
2. a short explanation of a simple topic
3. a polite refusal

Derive the style only. Do not repeat names, personal details or any other facts from the texts.

Texts:

%s`

// StyleProfiler derives a style profile from example texts.
type StyleProfiler struct {
	loader       DocumentLoader
	chat         ChatProvider
	maxSamples   int
	linesPerText int
}

func NewStyleProfiler(loader DocumentLoader, chat ChatProvider) *StyleProfiler {
	return &StyleProfiler{
		loader:       loader,
		chat:         chat,
		maxSamples:   DefaultStyleSamples,
		linesPerText: DefaultStyleLinesPerText,
	}
}

// Build samples the style texts and asks the chat model for a profile.
func (p *StyleProfiler) Build(ctx context.Context) (domain.StyleProfile, error) {
	ctx, span := telemetry.StartSpan(ctx, "StyleProfiler.Build", telemetry.SpanAttributes{
		Model:     p.chat.ModelName(),
		Operation: "profile",
	})
	defer span.End()

	sample, err := p.Sample(ctx)
	if err != nil {
		span.SetError(err)
		return domain.StyleProfile{}, err
	}

	reply, err := p.chat.GenerateReply(ctx, []domain.Message{
		domain.UserMessage(fmt.Sprintf(styleProfilePrompt, sample)),
	})
	if err != nil {
		span.SetError(err)
		return domain.StyleProfile{}, fmt.Errorf("failed to generate style profile: %w", domain.ErrChatFailed.WithCause(err))
	}

	return domain.StyleProfile{Text: strings.TrimSpace(reply.Content)}, nil
}

// Sample returns the excerpt sent to the model: the first maxSamples
// non-blank texts, each cut to linesPerText lines.
func (p *StyleProfiler) Sample(ctx context.Context) (string, error) {
	paths, err := p.loader.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list style documents: %w", err)
	}
	sort.Strings(paths)

	var texts []string
	for _, path := range paths {
		if len(texts) == p.maxSamples {
			break
		}
		doc := p.loader.Load(ctx, path)
		text := strings.TrimSpace(doc.Text)
		if text == "" {
			log.Printf("style: skipping %s: no extractable text", doc.Path)
			continue
		}
		texts = append(texts, firstLines(text, p.linesPerText))
	}

	if len(texts) == 0 {
		return "", domain.ErrNoDocuments
	}
	return strings.Join(texts, styleSampleSeparator), nil
}

func firstLines(text string, n int) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

// LoadStyleProfile reads the profile written by SaveStyleProfile.
func LoadStyleProfile(path string) (domain.StyleProfile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.StyleProfile{}, domain.ErrStyleProfileMissing.WithCause(err)
	}
	if err != nil {
		return domain.StyleProfile{}, fmt.Errorf("failed to read style profile: %w", err)
	}
	return domain.StyleProfile{Text: string(data)}, nil
}

func SaveStyleProfile(path string, profile domain.StyleProfile) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create profile directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(profile.Text), 0o644); err != nil {
		return fmt.Errorf("failed to write style profile: %w", err)
	}
	return nil
}
