// Package loader turns .txt and .pdf files into plain-text documents.
package loader

import (
	"context"
	"log"
	"path"
	"sort"
	"strings"

	"github.com/cloo-solutions/stylechat/internal/domain"
)

const (
	ExtText = ".txt"
	ExtPDF  = ".pdf"
)

// Eligible reports whether name has a supported extension.
func Eligible(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ExtText, ExtPDF:
		return true
	}
	return false
}

// Loader filters a Source down to eligible files and extracts their text.
type Loader struct {
	source Source
}

func New(source Source) *Loader {
	return &Loader{source: source}
}

// List returns the eligible file names in sorted order.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	names, err := l.source.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		if Eligible(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Load reads and extracts one file. Read and extraction failures are logged
// and produce a document with empty text.
func (l *Loader) Load(ctx context.Context, name string) domain.Document {
	doc := domain.Document{Path: name}

	data, err := l.source.ReadFile(ctx, name)
	if err != nil {
		log.Printf("loader: failed to read %s: %v", name, err)
		return doc
	}

	switch strings.ToLower(path.Ext(name)) {
	case ExtPDF:
		text, err := ExtractPDF(data)
		if err != nil {
			log.Printf("loader: failed to extract %s: %v", name, err)
			return doc
		}
		doc.Text = text
	case ExtText:
		doc.Text = DecodeText(data)
	default:
		log.Printf("loader: unsupported file type %s", name)
	}
	return doc
}

// DecodeText interprets data as UTF-8 and drops invalid byte sequences.
func DecodeText(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}
