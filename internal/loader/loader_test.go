package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, name string, data []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestEligible(t *testing.T) {
	assert.True(t, Eligible("notes.txt"))
	assert.True(t, Eligible("dir/Manual.PDF"))
	assert.False(t, Eligible("image.png"))
	assert.False(t, Eligible("README"))
}

func TestLoader_List(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.txt", []byte("b"))
	writeFile(t, root, "a/deep/c.pdf", []byte("%PDF"))
	writeFile(t, root, "skip.md", []byte("# no"))

	src := NewFSSource(root)
	names, err := New(src).List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"a/deep/c.pdf", "b.txt"}, names)
	assert.Equal(t, root, src.Root())
}

func TestLoader_List_MissingRoot(t *testing.T) {
	_, err := New(NewFSSource(filepath.Join(t.TempDir(), "nope"))).List(context.Background())

	assert.Error(t, err)
}

func TestLoader_List_EmptyRoot(t *testing.T) {
	names, err := New(NewFSSource(t.TempDir())).List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLoader_Load_Text(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes/hello.txt", []byte("Hello\xff world"))

	doc := New(NewFSSource(root)).Load(context.Background(), "notes/hello.txt")

	assert.Equal(t, "notes/hello.txt", doc.Path)
	assert.Equal(t, "Hello world", doc.Text)
}

func TestLoader_Load_MalformedPDFYieldsEmptyText(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "broken.pdf", []byte("this is not a pdf at all"))

	doc := New(NewFSSource(root)).Load(context.Background(), "broken.pdf")

	assert.Equal(t, "broken.pdf", doc.Path)
	assert.Empty(t, doc.Text)
}

type failingSource struct{}

func (failingSource) List(ctx context.Context) ([]string, error) {
	return []string{"gone.txt"}, nil
}

func (failingSource) ReadFile(ctx context.Context, name string) ([]byte, error) {
	return nil, errors.New("permission denied")
}

func (failingSource) Root() string { return "mem://" }

func TestLoader_Load_ReadErrorYieldsEmptyText(t *testing.T) {
	doc := New(failingSource{}).Load(context.Background(), "gone.txt")

	assert.Equal(t, "gone.txt", doc.Path)
	assert.Empty(t, doc.Text)
}

func TestExtractPDF_Garbage(t *testing.T) {
	text, err := ExtractPDF([]byte{0x00, 0x01, 0x02})

	assert.Error(t, err)
	assert.Empty(t, text)
}
