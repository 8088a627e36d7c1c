package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Source enumerates and reads raw files. Names are slash-separated and
// relative to the source root.
type Source interface {
	List(ctx context.Context) ([]string, error)
	ReadFile(ctx context.Context, name string) ([]byte, error)
	// Root describes the location for log and error messages.
	Root() string
}

// FSSource reads files from a local directory tree.
type FSSource struct {
	root string
}

func NewFSSource(root string) *FSSource {
	return &FSSource{root: root}
}

func (s *FSSource) Root() string {
	return s.root
}

func (s *FSSource) List(ctx context.Context) ([]string, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", s.root)
	}

	var names []string
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", s.root, err)
	}
	return names, nil
}

func (s *FSSource) ReadFile(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.root, filepath.FromSlash(name)))
}
