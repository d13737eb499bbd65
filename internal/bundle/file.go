package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore writes bundles under root/<runID>/<path>.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("bundle: file store root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &FileStore{root: abs}, nil
}

func (s *FileStore) Root() string { return s.root }

func (s *FileStore) Put(_ context.Context, runID, path string, content []byte) error {
	full, err := s.pathFor(runID, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, content, 0o644)
}

func (s *FileStore) Get(_ context.Context, runID, path string) ([]byte, error) {
	full, err := s.pathFor(runID, path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

// GetURL returns a file:// URL for the stored file.
func (s *FileStore) GetURL(_ context.Context, runID, path string) (string, error) {
	full, err := s.pathFor(runID, path)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(full), nil
}

func (s *FileStore) List(_ context.Context, runID string) ([]string, error) {
	runID, _, err := normalize(runID, "x")
	if err != nil {
		return nil, err
	}
	runRoot := filepath.Join(s.root, runID)
	paths := make([]string, 0, 16)
	walkErr := filepath.WalkDir(runRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(runRoot, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, walkErr
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *FileStore) pathFor(runID, path string) (string, error) {
	runID, path, err := normalize(runID, path)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, runID, filepath.FromSlash(path))
	if !hasPathPrefix(full, filepath.Join(s.root, runID)) {
		return "", fmt.Errorf("bundle: %s resolves outside the run directory", path)
	}
	return full, nil
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	return strings.HasPrefix(path, strings.TrimSuffix(root, sep)+sep)
}
