package bundle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crewbuilder/internal/artifact"
)

// Store persists bundle files keyed by run ID and slash-separated path.
type Store interface {
	Put(ctx context.Context, runID, path string, content []byte) error
	Get(ctx context.Context, runID, path string) ([]byte, error)
	// GetURL returns a shareable link, or "" when the backend has none.
	GetURL(ctx context.Context, runID, path string) (string, error)
	List(ctx context.Context, runID string) ([]string, error)
}

var ErrNotFound = errors.New("bundle file not found")

// Save writes every file of b. It stops at the first failure.
func Save(ctx context.Context, s Store, b artifact.Bundle) error {
	for _, p := range b.Paths() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Put(ctx, b.RunID, p, []byte(b.Files[p])); err != nil {
			return fmt.Errorf("bundle: save %s/%s: %w", b.RunID, p, err)
		}
	}
	return nil
}

// Load reads back all files stored for runID.
func Load(ctx context.Context, s Store, runID string) (map[string]string, error) {
	paths, err := s.List(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("bundle: run %s: %w", runID, ErrNotFound)
	}
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		b, err := s.Get(ctx, runID, p)
		if err != nil {
			return nil, fmt.Errorf("bundle: load %s/%s: %w", runID, p, err)
		}
		out[p] = string(b)
	}
	return out, nil
}

// normalize trims the key and rejects empty or escaping components.
func normalize(runID, path string) (string, string, error) {
	runID = strings.TrimSpace(runID)
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if runID == "" {
		return "", "", fmt.Errorf("run_id is required")
	}
	if strings.ContainsAny(runID, `/\`) || strings.Contains(runID, "..") {
		return "", "", fmt.Errorf("invalid run_id: %s", runID)
	}
	if path == "" {
		return "", "", fmt.Errorf("path is required")
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return "", "", fmt.Errorf("invalid path: %s", path)
		}
	}
	return runID, path, nil
}

func objectKey(runID, path string) string { return runID + "/" + path }
