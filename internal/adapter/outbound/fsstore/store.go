// Package fsstore writes artifacts as files in an output directory.
package fsstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/i2y/camelconv/internal/domain"
)

// Store implements usecase.ArtifactStore on the local filesystem.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a Store rooted at dir. The directory is created on the
// first Save.
func NewStore(dir string, logger *slog.Logger) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{
		dir:    dir,
		logger: logger.With("component", "fs_store", slog.String("dir", dir)),
	}
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Save writes each artifact to its own file, whole: the file is opened,
// written and closed before the next one is touched.
func (s *Store) Save(ctx context.Context, artifacts []domain.Artifact) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.dir, err)
	}
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		path, err := s.path(a.Name)
		if err != nil {
			return err
		}
		if err := writeFile(path, a.Content); err != nil {
			s.logger.Error("Failed to write artifact", slog.String("artifact", a.Name), slog.Any("error", err))
			return fmt.Errorf("failed to write artifact %s: %w", a.Name, err)
		}
		s.logger.Info("Wrote artifact", slog.String("path", path), slog.Int("bytes", len(a.Content)))
	}
	return nil
}

// path rejects names that would escape the output directory.
func (s *Store) path(name string) (string, error) {
	if name == "" || !filepath.IsLocal(name) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

func writeFile(path string, content []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = f.Write(content)
	return err
}
