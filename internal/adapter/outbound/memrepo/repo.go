package memrepo

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/i2y/camelconv/internal/domain"
	"github.com/i2y/camelconv/internal/usecase"
)

// ArtifactRepository keeps rendered artifacts in memory, keyed by name.
// NOTE: This implementation is not persistent and data will be lost on restart.
type ArtifactRepository struct {
	mu        sync.RWMutex
	artifacts map[string]domain.Artifact
	logger    *slog.Logger
}

// NewArtifactRepository creates a new in-memory repository.
func NewArtifactRepository(logger *slog.Logger) *ArtifactRepository {
	return &ArtifactRepository{
		artifacts: make(map[string]domain.Artifact),
		logger:    logger.With("component", "mem_repo"),
	}
}

// Save stores copies of the given artifacts, replacing any with the same name.
func (r *ArtifactRepository) Save(ctx context.Context, artifacts []domain.Artifact) error {
	for i, a := range artifacts {
		if a.Name == "" {
			r.logger.Error("Refusing to save artifact with empty name", slog.Int("index", i))
			return fmt.Errorf("save failed: artifact %d has no name", i)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range artifacts {
		a.Content = slices.Clone(a.Content)
		r.artifacts[a.Name] = a
	}
	r.logger.Info("Saved artifacts", slog.Int("count", len(artifacts)), slog.Int("total_artifacts", len(r.artifacts)))
	return nil
}

// Get returns a copy of the named artifact.
func (r *ArtifactRepository) Get(ctx context.Context, name string) (domain.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.artifacts[name]
	if !ok {
		r.logger.Warn("Artifact not found", slog.String("artifact", name))
		return domain.Artifact{}, fmt.Errorf("%w: %s", usecase.ErrArtifactNotFound, name)
	}
	a.Content = slices.Clone(a.Content)
	return a, nil
}

// List returns copies of every stored artifact, sorted by name.
func (r *ArtifactRepository) List(ctx context.Context) ([]domain.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]domain.Artifact, 0, len(r.artifacts))
	for _, a := range r.artifacts {
		a.Content = slices.Clone(a.Content)
		list = append(list, a)
	}
	slices.SortFunc(list, func(a, b domain.Artifact) int { return strings.Compare(a.Name, b.Name) })
	r.logger.Debug("Listed artifacts from repository", slog.Int("count", len(list)))
	return list, nil
}

// Reset drops every stored artifact.
func (r *ArtifactRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.artifacts)
}
