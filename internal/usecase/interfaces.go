package usecase

import (
	"context"
	"errors"

	"github.com/i2y/camelconv/internal/domain"
)

// Standard errors returned by use cases and adapters.
var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrUnknownTarget    = errors.New("unknown conversion target")
	ErrEmptySource      = errors.New("empty document source")
)

// DocumentSource loads the raw bytes of a Camel XML document from a file path,
// URL or other reference.
type DocumentSource interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// RouteParser turns a document into route IR.
type RouteParser interface {
	Parse(ctx context.Context, data []byte) (domain.ParseResult, error)
}

// ArtifactStore persists rendered artifacts. Each artifact is written whole;
// a failed Save may leave earlier artifacts of the same call in place.
type ArtifactStore interface {
	Save(ctx context.Context, artifacts []domain.Artifact) error
}

// ArtifactRepository is an ArtifactStore that can also be read back.
type ArtifactRepository interface {
	ArtifactStore
	Get(ctx context.Context, name string) (domain.Artifact, error)
	List(ctx context.Context) ([]domain.Artifact, error)
}

// ArtifactRenderer renders the artifacts of one conversion target.
type ArtifactRenderer interface {
	Render(ctx context.Context, target Target, routes []domain.Route) ([]domain.Artifact, error)
}
