// Package artifacts renders route IR into the files requested for a
// conversion by composing the individual backends.
package artifacts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/i2y/camelconv/internal/adapter/outbound/javadsl"
	"github.com/i2y/camelconv/internal/adapter/outbound/jsonout"
	"github.com/i2y/camelconv/internal/adapter/outbound/openapi"
	"github.com/i2y/camelconv/internal/adapter/outbound/skeleton"
	"github.com/i2y/camelconv/internal/adapter/outbound/springboot"
	"github.com/i2y/camelconv/internal/domain"
	"github.com/i2y/camelconv/internal/usecase"
)

// JavaMediaType is used for every generated Java source file.
const JavaMediaType = "text/x-java-source"

// Renderer implements usecase.ArtifactRenderer.
type Renderer struct {
	openapi         *openapi.Renderer
	format          openapi.Format
	skeletonPackage string
	logger          *slog.Logger
}

// NewRenderer creates a Renderer. The OpenAPI renderer is required for the
// openapi target; format selects its serialization.
func NewRenderer(oa *openapi.Renderer, format openapi.Format, skeletonPackage string, logger *slog.Logger) *Renderer {
	return &Renderer{
		openapi:         oa,
		format:          format,
		skeletonPackage: skeletonPackage,
		logger:          logger.With("component", "artifact_renderer"),
	}
}

// Render produces the artifacts of a single target.
func (r *Renderer) Render(ctx context.Context, target usecase.Target, routes []domain.Route) ([]domain.Artifact, error) {
	log := r.logger.With(slog.String("target", string(target)))

	var (
		out []domain.Artifact
		err error
	)
	switch target {
	case usecase.TargetJava:
		for _, nameErr := range javadsl.CheckNames(routes) {
			log.Warn("Unsafe unmarshal name replaced", slog.Any("error", nameErr))
		}
		out = []domain.Artifact{{Name: javadsl.FileName, MediaType: JavaMediaType, Content: []byte(javadsl.Render(routes))}}
	case usecase.TargetJSON:
		var data []byte
		if data, err = jsonout.RenderRoutes(routes); err == nil {
			out = []domain.Artifact{{Name: jsonout.RoutesFileName, MediaType: jsonout.MediaType, Content: data}}
		}
	case usecase.TargetMapped:
		var data []byte
		if data, err = jsonout.RenderMapped(springboot.MapAll(routes)); err == nil {
			out = []domain.Artifact{{Name: jsonout.MappedFileName, MediaType: jsonout.MediaType, Content: data}}
		}
	case usecase.TargetOpenAPI:
		out, err = r.renderOpenAPI(ctx, routes)
	case usecase.TargetSkeleton:
		out, err = skeleton.Emit(r.skeletonPackage)
	default:
		return nil, fmt.Errorf("%w: %q", usecase.ErrUnknownTarget, target)
	}
	if err != nil {
		log.Error("Failed to render target", slog.Any("error", err))
		return nil, fmt.Errorf("failed to render %s: %w", target, err)
	}

	log.Debug("Rendered target", slog.Int("artifact_count", len(out)))
	return out, nil
}

func (r *Renderer) renderOpenAPI(ctx context.Context, routes []domain.Route) ([]domain.Artifact, error) {
	if r.openapi == nil {
		return nil, fmt.Errorf("no OpenAPI renderer configured")
	}
	doc, err := r.openapi.Render(ctx, springboot.MapAll(routes))
	if err != nil {
		return nil, err
	}
	data, err := openapi.Marshal(doc, r.format)
	if err != nil {
		return nil, err
	}
	return []domain.Artifact{{Name: r.format.FileName(), MediaType: r.format.MediaType(), Content: data}}, nil
}
