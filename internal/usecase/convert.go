package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/i2y/camelconv/internal/domain"
)

const instrumentationName = "github.com/i2y/camelconv/internal/usecase"

// Target names one kind of output a conversion can produce.
type Target string

const (
	TargetJava     Target = "java"
	TargetJSON     Target = "json"
	TargetMapped   Target = "mapped"
	TargetOpenAPI  Target = "openapi"
	TargetSkeleton Target = "skeleton"
	TargetAll      Target = "all"
)

// AllTargets lists every concrete target in the order artifacts are produced.
func AllTargets() []Target {
	return []Target{TargetJava, TargetJSON, TargetMapped, TargetOpenAPI, TargetSkeleton}
}

// ParseTarget validates a target name.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	if t == TargetAll || slices.Contains(AllTargets(), t) {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTarget, s)
}

// expandTargets replaces "all" with every target, drops duplicates and
// returns the result in canonical order.
func expandTargets(targets []Target) ([]Target, error) {
	want := make(map[Target]bool, len(targets))
	for _, t := range targets {
		switch {
		case t == TargetAll:
			for _, each := range AllTargets() {
				want[each] = true
			}
		case slices.Contains(AllTargets(), t):
			want[t] = true
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, t)
		}
	}
	out := make([]Target, 0, len(want))
	for _, t := range AllTargets() {
		if want[t] {
			out = append(out, t)
		}
	}
	return out, nil
}

// needsDocument reports whether any target is derived from the routes.
func needsDocument(targets []Target) bool {
	return slices.ContainsFunc(targets, func(t Target) bool { return t != TargetSkeleton })
}

// ConvertRequest selects the document and the outputs of one conversion.
type ConvertRequest struct {
	// Source is passed to the DocumentSource unless Data is set.
	Source string
	// Data is an inline document. When non-nil it is parsed as is.
	Data    []byte
	Targets []Target
}

// ConversionReport describes the outcome of one conversion.
type ConversionReport struct {
	Source        string                  `json:"source,omitempty"`
	RoutesParsed  int                     `json:"routesParsed"`
	Artifacts     []string                `json:"artifacts"`
	SkippedRoutes []string                `json:"skippedRoutes,omitempty"`
	Failures      []string                `json:"failures,omitempty"`
	Unknown       []domain.UnknownElement `json:"unknownElements,omitempty"`

	// Rendered holds the produced artifacts with their content.
	Rendered []domain.Artifact `json:"-"`
	// Err aggregates the recoverable failures. It is nil for a clean run.
	Err error `json:"-"`
}

// Recovered reports whether the conversion succeeded only after dropping
// routes or steps.
func (r ConversionReport) Recovered() bool {
	return r.Err != nil
}

// ConvertUseCase runs fetch, parse, render and save for one document.
type ConvertUseCase struct {
	source   DocumentSource
	parser   RouteParser
	renderer ArtifactRenderer
	store    ArtifactStore
	logger   *slog.Logger

	tracer        trace.Tracer
	routesParsed  metric.Int64Counter
	routesSkipped metric.Int64Counter
	unknownSeen   metric.Int64Counter
}

// Option configures a ConvertUseCase.
type Option func(*convertOptions)

type convertOptions struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *convertOptions) { o.tracerProvider = tp }
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *convertOptions) { o.meterProvider = mp }
}

// NewConvertUseCase creates a ConvertUseCase. A nil store renders without
// persisting; the artifacts are still returned in the report.
func NewConvertUseCase(
	source DocumentSource,
	parser RouteParser,
	renderer ArtifactRenderer,
	store ArtifactStore,
	logger *slog.Logger,
	opts ...Option,
) (*ConvertUseCase, error) {
	o := convertOptions{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.meterProvider.Meter(instrumentationName)
	routesParsed, err := meter.Int64Counter("camelconv.routes.parsed",
		metric.WithDescription("Routes that reached the IR"), metric.WithUnit("{route}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create routes parsed counter: %w", err)
	}
	routesSkipped, err := meter.Int64Counter("camelconv.routes.skipped",
		metric.WithDescription("Routes dropped for lacking a source"), metric.WithUnit("{route}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create routes skipped counter: %w", err)
	}
	unknownSeen, err := meter.Int64Counter("camelconv.elements.unknown",
		metric.WithDescription("Route children that matched no step rule"), metric.WithUnit("{element}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create unknown elements counter: %w", err)
	}

	return &ConvertUseCase{
		source:        source,
		parser:        parser,
		renderer:      renderer,
		store:         store,
		logger:        logger.With("usecase", "Convert"),
		tracer:        o.tracerProvider.Tracer(instrumentationName),
		routesParsed:  routesParsed,
		routesSkipped: routesSkipped,
		unknownSeen:   unknownSeen,
	}, nil
}

// Execute converts one document. Fatal problems (an unreadable or malformed
// document, the abort policy, an endpoint with no derivable path, a failed
// save) are returned as the error and nothing is written. Routes or steps
// dropped along the way are listed in the report and aggregated in its Err.
func (uc *ConvertUseCase) Execute(ctx context.Context, req ConvertRequest) (ConversionReport, error) {
	report := ConversionReport{Source: req.Source, Artifacts: []string{}}
	log := uc.logger.With(slog.String("source", req.Source))

	ctx, span := uc.tracer.Start(ctx, "convert", trace.WithAttributes(attribute.String("camelconv.source", req.Source)))
	defer span.End()

	targets, err := expandTargets(req.Targets)
	if err != nil {
		return report, fail(span, err)
	}
	if len(targets) == 0 {
		return report, fail(span, fmt.Errorf("%w: no targets requested", ErrUnknownTarget))
	}
	span.SetAttributes(attribute.StringSlice("camelconv.targets", targetNames(targets)))
	log.Info("Starting conversion", slog.Any("targets", targets))

	var routes []domain.Route
	if needsDocument(targets) {
		data, err := uc.fetch(ctx, req)
		if err != nil {
			return report, fail(span, err)
		}

		result, err := uc.parse(ctx, data)
		report.Unknown = result.Unknown
		report.SkippedRoutes = result.SkippedRoutes()
		for _, f := range result.Failures {
			report.Failures = append(report.Failures, f.Error())
		}
		uc.record(ctx, result)
		if err != nil {
			log.Error("Parse failed, nothing will be written", slog.Any("error", err))
			return report, fail(span, err)
		}
		routes = result.Routes
		report.RoutesParsed = len(routes)
		report.Err = result.Err()
	}

	var rendered []domain.Artifact
	for _, target := range targets {
		out, err := uc.render(ctx, target, routes)
		if err != nil {
			log.Error("Render failed, nothing will be written", slog.String("target", string(target)), slog.Any("error", err))
			return report, fail(span, err)
		}
		rendered = append(rendered, out...)
	}

	if uc.store != nil {
		if err := uc.save(ctx, rendered); err != nil {
			log.Error("Failed to save artifacts", slog.Any("error", err))
			return report, fail(span, err)
		}
	}

	report.Rendered = rendered
	for _, a := range rendered {
		report.Artifacts = append(report.Artifacts, a.Name)
	}
	if report.Err != nil {
		span.SetAttributes(attribute.Int("camelconv.failures", len(report.Failures)))
		log.Warn("Conversion finished with recoverable errors",
			slog.Int("route_count", report.RoutesParsed),
			slog.Any("skipped_routes", report.SkippedRoutes),
			slog.Any("error", report.Err))
	} else {
		log.Info("Conversion finished", slog.Int("route_count", report.RoutesParsed), slog.Any("artifacts", report.Artifacts))
	}
	return report, nil
}

func (uc *ConvertUseCase) fetch(ctx context.Context, req ConvertRequest) ([]byte, error) {
	if req.Data != nil {
		return req.Data, nil
	}
	if req.Source == "" {
		return nil, ErrEmptySource
	}
	if uc.source == nil {
		return nil, fmt.Errorf("no document source configured for %s", req.Source)
	}

	ctx, span := uc.tracer.Start(ctx, "fetch")
	defer span.End()

	data, err := uc.source.Fetch(ctx, req.Source)
	if err != nil {
		return nil, fail(span, fmt.Errorf("failed to fetch document: %w", err))
	}
	span.SetAttributes(attribute.Int("camelconv.document.bytes", len(data)))
	return data, nil
}

func (uc *ConvertUseCase) parse(ctx context.Context, data []byte) (domain.ParseResult, error) {
	ctx, span := uc.tracer.Start(ctx, "parse")
	defer span.End()

	result, err := uc.parser.Parse(ctx, data)
	span.SetAttributes(
		attribute.Int("camelconv.routes", len(result.Routes)),
		attribute.Int("camelconv.failures", len(result.Failures)),
		attribute.Int("camelconv.unknown_elements", len(result.Unknown)),
	)
	if err != nil {
		return result, fail(span, err)
	}
	return result, nil
}

func (uc *ConvertUseCase) render(ctx context.Context, target Target, routes []domain.Route) ([]domain.Artifact, error) {
	ctx, span := uc.tracer.Start(ctx, "render", trace.WithAttributes(attribute.String("camelconv.target", string(target))))
	defer span.End()

	out, err := uc.renderer.Render(ctx, target, routes)
	if err != nil {
		return nil, fail(span, err)
	}
	return out, nil
}

func (uc *ConvertUseCase) save(ctx context.Context, artifacts []domain.Artifact) error {
	ctx, span := uc.tracer.Start(ctx, "save", trace.WithAttributes(attribute.Int("camelconv.artifacts", len(artifacts))))
	defer span.End()

	if err := uc.store.Save(ctx, artifacts); err != nil {
		return fail(span, fmt.Errorf("failed to save artifacts: %w", err))
	}
	return nil
}

func (uc *ConvertUseCase) record(ctx context.Context, result domain.ParseResult) {
	uc.routesParsed.Add(ctx, int64(len(result.Routes)))
	uc.routesSkipped.Add(ctx, int64(len(result.SkippedRoutes())))
	uc.unknownSeen.Add(ctx, int64(len(result.Unknown)))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func targetNames(targets []Target) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = string(t)
	}
	return out
}
