package usecase_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/i2y/camelconv/internal/domain"
	"github.com/i2y/camelconv/internal/usecase"
)

// MockDocumentSource is a mock implementation of the DocumentSource interface.
type MockDocumentSource struct {
	mock.Mock
}

func (m *MockDocumentSource) Fetch(ctx context.Context, src string) ([]byte, error) {
	args := m.Called(ctx, src)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.([]byte), args.Error(1)
}

// MockRouteParser is a mock implementation of the RouteParser interface.
type MockRouteParser struct {
	mock.Mock
}

func (m *MockRouteParser) Parse(ctx context.Context, data []byte) (domain.ParseResult, error) {
	args := m.Called(ctx, data)
	return args.Get(0).(domain.ParseResult), args.Error(1)
}

// MockArtifactRenderer is a mock implementation of the ArtifactRenderer interface.
type MockArtifactRenderer struct {
	mock.Mock
}

func (m *MockArtifactRenderer) Render(ctx context.Context, target usecase.Target, routes []domain.Route) ([]domain.Artifact, error) {
	args := m.Called(ctx, target, routes)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.([]domain.Artifact), args.Error(1)
}

// MockArtifactStore is a mock implementation of the ArtifactStore interface.
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Save(ctx context.Context, artifacts []domain.Artifact) error {
	args := m.Called(ctx, artifacts)
	return args.Error(0)
}

type fixture struct {
	source   *MockDocumentSource
	parser   *MockRouteParser
	renderer *MockArtifactRenderer
	store    *MockArtifactStore
	spans    *tracetest.SpanRecorder
	metrics  *sdkmetric.ManualReader
	uc       *usecase.ConvertUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	f := &fixture{
		source:   new(MockDocumentSource),
		parser:   new(MockRouteParser),
		renderer: new(MockArtifactRenderer),
		store:    new(MockArtifactStore),
		spans:    tracetest.NewSpanRecorder(),
		metrics:  sdkmetric.NewManualReader(),
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(f.spans))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(f.metrics))

	uc, err := usecase.NewConvertUseCase(f.source, f.parser, f.renderer, f.store, logger,
		usecase.WithTracerProvider(tp), usecase.WithMeterProvider(mp))
	require.NoError(t, err)
	f.uc = uc
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.source.AssertExpectations(t)
	f.parser.AssertExpectations(t)
	f.renderer.AssertExpectations(t)
	f.store.AssertExpectations(t)
}

func (f *fixture) spanNames() []string {
	var names []string
	for _, s := range f.spans.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func (f *fixture) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.metrics.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

var (
	xmlDoc = []byte(`<routes/>`)
	routes = []domain.Route{{ID: "orders", Source: "direct:orders", Steps: []domain.Step{domain.To{URI: "mock:a"}}}}
	java   = domain.Artifact{Name: "CamelRoutes.java", Content: []byte("class")}
	api    = domain.Artifact{Name: "openapi.yaml", Content: []byte("openapi: 3.0.0")}
)

func TestConvertUseCase_Execute_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.source.On("Fetch", mock.Anything, "camel.xml").Return(xmlDoc, nil).Once()
	f.parser.On("Parse", mock.Anything, xmlDoc).Return(domain.ParseResult{Routes: routes}, nil).Once()
	f.renderer.On("Render", mock.Anything, usecase.TargetJava, routes).Return([]domain.Artifact{java}, nil).Once()
	f.renderer.On("Render", mock.Anything, usecase.TargetOpenAPI, routes).Return([]domain.Artifact{api}, nil).Once()
	f.store.On("Save", mock.Anything, []domain.Artifact{java, api}).Return(nil).Once()

	report, err := f.uc.Execute(ctx, usecase.ConvertRequest{
		Source:  "camel.xml",
		Targets: []usecase.Target{usecase.TargetOpenAPI, usecase.TargetJava, usecase.TargetJava},
	})
	require.NoError(t, err)

	assert.Equal(t, "camel.xml", report.Source)
	assert.Equal(t, 1, report.RoutesParsed)
	assert.Equal(t, []string{"CamelRoutes.java", "openapi.yaml"}, report.Artifacts)
	assert.Equal(t, []domain.Artifact{java, api}, report.Rendered)
	assert.NoError(t, report.Err)
	assert.False(t, report.Recovered())

	assert.Equal(t, []string{"fetch", "parse", "render", "render", "save", "convert"}, f.spanNames())
	assert.Equal(t, int64(1), f.counter(t, "camelconv.routes.parsed"))
	assert.Equal(t, int64(0), f.counter(t, "camelconv.routes.skipped"))
	f.assertExpectations(t)
}

func TestConvertUseCase_Execute_RecoverableFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result := domain.ParseResult{
		Routes: routes,
		Failures: []error{
			&domain.MissingSourceError{RouteIndex: 1, RouteID: "broken"},
			&domain.MissingRequiredChildError{RouteIndex: 0, StepIndex: 1, Element: "setHeader", Child: "constant"},
		},
		Unknown: []domain.UnknownElement{{RouteIndex: 0, StepIndex: 2, Local: "loop"}},
	}
	f.parser.On("Parse", mock.Anything, xmlDoc).Return(result, nil).Once()
	f.renderer.On("Render", mock.Anything, mock.Anything, routes).Return([]domain.Artifact{java}, nil).Times(len(usecase.AllTargets()))
	f.store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	report, err := f.uc.Execute(ctx, usecase.ConvertRequest{Data: xmlDoc, Targets: []usecase.Target{usecase.TargetAll}})
	require.NoError(t, err)

	assert.True(t, report.Recovered())
	assert.ErrorIs(t, report.Err, domain.ErrMissingSource)
	assert.ErrorIs(t, report.Err, domain.ErrMissingRequiredChild)
	assert.Equal(t, []string{"broken"}, report.SkippedRoutes)
	assert.Len(t, report.Failures, 2)
	assert.Equal(t, result.Unknown, report.Unknown)

	assert.Equal(t, int64(1), f.counter(t, "camelconv.routes.skipped"))
	assert.Equal(t, int64(1), f.counter(t, "camelconv.elements.unknown"))
	f.source.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestConvertUseCase_Execute_FatalErrorsWriteNothing(t *testing.T) {
	fetchErr := errors.New("connection refused")
	malformed := &domain.DocumentMalformedError{Err: errors.New("XML syntax error")}
	aborted := &domain.MissingSourceError{RouteIndex: 0}
	badEndpoint := &domain.InvalidEndpointFormatError{RouteIndex: 0, Endpoint: "orders"}

	tests := []struct {
		name      string
		mockSetup func(f *fixture)
		wantErrIs error
	}{
		{
			name: "fetch fails",
			mockSetup: func(f *fixture) {
				f.source.On("Fetch", mock.Anything, "camel.xml").Return(nil, fetchErr).Once()
			},
			wantErrIs: fetchErr,
		},
		{
			name: "malformed document",
			mockSetup: func(f *fixture) {
				f.source.On("Fetch", mock.Anything, "camel.xml").Return(xmlDoc, nil).Once()
				f.parser.On("Parse", mock.Anything, xmlDoc).Return(domain.ParseResult{}, malformed).Once()
			},
			wantErrIs: domain.ErrDocumentMalformed,
		},
		{
			name: "abort policy",
			mockSetup: func(f *fixture) {
				f.source.On("Fetch", mock.Anything, "camel.xml").Return(xmlDoc, nil).Once()
				f.parser.On("Parse", mock.Anything, xmlDoc).Return(domain.ParseResult{Failures: []error{aborted}}, aborted).Once()
			},
			wantErrIs: domain.ErrMissingSource,
		},
		{
			name: "invalid endpoint",
			mockSetup: func(f *fixture) {
				f.source.On("Fetch", mock.Anything, "camel.xml").Return(xmlDoc, nil).Once()
				f.parser.On("Parse", mock.Anything, xmlDoc).Return(domain.ParseResult{Routes: routes}, nil).Once()
				f.renderer.On("Render", mock.Anything, usecase.TargetJava, routes).Return([]domain.Artifact{java}, nil).Once()
				f.renderer.On("Render", mock.Anything, usecase.TargetOpenAPI, routes).Return(nil, badEndpoint).Once()
			},
			wantErrIs: domain.ErrInvalidEndpointFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.mockSetup(f)

			report, err := f.uc.Execute(context.Background(), usecase.ConvertRequest{
				Source:  "camel.xml",
				Targets: []usecase.Target{usecase.TargetJava, usecase.TargetOpenAPI},
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErrIs)
			assert.Empty(t, report.Artifacts)
			assert.Nil(t, report.Rendered)

			f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			f.assertExpectations(t)
		})
	}
}

func TestConvertUseCase_Execute_SaveFails(t *testing.T) {
	f := newFixture(t)
	saveErr := errors.New("disk full")

	f.renderer.On("Render", mock.Anything, usecase.TargetSkeleton, []domain.Route(nil)).Return([]domain.Artifact{java}, nil).Once()
	f.store.On("Save", mock.Anything, []domain.Artifact{java}).Return(saveErr).Once()

	_, err := f.uc.Execute(context.Background(), usecase.ConvertRequest{Targets: []usecase.Target{usecase.TargetSkeleton}})
	assert.ErrorIs(t, err, saveErr)
	f.assertExpectations(t)
}

func TestConvertUseCase_Execute_SkeletonNeedsNoDocument(t *testing.T) {
	f := newFixture(t)

	f.renderer.On("Render", mock.Anything, usecase.TargetSkeleton, []domain.Route(nil)).Return([]domain.Artifact{java}, nil).Once()
	f.store.On("Save", mock.Anything, []domain.Artifact{java}).Return(nil).Once()

	report, err := f.uc.Execute(context.Background(), usecase.ConvertRequest{Targets: []usecase.Target{usecase.TargetSkeleton}})
	require.NoError(t, err)
	assert.Equal(t, []string{"CamelRoutes.java"}, report.Artifacts)
	f.source.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	f.parser.AssertNotCalled(t, "Parse", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestConvertUseCase_Execute_InvalidRequests(t *testing.T) {
	tests := []struct {
		name      string
		req       usecase.ConvertRequest
		wantErrIs error
	}{
		{name: "unknown target", req: usecase.ConvertRequest{Source: "a.xml", Targets: []usecase.Target{"pdf"}}, wantErrIs: usecase.ErrUnknownTarget},
		{name: "no targets", req: usecase.ConvertRequest{Source: "a.xml"}, wantErrIs: usecase.ErrUnknownTarget},
		{name: "no source", req: usecase.ConvertRequest{Targets: []usecase.Target{usecase.TargetJava}}, wantErrIs: usecase.ErrEmptySource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErrIs)
			f.assertExpectations(t)
		})
	}
}

func TestConvertUseCase_Execute_WithoutStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	parser := new(MockRouteParser)
	renderer := new(MockArtifactRenderer)

	parser.On("Parse", mock.Anything, xmlDoc).Return(domain.ParseResult{Routes: routes}, nil).Once()
	renderer.On("Render", mock.Anything, usecase.TargetJava, routes).Return([]domain.Artifact{java}, nil).Once()

	uc, err := usecase.NewConvertUseCase(nil, parser, renderer, nil, logger)
	require.NoError(t, err)

	report, err := uc.Execute(context.Background(), usecase.ConvertRequest{Data: xmlDoc, Targets: []usecase.Target{usecase.TargetJava}})
	require.NoError(t, err)
	assert.Equal(t, []domain.Artifact{java}, report.Rendered)
	parser.AssertExpectations(t)
	renderer.AssertExpectations(t)
}

func TestParseTarget(t *testing.T) {
	for _, name := range []string{"java", "JSON", " mapped ", "openapi", "skeleton", "all"} {
		_, err := usecase.ParseTarget(name)
		assert.NoError(t, err, name)
	}
	_, err := usecase.ParseTarget("pdf")
	assert.ErrorIs(t, err, usecase.ErrUnknownTarget)
}
