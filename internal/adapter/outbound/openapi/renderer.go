package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"sigs.k8s.io/yaml"

	"github.com/i2y/camelconv/internal/domain"
)

const (
	DefaultTitle   = "Camel Routes API"
	DefaultVersion = "1.0.0"

	routeSchemaRef = "#/components/schemas/Route"
	stepSchemaRef  = "#/components/schemas/Step"
)

// Format selects the serialization of the rendered document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. An empty name selects YAML.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatYAML, "yml":
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown OpenAPI format %q (want yaml or json)", s)
}

// FileName is the conventional output name for the given format.
func (f Format) FileName() string {
	if f == FormatJSON {
		return "openapi.json"
	}
	return "openapi.yaml"
}

// MediaType is the content type of a document in format f.
func (f Format) MediaType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "application/yaml"
}

// Renderer builds OpenAPI 3.0 documents describing mapped routes.
type Renderer struct {
	title   string
	version string
	logger  *slog.Logger
}

// NewRenderer creates a Renderer. Empty title or version fall back to the
// defaults.
func NewRenderer(title, version string, logger *slog.Logger) *Renderer {
	if title == "" {
		title = DefaultTitle
	}
	if version == "" {
		version = DefaultVersion
	}
	return &Renderer{
		title:   title,
		version: version,
		logger:  logger.With("component", "openapi_renderer"),
	}
}

// DerivePath maps an endpoint URI to an HTTP path: the text after the first
// ':' and before any '?', prefixed with '/'.
func DerivePath(endpoint string) (string, error) {
	_, rest, ok := strings.Cut(endpoint, ":")
	if !ok {
		return "", &domain.InvalidEndpointFormatError{RouteIndex: -1, Endpoint: endpoint}
	}
	rest, _, _ = strings.Cut(rest, "?")
	return "/" + rest, nil
}

// OperationID names the GET operation for path.
func OperationID(path string) string {
	return "getRouteFrom" + strings.ReplaceAll(path, "/", "_")
}

// Render builds the document. It fails on the first endpoint a path cannot
// be derived from. When two routes derive the same path the first one wins.
func (r *Renderer) Render(ctx context.Context, routes []domain.MappedRoute) (*openapi3.T, error) {
	routeSchema, stepSchema := componentSchemas()

	doc := &openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:   r.title,
			Version: r.version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"Route": openapi3.NewSchemaRef("", routeSchema),
				"Step":  openapi3.NewSchemaRef("", stepSchema),
			},
		},
	}

	for i, route := range routes {
		path, err := DerivePath(route.Endpoint)
		if err != nil {
			r.logger.Error("Cannot derive path from endpoint", slog.Int("route_index", i), slog.String("endpoint", route.Endpoint))
			return nil, &domain.InvalidEndpointFormatError{RouteIndex: i, Endpoint: route.Endpoint}
		}
		if doc.Paths.Value(path) != nil {
			r.logger.Warn("Duplicate path, keeping first route",
				slog.Int("route_index", i), slog.String("path", path), slog.String("endpoint", route.Endpoint))
			continue
		}

		resp := openapi3.NewResponse().
			WithDescription("Successful operation").
			WithJSONSchemaRef(&openapi3.SchemaRef{Ref: routeSchemaRef, Value: routeSchema})
		responses := &openapi3.Responses{}
		responses.Set("200", &openapi3.ResponseRef{Value: resp})

		doc.Paths.Set(path, &openapi3.PathItem{
			Get: &openapi3.Operation{
				Summary:     "Get route from " + route.Endpoint,
				OperationID: OperationID(path),
				Responses:   responses,
			},
		})
		r.logger.Debug("Added path", slog.String("path", path), slog.String("operation_id", OperationID(path)))
	}

	if err := doc.Validate(ctx); err != nil {
		r.logger.Warn("Generated OpenAPI document failed validation", slog.Any("validation_error", err))
	}
	r.logger.Info("Rendered OpenAPI document", slog.Int("path_count", doc.Paths.Len()))
	return doc, nil
}

// componentSchemas returns the fixed Route and Step schemas. Step's
// properties are the union of every field any step variant can carry.
func componentSchemas() (route, step *openapi3.Schema) {
	step = openapi3.NewObjectSchema()
	for _, name := range []string{
		"type", "pattern", "ref", "headerName", "constant", "message", "loggingLevel",
		"uri", "library", "unmarshalTypeName", "expression", "customBean",
	} {
		step.WithProperty(name, openapi3.NewStringSchema())
	}
	step.WithProperty("annotations", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()))
	step.WithProperty("Jaxb2Marshaller", openapi3.NewObjectSchema().
		WithProperty("library", openapi3.NewStringSchema()).
		WithProperty("unmarshalTypeName", openapi3.NewStringSchema()))

	steps := openapi3.NewArraySchema()
	steps.Items = &openapi3.SchemaRef{Ref: stepSchemaRef, Value: step}

	route = openapi3.NewObjectSchema().
		WithProperty("endpoint", openapi3.NewStringSchema()).
		WithProperty("steps", steps)
	return route, step
}

// Marshal serializes doc. YAML output is converted from the JSON encoding so
// both formats carry the same keys.
//
// kin-openapi escapes HTML characters inside its own MarshalJSON, so the
// document is decoded into generic values and encoded again without escaping.
func Marshal(doc *openapi3.T, format Format) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode OpenAPI document: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("failed to decode OpenAPI document: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(generic); err != nil {
		return nil, fmt.Errorf("failed to encode OpenAPI document: %w", err)
	}
	if format == FormatJSON {
		return buf.Bytes(), nil
	}
	out, err := yaml.JSONToYAML(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to convert OpenAPI document to YAML: %w", err)
	}
	return out, nil
}
