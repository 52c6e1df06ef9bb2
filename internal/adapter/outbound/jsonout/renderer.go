// Package jsonout serializes the route IR and the Spring-Boot mapping as
// indented JSON documents.
package jsonout

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/i2y/camelconv/internal/domain"
)

const (
	RoutesFileName = "camel-routes.json"
	MappedFileName = "routes.json"
	MediaType      = "application/json"
)

// RenderRoutes encodes the IR. A nil slice encodes as an empty array.
func RenderRoutes(routes []domain.Route) ([]byte, error) {
	if routes == nil {
		routes = []domain.Route{}
	}
	data, err := encode(routes, "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode routes: %w", err)
	}
	return data, nil
}

// RenderMapped encodes the Spring-Boot mapping. A nil slice encodes as an
// empty array.
func RenderMapped(routes []domain.MappedRoute) ([]byte, error) {
	if routes == nil {
		routes = []domain.MappedRoute{}
	}
	data, err := encode(routes, "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode mapped routes: %w", err)
	}
	return data, nil
}

// ParseRoutes reads a document produced by RenderRoutes back into IR.
func ParseRoutes(data []byte) ([]domain.Route, error) {
	var routes []domain.Route
	if err := json.Unmarshal(data, &routes); err != nil {
		return nil, fmt.Errorf("failed to decode routes: %w", err)
	}
	return routes, nil
}

// encode keeps '<', '>' and '&' literal since Camel URIs and simple
// expressions use them.
func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
