// Package springboot reshapes route IR into the Spring-Boot step layout used
// by the OpenAPI and mapped JSON backends.
package springboot

import (
	"github.com/i2y/camelconv/internal/domain"
)

// RemoveHeadersType is the canonical "type" written for removeHeaders steps.
const RemoveHeadersType = "removeHeaders"

// AutowiredAnnotation is attached to every process step.
const AutowiredAnnotation = "@Autowired"

// MapAll maps every route, preserving order.
func MapAll(routes []domain.Route) []domain.MappedRoute {
	out := make([]domain.MappedRoute, 0, len(routes))
	for _, r := range routes {
		out = append(out, Map(r))
	}
	return out
}

// Map reshapes one route. The endpoint is the route's source URI.
func Map(route domain.Route) domain.MappedRoute {
	mapped := domain.MappedRoute{
		Endpoint: route.Source,
		Steps:    make([]domain.MappedStep, 0, len(route.Steps)),
	}
	for _, s := range route.Steps {
		mapped.Steps = append(mapped.Steps, MapStep(s))
	}
	return mapped
}

// MapStep applies the Spring-Boot table to a single step. Every variant has
// an explicit rule.
func MapStep(s domain.Step) domain.MappedStep {
	switch v := s.(type) {
	case domain.To:
		return domain.MappedStep{URI: domain.StringPtr(v.URI)}
	case domain.Unmarshal:
		return domain.MappedStep{Jaxb2Marshaller: &domain.Jaxb2Marshaller{
			Library:           v.Library,
			UnmarshalTypeName: v.TypeName,
		}}
	case domain.Process:
		return domain.MappedStep{Annotations: []string{AutowiredAnnotation}, CustomBean: domain.StringPtr(v.Ref)}
	case domain.RemoveHeaders:
		return domain.MappedStep{Type: RemoveHeadersType, Pattern: domain.StringPtr(v.Pattern)}
	case domain.SetHeader:
		return domain.MappedStep{Type: "setHeader", HeaderName: domain.StringPtr(v.HeaderName), Constant: domain.StringPtr(v.Constant)}
	case domain.Log:
		return domain.MappedStep{Type: "log", Message: domain.StringPtr(v.Message), LoggingLevel: domain.StringPtr(v.Level)}
	case domain.Choice, domain.When:
		return domain.MappedStep{Type: "if-else"}
	case domain.DoCatch:
		return domain.MappedStep{Type: "catch"}
	case domain.Otherwise:
		return domain.MappedStep{Type: "else"}
	case domain.StrategyRef:
		return domain.MappedStep{Type: "strategyRef"}
	case domain.Ref:
		return domain.MappedStep{Type: "endpoint"}
	case domain.Simple:
		return domain.MappedStep{Type: "expression"}
	}
	// Unreachable for the closed Step set.
	return domain.MappedStep{Type: string(s.Kind())}
}
