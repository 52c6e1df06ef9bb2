// Package camelxml turns Camel Spring-XML documents into route IR.
//
// Parsing runs in two passes over the same bytes. The first pass collects
// every namespace declaration in the document; the second decodes the element
// tree and classifies route children by (namespace URI, local name).
package camelxml

import (
	"context"
	"encoding/xml"
	"log/slog"
	"strings"

	"github.com/i2y/camelconv/internal/domain"
)

// element is a generic node of the decoded document.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []element  `xml:",any"`
	Text     string     `xml:",chardata"`
}

func (e *element) attr(local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (e *element) attrPtr(local string) *string {
	if v, ok := e.attr(local); ok {
		return &v
	}
	return nil
}

// Parser converts documents into domain.ParseResult values. A Parser holds no
// per-document state and may be reused.
type Parser struct {
	namespace string
	policy    domain.MissingSourcePolicy
	logger    *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithNamespace overrides the Camel namespace URI routes are matched under.
func WithNamespace(uri string) Option {
	return func(p *Parser) {
		if uri != "" {
			p.namespace = uri
		}
	}
}

// WithMissingSourcePolicy selects how routes without a source are handled.
func WithMissingSourcePolicy(policy domain.MissingSourcePolicy) Option {
	return func(p *Parser) {
		p.policy = policy
	}
}

// NewParser creates a Parser for the default Camel namespace that skips
// routes without a source.
func NewParser(logger *slog.Logger, opts ...Option) *Parser {
	p := &Parser{
		namespace: domain.DefaultNamespace,
		policy:    domain.SkipRoute,
		logger:    logger.With("component", "camelxml_parser"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds the IR for data.
//
// A document that is not well-formed yields a *domain.DocumentMalformedError
// and an empty result. Under the AbortAll policy the first
// *domain.MissingSourceError is returned and no routes are kept. Every other
// structural problem is recorded in the result's Failures and the affected
// route or step is left out.
func (p *Parser) Parse(ctx context.Context, data []byte) (domain.ParseResult, error) {
	ns, err := ResolveNamespaces(data, p.namespace)
	if err != nil {
		p.logger.Error("Failed to scan namespace declarations", slog.Any("error", err))
		return domain.ParseResult{}, err
	}
	p.logger.Debug("Resolved namespaces", slog.Any("namespaces", ns.Map()), slog.String("target", p.namespace))

	var root element
	if err := newDecoder(data).Decode(&root); err != nil {
		p.logger.Error("Failed to decode document", slog.Any("error", err))
		return domain.ParseResult{}, &domain.DocumentMalformedError{Err: err}
	}

	var routeElems []*element
	p.collectRoutes(ns, &root, &routeElems)

	res := domain.ParseResult{}
	for i, re := range routeElems {
		if err := ctx.Err(); err != nil {
			return domain.ParseResult{}, err
		}
		route, err := p.parseRoute(ns, i, re, &res)
		if err != nil {
			res.Failures = append(res.Failures, err)
			if p.policy == domain.AbortAll {
				p.logger.Error("Route has no source, aborting", slog.Int("route_index", i), slog.Any("error", err))
				return domain.ParseResult{Failures: res.Failures, Unknown: res.Unknown}, err
			}
			p.logger.Warn("Skipping route without source", slog.Int("route_index", i), slog.Any("error", err))
			continue
		}
		res.Routes = append(res.Routes, route)
	}

	p.logger.Info("Parsed document",
		slog.Int("route_count", len(res.Routes)),
		slog.Int("failure_count", len(res.Failures)),
		slog.Int("unknown_count", len(res.Unknown)))
	return res, nil
}

func (p *Parser) is(ns *Namespaces, el *element, local string) bool {
	return el.XMLName.Local == local && ns.Resolve(el.XMLName) == p.namespace
}

// collectRoutes gathers route elements at any depth in document order. Route
// bodies are not searched for further routes.
func (p *Parser) collectRoutes(ns *Namespaces, el *element, out *[]*element) {
	if p.is(ns, el, "route") {
		*out = append(*out, el)
		return
	}
	for i := range el.Children {
		p.collectRoutes(ns, &el.Children[i], out)
	}
}

func (p *Parser) parseRoute(ns *Namespaces, routeIndex int, el *element, res *domain.ParseResult) (domain.Route, error) {
	id, _ := el.attr("id")
	route := domain.Route{ID: id}

	froms := 0
	for i := range el.Children {
		child := &el.Children[i]
		if p.is(ns, child, "from") {
			froms++
			route.Source, _ = child.attr("uri")
		}
	}
	if froms != 1 || route.Source == "" {
		return domain.Route{}, &domain.MissingSourceError{RouteIndex: routeIndex, RouteID: id, Found: froms}
	}

	stepIndex := 0
	for i := range el.Children {
		child := &el.Children[i]
		if p.is(ns, child, "from") {
			continue
		}
		step, err := p.parseStep(ns, routeIndex, stepIndex, child)
		switch {
		case err != nil:
			p.logger.Warn("Dropping step", slog.Int("route_index", routeIndex), slog.Int("step_index", stepIndex), slog.Any("error", err))
			res.Failures = append(res.Failures, err)
		case step == nil:
			u := domain.UnknownElement{
				RouteIndex: routeIndex,
				StepIndex:  stepIndex,
				Namespace:  ns.Resolve(child.XMLName),
				Local:      child.XMLName.Local,
			}
			p.logger.Warn("Unknown route element", slog.String("element", u.String()))
			res.Unknown = append(res.Unknown, u)
		default:
			route.Steps = append(route.Steps, step)
		}
		stepIndex++
	}
	return route, nil
}

// parseStep classifies one route child. It returns a nil step and nil error
// for elements outside the modeled grammar.
func (p *Parser) parseStep(ns *Namespaces, routeIndex, stepIndex int, el *element) (domain.Step, error) {
	if ns.Resolve(el.XMLName) != p.namespace {
		return nil, nil
	}
	switch domain.StepKind(el.XMLName.Local) {
	case domain.KindRemoveHeaders:
		pattern, _ := el.attr("pattern")
		return domain.RemoveHeaders{Pattern: pattern}, nil
	case domain.KindProcess:
		ref, _ := el.attr("ref")
		return domain.Process{Ref: ref}, nil
	case domain.KindSetHeader:
		name, ok := el.attr("headerName")
		if !ok {
			// Camel 3 renamed the attribute.
			name, _ = el.attr("name")
		}
		constant := p.child(ns, el, "constant")
		if constant == nil {
			return nil, &domain.MissingRequiredChildError{
				RouteIndex: routeIndex,
				StepIndex:  stepIndex,
				Element:    string(domain.KindSetHeader),
				Child:      "constant",
			}
		}
		return domain.SetHeader{HeaderName: name, Constant: strings.TrimSpace(constant.Text)}, nil
	case domain.KindLog:
		message, _ := el.attr("message")
		level, _ := el.attr("loggingLevel")
		return domain.Log{Message: message, Level: level}, nil
	case domain.KindTo:
		uri, _ := el.attr("uri")
		return domain.To{URI: uri}, nil
	case domain.KindUnmarshal:
		step := domain.Unmarshal{}
		if js := p.child(ns, el, "json"); js != nil {
			step.Library = js.attrPtr("library")
			step.TypeName = js.attrPtr("unmarshalTypeName")
		}
		return step, nil
	case domain.KindChoice:
		return domain.Choice{}, nil
	case domain.KindWhen:
		return domain.When{}, nil
	case domain.KindOtherwise:
		return domain.Otherwise{}, nil
	case domain.KindDoCatch:
		return domain.DoCatch{}, nil
	case domain.KindStrategyRef:
		return domain.StrategyRef{Ref: refOrText(el)}, nil
	case domain.KindRef:
		return domain.Ref{Ref: refOrText(el)}, nil
	case domain.KindSimple:
		return domain.Simple{Expression: text(el)}, nil
	}
	return nil, nil
}

func (p *Parser) child(ns *Namespaces, el *element, local string) *element {
	for i := range el.Children {
		if p.is(ns, &el.Children[i], local) {
			return &el.Children[i]
		}
	}
	return nil
}

func refOrText(el *element) *string {
	if ref := el.attrPtr("ref"); ref != nil {
		return ref
	}
	return text(el)
}

func text(el *element) *string {
	t := strings.TrimSpace(el.Text)
	if t == "" {
		return nil
	}
	return &t
}
