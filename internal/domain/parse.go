package domain

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// MissingSourcePolicy decides what happens to the rest of the document when
// a route has no resolvable source.
type MissingSourcePolicy string

const (
	// SkipRoute drops the offending route and keeps parsing.
	SkipRoute MissingSourcePolicy = "skip"
	// AbortAll discards every route and fails the parse.
	AbortAll MissingSourcePolicy = "abort"
)

// ParseMissingSourcePolicy validates a policy name. An empty name selects
// SkipRoute.
func ParseMissingSourcePolicy(s string) (MissingSourcePolicy, error) {
	switch MissingSourcePolicy(s) {
	case "", SkipRoute:
		return SkipRoute, nil
	case AbortAll:
		return AbortAll, nil
	}
	return "", fmt.Errorf("unknown missing-source policy %q (want %q or %q)", s, SkipRoute, AbortAll)
}

// UnknownElement is a route child that no step rule matched.
type UnknownElement struct {
	RouteIndex int    `json:"routeIndex"`
	StepIndex  int    `json:"stepIndex"`
	Namespace  string `json:"namespace,omitempty"`
	Local      string `json:"local"`
}

func (u UnknownElement) String() string {
	if u.Namespace == "" {
		return fmt.Sprintf("route[%d] step[%d]: <%s>", u.RouteIndex, u.StepIndex, u.Local)
	}
	return fmt.Sprintf("route[%d] step[%d]: <{%s}%s>", u.RouteIndex, u.StepIndex, u.Namespace, u.Local)
}

// ParseResult is the IR for one document together with every structural
// problem found while building it.
type ParseResult struct {
	Routes []Route
	// Failures holds *MissingSourceError and *MissingRequiredChildError
	// values in document order.
	Failures []error
	Unknown  []UnknownElement
}

// Err aggregates Failures, or returns nil when there are none.
func (r ParseResult) Err() error {
	var merr *multierror.Error
	for _, f := range r.Failures {
		merr = multierror.Append(merr, f)
	}
	return merr.ErrorOrNil()
}

// SkippedRoutes lists the labels of routes dropped for lacking a source.
func (r ParseResult) SkippedRoutes() []string {
	var out []string
	for _, f := range r.Failures {
		if ms, ok := f.(*MissingSourceError); ok {
			out = append(out, ms.label())
		}
	}
	return out
}
