package domain

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is against the typed errors below.
var (
	ErrDocumentMalformed     = errors.New("document malformed")
	ErrMissingSource         = errors.New("route has no source")
	ErrMissingRequiredChild  = errors.New("missing required child element")
	ErrInvalidEndpointFormat = errors.New("invalid endpoint format")
)

// DocumentMalformedError means the XML could not be parsed at all. The whole
// run is aborted and no routes are produced.
type DocumentMalformedError struct {
	Err error
}

func (e *DocumentMalformedError) Error() string {
	return fmt.Sprintf("malformed document: %v", e.Err)
}

func (e *DocumentMalformedError) Unwrap() error        { return e.Err }
func (e *DocumentMalformedError) Is(target error) bool { return target == ErrDocumentMalformed }

// MissingSourceError is scoped to one route: it did not have exactly one
// <from> element with a uri.
type MissingSourceError struct {
	RouteIndex int
	RouteID    string
	Found      int
}

func (e *MissingSourceError) Error() string {
	if e.Found == 1 {
		return fmt.Sprintf("%s: <from> has no uri", e.label())
	}
	return fmt.Sprintf("%s: expected exactly one <from>, found %d", e.label(), e.Found)
}

func (e *MissingSourceError) Is(target error) bool { return target == ErrMissingSource }

func (e *MissingSourceError) label() string {
	return Route{ID: e.RouteID}.Label(e.RouteIndex)
}

// MissingRequiredChildError is scoped to one step, e.g. a setHeader without
// a nested constant. Only that step is dropped.
type MissingRequiredChildError struct {
	RouteIndex int
	StepIndex  int
	Element    string
	Child      string
}

func (e *MissingRequiredChildError) Error() string {
	return fmt.Sprintf("route[%d] step[%d]: <%s> requires a nested <%s>", e.RouteIndex, e.StepIndex, e.Element, e.Child)
}

func (e *MissingRequiredChildError) Is(target error) bool { return target == ErrMissingRequiredChild }

// InvalidEndpointFormatError is raised when no HTTP path can be derived from
// an endpoint URI because it has no scheme separator. RouteIndex is -1 when
// the endpoint was checked outside of a route.
type InvalidEndpointFormatError struct {
	RouteIndex int
	Endpoint   string
}

func (e *InvalidEndpointFormatError) Error() string {
	msg := fmt.Sprintf("endpoint %q has no ':' separator", e.Endpoint)
	if e.RouteIndex < 0 {
		return msg
	}
	return fmt.Sprintf("route[%d]: %s", e.RouteIndex, msg)
}

func (e *InvalidEndpointFormatError) Is(target error) bool { return target == ErrInvalidEndpointFormat }
