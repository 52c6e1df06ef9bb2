package domain

import (
	"encoding/json"
	"fmt"
)

// DefaultNamespace is the Camel Spring-XML namespace used when a document
// declares none and no override is configured.
const DefaultNamespace = "http://camel.apache.org/schema/spring"

// Route is one Camel processing pipeline: a single source endpoint followed by
// an ordered list of steps. Routes are built once by the parser and are not
// mutated by any renderer.
type Route struct {
	// ID is the optional id attribute of the route element. It is only used to
	// identify routes in reports.
	ID string
	// Source is the uri of the route's single <from> element.
	Source string
	// Steps keeps document order; execution semantics depend on it.
	Steps []Step
}

type routeJSON struct {
	ID    string            `json:"id,omitempty"`
	From  string            `json:"from"`
	Steps []json.RawMessage `json:"steps"`
}

// MarshalJSON encodes the route as {"id", "from", "steps"} where every step
// carries a "type" discriminator.
func (r Route) MarshalJSON() ([]byte, error) {
	out := routeJSON{ID: r.ID, From: r.Source, Steps: make([]json.RawMessage, 0, len(r.Steps))}
	for i, s := range r.Steps {
		raw, err := MarshalStep(s)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		out.Steps = append(out.Steps, raw)
	}
	return marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *Route) UnmarshalJSON(data []byte) error {
	var in routeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	steps := make([]Step, 0, len(in.Steps))
	for i, raw := range in.Steps {
		s, err := UnmarshalStep(raw)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, s)
	}
	*r = Route{ID: in.ID, Source: in.From, Steps: steps}
	return nil
}

// Label identifies a route for operators: its id when present, otherwise its
// position in the document.
func (r Route) Label(index int) string {
	if r.ID != "" {
		return r.ID
	}
	return fmt.Sprintf("route[%d]", index)
}

// Artifact is one rendered output, written whole.
type Artifact struct {
	Name      string
	MediaType string
	Content   []byte
}
