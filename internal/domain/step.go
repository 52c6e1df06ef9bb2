package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StepKind names a Step variant. The value is the element's local name in
// Camel Spring-XML and the "type" discriminator in the JSON form of the IR.
type StepKind string

const (
	KindRemoveHeaders StepKind = "removeHeaders"
	KindProcess       StepKind = "process"
	KindSetHeader     StepKind = "setHeader"
	KindLog           StepKind = "log"
	KindTo            StepKind = "to"
	KindUnmarshal     StepKind = "unmarshal"
	KindChoice        StepKind = "choice"
	KindWhen          StepKind = "when"
	KindOtherwise     StepKind = "otherwise"
	KindDoCatch       StepKind = "doCatch"
	KindStrategyRef   StepKind = "strategyRef"
	KindRef           StepKind = "ref"
	KindSimple        StepKind = "simple"
)

// AllStepKinds lists every variant in canonical order. Renderers and mappers
// are tested against this list to prove their tables are total.
func AllStepKinds() []StepKind {
	return []StepKind{
		KindRemoveHeaders, KindProcess, KindSetHeader, KindLog, KindTo, KindUnmarshal,
		KindChoice, KindWhen, KindOtherwise, KindDoCatch, KindStrategyRef, KindRef, KindSimple,
	}
}

// Step is one instruction within a route. The set of implementations is
// closed: only the types in this file satisfy it.
type Step interface {
	Kind() StepKind
	isStep()
}

type RemoveHeaders struct{ Pattern string }

type Process struct{ Ref string }

type SetHeader struct {
	HeaderName string
	Constant   string
}

type Log struct {
	Message string
	Level   string
}

type To struct{ URI string }

// Unmarshal is read from a nested <json> element. Both fields are nil when
// that element is absent.
type Unmarshal struct {
	Library  *string
	TypeName *string
}

// Choice, When, Otherwise and DoCatch are flat markers; their nested children
// are not modeled.
type Choice struct{}

type When struct{}

type Otherwise struct{}

type DoCatch struct{}

type StrategyRef struct{ Ref *string }

type Ref struct{ Ref *string }

type Simple struct{ Expression *string }

func (RemoveHeaders) Kind() StepKind { return KindRemoveHeaders }
func (Process) Kind() StepKind       { return KindProcess }
func (SetHeader) Kind() StepKind     { return KindSetHeader }
func (Log) Kind() StepKind           { return KindLog }
func (To) Kind() StepKind            { return KindTo }
func (Unmarshal) Kind() StepKind     { return KindUnmarshal }
func (Choice) Kind() StepKind        { return KindChoice }
func (When) Kind() StepKind          { return KindWhen }
func (Otherwise) Kind() StepKind     { return KindOtherwise }
func (DoCatch) Kind() StepKind       { return KindDoCatch }
func (StrategyRef) Kind() StepKind   { return KindStrategyRef }
func (Ref) Kind() StepKind           { return KindRef }
func (Simple) Kind() StepKind        { return KindSimple }

func (RemoveHeaders) isStep() {}
func (Process) isStep()       {}
func (SetHeader) isStep()     {}
func (Log) isStep()           {}
func (To) isStep()            {}
func (Unmarshal) isStep()     {}
func (Choice) isStep()        {}
func (When) isStep()          {}
func (Otherwise) isStep()     {}
func (DoCatch) isStep()       {}
func (StrategyRef) isStep()   {}
func (Ref) isStep()           {}
func (Simple) isStep()        {}

// NewStep returns the zero value of the variant named by kind.
func NewStep(kind StepKind) (Step, error) {
	switch kind {
	case KindRemoveHeaders:
		return RemoveHeaders{}, nil
	case KindProcess:
		return Process{}, nil
	case KindSetHeader:
		return SetHeader{}, nil
	case KindLog:
		return Log{}, nil
	case KindTo:
		return To{}, nil
	case KindUnmarshal:
		return Unmarshal{}, nil
	case KindChoice:
		return Choice{}, nil
	case KindWhen:
		return When{}, nil
	case KindOtherwise:
		return Otherwise{}, nil
	case KindDoCatch:
		return DoCatch{}, nil
	case KindStrategyRef:
		return StrategyRef{}, nil
	case KindRef:
		return Ref{}, nil
	case KindSimple:
		return Simple{}, nil
	}
	return nil, fmt.Errorf("unknown step kind %q", kind)
}

// stepJSON is the flat wire form of every variant. Required fields are always
// written, optional ones only when present.
type stepJSON struct {
	Type              StepKind `json:"type"`
	Pattern           *string  `json:"pattern,omitempty"`
	Ref               *string  `json:"ref,omitempty"`
	HeaderName        *string  `json:"headerName,omitempty"`
	Constant          *string  `json:"constant,omitempty"`
	Message           *string  `json:"message,omitempty"`
	LoggingLevel      *string  `json:"loggingLevel,omitempty"`
	URI               *string  `json:"uri,omitempty"`
	Library           *string  `json:"library,omitempty"`
	UnmarshalTypeName *string  `json:"unmarshalTypeName,omitempty"`
	Expression        *string  `json:"expression,omitempty"`
}

// MarshalStep encodes a step with its "type" discriminator.
func MarshalStep(s Step) ([]byte, error) {
	out := stepJSON{}
	switch v := s.(type) {
	case RemoveHeaders:
		out.Pattern = &v.Pattern
	case Process:
		out.Ref = &v.Ref
	case SetHeader:
		out.HeaderName = &v.HeaderName
		out.Constant = &v.Constant
	case Log:
		out.Message = &v.Message
		out.LoggingLevel = &v.Level
	case To:
		out.URI = &v.URI
	case Unmarshal:
		out.Library = v.Library
		out.UnmarshalTypeName = v.TypeName
	case Choice, When, Otherwise, DoCatch:
	case StrategyRef:
		out.Ref = v.Ref
	case Ref:
		out.Ref = v.Ref
	case Simple:
		out.Expression = v.Expression
	default:
		return nil, fmt.Errorf("unsupported step type %T", s)
	}
	out.Type = s.Kind()
	return marshal(out)
}

// UnmarshalStep decodes a step previously written by MarshalStep.
func UnmarshalStep(data []byte) (Step, error) {
	var in stepJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	switch in.Type {
	case KindRemoveHeaders:
		return RemoveHeaders{Pattern: deref(in.Pattern)}, nil
	case KindProcess:
		return Process{Ref: deref(in.Ref)}, nil
	case KindSetHeader:
		return SetHeader{HeaderName: deref(in.HeaderName), Constant: deref(in.Constant)}, nil
	case KindLog:
		return Log{Message: deref(in.Message), Level: deref(in.LoggingLevel)}, nil
	case KindTo:
		return To{URI: deref(in.URI)}, nil
	case KindUnmarshal:
		return Unmarshal{Library: in.Library, TypeName: in.UnmarshalTypeName}, nil
	case KindStrategyRef:
		return StrategyRef{Ref: in.Ref}, nil
	case KindRef:
		return Ref{Ref: in.Ref}, nil
	case KindSimple:
		return Simple{Expression: in.Expression}, nil
	}
	return NewStep(in.Type)
}

// marshal is json.Marshal without HTML escaping; URIs and simple
// expressions keep '<', '>' and '&' literal.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
