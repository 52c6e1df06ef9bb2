// Package javadsl renders route IR as a Camel Java route-builder class.
package javadsl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/i2y/camelconv/internal/domain"
)

// FileName is the conventional output name for the rendered class.
const FileName = "CamelRoutes.java"

const header = `import org.apache.camel.builder.RouteBuilder;
import org.apache.camel.model.dataformat.JsonLibrary;
import org.springframework.stereotype.Component;

@Component
public class CamelRoutes extends RouteBuilder {

    @Override
    public void configure() throws Exception {
`

const footer = `    }
}
`

var (
	identifierPattern    = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
	qualifiedNamePattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)
)

const (
	fromIndent = "        "
	stepIndent = "            "
)

// Render emits one compilation unit containing every route in order.
func Render(routes []domain.Route) string {
	var b strings.Builder
	b.WriteString(header)
	for _, r := range routes {
		fmt.Fprintf(&b, "%sfrom(%s)\n", fromIndent, quote(r.Source))
		for _, s := range r.Steps {
			if line, ok := RenderStep(s); ok {
				b.WriteString(stepIndent)
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
		b.WriteString(stepIndent + ";\n\n")
	}
	b.WriteString(footer)
	return b.String()
}

// RenderStep returns the DSL call for one step. The boolean is false for
// variants that render to nothing: choice, when, otherwise, doCatch,
// strategyRef, ref and simple have no flat Java DSL form here because their
// nested bodies are not modeled.
func RenderStep(s domain.Step) (string, bool) {
	switch v := s.(type) {
	case domain.RemoveHeaders:
		return fmt.Sprintf(".removeHeaders(%s)", quote(v.Pattern)), true
	case domain.Process:
		return fmt.Sprintf(".process(%s)", quote(v.Ref)), true
	case domain.SetHeader:
		return fmt.Sprintf(".setHeader(%s, constant(%s))", quote(v.HeaderName), quote(v.Constant)), true
	case domain.Log:
		return fmt.Sprintf(".log(%s, %s)", quote(v.Level), quote(v.Message)), true
	case domain.To:
		return fmt.Sprintf(".to(%s)", quote(v.URI)), true
	case domain.Unmarshal:
		return renderUnmarshal(v), true
	case domain.Choice, domain.When, domain.Otherwise, domain.DoCatch,
		domain.StrategyRef, domain.Ref, domain.Simple:
		return "", false
	}
	return "", false
}

// UnsafeNameError reports an unmarshal attribute that is not a Java name and
// so cannot be emitted as code.
type UnsafeNameError struct {
	RouteIndex int
	StepIndex  int
	Attribute  string
	Value      string
}

func (e *UnsafeNameError) Error() string {
	return fmt.Sprintf("route[%d] step[%d]: unmarshal %s %q is not a Java name, rendered as .unmarshal().json()",
		e.RouteIndex, e.StepIndex, e.Attribute, e.Value)
}

// CheckNames lists the unmarshal steps whose library or type name would be
// replaced by the bare .unmarshal().json() form.
func CheckNames(routes []domain.Route) []error {
	var errs []error
	for ri, r := range routes {
		for si, s := range r.Steps {
			v, ok := s.(domain.Unmarshal)
			if !ok {
				continue
			}
			if attr, value, bad := unsafeName(v); bad {
				errs = append(errs, &UnsafeNameError{RouteIndex: ri, StepIndex: si, Attribute: attr, Value: value})
			}
		}
	}
	return errs
}

func unsafeName(v domain.Unmarshal) (attr, value string, bad bool) {
	if v.Library != nil && !identifierPattern.MatchString(*v.Library) {
		return "library", *v.Library, true
	}
	if v.TypeName != nil && !qualifiedNamePattern.MatchString(*v.TypeName) {
		return "unmarshalTypeName", *v.TypeName, true
	}
	return "", "", false
}

// renderUnmarshal splices library and type name in as code, so both must be
// plain Java names; anything else falls back to the bare form.
func renderUnmarshal(v domain.Unmarshal) string {
	if _, _, bad := unsafeName(v); bad {
		return ".unmarshal().json()"
	}
	switch {
	case v.Library == nil:
		return ".unmarshal().json()"
	case v.TypeName == nil:
		return fmt.Sprintf(".unmarshal().json(JsonLibrary.%s)", *v.Library)
	default:
		return fmt.Sprintf(".unmarshal().json(JsonLibrary.%s, %s.class)", *v.Library, *v.TypeName)
	}
}

// quote returns s as a Java string literal.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
