// Package mcptools exposes the conversions as MCP tools.
package mcptools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"

	"github.com/i2y/camelconv/internal/usecase"
)

// XMLArgument is the name of the string argument every tool takes.
const XMLArgument = "xml"

// Converter runs a conversion. *usecase.ConvertUseCase satisfies it.
type Converter interface {
	Execute(ctx context.Context, req usecase.ConvertRequest) (usecase.ConversionReport, error)
}

// ToolRegistrar is the part of the MCP server the tools need.
type ToolRegistrar interface {
	AddTool(tool mcp.Tool, handler mcpGoServer.ToolHandlerFunc)
}

// Definition pairs a tool with the conversion target it renders.
type Definition struct {
	Tool   mcp.Tool
	Target usecase.Target
}

// Definitions lists the tools in registration order.
func Definitions() []Definition {
	newTool := func(name, description string) mcp.Tool {
		return mcp.NewTool(name,
			mcp.WithDescription(description),
			mcp.WithString(XMLArgument,
				mcp.Required(),
				mcp.Description("Camel Spring-XML document containing one or more <route> elements"),
			),
		)
	}
	return []Definition{
		{Tool: newTool("camel_to_java", "Convert Camel Spring-XML routes to a Java DSL RouteBuilder class"), Target: usecase.TargetJava},
		{Tool: newTool("camel_to_json", "Convert Camel Spring-XML routes to their JSON route representation"), Target: usecase.TargetJSON},
		{Tool: newTool("camel_to_mapped_json", "Convert Camel Spring-XML routes to the Spring-Boot step mapping as JSON"), Target: usecase.TargetMapped},
		{Tool: newTool("camel_to_openapi", "Describe the source endpoints of Camel Spring-XML routes as an OpenAPI 3.0 document"), Target: usecase.TargetOpenAPI},
	}
}

// Tools handles MCP tool calls by running conversions.
type Tools struct {
	converter Converter
	logger    *slog.Logger
}

// NewTools creates the tool handlers.
func NewTools(converter Converter, logger *slog.Logger) *Tools {
	return &Tools{
		converter: converter,
		logger:    logger.With("component", "mcp_tools"),
	}
}

// Register adds every tool to the server.
func (t *Tools) Register(s ToolRegistrar) {
	for _, def := range Definitions() {
		s.AddTool(def.Tool, t.Handler(def.Target))
		t.logger.Info("Registered tool", slog.String("tool_name", def.Tool.Name), slog.String("target", string(def.Target)))
	}
}

// Handler returns the tool handler rendering target. Conversion failures are
// reported as tool error results, not as protocol errors.
func (t *Tools) Handler(target usecase.Target) mcpGoServer.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log := t.logger.With(slog.String("tool_name", req.Params.Name), slog.String("target", string(target)))

		doc, ok := req.GetArguments()[XMLArgument].(string)
		if !ok || strings.TrimSpace(doc) == "" {
			log.Warn("Missing xml argument")
			return mcp.NewToolResultError(fmt.Sprintf("argument %q must be a non-empty string", XMLArgument)), nil
		}

		report, err := t.converter.Execute(ctx, usecase.ConvertRequest{
			Data:    []byte(doc),
			Targets: []usecase.Target{target},
		})
		if err != nil {
			log.Warn("Conversion failed", slog.Any("error", err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(report.Rendered) == 0 {
			return mcp.NewToolResultError("conversion produced no output"), nil
		}

		result := mcp.NewToolResultText(string(report.Rendered[0].Content))
		if report.Recovered() {
			result.Content = append(result.Content, mcp.NewTextContent(warnings(report)))
		}
		log.Info("Tool call completed", slog.Int("route_count", report.RoutesParsed))
		return result, nil
	}
}

func warnings(report usecase.ConversionReport) string {
	var b strings.Builder
	b.WriteString("Some routes or steps were dropped:")
	for _, f := range report.Failures {
		b.WriteString("\n- ")
		b.WriteString(f)
	}
	return b.String()
}
