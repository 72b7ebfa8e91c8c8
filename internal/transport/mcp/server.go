// Package mcp exposes the engine as an MCP server: one execute_prompt tool
// plus read-only listing tools, grounded on the teacher's own MCP client
// usage (internal/hivemind/service/mcp/server.go, the Connect/tools.GetTools
// handshake) and the pack's MCP server implementation
// (ormasoftchile-gert/pkg/ecosystem/mcp/server.go, handlers.go) for the
// server-side mcp-go API the teacher only ever consumes, never exposes.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/forgecrew/promptengine/internal/engine"
	promptdomain "github.com/forgecrew/promptengine/internal/domain/prompt"
	"github.com/forgecrew/promptengine/internal/pipeline"
)

// NewServer builds the MCP server wrapping an engine.
func NewServer(e *engine.Engine, version string) *server.MCPServer {
	s := server.NewMCPServer("promptengine", version, server.WithToolCapabilities(true))

	s.AddTool(
		mcp.NewTool("execute_prompt",
			mcp.WithDescription("Parse, plan, and execute a prompt command through the C.A.G.E.E.R.F pipeline"),
			mcp.WithString("command", mcp.Description("Command text, e.g. \">>greet name=Ada\" or \"@react >>analyze\"")),
			mcp.WithString("chainId", mcp.Description("Resume an in-flight chain session by ID")),
			mcp.WithString("userResponse", mcp.Description("Response to the previous chain step, required to advance or satisfy gate review")),
			mcp.WithString("gateAction", mcp.Description("retry | skip | abort — action to take once a gate's retry limit is exhausted")),
			mcp.WithBoolean("forceRestart", mcp.Description("Discard any existing chain session for chainId and start fresh")),
		),
		handleExecute(e),
	)

	s.AddTool(
		mcp.NewTool("list_prompts", mcp.WithDescription("List every registered prompt definition, with its id, name, and category")),
		handleListPrompts(e),
	)

	s.AddTool(
		mcp.NewTool("prompt_schema",
			mcp.WithDescription("Return the JSON Schema for a prompt's arguments map"),
			mcp.WithString("promptId", mcp.Required(), mcp.Description("Prompt ID or name")),
		),
		handlePromptSchema(e),
	)

	return s
}

func handleExecute(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		pReq := pipeline.Request{
			Command:      stringArg(args, "command"),
			ChainID:      stringArg(args, "chainId"),
			UserResponse: stringArg(args, "userResponse"),
			GateAction:   stringArg(args, "gateAction"),
			ForceRestart: boolArg(args, "forceRestart"),
		}
		if rawOptions, ok := args["options"].(map[string]interface{}); ok {
			pReq.Options = rawOptions
		}

		resp, err := e.Execute(ctx, pReq)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		content := make([]mcp.Content, 0, len(resp.Content))
		for _, c := range resp.Content {
			content = append(content, mcp.NewTextContent(c.Text))
		}
		return &mcp.CallToolResult{Content: content, IsError: resp.IsError}, nil
	}
}

func handleListPrompts(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		defs := e.Prompts.All()
		summaries := make([]map[string]string, 0, len(defs))
		for _, d := range defs {
			summaries = append(summaries, map[string]string{"id": d.ID, "name": d.Name, "category": d.Category})
		}
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return textResult(string(data)), nil
	}
}

func handlePromptSchema(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		promptID := stringArg(args, "promptId")
		if promptID == "" {
			return errorResult("promptId argument is required"), nil
		}

		def, ok := e.Prompts.Resolve(promptID)
		if !ok {
			return errorResult(fmt.Sprintf("unknown prompt %q", promptID)), nil
		}

		schema := argumentsJSONSchema(&def)
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return textResult(string(data)), nil
	}
}

// argumentsJSONSchema builds a JSON Schema object for a prompt's declared
// arguments, following the same invopop/jsonschema building blocks the pack
// uses for its own Go-type-to-schema export
// (ormasoftchile-gert/pkg/kernel/schema/export.go) — a prompt's argument
// list is registry data rather than a fixed Go type, so the schema is
// assembled by hand from jsonschema.Schema/Properties instead of via
// Reflector.Reflect.
func argumentsJSONSchema(def *promptdomain.Definition) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
		Title:      def.Name + " arguments",
	}
	for _, a := range def.Arguments {
		prop := &jsonschema.Schema{
			Type:        jsonSchemaType(a.Type),
			Description: a.Description,
		}
		if a.Validation != nil {
			if a.Validation.MinLength != nil {
				v := uint64(*a.Validation.MinLength)
				prop.MinLength = &v
			}
			if a.Validation.MaxLength != nil {
				v := uint64(*a.Validation.MaxLength)
				prop.MaxLength = &v
			}
			if a.Validation.Pattern != "" {
				prop.Pattern = a.Validation.Pattern
			}
		}
		s.Properties.Set(a.Name, prop)
		if a.Required {
			s.Required = append(s.Required, a.Name)
		}
	}
	return s
}

func jsonSchemaType(t promptdomain.ArgType) string {
	switch t {
	case promptdomain.TypeNumber:
		return "number"
	case promptdomain.TypeBoolean:
		return "boolean"
	case promptdomain.TypeArray:
		return "array"
	case promptdomain.TypeObject:
		return "object"
	default:
		return "string"
	}
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func boolArg(args map[string]interface{}, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(text)}}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(msg)}, IsError: true}
}
