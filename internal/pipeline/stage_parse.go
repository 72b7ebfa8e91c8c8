package pipeline

import (
	"os"

	promptregistry "github.com/forgecrew/promptengine/internal/registry/prompt"
)

// CommandParsingStage implements spec.md §4.1 (Command Parser) and §4.2
// (Argument Parser), co-located as the spec names them. Response-only
// resumptions are handled by SessionStage instead; this stage is skipped
// for those requests.
type CommandParsingStage struct {
	Prompts *promptregistry.Registry
}

func (s *CommandParsingStage) Name() string { return "CommandParsing" }

func (s *CommandParsingStage) Execute(ctx *ExecutionContext) error {
	if ctx.Request.IsResumeOnly() {
		return nil
	}

	pc, err := ParseCommand(ctx.Request.Command)
	if err != nil {
		ctx.Response = errorResponse(err.Error())
		return nil
	}
	ctx.ParsedCommand = &pc

	promptDef, ok := s.Prompts.Resolve(pc.PromptID)
	if !ok {
		ctx.Response = errorResponse(notFoundError("prompt", pc.PromptID, s.Prompts.Suggestions(pc.PromptID, 3)).Error())
		return nil
	}

	args, argErrs, _ := ParseArguments(pc.RawArgs, &promptDef, ArgParseContext{Env: os.Getenv})
	if len(argErrs) > 0 {
		ctx.Response = argumentErrorResponse(argErrs)
		return nil
	}

	// Merge request.Options: an option overrides an existing argument only
	// if the existing value is an unfilled placeholder (spec.md §4.1 step 6).
	for k, v := range ctx.Request.Options {
		existing, has := args[k]
		if !has || existing == nil || existing == "" {
			args[k] = v
		}
	}

	ctx.State.Normalization.Options = args
	return nil
}

func errorResponse(message string) *Response {
	return &Response{
		IsError: true,
		Content: []ResponseContent{{Type: "text", Text: message}},
	}
}

func argumentErrorResponse(errs []ArgumentError) *Response {
	text := "argument validation failed:"
	for _, e := range errs {
		text += "\n- [" + e.Code + "] " + e.Message
		if e.RetryHint != "" {
			text += " (hint: " + e.RetryHint + ")"
		}
	}
	return &Response{
		IsError: true,
		Content: []ResponseContent{{Type: "text", Text: text}},
		Metadata: map[string]interface{}{"argumentErrors": errs},
	}
}
