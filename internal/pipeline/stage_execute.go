package pipeline

import (
	"strings"
	"time"

	frameworkdomain "github.com/forgecrew/promptengine/internal/domain/framework"
	promptdomain "github.com/forgecrew/promptengine/internal/domain/prompt"
	"github.com/forgecrew/promptengine/internal/inject"
	promptregistry "github.com/forgecrew/promptengine/internal/registry/prompt"
	"github.com/forgecrew/promptengine/internal/template"
)

// StepExecutionStage implements spec.md §4.7 (Stage 9): renders the
// current prompt (or hands off to the Chain Operator Executor for chain
// steps) and composes the response body.
type StepExecutionStage struct {
	Prompts  *promptregistry.Registry
	Renderer *template.Renderer
}

func (s *StepExecutionStage) Name() string { return "StepExecution" }

func (s *StepExecutionStage) Execute(ctx *ExecutionContext) error {
	if ctx.Terminated() || ctx.ParsedCommand == nil || ctx.ExecutionPlan == nil {
		return nil
	}

	if ctx.State.Session.ChainComplete {
		ctx.ExecutionResults = &ExecutionResults{
			Content:     "Chain complete.",
			GeneratedAt: time.Now(),
			Metadata:    map[string]interface{}{"chainComplete": true},
		}
		return nil
	}

	if ctx.ExecutionPlan.Strategy == StrategyChain && ctx.SessionContext != nil {
		return s.executeChainStep(ctx)
	}
	return s.executeSingle(ctx, ctx.ParsedCommand.PromptID, ctx.State.Normalization.Options)
}

func (s *StepExecutionStage) executeSingle(ctx *ExecutionContext, promptID string, args map[string]interface{}) error {
	def, ok := s.Prompts.Resolve(promptID)
	if !ok {
		ctx.Response = errorResponse(notFoundError("prompt", promptID, s.Prompts.Suggestions(promptID, 3)).Error())
		return nil
	}

	templateArgs := mergeScriptResults(args, ctx.State.Scripts.Results)
	rendered, err := s.Renderer.Render(def.UserMessageTemplate, templateArgs)
	if err != nil {
		return err
	}

	body := composeBody(ctx, &def, rendered)

	ctx.ExecutionResults = &ExecutionResults{
		Content:     body,
		GeneratedAt: time.Now(),
		Metadata:    map[string]interface{}{"promptId": def.ID},
	}
	return nil
}

// executeChainStep implements the Chain Operator Executor (spec.md §4.8):
// resolve the current step's prompt, apply its inputMapping and render it.
// Every input-mapped chain variable resolves to the previous step's result
// (see lookupChainVar); bp.ChainContext is not read, outputMapping is not
// applied, and the step's output is not recorded under its variableName.
func (s *StepExecutionStage) executeChainStep(ctx *ExecutionContext) error {
	idx := ctx.SessionContext.CurrentStep - 1
	if idx < 0 || idx >= len(ctx.ParsedCommand.Steps) {
		ctx.Response = errorResponse("chain step index out of range")
		return nil
	}
	step := ctx.ParsedCommand.Steps[idx]

	def, ok := s.Prompts.Resolve(step.PromptID)
	if !ok {
		ctx.Response = errorResponse(notFoundError("prompt", step.PromptID, s.Prompts.Suggestions(step.PromptID, 3)).Error())
		return nil
	}

	args := map[string]interface{}{}
	for k, v := range ctx.State.Normalization.Options {
		args[k] = v
	}

	var chainStepDef *promptdomain.ChainStep
	for i := range def.ChainSteps {
		if def.ChainSteps[i].StepNumber == ctx.SessionContext.CurrentStep {
			chainStepDef = &def.ChainSteps[i]
			break
		}
	}
	if chainStepDef != nil && ctx.SessionContext.PreviousStepResult != "" {
		for chainVar, argName := range chainStepDef.InputMapping {
			args[argName] = lookupChainVar(ctx, chainVar)
		}
	}
	if ctx.SessionContext.PreviousStepResult != "" && len(args) == 0 {
		args["previousStepResult"] = ctx.SessionContext.PreviousStepResult
	}

	templateArgs := mergeScriptResults(args, ctx.State.Scripts.Results)
	rendered, err := s.Renderer.Render(def.UserMessageTemplate, templateArgs)
	if err != nil {
		return err
	}
	body := composeBody(ctx, &def, rendered)

	ctx.ExecutionResults = &ExecutionResults{
		Content:     body,
		GeneratedAt: time.Now(),
		Metadata:    map[string]interface{}{"promptId": def.ID, "step": ctx.SessionContext.CurrentStep},
	}

	if ctx.SessionContext.CurrentStep < ctx.SessionContext.TotalSteps {
		ctx.Response = &Response{
			Content:      []ResponseContent{{Type: "text", Text: body}},
			CallToAction: "provide user_response for the next step, with chain_id=" + ctx.SessionContext.ChainID,
			Metadata:     map[string]interface{}{"chainId": ctx.SessionContext.ChainID, "currentStep": ctx.SessionContext.CurrentStep, "totalSteps": ctx.SessionContext.TotalSteps},
		}
	}
	return nil
}

func lookupChainVar(ctx *ExecutionContext, chainVar string) string {
	// Chain-global variables are threaded through previousStepResult in
	// this single-value-per-step model; a richer per-variable store would
	// live on SessionBlueprint.ChainContext (see session.Store.ChainContext).
	return ctx.SessionContext.PreviousStepResult
}

func mergeScriptResults(args map[string]interface{}, results map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(args)+len(results)*2)
	for k, v := range args {
		out[k] = v
	}
	for k, v := range template.ToolVariables(results) {
		out[k] = v
	}
	return out
}

// composeBody concatenates the framework system prompt, the prompt's own
// systemMessage, and the rendered template, dropping empty sections, per
// spec.md §4.7 step 3. The double-injection guard scans for the canonical
// marker substring rather than the per-framework Definition so it applies
// uniformly regardless of which methodology ultimately resolved (spec.md
// §8 "Framework double-injection guard").
func composeBody(ctx *ExecutionContext, def *promptdomain.Definition, rendered string) string {
	var sections []string

	if decision := ctx.State.Injection.Decisions[inject.TypeSystemPrompt]; decision.Inject && ctx.FrameworkContext != nil {
		if !strings.Contains(def.SystemMessage, frameworkdomain.CanonicalInjectionMarker) {
			if ctx.FrameworkContext.SystemPrompt != "" {
				sections = append(sections, ctx.FrameworkContext.SystemPrompt)
			}
		}
	}
	if def.SystemMessage != "" {
		sections = append(sections, def.SystemMessage)
	}
	if rendered != "" {
		sections = append(sections, rendered)
	}

	out := ""
	for i, s := range sections {
		if i > 0 {
			out += "\n\n"
		}
		out += s
	}
	return out
}
