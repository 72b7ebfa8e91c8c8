package pipeline

import (
	"github.com/forgecrew/promptengine/internal/inject"
	frameworkregistry "github.com/forgecrew/promptengine/internal/registry/framework"
	gateregistry "github.com/forgecrew/promptengine/internal/registry/gate"
	promptregistry "github.com/forgecrew/promptengine/internal/registry/prompt"
	styleregistry "github.com/forgecrew/promptengine/internal/registry/style"
)

// FrameworkResolutionStage selects the active methodology and expands its
// systemPromptTemplate (spec.md §4.5 "Framework resolution").
type FrameworkResolutionStage struct {
	Frameworks *frameworkregistry.Registry
	Prompts    *promptregistry.Registry
}

func (s *FrameworkResolutionStage) Name() string { return "FrameworkResolution" }

func (s *FrameworkResolutionStage) Execute(ctx *ExecutionContext) error {
	if ctx.Terminated() || ctx.ExecutionPlan == nil {
		return nil
	}
	if !ctx.ExecutionPlan.RequiresFramework {
		return nil
	}

	frameworkID := ctx.ExecutionPlan.Modifiers.FrameworkOverride

	fw, ok := func() (fwDef, bool) {
		if frameworkID != "" {
			if d, ok := s.Frameworks.Resolve(frameworkID); ok {
				return fwDef{d.ID, d.RenderSystemPrompt}, true
			}
		}
		if d, ok := s.Frameworks.Default(); ok {
			return fwDef{d.ID, d.RenderSystemPrompt}, true
		}
		return fwDef{}, false
	}()
	if !ok {
		return nil
	}

	promptName := ""
	step := 1
	category := ""
	if ctx.ParsedCommand != nil {
		if p, ok := s.Prompts.Resolve(ctx.ParsedCommand.PromptID); ok {
			promptName = p.Name
			category = p.Category
		}
	}
	if ctx.SessionContext != nil {
		step = ctx.SessionContext.CurrentStep
	}

	ctx.FrameworkContext = &FrameworkContext{
		FrameworkID:  fw.id,
		SystemPrompt: fw.render(promptName, step, category),
	}
	return nil
}

type fwDef struct {
	id     string
	render func(promptName string, step int, category string) string
}

// GateEnhancementStage accumulates the plan's selected gate IDs on
// ctx.State.Gates (spec.md §4.5 "Gate enhancement"). It does not render the
// gates' guidance text.
type GateEnhancementStage struct {
	Gates *gateregistry.Registry
}

func (s *GateEnhancementStage) Name() string { return "GateEnhancement" }

func (s *GateEnhancementStage) Execute(ctx *ExecutionContext) error {
	if ctx.Terminated() || ctx.ExecutionPlan == nil {
		return nil
	}
	for _, id := range ctx.ExecutionPlan.Gates {
		ctx.State.Gates.AccumulatedGateIDs = append(ctx.State.Gates.AccumulatedGateIDs, id)
	}
	return nil
}

// StyleResolutionStage resolves the active style selection, honouring
// framework compatibility (spec.md §3 StyleDefinition.compatibleFrameworks).
type StyleResolutionStage struct {
	Styles *styleregistry.Registry
}

func (s *StyleResolutionStage) Name() string { return "StyleResolution" }

func (s *StyleResolutionStage) Execute(ctx *ExecutionContext) error {
	if ctx.Terminated() || ctx.ExecutionPlan == nil || ctx.ExecutionPlan.Modifiers.StyleOverride == "" {
		return nil
	}
	style, ok := s.Styles.Resolve(ctx.ExecutionPlan.Modifiers.StyleOverride)
	if !ok || !style.Enabled {
		return nil
	}
	frameworkID := ""
	if ctx.FrameworkContext != nil {
		frameworkID = ctx.FrameworkContext.FrameworkID
	}
	if !style.CompatibleWith(frameworkID) {
		return nil
	}
	if ctx.FrameworkContext == nil {
		ctx.FrameworkContext = &FrameworkContext{}
	}
	ctx.FrameworkContext.SystemPrompt = style.Apply(ctx.FrameworkContext.SystemPrompt)
	return nil
}

// InjectionDecisionStage resolves the three per-type injection decisions
// via the seven-level hierarchy (spec.md §4.5 "Injection Control", Stage
// 07b).
type InjectionDecisionStage struct {
	GlobalDefaultSystemPrompt  *bool
	GlobalDefaultGateGuidance  *bool
	GlobalDefaultStyleGuidance *bool
}

func (s *InjectionDecisionStage) Name() string { return "InjectionDecision" }

func (s *InjectionDecisionStage) Execute(ctx *ExecutionContext) error {
	if ctx.Terminated() {
		return nil
	}
	step := 1
	if ctx.SessionContext != nil {
		step = ctx.SessionContext.CurrentStep
	}

	base := inject.Input{Step: step}
	perType := map[inject.Type]inject.Input{
		inject.TypeSystemPrompt:  withGlobal(base, s.GlobalDefaultSystemPrompt),
		inject.TypeGateGuidance:  withGlobal(base, s.GlobalDefaultGateGuidance),
		inject.TypeStyleGuidance: withGlobal(base, s.GlobalDefaultStyleGuidance),
	}
	ctx.State.Injection.Decisions = inject.Decisions(base, perType)
	return nil
}

func withGlobal(in inject.Input, def *bool) inject.Input {
	in.GlobalDefault = def
	return in
}
