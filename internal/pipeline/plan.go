package pipeline

import (
	"strings"

	gatedomain "github.com/forgecrew/promptengine/internal/domain/gate"
	promptdomain "github.com/forgecrew/promptengine/internal/domain/prompt"
	"github.com/forgecrew/promptengine/internal/pkg/errorx"
	gateregistry "github.com/forgecrew/promptengine/internal/registry/gate"
	promptregistry "github.com/forgecrew/promptengine/internal/registry/prompt"
)

// Strategy is single vs. chain execution, mirrored onto the plan from the
// parsed command (spec.md §3 ExecutionPlan).
type Strategy string

const (
	StrategySingle Strategy = "single"
	StrategyChain  Strategy = "chain"
)

// Modifiers carries the parsed operator modifiers relevant to planning.
type Modifiers struct {
	FrameworkOverride string
	StyleOverride     string
	Lean              bool
	Clean             bool
}

// ExecutionPlan is produced by the Planning Stage (spec.md §3, §4.3).
type ExecutionPlan struct {
	Strategy             Strategy
	Gates                []string
	RequiresFramework    bool
	RequiresSession      bool
	APIValidationEnabled bool
	Modifiers            Modifiers

	// StepPlans holds one sub-plan per chain step; empty for single plans.
	StepPlans []ExecutionPlan
}

// PlanningStage implements spec.md §4.3.
type PlanningStage struct {
	Prompts *promptregistry.Registry
	Gates   *gateregistry.Registry
}

// Name satisfies Stage.
func (s *PlanningStage) Name() string { return "Planning" }

// Execute builds ctx.ExecutionPlan from ctx.ParsedCommand and the prompt(s)
// it references.
func (s *PlanningStage) Execute(ctx *ExecutionContext) error {
	pc := ctx.ParsedCommand
	promptDef, ok := s.Prompts.Resolve(pc.PromptID)
	if !ok {
		ctx.Response = errorResponse(notFoundError("prompt", pc.PromptID, s.Prompts.Suggestions(pc.PromptID, 3)).Error())
		return nil
	}

	plan := s.planOne(pc, &promptDef, ctx.Request.QualityGates)

	if pc.CommandType == CommandChain || promptDef.IsChain() {
		plan.Strategy = StrategyChain
		plan.RequiresSession = true

		gateSet := map[string]struct{}{}
		for _, g := range plan.Gates {
			gateSet[g] = struct{}{}
		}

		steps := pc.Steps
		if pc.CommandType != CommandChain && promptDef.IsChain() {
			// A single prompt reference that is itself a chain: derive
			// steps from the prompt's own chainSteps (spec.md §4.1 step 5).
			steps = make([]Step, 0, len(promptDef.ChainSteps))
			for _, cs := range promptDef.ChainSteps {
				steps = append(steps, Step{PromptID: cs.PromptID, RawArgs: pc.RawArgs})
			}
		}

		for _, step := range steps {
			stepPrompt, ok := s.Prompts.Resolve(step.PromptID)
			if !ok {
				ctx.Response = errorResponse(notFoundError("prompt", step.PromptID, s.Prompts.Suggestions(step.PromptID, 3)).Error())
				return nil
			}
			sub := s.planOne(pc, &stepPrompt, ctx.Request.QualityGates)
			plan.StepPlans = append(plan.StepPlans, sub)
			if sub.RequiresFramework {
				plan.RequiresFramework = true
			}
			for _, g := range sub.Gates {
				gateSet[g] = struct{}{}
			}
		}

		plan.Gates = plan.Gates[:0]
		for g := range gateSet {
			plan.Gates = append(plan.Gates, g)
		}
	}

	ctx.ExecutionPlan = &plan
	return nil
}

// planOne builds the sub-plan for a single prompt, applying spec.md §4.3's
// gate-selection algebra: union of configured include, category-activated
// non-framework gates, request-level quality gates, and inline command
// gates, minus configured exclude.
func (s *PlanningStage) planOne(pc *ParsedCommand, def *promptdomain.Definition, qualityGates []string) ExecutionPlan {
	gateSet := map[string]struct{}{}

	for _, id := range def.GateConfiguration.Include {
		gateSet[id] = struct{}{}
	}
	for _, g := range s.Gates.ForCategory(def.Category, def.GateConfiguration.FrameworkGates) {
		gateSet[g.ID] = struct{}{}
	}
	for id := range pc.NamedInlineGates {
		gateSet[id] = struct{}{}
	}
	for id := range pc.ShellGates {
		gateSet[id] = struct{}{}
	}
	for _, id := range qualityGates {
		gateSet[id] = struct{}{}
	}
	for _, id := range def.GateConfiguration.Exclude {
		delete(gateSet, id)
	}

	gates := make([]string, 0, len(gateSet))
	requiresFramework := pc.FrameworkOverride != ""
	for id := range gateSet {
		gates = append(gates, id)
		if g, ok := s.Gates.Resolve(id); ok && g.GateType == gatedomain.KindFramework {
			requiresFramework = true
		}
	}

	return ExecutionPlan{
		Strategy:          StrategySingle,
		Gates:             gates,
		RequiresFramework: requiresFramework,
		Modifiers: Modifiers{
			FrameworkOverride: pc.FrameworkOverride,
			StyleOverride:     pc.StyleSelection,
			Lean:              pc.Lean,
			Clean:             pc.Clean,
		},
	}
}

func notFoundError(kind, id string, suggestions []string) error {
	msg := "unknown " + kind + " %q"
	if len(suggestions) > 0 {
		msg += " (did you mean: " + strings.Join(suggestions, ", ") + "?)"
	}
	return errorx.WithCode(ErrCodeResourceNotFound, msg, id)
}
