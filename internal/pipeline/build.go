package pipeline

import (
	"github.com/forgecrew/promptengine/internal/gateeval"
	"github.com/forgecrew/promptengine/internal/notify"
	frameworkregistry "github.com/forgecrew/promptengine/internal/registry/framework"
	gateregistry "github.com/forgecrew/promptengine/internal/registry/gate"
	promptregistry "github.com/forgecrew/promptengine/internal/registry/prompt"
	styleregistry "github.com/forgecrew/promptengine/internal/registry/style"
	"github.com/forgecrew/promptengine/internal/scriptexec"
	"github.com/forgecrew/promptengine/internal/session"
	"github.com/forgecrew/promptengine/internal/template"
)

// Registries bundles the four hot-reloadable domain registries the
// pipeline's stages read from.
type Registries struct {
	Prompts    *promptregistry.Registry
	Gates      *gateregistry.Registry
	Frameworks *frameworkregistry.Registry
	Styles     *styleregistry.Registry
}

// Dependencies bundles every external collaborator the fixed stage
// sequence needs beyond the registries.
type Dependencies struct {
	Registries
	SessionStore   session.Store
	ScriptExecutor scriptexec.Executor
	Notifier       *notify.Notifier
	Renderer       *template.Renderer
	Evaluator      *gateeval.Evaluator

	GlobalInjectSystemPrompt  *bool
	GlobalInjectGateGuidance  *bool
	GlobalInjectStyleGuidance *bool
	WrapWidth                 uint
}

// BuildStages composes the fixed, ordered sequence of pipeline stages
// spec.md §2/§4 names, realized as a typed slice per §9's Design Notes
// rather than a string-keyed runtime registry.
func BuildStages(deps Dependencies) []Stage {
	return []Stage{
		&CommandParsingStage{Prompts: deps.Prompts},
		&PlanningStage{Prompts: deps.Prompts, Gates: deps.Gates},
		&ScriptExecutionStage{Prompts: deps.Prompts, Executor: deps.ScriptExecutor},
		&FrameworkResolutionStage{Frameworks: deps.Frameworks, Prompts: deps.Prompts},
		&GateEnhancementStage{Gates: deps.Gates},
		&StyleResolutionStage{Styles: deps.Styles},
		&InjectionDecisionStage{
			GlobalDefaultSystemPrompt:  deps.GlobalInjectSystemPrompt,
			GlobalDefaultGateGuidance:  deps.GlobalInjectGateGuidance,
			GlobalDefaultStyleGuidance: deps.GlobalInjectStyleGuidance,
		},
		&SessionStage{Store: deps.SessionStore, Prompts: deps.Prompts},
		&GateReviewStage{Gates: deps.Gates, Evaluator: deps.Evaluator, Store: deps.SessionStore, Notifier: deps.Notifier},
		&ResponseCaptureStage{Store: deps.SessionStore},
		&StepExecutionStage{Prompts: deps.Prompts, Renderer: deps.Renderer},
		&FormattingStage{WrapWidth: deps.WrapWidth},
		&NotificationAndCleanupStage{Notifier: deps.Notifier},
	}
}
