package engine

import (
	"context"
	"time"

	"github.com/forgecrew/promptengine/internal/gateeval"
	"github.com/forgecrew/promptengine/internal/notify"
	"github.com/forgecrew/promptengine/internal/pipeline"
	"github.com/forgecrew/promptengine/internal/pkg/errorx"
	"github.com/forgecrew/promptengine/internal/pkg/logger"
	frameworkregistry "github.com/forgecrew/promptengine/internal/registry/framework"
	gateregistry "github.com/forgecrew/promptengine/internal/registry/gate"
	promptregistry "github.com/forgecrew/promptengine/internal/registry/prompt"
	styleregistry "github.com/forgecrew/promptengine/internal/registry/style"
	"github.com/forgecrew/promptengine/internal/scriptexec"
	"github.com/forgecrew/promptengine/internal/session"
	"github.com/forgecrew/promptengine/internal/template"
)

// Engine is the façade transports drive: one call to Execute runs a
// request through the fixed pipeline over the shared registries.
type Engine struct {
	Prompts    *promptregistry.Registry
	Gates      *gateregistry.Registry
	Frameworks *frameworkregistry.Registry
	Styles     *styleregistry.Registry
	Store      session.Store
	Notifier   *notify.Notifier
	Evaluator  *gateeval.Evaluator
	Executor   scriptexec.Executor
	Renderer   *template.Renderer
	Config     *Config

	orchestrator *pipeline.Orchestrator
}

// Start launches the hot-reload coordinators for all four registries.
func (e *Engine) Start() error {
	if err := e.Prompts.Watch(); err != nil {
		return err
	}
	if err := e.Gates.Watch(); err != nil {
		return err
	}
	if err := e.Frameworks.Watch(); err != nil {
		return err
	}
	if err := e.Styles.Watch(); err != nil {
		return err
	}

	e.orchestrator = pipeline.New(pipeline.BuildStages(pipeline.Dependencies{
		Registries: pipeline.Registries{
			Prompts:    e.Prompts,
			Gates:      e.Gates,
			Frameworks: e.Frameworks,
			Styles:     e.Styles,
		},
		SessionStore:              e.Store,
		ScriptExecutor:            e.Executor,
		Notifier:                  e.Notifier,
		Renderer:                  e.Renderer,
		Evaluator:                 e.Evaluator,
		GlobalInjectSystemPrompt:  e.Config.DefaultInjectSystemPrompt,
		GlobalInjectGateGuidance:  e.Config.DefaultInjectGateGuidance,
		GlobalInjectStyleGuidance: e.Config.DefaultInjectStyleGuidance,
		WrapWidth:                 e.Config.WrapWidth,
	}), e.recordMetric)
	return nil
}

// Stop tears down the hot-reload coordinators and the notifier.
func (e *Engine) Stop() {
	e.Prompts.Close()
	e.Gates.Close()
	e.Frameworks.Close()
	e.Styles.Close()
	e.Notifier.Close()
}

func (e *Engine) recordMetric(m pipeline.StageMetric) {
	if m.Status == "error" {
		logger.Warn("[Pipeline] stage %s failed commandId=%s: %s", m.Stage, m.CommandID, m.Error)
	}
}

// Execute runs one request through the pipeline, returning the final
// Response.
func (e *Engine) Execute(goCtx context.Context, req pipeline.Request) (*pipeline.Response, error) {
	ctx := pipeline.NewExecutionContext(newCommandID(), req)
	if err := e.orchestrator.Run(goCtx, ctx); err != nil {
		logger.Error("[Pipeline] run failed commandId=%s: %v", ctx.CommandID, err)
		return pipeline.ResponseFromError(err), nil
	}
	if ctx.Response == nil {
		return &pipeline.Response{IsError: true, Content: []pipeline.ResponseContent{{Type: "text", Text: "no response produced"}}}, nil
	}
	return ctx.Response, nil
}

// StartupDiagnostics reports resources modified on disk while the process
// was down, across all four registries (spec.md §4.10).
func (e *Engine) StartupDiagnostics() map[string]int {
	return map[string]int{
		"prompts":     len(e.Prompts.StartupExternalChanges()),
		"gates":       len(e.Gates.StartupExternalChanges()),
		"frameworks":  len(e.Frameworks.StartupExternalChanges()),
		"styles":      len(e.Styles.StartupExternalChanges()),
	}
}

func makeRefResolver(prompts *promptregistry.Registry) template.RefResolver {
	return func(promptID string) (string, error) {
		def, ok := prompts.Resolve(promptID)
		if !ok {
			return "", errorx.WithCode(pipeline.ErrCodeResourceNotFound, "unknown prompt %q referenced via ref:", promptID)
		}
		return def.UserMessageTemplate, nil
	}
}

func makeScriptResolver(executor scriptexec.Executor, timeoutSeconds int) template.ScriptResolver {
	timeout := time.Duration(timeoutSeconds) * time.Second
	return func(toolID string) (string, error) {
		goCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		result, err := executor.Run(goCtx, toolID, nil)
		if err != nil {
			return "", err
		}
		return result.Stdout, nil
	}
}
