package pipeline

import (
	"context"
	"time"

	"github.com/forgecrew/promptengine/internal/pkg/errorx"
	"github.com/forgecrew/promptengine/internal/pkg/logger"
)

// Stage is one concern of the fixed, ordered pipeline (spec.md §2 "Pipeline
// Stages"). Go realizes the source's 18 dynamically-registered stage
// objects as a fixed, typed sequence per spec.md §9's Design Notes, rather
// than a string-keyed runtime registry.
type Stage interface {
	Name() string
	Execute(ctx *ExecutionContext) error
}

// StageMetric is the PipelineStageMetric of spec.md §7, grouped by
// CommandID for observability.
type StageMetric struct {
	CommandID string
	Stage     string
	Status    string // ok | error | skipped
	Duration  time.Duration
	Error     string
}

// MetricSink receives one StageMetric per stage execution.
type MetricSink func(StageMetric)

// Orchestrator drives a fixed ordered sequence of Stages over one
// ExecutionContext, stopping early once ctx.Terminated() (spec.md §3
// invariant) and emitting one StageMetric per stage (spec.md §7).
type Orchestrator struct {
	Stages  []Stage
	Metrics MetricSink
}

// New builds an Orchestrator over the given ordered stages.
func New(stages []Stage, metrics MetricSink) *Orchestrator {
	if metrics == nil {
		metrics = func(StageMetric) {}
	}
	return &Orchestrator{Stages: stages, Metrics: metrics}
}

// Run drives ctx through every stage in order, stopping as soon as a stage
// sets ctx.Response or the context deadline expires (spec.md §5
// "Cancellation").
func (o *Orchestrator) Run(goCtx context.Context, ctx *ExecutionContext) error {
	for _, stage := range o.Stages {
		if ctx.Terminated() {
			o.Metrics(StageMetric{CommandID: ctx.CommandID, Stage: stage.Name(), Status: "skipped"})
			continue
		}
		if err := goCtx.Err(); err != nil {
			o.Metrics(StageMetric{CommandID: ctx.CommandID, Stage: stage.Name(), Status: "error", Error: "cancelled"})
			return errorx.WithCode(ErrCodeCancelled, "stage %s: %v", stage.Name(), err)
		}

		start := time.Now()
		logger.Debug("[Pipeline] %s enter commandId=%s", stage.Name(), ctx.CommandID)
		err := stage.Execute(ctx)
		duration := time.Since(start)
		logger.Debug("[Pipeline] %s exit commandId=%s duration=%s", stage.Name(), ctx.CommandID, duration)

		if err != nil {
			o.Metrics(StageMetric{CommandID: ctx.CommandID, Stage: stage.Name(), Status: "error", Duration: duration, Error: err.Error()})
			return err
		}
		o.Metrics(StageMetric{CommandID: ctx.CommandID, Stage: stage.Name(), Status: "ok", Duration: duration})
	}
	return nil
}
