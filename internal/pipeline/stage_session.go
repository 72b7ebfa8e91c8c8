package pipeline

import (
	"github.com/google/uuid"

	promptregistry "github.com/forgecrew/promptengine/internal/registry/prompt"
	"github.com/forgecrew/promptengine/internal/session"
)

// SessionStage implements spec.md §4.6: create or rehydrate a
// SessionBlueprint for chain-strategy plans, and handle pure resume
// requests (no command) by rehydrating parsedCommand/executionPlan from
// the stored blueprint.
type SessionStage struct {
	Store   session.Store
	Prompts *promptregistry.Registry
}

func (s *SessionStage) Name() string { return "Session" }

func (s *SessionStage) Execute(ctx *ExecutionContext) error {
	if ctx.Terminated() {
		return nil
	}

	if ctx.Request.IsResumeOnly() {
		return s.rehydrate(ctx)
	}

	if ctx.ExecutionPlan == nil || !ctx.ExecutionPlan.RequiresSession {
		return nil
	}

	if ctx.Request.ChainID != "" && !ctx.Request.ForceRestart {
		bp, err := s.Store.GetByChainID(ctx.Request.ChainID, true)
		if err == nil {
			return s.adoptBlueprint(ctx, bp)
		}
	}

	bp := &session.Blueprint{
		SessionID:     uuid.NewString(),
		ChainID:       ctx.Request.ChainID,
		ParsedCommand: ctx.ParsedCommand,
		ExecutionPlan: ctx.ExecutionPlan,
		CurrentStep:   1,
		TotalSteps:    len(ctx.ExecutionPlan.StepPlans),
	}
	if bp.TotalSteps == 0 {
		bp.TotalSteps = 1
	}
	if bp.ChainID == "" {
		bp.ChainID = bp.SessionID
	}
	if err := s.Store.Put(bp); err != nil {
		ctx.Response = errorResponse("failed to persist session: " + err.Error())
		return nil
	}
	ctx.State.Session.SessionID = bp.SessionID
	ctx.State.Session.ChainID = bp.ChainID
	ctx.SessionContext = &SessionContext{
		SessionID:   bp.SessionID,
		ChainID:     bp.ChainID,
		CurrentStep: bp.CurrentStep,
		TotalSteps:  bp.TotalSteps,
	}
	return nil
}

func (s *SessionStage) rehydrate(ctx *ExecutionContext) error {
	bp, err := s.Store.GetByChainID(ctx.Request.ChainID, true)
	if err != nil {
		ctx.Response = errorResponse("no active chain session for chain_id " + ctx.Request.ChainID)
		return nil
	}
	return s.adoptBlueprint(ctx, bp)
}

func (s *SessionStage) adoptBlueprint(ctx *ExecutionContext, bp *session.Blueprint) error {
	if pc, ok := bp.ParsedCommand.(*ParsedCommand); ok {
		ctx.ParsedCommand = pc
	}
	if plan, ok := bp.ExecutionPlan.(*ExecutionPlan); ok {
		ctx.ExecutionPlan = plan
	}

	ctx.State.Session.SessionID = bp.SessionID
	ctx.State.Session.ChainID = bp.ChainID
	ctx.State.Session.BlueprintRestored = true
	ctx.State.Session.ChainComplete = bp.IsComplete()
	ctx.State.Session.PendingReview = bp.PendingReview

	ctx.SessionContext = &SessionContext{
		SessionID:          bp.SessionID,
		ChainID:            bp.ChainID,
		CurrentStep:        bp.CurrentStep,
		TotalSteps:         bp.TotalSteps,
		PreviousStepResult: bp.PreviousStepResult,
		PendingReview:      bp.PendingReview,
	}
	return nil
}

// ResponseCaptureStage implements spec.md §4.9 "Response Capture Stage":
// when a resume request carries userResponse, capture it as the previous
// step's result and advance currentStep.
type ResponseCaptureStage struct {
	Store session.Store
}

func (s *ResponseCaptureStage) Name() string { return "ResponseCapture" }

func (s *ResponseCaptureStage) Execute(ctx *ExecutionContext) error {
	if ctx.Terminated() || ctx.Request.UserResponse == "" || ctx.SessionContext == nil {
		return nil
	}

	bp, err := s.Store.Get(ctx.SessionContext.SessionID)
	if err != nil {
		return nil
	}
	expectedVersion := bp.Version

	bp.PreviousStepResult = ctx.Request.UserResponse
	bp.CurrentStep++
	if bp.CurrentStep > bp.TotalSteps {
		ctx.State.Session.ChainComplete = true
	}

	updated, err := s.Store.PutCAS(bp, expectedVersion)
	if err == session.ErrCASConflict {
		// Concurrent resume won the race; this request does not advance
		// again but adopts the freshly-committed blueprint rather than
		// clobbering it.
		if fresh, getErr := s.Store.Get(ctx.SessionContext.SessionID); getErr == nil {
			updated = fresh
		} else {
			ctx.Response = errorResponse("failed to resolve session after CAS conflict: " + getErr.Error())
			return nil
		}
	} else if err != nil {
		ctx.Response = errorResponse("failed to persist session response: " + err.Error())
		return nil
	}

	ctx.SessionContext.CurrentStep = updated.CurrentStep
	ctx.SessionContext.PreviousStepResult = updated.PreviousStepResult
	return nil
}
