package pipeline

import (
	"strings"

	gatedomain "github.com/forgecrew/promptengine/internal/domain/gate"
	"github.com/forgecrew/promptengine/internal/gateeval"
	"github.com/forgecrew/promptengine/internal/notify"
	gateregistry "github.com/forgecrew/promptengine/internal/registry/gate"
	"github.com/forgecrew/promptengine/internal/session"
)

// GateReviewStage implements spec.md §4.9 "Gate Review Stage": evaluate
// validation gates against the previous userResponse when one is present;
// on any blocking failure, short-circuit with a retry response; respect
// retryConfig.maxAttempts and the gate_action field on exhaustion.
type GateReviewStage struct {
	Gates     *gateregistry.Registry
	Evaluator *gateeval.Evaluator
	Store     session.Store
	Notifier  *notify.Notifier
}

func (s *GateReviewStage) Name() string { return "GateReview" }

func (s *GateReviewStage) Execute(ctx *ExecutionContext) error {
	if ctx.Terminated() || ctx.ExecutionPlan == nil || ctx.Request.UserResponse == "" {
		return nil
	}

	var defs []gatedomain.Definition
	for _, id := range ctx.ExecutionPlan.Gates {
		if d, ok := s.Gates.Resolve(id); ok && d.Type == gatedomain.TypeValidation {
			defs = append(defs, d)
		}
	}
	if len(defs) == 0 {
		return nil
	}

	results := s.Evaluator.Evaluate(defs, ctx.Request.UserResponse, gateeval.EvalContext{})
	ctx.GateResults = results

	var blockingFailures []gateeval.ValidationResult
	var defByID = map[string]gatedomain.Definition{}
	for _, d := range defs {
		defByID[d.ID] = d
	}
	for _, r := range results {
		if r.Passed {
			continue
		}
		if defByID[r.GateID].IsBlocking() {
			blockingFailures = append(blockingFailures, r)
		}
	}
	if len(blockingFailures) == 0 {
		return nil
	}

	if s.Notifier != nil {
		s.Notifier.Emit(notify.EventGateFailed, map[string]interface{}{"sessionId": ctx.State.Session.SessionID})
	}

	sessionID := ctx.State.Session.SessionID
	attemptKey := blockingFailures[0].GateID
	ctx.State.Gates.RetryAttempts[attemptKey]++
	attempts := ctx.State.Gates.RetryAttempts[attemptKey]
	maxAttempts := defByID[attemptKey].EffectiveMaxAttempts()

	if attempts <= maxAttempts {
		ctx.Response = gateRetryResponse(blockingFailures)
		ctx.State.Session.PendingReview = true
		if sessionID != "" {
			if bp, err := s.Store.Get(sessionID); err == nil {
				bp.PendingReview = true
				_, _ = s.Store.PutCAS(bp, bp.Version)
			}
		}
		return nil
	}

	if s.Notifier != nil {
		s.Notifier.Emit(notify.EventRetryExhausted, map[string]interface{}{"sessionId": sessionID, "gate": attemptKey})
	}

	action := ctx.Request.GateAction
	if action == "" {
		action = "abort" // spec.md §9 Open Question: absent gate_action treated as abort
	}
	switch action {
	case "skip":
		ctx.State.Gates.RetryAttempts[attemptKey] = 0
		return nil
	case "retry":
		ctx.State.Gates.RetryAttempts[attemptKey] = 0
		ctx.Response = gateRetryResponse(blockingFailures)
		return nil
	default: // abort
		if s.Notifier != nil {
			s.Notifier.Emit(notify.EventResponseBlocked, map[string]interface{}{"sessionId": sessionID})
		}
		if sessionID != "" {
			_ = s.Store.Delete(sessionID)
		}
		ctx.Response = &Response{
			IsError: true,
			Content: []ResponseContent{{Type: "text", Text: "gate review failed and retry limit exhausted; chain aborted"}},
		}
		return nil
	}
}

func gateRetryResponse(failures []gateeval.ValidationResult) *Response {
	var b strings.Builder
	b.WriteString("GATE_REVIEW: FAIL\n")
	for _, f := range failures {
		b.WriteString("gate " + f.GateID + ":\n")
		for _, e := range f.Errors {
			b.WriteString("- " + e.Message + "\n")
		}
		for _, h := range f.RetryHints {
			b.WriteString("  hint: " + h + "\n")
		}
	}
	b.WriteString("\nResubmit via gate_verdict once addressed.")
	return &Response{
		Content:      []ResponseContent{{Type: "text", Text: b.String()}},
		CallToAction: "resubmit with gate_verdict after addressing the issues above",
	}
}
