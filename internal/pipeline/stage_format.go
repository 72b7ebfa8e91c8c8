package pipeline

import (
	"strconv"

	"github.com/mitchellh/go-wordwrap"

	"github.com/forgecrew/promptengine/internal/notify"
)

// FormattingStage implements spec.md §4.9 "Formatting Stages": assemble the
// final response payload from ctx.ExecutionResults if one hasn't already
// been set, adding a chain-continuation hint for an incomplete multi-step
// chain. A response already set by an earlier stage is only word-wrapped;
// no gate-guidance suffix is appended, pendingReview or not.
type FormattingStage struct {
	WrapWidth uint
}

func (s *FormattingStage) Name() string { return "Formatting" }

func (s *FormattingStage) Execute(ctx *ExecutionContext) error {
	if ctx.Response != nil {
		s.wrap(ctx.Response)
		return nil
	}
	if ctx.ExecutionResults == nil {
		return nil
	}

	text := ctx.ExecutionResults.Content
	resp := &Response{
		Content:  []ResponseContent{{Type: "text", Text: text}},
		Metadata: ctx.ExecutionResults.Metadata,
	}

	if ctx.SessionContext != nil && ctx.SessionContext.TotalSteps > 1 && !ctx.State.Session.ChainComplete {
		next := ctx.SessionContext.CurrentStep + 1
		resp.CallToAction = "next step: provide user_response for step " + strconv.Itoa(next)
	}

	ctx.Response = resp
	s.wrap(resp)
	return nil
}

func (s *FormattingStage) wrap(resp *Response) {
	if s.WrapWidth == 0 {
		return
	}
	for i := range resp.Content {
		resp.Content[i].Text = wordwrap.WrapString(resp.Content[i].Text, s.WrapWidth)
	}
}

// NotificationAndCleanupStage implements spec.md §7's lifecycle cleanup
// (run after response emission, isolated from each other) plus the
// chain-completion notifications of §6.5.
type NotificationAndCleanupStage struct {
	Notifier *notify.Notifier
	OnError  func(recovered interface{})
}

func (s *NotificationAndCleanupStage) Name() string { return "NotificationAndCleanup" }

func (s *NotificationAndCleanupStage) Execute(ctx *ExecutionContext) error {
	if s.Notifier != nil {
		if ctx.State.Session.ChainComplete {
			s.Notifier.Emit(notify.EventChainComplete, map[string]interface{}{"sessionId": ctx.State.Session.SessionID})
		} else if ctx.SessionContext != nil && ctx.ExecutionResults != nil {
			s.Notifier.Emit(notify.EventChainStepComplete, map[string]interface{}{
				"sessionId": ctx.State.Session.SessionID,
				"step":      ctx.SessionContext.CurrentStep,
			})
		}
		if ctx.FrameworkContext != nil {
			s.Notifier.Emit(notify.EventFrameworkChanged, map[string]interface{}{"frameworkId": ctx.FrameworkContext.FrameworkID})
		}
	}

	ctx.RunCleanup(s.OnError)
	return nil
}
