package pipeline

import (
	"time"

	"github.com/forgecrew/promptengine/internal/gateeval"
	"github.com/forgecrew/promptengine/internal/inject"
)

// NormalizationState is context.state.normalization: request options merged
// in by the first stage.
type NormalizationState struct {
	Options map[string]interface{}
}

// InjectionState is context.state.injection: the three per-type decisions
// resolved by the Injection Decision Service.
type InjectionState struct {
	Decisions map[inject.Type]inject.Decision
}

// SessionState is context.state.session.
type SessionState struct {
	SessionID         string
	ChainID           string
	BlueprintRestored bool
	ChainComplete     bool
	PendingReview     bool
}

// GatesState is context.state.gates.
type GatesState struct {
	AccumulatedGateIDs []string
	RetryAttempts      map[string]int // gate id -> attempts so far
}

// ScriptsState is context.state.scripts.
type ScriptsState struct {
	Results map[string]string // tool id -> captured output
}

// LifecycleState is context.state.lifecycle: cleanup handlers run after
// response emission, isolated from each other (spec.md §7).
type LifecycleState struct {
	Cleanup []func()
}

// State is the structured sub-object of ExecutionContext named in spec.md
// §3.
type State struct {
	Normalization NormalizationState
	Injection     InjectionState
	Session       SessionState
	Gates         GatesState
	Scripts       ScriptsState
	Lifecycle     LifecycleState
}

// ExecutionResults is context.executionResults, spec.md §4.7.
type ExecutionResults struct {
	Content     string
	Metadata    map[string]interface{}
	GeneratedAt time.Time
}

// FrameworkContext holds the resolved methodology's expanded system prompt.
type FrameworkContext struct {
	FrameworkID  string
	SystemPrompt string
}

// SessionContext is the read-facing view of the current chain session
// (spec.md §4.6).
type SessionContext struct {
	SessionID          string
	ChainID            string
	CurrentStep        int
	TotalSteps         int
	PreviousStepResult string
	PendingReview       bool
}

// Response is the terminal payload the pipeline is composing; its presence
// is the sentinel every stage checks before doing work (spec.md §3
// invariant: "once any stage sets context.response, remaining stages must
// skip their work").
type Response struct {
	Content      []ResponseContent
	IsError      bool
	Metadata     map[string]interface{}
	CallToAction string
}

// ResponseContent is one element of Response.Content (spec.md §6.1).
type ResponseContent struct {
	Type string // "text"
	Text string
}

// ExecutionContext is the per-request, owner-mutated bundle threaded
// through the pipeline (spec.md §3). It belongs exclusively to the
// Orchestrator driving one request; stages mutate it freely but it is
// never shared across requests or goroutines.
type ExecutionContext struct {
	CommandID string // groups this request's PipelineStageMetric emissions

	Request Request

	ParsedCommand    *ParsedCommand
	ExecutionPlan    *ExecutionPlan
	FrameworkContext *FrameworkContext
	SessionContext   *SessionContext
	ExecutionResults *ExecutionResults
	Response         *Response

	State State

	GateResults []gateeval.ValidationResult
}

// Request is the external request envelope of spec.md §6.1.
type Request struct {
	Command         string
	ChainID         string
	UserResponse    string
	GateVerdict     string
	GateAction      string // retry | skip | abort
	Gates           []interface{}
	ForceRestart    bool
	Options         map[string]interface{}
	APIValidation   *bool
	QualityGates    []string
	CustomChecks    []string
}

// IsResumeOnly reports whether this request is a response-only resumption
// (no command, but chainId + userResponse present) per spec.md §4.1 step 1.
func (r *Request) IsResumeOnly() bool {
	return r.Command == "" && r.ChainID != "" && r.UserResponse != ""
}

// NewExecutionContext allocates a fresh context for one request.
func NewExecutionContext(commandID string, req Request) *ExecutionContext {
	return &ExecutionContext{
		CommandID: commandID,
		Request:   req,
		State: State{
			Normalization: NormalizationState{Options: req.Options},
			Injection:     InjectionState{Decisions: map[inject.Type]inject.Decision{}},
			Gates:         GatesState{RetryAttempts: map[string]int{}},
			Scripts:       ScriptsState{Results: map[string]string{}},
		},
	}
}

// Terminated reports whether a downstream stage must skip its work because
// a response has already been set.
func (c *ExecutionContext) Terminated() bool { return c.Response != nil }

// RunCleanup executes every registered lifecycle cleanup handler after
// response emission, isolating failures from each other (spec.md §7).
func (c *ExecutionContext) RunCleanup(onPanic func(recovered interface{})) {
	for _, fn := range c.State.Lifecycle.Cleanup {
		func() {
			defer func() {
				if r := recover(); r != nil && onPanic != nil {
					onPanic(r)
				}
			}()
			fn()
		}()
	}
}
