// Package session implements the Chain Session Store of spec.md §4.6/§6.4:
// SessionBlueprint persistence with compare-and-swap semantics for
// concurrent chain resumption (spec.md §5).
package session

import (
	"time"

	"github.com/jinzhu/copier"
)

// Blueprint is the SessionBlueprint entity of spec.md §3.
type Blueprint struct {
	SessionID         string                 `json:"sessionId"`
	ChainID           string                 `json:"chainId"`
	ParsedCommand     interface{}            `json:"parsedCommand"`
	ExecutionPlan     interface{}            `json:"executionPlan"`
	GateInstructions  string                 `json:"gateInstructions,omitempty"`
	CurrentStep       int                    `json:"currentStep"`
	TotalSteps        int                    `json:"totalSteps"`
	PreviousStepResult string                `json:"previousStepResult,omitempty"`
	PendingReview     bool                   `json:"pendingReview"`
	ChainContext      map[string]interface{} `json:"chainContext,omitempty"`

	// Version is the CAS generation counter (spec.md §5, §9 "Session store
	// CAS"): bumped on every successful PutCAS. Not part of the public
	// blueprint shape seen by template rendering, only the store's
	// internal concurrency control.
	Version int `json:"version"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsComplete reports the invariant from spec.md §3: a blueprint whose
// currentStep exceeds totalSteps is complete and due for purge.
func (b *Blueprint) IsComplete() bool {
	return b.CurrentStep > b.TotalSteps
}

// Clone returns a deep-enough copy safe for a caller to mutate without
// affecting the store's copy. Uses copier.CopyWithOption(DeepCopy: true)
// so the chain context map and any nested parsedCommand/executionPlan
// values are copied rather than aliased.
func (b *Blueprint) Clone() *Blueprint {
	if b == nil {
		return nil
	}
	cp := &Blueprint{}
	_ = copier.CopyWithOption(cp, b, copier.Option{DeepCopy: true})
	return cp
}
