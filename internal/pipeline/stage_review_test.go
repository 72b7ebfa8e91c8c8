package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecrew/promptengine/internal/gateeval"
	gateregistry "github.com/forgecrew/promptengine/internal/registry/gate"
	"github.com/forgecrew/promptengine/internal/session"
)

const blockingGateYAML = `
id: g1
name: Always Fails
type: validation
severity: critical
enforcementMode: blocking
passCriteria:
  - kind: word_count
    args:
      min: 999999
retryConfig:
  maxAttempts: 2
`

func newBlockingGateRegistry(t *testing.T) *gateregistry.Registry {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "g1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "g1", "gate.yaml"), []byte(blockingGateYAML), 0o644))
	t.Setenv("MCP_GATES_PATH", root)

	reg, err := gateregistry.New(filepath.Join(root, "journal.json"))
	require.NoError(t, err)
	return reg
}

// TestGateReviewStage_RetryLimit exercises spec.md §8's "Gate retry limit"
// property: with maxAttempts=2, a persistently failing blocking gate emits
// exactly two retry responses before the third attempt is terminal.
func TestGateReviewStage_RetryLimit(t *testing.T) {
	stage := &GateReviewStage{
		Gates:     newBlockingGateRegistry(t),
		Evaluator: gateeval.New(),
		Store:     session.NewMemStore(),
	}
	plan := &ExecutionPlan{Gates: []string{"g1"}}

	ctx := NewExecutionContext("cmd-1", Request{UserResponse: "too short", GateAction: "abort"})
	ctx.ExecutionPlan = plan

	require.NoError(t, stage.Execute(ctx))
	require.NotNil(t, ctx.Response)
	assert.False(t, ctx.Response.IsError)
	assert.Contains(t, ctx.Response.Content[0].Text, "GATE_REVIEW: FAIL")

	ctx.Response = nil
	require.NoError(t, stage.Execute(ctx))
	require.NotNil(t, ctx.Response)
	assert.False(t, ctx.Response.IsError)
	assert.Contains(t, ctx.Response.Content[0].Text, "GATE_REVIEW: FAIL")

	ctx.Response = nil
	require.NoError(t, stage.Execute(ctx))
	require.NotNil(t, ctx.Response)
	assert.True(t, ctx.Response.IsError)
	assert.Contains(t, ctx.Response.Content[0].Text, "retry limit exhausted")
}

// TestGateReviewStage_RetryExhaustedActionRetryResetsCounter exercises the
// gate_action=retry path: exhaustion with action=retry resets the counter
// and re-emits a retry response rather than aborting.
func TestGateReviewStage_RetryExhaustedActionRetryResetsCounter(t *testing.T) {
	stage := &GateReviewStage{
		Gates:     newBlockingGateRegistry(t),
		Evaluator: gateeval.New(),
		Store:     session.NewMemStore(),
	}
	plan := &ExecutionPlan{Gates: []string{"g1"}}

	ctx := NewExecutionContext("cmd-1", Request{UserResponse: "too short", GateAction: "retry"})
	ctx.ExecutionPlan = plan

	for i := 0; i < 2; i++ {
		require.NoError(t, stage.Execute(ctx))
		require.NotNil(t, ctx.Response)
		assert.False(t, ctx.Response.IsError)
		ctx.Response = nil
	}

	require.NoError(t, stage.Execute(ctx))
	require.NotNil(t, ctx.Response)
	assert.False(t, ctx.Response.IsError, "gate_action=retry must reset and retry, not abort")
	assert.Equal(t, 0, ctx.State.Gates.RetryAttempts["g1"])
}

func TestGateReviewStage_NoUserResponseSkips(t *testing.T) {
	stage := &GateReviewStage{
		Gates:     newBlockingGateRegistry(t),
		Evaluator: gateeval.New(),
		Store:     session.NewMemStore(),
	}
	plan := &ExecutionPlan{Gates: []string{"g1"}}
	ctx := NewExecutionContext("cmd-1", Request{})
	ctx.ExecutionPlan = plan

	require.NoError(t, stage.Execute(ctx))
	assert.Nil(t, ctx.Response)
}
