package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gateregistry "github.com/forgecrew/promptengine/internal/registry/gate"
	promptregistry "github.com/forgecrew/promptengine/internal/registry/prompt"
)

func writePromptYAML(t *testing.T, root, id, yamlBody string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.yaml"), []byte(yamlBody), 0o644))
}

func newTestPromptRegistry(t *testing.T) *promptregistry.Registry {
	t.Helper()
	root := t.TempDir()
	writePromptYAML(t, root, "valid_prompt", "id: valid_prompt\nname: Valid Prompt\ncategory: general\n")
	t.Setenv("MCP_PROMPTS_PATH", root)

	reg, err := promptregistry.New(filepath.Join(root, "journal.json"))
	require.NoError(t, err)
	return reg
}

func newEmptyGateRegistry(t *testing.T) *gateregistry.Registry {
	t.Helper()
	root := t.TempDir()
	t.Setenv("MCP_GATES_PATH", root)

	reg, err := gateregistry.New(filepath.Join(root, "journal.json"))
	require.NoError(t, err)
	return reg
}

// TestPlanningStage_UnknownPromptSetsTerminalResponse exercises the
// >>valid_prompt --> >>bogus_step scenario: the first step resolves, the
// second does not. The stage must set a terminal, structured Response
// rather than returning a raw error that would bypass the uniform
// ResourceNotFound envelope.
func TestPlanningStage_UnknownPromptSetsTerminalResponse(t *testing.T) {
	stage := &PlanningStage{Prompts: newTestPromptRegistry(t), Gates: newEmptyGateRegistry(t)}

	pc, err := ParseCommand(">>valid_prompt --> >>bogus_step")
	require.NoError(t, err)

	ctx := NewExecutionContext("cmd-1", Request{})
	ctx.ParsedCommand = &pc

	require.NoError(t, stage.Execute(ctx))
	require.NotNil(t, ctx.Response)
	assert.True(t, ctx.Response.IsError)
	assert.Contains(t, ctx.Response.Content[0].Text, "bogus_step")
	assert.Nil(t, ctx.ExecutionPlan)
}

func TestPlanningStage_TopLevelUnknownPromptSetsTerminalResponse(t *testing.T) {
	stage := &PlanningStage{Prompts: newTestPromptRegistry(t), Gates: newEmptyGateRegistry(t)}

	pc, err := ParseCommand(">>bogus_step")
	require.NoError(t, err)

	ctx := NewExecutionContext("cmd-1", Request{})
	ctx.ParsedCommand = &pc

	require.NoError(t, stage.Execute(ctx))
	require.NotNil(t, ctx.Response)
	assert.True(t, ctx.Response.IsError)
	assert.Contains(t, ctx.Response.Content[0].Text, "bogus_step")
}

func TestPlanningStage_KnownPromptProducesPlan(t *testing.T) {
	stage := &PlanningStage{Prompts: newTestPromptRegistry(t), Gates: newEmptyGateRegistry(t)}

	pc, err := ParseCommand(">>valid_prompt")
	require.NoError(t, err)

	ctx := NewExecutionContext("cmd-1", Request{})
	ctx.ParsedCommand = &pc

	require.NoError(t, stage.Execute(ctx))
	assert.Nil(t, ctx.Response)
	require.NotNil(t, ctx.ExecutionPlan)
	assert.Equal(t, StrategySingle, ctx.ExecutionPlan.Strategy)
}
