package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand_Classic(t *testing.T) {
	pc, err := ParseCommand("/greet name=Ada")
	require.NoError(t, err)
	assert.Equal(t, FormatClassic, pc.Format)
	assert.Equal(t, CommandSingle, pc.CommandType)
	assert.Equal(t, "greet", pc.PromptID)
	assert.Equal(t, `name=Ada`, pc.RawArgs)
	require.Len(t, pc.Steps, 1)
	assert.Equal(t, "greet", pc.Steps[0].PromptID)
}

func TestParseCommand_SymbolicSingle(t *testing.T) {
	pc, err := ParseCommand(">>greet name=Ada")
	require.NoError(t, err)
	assert.Equal(t, FormatSymbolic, pc.Format)
	assert.Equal(t, CommandSingle, pc.CommandType)
	assert.Equal(t, "greet", pc.PromptID)
	assert.Equal(t, "name=Ada", pc.RawArgs)
}

func TestParseCommand_ModifiersAnyOrder(t *testing.T) {
	pc, err := ParseCommand(`@react #formal %lean ::"be concise" >>summarize text="hi"`)
	require.NoError(t, err)
	assert.Equal(t, "react", pc.FrameworkOverride)
	assert.Equal(t, "formal", pc.StyleSelection)
	assert.True(t, pc.Lean)
	require.Len(t, pc.InlineGateCriteria, 1)
	assert.Equal(t, "be concise", pc.InlineGateCriteria[0])
	assert.Equal(t, "summarize", pc.PromptID)
	assert.Equal(t, `text="hi"`, pc.RawArgs)
}

func TestParseCommand_NamedAndShellGates(t *testing.T) {
	pc, err := ParseCommand(`::tone:"warm" ::lint:$(golint) >>draft body=x`)
	require.NoError(t, err)
	assert.Equal(t, "warm", pc.NamedInlineGates["tone"])
	assert.Equal(t, "golint", pc.ShellGates["lint"])
}

func TestParseCommand_Chain(t *testing.T) {
	pc, err := ParseCommand(">>step1 --> >>step2 | >>step3 seed=1")
	require.NoError(t, err)
	assert.Equal(t, CommandChain, pc.CommandType)
	require.Len(t, pc.Steps, 3)
	assert.Equal(t, "step1", pc.Steps[0].PromptID)
	assert.Equal(t, "step2", pc.Steps[1].PromptID)
	assert.Equal(t, "step3", pc.Steps[2].PromptID)
	for _, s := range pc.Steps {
		assert.Equal(t, "seed=1", s.RawArgs)
	}
}

func TestParseCommand_Idempotent(t *testing.T) {
	raw := `@react #formal ::"be concise" >>summarize text="hi" --> >>polish`
	first, err := ParseCommand(raw)
	require.NoError(t, err)
	second, err := ParseCommand(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseCommand_Empty(t *testing.T) {
	_, err := ParseCommand("   ")
	assert.Error(t, err)
}

func TestParseCommand_MissingPromptRef(t *testing.T) {
	_, err := ParseCommand("@react just some text")
	assert.Error(t, err)
}

func TestParseCommand_ChainOperatorDangling(t *testing.T) {
	_, err := ParseCommand(">>step1 -->")
	assert.Error(t, err)
}
