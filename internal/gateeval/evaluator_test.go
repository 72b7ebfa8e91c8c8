package gateeval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecrew/promptengine/internal/domain/gate"
)

func TestEvaluate_GuidanceGateAlwaysPasses(t *testing.T) {
	e := New()
	defs := []gate.Definition{{ID: "g1", Type: gate.TypeGuidance}}
	results := e.Evaluate(defs, "anything", EvalContext{})
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestEvaluate_WordCountBlocking(t *testing.T) {
	e := New()
	defs := []gate.Definition{{
		ID:   "g1",
		Type: gate.TypeValidation,
		PassCriteria: []gate.PassCriterion{
			{Kind: "word_count", Args: map[string]interface{}{"min": 10}},
		},
		RetryConfig: gate.RetryConfig{ImprovementHints: []string{"say more"}},
	}}
	results := e.Evaluate(defs, "too short", EvalContext{})
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
	require.NotEmpty(t, results[0].RetryHints)
	assert.Contains(t, results[0].RetryHints, "say more")
}

func TestEvaluate_PredicateCriterion(t *testing.T) {
	e := New()
	defs := []gate.Definition{{
		ID:   "g1",
		Type: gate.TypeValidation,
		PassCriteria: []gate.PassCriterion{
			{Kind: "predicate", Args: map[string]interface{}{"expr": `wordCount >= 2`}},
		},
	}}
	results := e.Evaluate(defs, "two words", EvalContext{})
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
}

func TestEvaluate_PredicateMissingExpr(t *testing.T) {
	e := New()
	defs := []gate.Definition{{
		ID:           "g1",
		Type:         gate.TypeValidation,
		PassCriteria: []gate.PassCriterion{{Kind: "predicate"}},
	}}
	results := e.Evaluate(defs, "content", EvalContext{})
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
	assert.Equal(t, "predicate_misconfigured", results[0].Errors[0].Code)
}

func TestEvaluate_JSONSchemaCriterion(t *testing.T) {
	e := New()
	schema := map[string]interface{}{
		"type":     "object",
		"required": []string{"name"},
		"properties": map[string]interface{}{
			"name": map[string]interface{}{"type": "string"},
		},
	}
	defs := []gate.Definition{{
		ID:   "g1",
		Type: gate.TypeValidation,
		PassCriteria: []gate.PassCriterion{
			{Kind: "json_schema", Args: map[string]interface{}{"schema": schema}},
		},
	}}

	results := e.Evaluate(defs, `{"name": "Ada"}`, EvalContext{})
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)

	results = e.Evaluate(defs, `{"age": 30}`, EvalContext{})
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
	assert.Equal(t, "json_schema_invalid", results[0].Errors[0].Code)
}

func TestEvaluate_JSONSchemaRejectsInvalidJSON(t *testing.T) {
	e := New()
	defs := []gate.Definition{{
		ID:   "g1",
		Type: gate.TypeValidation,
		PassCriteria: []gate.PassCriterion{
			{Kind: "json_schema", Args: map[string]interface{}{"schema": map[string]interface{}{"type": "object"}}},
		},
	}}
	results := e.Evaluate(defs, `not json`, EvalContext{})
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
	assert.Equal(t, "format_invalid", results[0].Errors[0].Code)
}

func TestEvaluate_UnknownCriterionKindSkipsAndScoresFull(t *testing.T) {
	e := New()
	defs := []gate.Definition{{
		ID:           "g1",
		Type:         gate.TypeValidation,
		PassCriteria: []gate.PassCriterion{{Kind: "not_a_real_kind"}},
	}}
	results := e.Evaluate(defs, "content", EvalContext{})
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestEvaluate_MultipleGatesIndependent(t *testing.T) {
	e := New()
	defs := []gate.Definition{
		{ID: "pass", Type: gate.TypeValidation, PassCriteria: []gate.PassCriterion{{Kind: "word_count", Args: map[string]interface{}{"min": 1}}}},
		{ID: "fail", Type: gate.TypeValidation, PassCriteria: []gate.PassCriterion{{Kind: "word_count", Args: map[string]interface{}{"min": 100}}}},
	}
	results := e.Evaluate(defs, "only a few words here", EvalContext{})
	require.Len(t, results, 2)
	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
}
