package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/forgecrew/promptengine/internal/domain/prompt"
)

func minLen(n int) *domain.Validation { return &domain.Validation{MinLength: &n} }

func TestParseArguments_KeyValue(t *testing.T) {
	def := &domain.Definition{Arguments: []domain.Argument{
		{Name: "name", Type: domain.TypeString, Required: true},
	}}
	args, errs, _ := ParseArguments(`name=Ada`, def, ArgParseContext{})
	assert.Empty(t, errs)
	assert.Equal(t, "Ada", args["name"])
}

func TestParseArguments_JSONObject(t *testing.T) {
	def := &domain.Definition{Arguments: []domain.Argument{
		{Name: "name", Type: domain.TypeString},
		{Name: "age", Type: domain.TypeNumber},
	}}
	args, errs, _ := ParseArguments(`{"name": "Ada", "age": 30}`, def, ArgParseContext{})
	assert.Empty(t, errs)
	assert.Equal(t, "Ada", args["name"])
	assert.Equal(t, float64(30), args["age"])
}

func TestParseArguments_IntelligentMappingSingleMissing(t *testing.T) {
	def := &domain.Definition{Arguments: []domain.Argument{
		{Name: "content", Type: domain.TypeString, Required: true},
	}}
	args, errs, notes := ParseArguments(`just a plain sentence`, def, ArgParseContext{})
	assert.Empty(t, errs)
	assert.Equal(t, "just a plain sentence", args["content"])
	require.Len(t, notes, 1)
	assert.Equal(t, SourceSmartMapped, notes[0].Source)
}

func TestParseArguments_RequiredMissing(t *testing.T) {
	def := &domain.Definition{Arguments: []domain.Argument{
		{Name: "name", Type: domain.TypeString, Required: true},
	}}
	_, errs, _ := ParseArguments(``, def, ArgParseContext{})
	require.Len(t, errs, 1)
	assert.Equal(t, "REQUIRED_ARGUMENT_MISSING", errs[0].Code)
}

func TestParseArguments_DefaultValueApplied(t *testing.T) {
	def := &domain.Definition{Arguments: []domain.Argument{
		{Name: "tone", Type: domain.TypeString, DefaultValue: "neutral"},
	}}
	args, errs, notes := ParseArguments(``, def, ArgParseContext{})
	assert.Empty(t, errs)
	assert.Equal(t, "neutral", args["tone"])
	require.Len(t, notes, 1)
	assert.Equal(t, SourceDefaultValue, notes[0].Source)
}

func TestParseArguments_RuntimeDefaultFallsBackToEnv(t *testing.T) {
	def := &domain.Definition{Arguments: []domain.Argument{
		{Name: "region", Type: domain.TypeString},
	}}
	_, _, notes := ParseArguments(``, def, ArgParseContext{
		Env: func(key string) string {
			if key == "PROMPT_REGION" {
				return "us-east"
			}
			return ""
		},
	})
	require.Len(t, notes, 1)
	assert.Equal(t, SourceEnv, notes[0].Source)
}

func TestParseArguments_LengthValidation(t *testing.T) {
	def := &domain.Definition{Arguments: []domain.Argument{
		{Name: "code", Type: domain.TypeString, Validation: minLen(5)},
	}}
	_, errs, _ := ParseArguments(`code=ab`, def, ArgParseContext{})
	require.Len(t, errs, 1)
	assert.Equal(t, "LENGTH_BOUND", errs[0].Code)
}

func TestParseArguments_TypeCoercion(t *testing.T) {
	def := &domain.Definition{Arguments: []domain.Argument{
		{Name: "count", Type: domain.TypeNumber},
		{Name: "enabled", Type: domain.TypeBoolean},
		{Name: "tags", Type: domain.TypeArray},
	}}
	args, errs, _ := ParseArguments(`count=3 enabled=true tags=a,b,c`, def, ArgParseContext{})
	assert.Empty(t, errs)
	assert.Equal(t, float64(3), args["count"])
	assert.Equal(t, true, args["enabled"])
	assert.Equal(t, []string{"a", "b", "c"}, args["tags"])
}

func TestParseArguments_ObjectSchemaFenceRejectsNonConforming(t *testing.T) {
	desc := "Structured config.\n```schema\n" +
		`{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}` +
		"\n```\n"
	def := &domain.Definition{Arguments: []domain.Argument{
		{Name: "config", Type: domain.TypeObject, Description: desc},
	}}

	_, errs, _ := ParseArguments(`{"config": {"name": "Ada"}}`, def, ArgParseContext{})
	assert.Empty(t, errs)

	_, errs, _ = ParseArguments(`{"config": {"age": 30}}`, def, ArgParseContext{})
	require.Len(t, errs, 1)
	assert.Equal(t, "SCHEMA_MISMATCH", errs[0].Code)
}

func TestParseArguments_ObjectWithoutSchemaFenceSkipsValidation(t *testing.T) {
	def := &domain.Definition{Arguments: []domain.Argument{
		{Name: "config", Type: domain.TypeObject, Description: "Freeform config, no schema declared."},
	}}
	_, errs, _ := ParseArguments(`{"config": {"anything": "goes"}}`, def, ArgParseContext{})
	assert.Empty(t, errs)
}

func TestParseArguments_ArgRoundTripIsDeterministic(t *testing.T) {
	def := &domain.Definition{Arguments: []domain.Argument{
		{Name: "name", Type: domain.TypeString, Required: true},
		{Name: "count", Type: domain.TypeNumber},
	}}
	raw := `name=Ada count=3`
	args1, errs1, _ := ParseArguments(raw, def, ArgParseContext{})
	args2, errs2, _ := ParseArguments(raw, def, ArgParseContext{})
	assert.Equal(t, errs1, errs2)
	assert.Equal(t, args1, args2)
}
