package inject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_PrecedenceHighestLevelWins(t *testing.T) {
	in := Input{
		Type:            TypeSystemPrompt,
		Step:            1,
		SessionOverride: BoolPtr(false),
		RequestOverride: BoolPtr(true),
		GlobalDefault:   BoolPtr(true),
	}
	d := Resolve(in)
	assert.False(t, d.Inject)
	assert.Equal(t, SourceSessionOverride, d.Source)
}

func TestResolve_FallsThroughLevelsInOrder(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want Source
	}{
		{"request", Input{RequestOverride: BoolPtr(true)}, SourceRequestOverride},
		{"step", Input{StepAnnotation: BoolPtr(true)}, SourceStepAnnotation},
		{"chain", Input{ChainRule: BoolPtr(true)}, SourceChainRule},
		{"category", Input{CategoryRule: BoolPtr(true)}, SourceCategoryRule},
		{"global", Input{GlobalDefault: BoolPtr(true)}, SourceGlobalDefault},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := Resolve(c.in)
			assert.Equal(t, c.want, d.Source)
		})
	}
}

func TestResolve_FallbackInjectsSystemPromptOnStepOneOnly(t *testing.T) {
	d := Resolve(Input{Type: TypeSystemPrompt, Step: 1})
	assert.True(t, d.Inject)
	assert.Equal(t, SourceFallback, d.Source)

	d = Resolve(Input{Type: TypeSystemPrompt, Step: 2})
	assert.False(t, d.Inject)
	assert.Equal(t, SourceFallback, d.Source)

	d = Resolve(Input{Type: TypeGateGuidance, Step: 1})
	assert.False(t, d.Inject)
	assert.Equal(t, SourceFallback, d.Source)
}

func TestDecisions_ResolvesAllThreeTypesIndependently(t *testing.T) {
	base := Input{Step: 1}
	out := Decisions(base, map[Type]Input{
		TypeGateGuidance: {Step: 1, GlobalDefault: BoolPtr(false)},
	})
	assert.True(t, out[TypeSystemPrompt].Inject)
	assert.Equal(t, SourceFallback, out[TypeSystemPrompt].Source)
	assert.False(t, out[TypeGateGuidance].Inject)
	assert.Equal(t, SourceGlobalDefault, out[TypeGateGuidance].Source)
}
