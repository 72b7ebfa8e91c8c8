// Package inject implements the Injection Decision Service of spec.md
// §4.5 (Stage 07b): for each of three injection types — systemPrompt,
// gateGuidance, styleGuidance — resolve a boolean inject decision using a
// seven-level hierarchy, first match wins, recording the winning source
// for diagnostics.
package inject

// Type is one of the three independently-decided injection kinds.
type Type string

const (
	TypeSystemPrompt  Type = "systemPrompt"
	TypeGateGuidance  Type = "gateGuidance"
	TypeStyleGuidance Type = "styleGuidance"
)

// Source names which level of the hierarchy produced a Decision, in
// priority order (lower index wins).
type Source string

const (
	SourceSessionOverride  Source = "sessionOverride"
	SourceRequestOverride  Source = "requestOverride"
	SourceStepAnnotation   Source = "stepAnnotation"
	SourceChainRule        Source = "chainRule"
	SourceCategoryRule     Source = "categoryRule"
	SourceGlobalDefault    Source = "globalDefault"
	SourceFallback         Source = "fallback"
)

// Decision is the resolved inject/skip verdict plus its provenance.
type Decision struct {
	Inject bool
	Source Source
}

// Input bundles every level of the hierarchy the resolver consults. A nil
// *bool at a given level means "this level expresses no opinion" — the
// resolver falls through to the next level.
type Input struct {
	Type Type
	Step int // 1-based step number within the current plan/chain

	SessionOverride *bool // set by an admin control surface against the live session
	RequestOverride *bool // set by the incoming request's explicit fields
	StepAnnotation  *bool // the per-step annotation on the prompt/chain-step definition
	ChainRule       *bool // a chain-wide rule (e.g. "inject only on step 1")
	CategoryRule    *bool // a rule keyed by the prompt's category
	GlobalDefault   *bool // configured default (viper config / CLI flag)
}

// Resolve walks the seven-level hierarchy, first-match-wins, and returns
// the decision plus which level decided it.
func Resolve(in Input) Decision {
	levels := []struct {
		val *bool
		src Source
	}{
		{in.SessionOverride, SourceSessionOverride},
		{in.RequestOverride, SourceRequestOverride},
		{in.StepAnnotation, SourceStepAnnotation},
		{in.ChainRule, SourceChainRule},
		{in.CategoryRule, SourceCategoryRule},
		{in.GlobalDefault, SourceGlobalDefault},
	}
	for _, lvl := range levels {
		if lvl.val != nil {
			return Decision{Inject: *lvl.val, Source: lvl.src}
		}
	}
	// Level 7 fallback: inject iff systemPrompt on step 1.
	return Decision{Inject: in.Type == TypeSystemPrompt && in.Step == 1, Source: SourceFallback}
}

// Decisions resolves all three injection types for a single step, given a
// shared base Input with Type left unset (it is overwritten per type).
func Decisions(base Input, perType map[Type]Input) map[Type]Decision {
	out := make(map[Type]Decision, 3)
	for _, t := range []Type{TypeSystemPrompt, TypeGateGuidance, TypeStyleGuidance} {
		in := base
		if override, ok := perType[t]; ok {
			in = override
		}
		in.Type = t
		out[t] = Resolve(in)
	}
	return out
}

// BoolPtr is a small convenience constructor for building Input literals.
func BoolPtr(b bool) *bool { return &b }
