// Package style holds the StyleDefinition entity of spec.md §3.
package style

import "github.com/forgecrew/promptengine/internal/domain/gate"

// EnhancementMode controls how a style's guidance combines with the rest of
// the system prompt.
type EnhancementMode string

const (
	EnhancementPrepend EnhancementMode = "prepend"
	EnhancementAppend  EnhancementMode = "append"
	EnhancementReplace EnhancementMode = "replace"
)

// Definition is the StyleDefinition entity of spec.md §3.
type Definition struct {
	ID                  string          `yaml:"id" json:"id"`
	Name                string          `yaml:"name" json:"name"`
	Guidance            string          `yaml:"guidance" json:"guidance"`
	EnhancementMode     EnhancementMode `yaml:"enhancementMode" json:"enhancementMode"`
	Priority            int             `yaml:"priority" json:"priority"`
	Enabled             bool            `yaml:"enabled" json:"enabled"`
	Activation          gate.Activation `yaml:"activation,omitempty" json:"activation,omitempty"`
	CompatibleFrameworks []string       `yaml:"compatibleFrameworks,omitempty" json:"compatibleFrameworks,omitempty"`
}

// CompatibleWith reports whether the style declares compatibility with the
// given framework ID, or has no restriction (empty list = compatible with
// everything).
func (d *Definition) CompatibleWith(frameworkID string) bool {
	if len(d.CompatibleFrameworks) == 0 {
		return true
	}
	for _, f := range d.CompatibleFrameworks {
		if f == frameworkID {
			return true
		}
	}
	return false
}

// Apply combines guidance into the existing system prompt text per
// EnhancementMode.
func (d *Definition) Apply(systemPrompt string) string {
	switch d.EnhancementMode {
	case EnhancementReplace:
		return d.Guidance
	case EnhancementAppend:
		if systemPrompt == "" {
			return d.Guidance
		}
		return systemPrompt + "\n\n" + d.Guidance
	default: // prepend
		if systemPrompt == "" {
			return d.Guidance
		}
		return d.Guidance + "\n\n" + systemPrompt
	}
}

// EntryID and EntryName satisfy registry/common.Entry.
func (d Definition) EntryID() string   { return d.ID }
func (d Definition) EntryName() string { return d.Name }
