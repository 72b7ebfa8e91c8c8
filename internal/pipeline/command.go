// Package pipeline implements the fixed, ordered staged pipeline of
// spec.md §4: the Command Parser, Argument Parser, Planning Stage, Script
// Execution Stage, Framework/Gate/Injection stages, Session Stage, Step
// Execution Stage, Chain Operator Executor, Response Capture / Gate Review
// / Formatting stages, and the Orchestrator driving them in total order
// over one ExecutionContext per request.
package pipeline

import (
	"regexp"
	"strings"

	"github.com/forgecrew/promptengine/internal/pkg/errorx"
)

// Format distinguishes the legacy slash-command surface from the symbolic
// >> / operator grammar of spec.md §6.3.
type Format string

const (
	FormatClassic  Format = "classic"
	FormatSymbolic Format = "symbolic"
)

// CommandType is single-prompt vs. chain execution.
type CommandType string

const (
	CommandSingle CommandType = "single"
	CommandChain  CommandType = "chain"
)

// OperatorKind enumerates the modifier operators of the command grammar.
type OperatorKind string

const (
	OpFramework     OperatorKind = "framework"
	OpAnonymousGate OperatorKind = "anonymousGate"
	OpNamedGate     OperatorKind = "namedGate"
	OpShellGate     OperatorKind = "shellGate"
	OpStyle         OperatorKind = "style"
	OpLean          OperatorKind = "lean"
	OpClean         OperatorKind = "clean"
)

// Operator is one parsed modifier-op token.
type Operator struct {
	Kind     OperatorKind
	Value    string // framework id / style id / anonymous gate criteria text
	GateID   string // for named/shell gates
	ShellCmd string // for shell-verify gates
}

// Step is one prompt reference within a (possibly multi-prompt) command.
type Step struct {
	PromptID string
	RawArgs  string
}

// ParsedCommand is the Command Parser's (Stage 1) output, spec.md §4.1.
type ParsedCommand struct {
	PromptID    string
	Format      Format
	CommandType CommandType
	RawArgs     string
	Operators   []Operator
	Steps       []Step

	StyleSelection     string
	FrameworkOverride  string
	Lean               bool
	Clean              bool
	InlineGateCriteria []string          // anonymous :: "..." criteria
	NamedInlineGates   map[string]string // gate id -> criteria text
	ShellGates         map[string]string // gate id -> shell command
}

var (
	reFrameworkOp = regexp.MustCompile(`^@([\w.-]+)\s*`)
	reShellGateOp = regexp.MustCompile(`^::([\w.-]+):\s*\$\(([^)]*)\)\s*`)
	reNamedGateOp = regexp.MustCompile(`^::([\w.-]+):\s*"([^"]*)"\s*`)
	reAnonGateOp  = regexp.MustCompile(`^::\s*"([^"]*)"\s*`)
	reStyleOp     = regexp.MustCompile(`^#([\w.-]+)\s*`)
	reLeanOp      = regexp.MustCompile(`^%lean\s*`)
	reCleanOp     = regexp.MustCompile(`^%clean\s*`)
	rePromptRef   = regexp.MustCompile(`^>>([\w.-]+)\s*`)
	reChainOp     = regexp.MustCompile(`^(-->|\|)\s*`)
	reClassicCmd  = regexp.MustCompile(`^/([\w.-]+)\s*`)
)

// ParseCommand implements the Command Parser (Stage 1) of spec.md §4.1.
// Response-only (resume) requests are handled upstream by the Session
// Stage and never reach this function.
func ParseCommand(raw string) (ParsedCommand, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ParsedCommand{}, errorx.WithCode(ErrCodeMissingCommand, "command is empty")
	}

	if m := reClassicCmd.FindStringSubmatch(s); m != nil {
		rest := s[len(m[0]):]
		return ParsedCommand{
			PromptID:    m[1],
			Format:      FormatClassic,
			CommandType: CommandSingle,
			RawArgs:     strings.TrimSpace(rest),
			Steps:       []Step{{PromptID: m[1], RawArgs: strings.TrimSpace(rest)}},
		}, nil
	}

	pc := ParsedCommand{
		Format:           FormatSymbolic,
		NamedInlineGates: map[string]string{},
		ShellGates:       map[string]string{},
	}

	// 1. Leading modifier operators, in any order, repeated until none match.
	for {
		switch {
		case reFrameworkOp.MatchString(s):
			m := reFrameworkOp.FindStringSubmatch(s)
			pc.FrameworkOverride = m[1]
			pc.Operators = append(pc.Operators, Operator{Kind: OpFramework, Value: m[1]})
			s = s[len(m[0]):]
		case reShellGateOp.MatchString(s):
			m := reShellGateOp.FindStringSubmatch(s)
			pc.ShellGates[m[1]] = m[2]
			pc.Operators = append(pc.Operators, Operator{Kind: OpShellGate, GateID: m[1], ShellCmd: m[2]})
			s = s[len(m[0]):]
		case reNamedGateOp.MatchString(s):
			m := reNamedGateOp.FindStringSubmatch(s)
			pc.NamedInlineGates[m[1]] = m[2]
			pc.Operators = append(pc.Operators, Operator{Kind: OpNamedGate, GateID: m[1], Value: m[2]})
			s = s[len(m[0]):]
		case reAnonGateOp.MatchString(s):
			m := reAnonGateOp.FindStringSubmatch(s)
			pc.InlineGateCriteria = append(pc.InlineGateCriteria, m[1])
			pc.Operators = append(pc.Operators, Operator{Kind: OpAnonymousGate, Value: m[1]})
			s = s[len(m[0]):]
		case reStyleOp.MatchString(s):
			m := reStyleOp.FindStringSubmatch(s)
			pc.StyleSelection = m[1]
			pc.Operators = append(pc.Operators, Operator{Kind: OpStyle, Value: m[1]})
			s = s[len(m[0]):]
		case reLeanOp.MatchString(s):
			m := reLeanOp.FindStringSubmatch(s)
			pc.Lean = true
			pc.Operators = append(pc.Operators, Operator{Kind: OpLean})
			s = s[len(m[0]):]
		case reCleanOp.MatchString(s):
			m := reCleanOp.FindStringSubmatch(s)
			pc.Clean = true
			pc.Operators = append(pc.Operators, Operator{Kind: OpClean})
			s = s[len(m[0]):]
		default:
			goto modifiersDone
		}
	}
modifiersDone:

	// 2. Prompt references, separated by chain operators.
	m := rePromptRef.FindStringSubmatch(s)
	if m == nil {
		return ParsedCommand{}, errorx.WithCode(ErrCodeMalformedOperator, "expected a >>promptId reference in %q", raw)
	}
	s = s[len(m[0]):]
	pc.PromptID = m[1]
	pc.Steps = append(pc.Steps, Step{PromptID: m[1]})

	for {
		cm := reChainOp.FindStringSubmatch(s)
		if cm == nil {
			break
		}
		s = s[len(cm[0]):]
		pm := rePromptRef.FindStringSubmatch(s)
		if pm == nil {
			return ParsedCommand{}, errorx.WithCode(ErrCodeMalformedOperator, "chain operator not followed by a >>promptId reference in %q", raw)
		}
		s = s[len(pm[0]):]
		pc.Steps = append(pc.Steps, Step{PromptID: pm[1]})
	}

	pc.RawArgs = strings.TrimSpace(s)
	if len(pc.Steps) > 1 {
		pc.CommandType = CommandChain
		for i := range pc.Steps {
			pc.Steps[i].RawArgs = pc.RawArgs
		}
	} else {
		pc.CommandType = CommandSingle
		pc.Steps[0].RawArgs = pc.RawArgs
	}

	return pc, nil
}
