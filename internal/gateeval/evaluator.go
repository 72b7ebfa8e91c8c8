// Package gateeval implements the Gate Evaluator of spec.md §4.11: given a
// set of gate IDs and a candidate content string, it runs each validation
// gate's passCriteria and returns a per-gate ValidationResult. The
// evaluator never short-circuits — all gates run and report independently;
// the caller (the pipeline's GateReviewStage) applies fail-on-any-blocking
// semantics.
package gateeval

import (
	"github.com/expr-lang/expr"

	"github.com/forgecrew/promptengine/internal/domain/gate"
	"github.com/forgecrew/promptengine/internal/pkg/logger"
	"github.com/forgecrew/promptengine/internal/scriptexec"
)

// ValidationError is one failed check within a gate's evaluation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationResult is the per-gate outcome spec.md §4.11 defines.
type ValidationResult struct {
	GateID     string            `json:"gateId"`
	Passed     bool              `json:"passed"`
	Errors     []ValidationError `json:"errors,omitempty"`
	RetryHints []string          `json:"retryHints,omitempty"`
	Score      float64           `json:"score"`
}

// EvalContext carries whatever a predicate/shell-verify criterion may need
// beyond the candidate content itself.
type EvalContext struct {
	FrameworkID string
	Category    string
	Args        map[string]interface{}
	Executor    scriptexec.Executor
}

// Validator checks one PassCriterion against content and returns whatever
// ValidationErrors it found plus a 0..1 contribution to the gate's score.
type Validator func(criterion gate.PassCriterion, content string, ec EvalContext) (errs []ValidationError, score float64)

// Evaluator runs registered gates' passCriteria against candidate content.
type Evaluator struct {
	validators map[string]Validator
}

// New builds an Evaluator with all built-in validators registered.
func New() *Evaluator {
	e := &Evaluator{validators: make(map[string]Validator)}
	e.Register("format", validateFormat)
	e.Register("section", validateSection)
	e.Register("hierarchy", validateHierarchy)
	e.Register("code_quality", validateCodeQuality)
	e.Register("required_fields", validateRequiredFields)
	e.Register("completeness", validateCompleteness)
	e.Register("security", validateSecurity)
	e.Register("word_count", validateWordCount)
	e.Register("phrase", validatePhrase)
	e.Register("predicate", e.validatePredicate)
	e.Register("json_schema", validateJSONSchema)
	return e
}

// Register installs or overrides a validator for a passCriterion kind.
func (e *Evaluator) Register(kind string, v Validator) {
	e.validators[kind] = v
}

// Evaluate runs every criterion of every named gate against content and
// returns one ValidationResult per gate, in the order given.
func (e *Evaluator) Evaluate(defs []gate.Definition, content string, ec EvalContext) []ValidationResult {
	results := make([]ValidationResult, 0, len(defs))
	for _, d := range defs {
		results = append(results, e.evaluateOne(d, content, ec))
	}
	return results
}

func (e *Evaluator) evaluateOne(d gate.Definition, content string, ec EvalContext) ValidationResult {
	if d.Type != gate.TypeValidation {
		// Guidance gates contribute text only; they always "pass".
		return ValidationResult{GateID: d.ID, Passed: true, Score: 1}
	}
	if len(d.PassCriteria) == 0 {
		return ValidationResult{GateID: d.ID, Passed: true, Score: 1}
	}

	var allErrors []ValidationError
	var totalScore float64
	for _, criterion := range d.PassCriteria {
		v, ok := e.validators[criterion.Kind]
		if !ok {
			logger.Warn("[GateEval] gate %s: unknown passCriterion kind %q, skipping", d.ID, criterion.Kind)
			totalScore += 1
			continue
		}
		errs, score := v(criterion, content, ec)
		allErrors = append(allErrors, errs...)
		totalScore += score
	}

	avgScore := totalScore / float64(len(d.PassCriteria))
	passed := len(allErrors) == 0

	result := ValidationResult{
		GateID: d.ID,
		Passed: passed,
		Errors: allErrors,
		Score:  avgScore,
	}
	if !passed {
		result.RetryHints = buildRetryHints(d, allErrors)
	}
	return result
}

func buildRetryHints(d gate.Definition, errs []ValidationError) []string {
	hints := append([]string(nil), d.RetryConfig.ImprovementHints...)
	for _, e := range errs {
		hints = append(hints, e.Message)
	}
	return hints
}

// validatePredicate interprets an expr-lang/expr boolean expression against
// the candidate content and EvalContext — the extension point spec.md §9
// leaves open for criteria built-ins don't cover.
func (e *Evaluator) validatePredicate(criterion gate.PassCriterion, content string, ec EvalContext) ([]ValidationError, float64) {
	exprStr, _ := criterion.Args["expr"].(string)
	if exprStr == "" {
		return []ValidationError{{Field: "passCriteria", Message: "predicate criterion missing 'expr' arg", Code: "predicate_misconfigured"}}, 0
	}

	env := map[string]interface{}{
		"content":     content,
		"framework":   ec.FrameworkID,
		"category":    ec.Category,
		"args":        ec.Args,
		"wordCount":   wordCount(content),
		"hasSection":  func(title string) bool { return hasSection(content, title) },
	}

	program, err := expr.Compile(exprStr, expr.Env(env), expr.AsBool())
	if err != nil {
		return []ValidationError{{Field: "passCriteria", Message: "predicate compile error: " + err.Error(), Code: "predicate_invalid"}}, 0
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return []ValidationError{{Field: "passCriteria", Message: "predicate eval error: " + err.Error(), Code: "predicate_error"}}, 0
	}
	if ok, _ := out.(bool); ok {
		return nil, 1
	}

	msg, _ := criterion.Args["message"].(string)
	if msg == "" {
		msg = "predicate '" + exprStr + "' was false"
	}
	return []ValidationError{{Field: "content", Message: msg, Code: "predicate_failed"}}, 0
}
