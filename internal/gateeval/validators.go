package gateeval

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/russross/blackfriday"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/forgecrew/promptengine/internal/domain/gate"
)

func argString(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func argStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		if ss, ok := args[key].([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func argInt(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// validateFormat checks content parses as the declared format — markdown
// (rendered via blackfriday without AST errors), json, or yaml.
func validateFormat(criterion gate.PassCriterion, content string, ec EvalContext) ([]ValidationError, float64) {
	switch strings.ToLower(argString(criterion.Args, "format")) {
	case "json":
		var v interface{}
		if err := json.Unmarshal([]byte(content), &v); err != nil {
			return []ValidationError{{Field: "content", Message: "not valid JSON: " + err.Error(), Code: "format_invalid"}}, 0
		}
	case "yaml":
		var v interface{}
		if err := yaml.Unmarshal([]byte(content), &v); err != nil {
			return []ValidationError{{Field: "content", Message: "not valid YAML: " + err.Error(), Code: "format_invalid"}}, 0
		}
	default: // markdown
		if strings.TrimSpace(content) == "" {
			return []ValidationError{{Field: "content", Message: "empty markdown content", Code: "format_invalid"}}, 0
		}
		_ = blackfriday.MarkdownCommon([]byte(content))
	}
	return nil, 1
}

// validateJSONSchema checks content parses as JSON and conforms to the
// Draft 2020-12 schema given in args.schema (a JSON object or JSON-encoded
// string), via santhosh-tekuri/jsonschema/v6 — the validating counterpart
// to the invopop/jsonschema schema the MCP transport builds by hand for
// a prompt's arguments (internal/transport/mcp/server.go).
func validateJSONSchema(criterion gate.PassCriterion, content string, ec EvalContext) ([]ValidationError, float64) {
	rawSchema := criterion.Args["schema"]
	schemaJSON, ok := rawSchema.(string)
	if !ok {
		encoded, err := json.Marshal(rawSchema)
		if err != nil {
			return []ValidationError{{Field: "passCriteria", Message: "json_schema criterion: invalid 'schema' arg: " + err.Error(), Code: "json_schema_misconfigured"}}, 0
		}
		schemaJSON = string(encoded)
	}

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return []ValidationError{{Field: "passCriteria", Message: "json_schema criterion: decode schema: " + err.Error(), Code: "json_schema_misconfigured"}}, 0
	}
	compiler := jsonschema.NewCompiler()
	const resourceURL = "gate://passCriteria/json_schema"
	if err := compiler.AddResource(resourceURL, schemaDoc); err != nil {
		return []ValidationError{{Field: "passCriteria", Message: "json_schema criterion: add resource: " + err.Error(), Code: "json_schema_misconfigured"}}, 0
	}
	sch, err := compiler.Compile(resourceURL)
	if err != nil {
		return []ValidationError{{Field: "passCriteria", Message: "json_schema criterion: compile: " + err.Error(), Code: "json_schema_misconfigured"}}, 0
	}

	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(content))
	if err != nil {
		return []ValidationError{{Field: "content", Message: "not valid JSON: " + err.Error(), Code: "format_invalid"}}, 0
	}

	if err := sch.Validate(instance); err != nil {
		return []ValidationError{{Field: "content", Message: fmt.Sprintf("schema validation failed: %v", err), Code: "json_schema_invalid"}}, 0
	}
	return nil, 1
}

// validateSection checks that each of args.sections appears in content,
// either as a markdown header (any depth) or as a case-insensitive mention
// anywhere in the text.
func validateSection(criterion gate.PassCriterion, content string, ec EvalContext) ([]ValidationError, float64) {
	required := argStringSlice(criterion.Args, "sections")
	if len(required) == 0 {
		return nil, 1
	}
	var errs []ValidationError
	for _, section := range required {
		if !hasSection(content, section) {
			errs = append(errs, ValidationError{Field: "sections", Message: "missing required section: " + section, Code: "section_missing"})
		}
	}
	if len(errs) > 0 {
		return errs, 1 - float64(len(errs))/float64(len(required))
	}
	return nil, 1
}

var headerLineRe = regexp.MustCompile(`(?m)^(#{1,6})\s+(.*)$`)

func hasSection(content, title string) bool {
	for _, m := range headerLineRe.FindAllStringSubmatch(content, -1) {
		if strings.EqualFold(strings.TrimSpace(m[2]), strings.TrimSpace(title)) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(content), strings.ToLower(title))
}

// validateHierarchy checks header structure: a single H1, no consecutive
// headers with a depth jump greater than one, non-increasing depth gaps.
func validateHierarchy(criterion gate.PassCriterion, content string, ec EvalContext) ([]ValidationError, float64) {
	matches := headerLineRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return []ValidationError{{Field: "content", Message: "no headers found", Code: "hierarchy_empty"}}, 0
	}

	var errs []ValidationError
	h1Count := 0
	prevDepth := 0
	for _, m := range matches {
		depth := len(m[1])
		if depth == 1 {
			h1Count++
		}
		if prevDepth > 0 && depth-prevDepth > 1 {
			errs = append(errs, ValidationError{
				Field:   "hierarchy",
				Message: "header depth jumps from H" + strconv.Itoa(prevDepth) + " to H" + strconv.Itoa(depth),
				Code:    "hierarchy_skip",
			})
		}
		prevDepth = depth
	}
	if requireH1, ok := criterion.Args["requireH1"].(bool); !ok || requireH1 {
		if h1Count == 0 {
			errs = append(errs, ValidationError{Field: "hierarchy", Message: "missing top-level (H1) header", Code: "hierarchy_no_h1"})
		} else if h1Count > 1 {
			errs = append(errs, ValidationError{Field: "hierarchy", Message: "more than one H1 header", Code: "hierarchy_multiple_h1"})
		}
	}
	if len(errs) > 0 {
		return errs, 0.5
	}
	return nil, 1
}

var codeFenceRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\\n(.*?)```")

// validateCodeQuality checks bracket/paren/brace balance within fenced code
// blocks and a rough complexity ceiling (nesting depth).
func validateCodeQuality(criterion gate.PassCriterion, content string, ec EvalContext) ([]ValidationError, float64) {
	blocks := codeFenceRe.FindAllStringSubmatch(content, -1)
	if len(blocks) == 0 {
		return nil, 1
	}
	maxDepth := argInt(criterion.Args, "maxNestingDepth", 6)

	var errs []ValidationError
	for i, b := range blocks {
		code := b[1]
		if !bracketsBalanced(code) {
			errs = append(errs, ValidationError{
				Field:   "codeBlock",
				Message: "unbalanced brackets in code block " + strconv.Itoa(i+1),
				Code:    "code_unbalanced",
			})
		}
		if depth := maxBraceDepth(code); depth > maxDepth {
			errs = append(errs, ValidationError{
				Field:   "codeBlock",
				Message: "code block " + strconv.Itoa(i+1) + " nesting depth " + strconv.Itoa(depth) + " exceeds " + strconv.Itoa(maxDepth),
				Code:    "code_too_complex",
			})
		}
	}
	if len(errs) > 0 {
		return errs, 0.3
	}
	return nil, 1
}

func bracketsBalanced(s string) bool {
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var stack []rune
	for _, r := range s {
		switch r {
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}

func maxBraceDepth(s string) int {
	depth, max := 0, 0
	for _, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
			if depth > max {
				max = depth
			}
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return max
}

// validateRequiredFields checks that each of args.fields appears as a
// "key: value" / "key=value" / JSON-ish field mention in content.
func validateRequiredFields(criterion gate.PassCriterion, content string, ec EvalContext) ([]ValidationError, float64) {
	fields := argStringSlice(criterion.Args, "fields")
	if len(fields) == 0 {
		return nil, 1
	}
	var errs []ValidationError
	for _, f := range fields {
		if !strings.Contains(strings.ToLower(content), strings.ToLower(f)) {
			errs = append(errs, ValidationError{Field: f, Message: "required field not found: " + f, Code: "field_missing"})
		}
	}
	if len(errs) > 0 {
		return errs, 1 - float64(len(errs))/float64(len(fields))
	}
	return nil, 1
}

// validateCompleteness scores content on length, structural richness
// (headers), and sentence count against configurable minimums.
func validateCompleteness(criterion gate.PassCriterion, content string, ec EvalContext) ([]ValidationError, float64) {
	minLength := argInt(criterion.Args, "minLength", 50)
	minSections := argInt(criterion.Args, "minSections", 0)
	minSentences := argInt(criterion.Args, "minSentences", 1)

	trimmed := strings.TrimSpace(content)
	lengthScore := clamp01(float64(len(trimmed)) / float64(minLength))

	sections := len(headerLineRe.FindAllString(content, -1))
	sectionScore := 1.0
	if minSections > 0 {
		sectionScore = clamp01(float64(sections) / float64(minSections))
	}

	sentences := strings.FieldsFunc(content, func(r rune) bool { return r == '.' || r == '!' || r == '?' })
	sentenceScore := clamp01(float64(len(sentences)) / float64(minSentences))

	score := (lengthScore + sectionScore + sentenceScore) / 3

	var errs []ValidationError
	if len(trimmed) < minLength {
		errs = append(errs, ValidationError{Field: "content", Message: "content shorter than minLength", Code: "completeness_too_short"})
	}
	if minSections > 0 && sections < minSections {
		errs = append(errs, ValidationError{Field: "content", Message: "fewer sections than required", Code: "completeness_missing_sections"})
	}
	return errs, score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var securityPatterns = map[string]*regexp.Regexp{
	"aws_key":      regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	"private_key":  regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`),
	"generic_secret": regexp.MustCompile(`(?i)(api[_-]?key|secret|password|token)\s*[:=]\s*['"][^'"\s]{8,}['"]`),
	"bearer_token": regexp.MustCompile(`(?i)bearer\s+[a-z0-9._-]{20,}`),
}

// validateSecurity scans for secret-like patterns at a configurable tier:
// basic (keys/private-keys only), standard (+ bearer tokens), strict (+
// generic key=value secret assignments).
func validateSecurity(criterion gate.PassCriterion, content string, ec EvalContext) ([]ValidationError, float64) {
	tier := strings.ToLower(argString(criterion.Args, "tier"))
	if tier == "" {
		tier = "standard"
	}
	active := []string{"aws_key", "private_key"}
	if tier == "standard" || tier == "strict" {
		active = append(active, "bearer_token")
	}
	if tier == "strict" {
		active = append(active, "generic_secret")
	}

	var errs []ValidationError
	for _, name := range active {
		if securityPatterns[name].MatchString(content) {
			errs = append(errs, ValidationError{Field: "content", Message: "potential secret detected: " + name, Code: "security_" + name})
		}
	}
	if len(errs) > 0 {
		return errs, 0
	}
	return nil, 1
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// validateWordCount enforces args.min / args.max word counts.
func validateWordCount(criterion gate.PassCriterion, content string, ec EvalContext) ([]ValidationError, float64) {
	n := wordCount(content)
	min := argInt(criterion.Args, "min", 0)
	max := argInt(criterion.Args, "max", 0)

	if min > 0 && n < min {
		return []ValidationError{{Field: "content", Message: "word count " + strconv.Itoa(n) + " below minimum " + strconv.Itoa(min), Code: "word_count_low"}}, clamp01(float64(n) / float64(min))
	}
	if max > 0 && n > max {
		return []ValidationError{{Field: "content", Message: "word count " + strconv.Itoa(n) + " exceeds maximum " + strconv.Itoa(max), Code: "word_count_high"}}, clamp01(float64(max) / float64(n))
	}
	return nil, 1
}

// validatePhrase checks args.contains / args.excludes phrase lists.
func validatePhrase(criterion gate.PassCriterion, content string, ec EvalContext) ([]ValidationError, float64) {
	lower := strings.ToLower(content)
	var errs []ValidationError

	for _, phrase := range argStringSlice(criterion.Args, "contains") {
		if !strings.Contains(lower, strings.ToLower(phrase)) {
			errs = append(errs, ValidationError{Field: "content", Message: "missing required phrase: " + phrase, Code: "phrase_missing"})
		}
	}
	for _, phrase := range argStringSlice(criterion.Args, "excludes") {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			errs = append(errs, ValidationError{Field: "content", Message: "forbidden phrase present: " + phrase, Code: "phrase_forbidden"})
		}
	}
	if len(errs) > 0 {
		return errs, 0
	}
	return nil, 1
}
