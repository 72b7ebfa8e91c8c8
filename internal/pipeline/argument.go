package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/santhosh-tekuri/jsonschema/v6"

	domain "github.com/forgecrew/promptengine/internal/domain/prompt"
)

// ArgSource records which rule supplied an argument's final value, for
// observability (spec.md §4.2 "Defaults" / "Intelligent mapping").
type ArgSource string

const (
	SourceInline        ArgSource = "inline"
	SourceDefaultValue  ArgSource = "default_value"
	SourceRuntimeDefault ArgSource = "runtime_default"
	SourceEnv           ArgSource = "env"
	SourceEmptyFallback ArgSource = "empty_fallback"
	SourceSmartMapped   ArgSource = "user_provided_smart_mapped"
)

// ArgumentError is one failing argument constraint (spec.md §7
// ArgumentValidationFailure).
type ArgumentError struct {
	Argument  string `json:"argument"`
	Code      string `json:"code"` // REQUIRED_ARGUMENT_MISSING | PATTERN_MISMATCH | LENGTH_BOUND
	Message   string `json:"message"`
	RetryHint string `json:"retryHint"`
	Example   string `json:"example,omitempty"`
}

// ArgParseContext supplies the runtime inputs the Argument Parser consults
// beyond the raw text and the prompt's own schema (spec.md §4.2 contract).
type ArgParseContext struct {
	PromptDefaults map[string]interface{}
	Env            func(string) string // injected for testability; defaults to os.Getenv
}

// semanticPriority is the hard-coded priority list spec.md §4.2
// "Intelligent mapping" names for mapping a single bare text blob. It is not
// consulted: applyIntelligentMapping only acts when exactly one argument is
// missing and gives the blob to that argument.
var semanticPriority = []string{"content", "text", "input", "query", "message", "value", "prompt"}

var (
	reJSONish     = regexp.MustCompile(`^\s*[\{\[]`)
	reKeyValueAny = regexp.MustCompile(`[\w-]+\s*[=:]\s*`)
	reKeyValue    = regexp.MustCompile(`([\w-]+)\s*[=:]\s*("([^"]*)"|'([^']*)'|(\S+))`)
	rePlaceholder = regexp.MustCompile(`^\[.*\bto be provided\b.*\]$`)
	reSchemaFence = regexp.MustCompile("(?s)```(?:schema|json)?\\s*\\n(.*?)```")
)

// ParseArguments implements the Argument Parser (Stage 1, co-located),
// spec.md §4.2: select the first applicable parsing strategy, coerce types,
// run the intelligent single-blob mapping, apply defaults, then validate.
func ParseArguments(raw string, def *domain.Definition, pctx ArgParseContext) (map[string]interface{}, []ArgumentError, []ArgSourceNote) {
	if pctx.Env == nil {
		pctx.Env = os.Getenv
	}

	args, strategy := parseByStrategy(raw, def)
	notes := make([]ArgSourceNote, 0, len(def.Arguments))

	coerceTypes(args, def)
	applyIntelligentMapping(args, def, raw, strategy, &notes)
	applyDefaults(args, def, pctx, &notes)

	for name := range args {
		if _, known := def.FindArgument(name); !known {
			continue
		}
	}
	for _, a := range def.Arguments {
		if _, present := args[a.Name]; present {
			if !containsSourceNote(notes, a.Name) {
				notes = append(notes, ArgSourceNote{Argument: a.Name, Source: SourceInline})
			}
		}
	}

	errs := validateArguments(args, def)
	return args, errs, notes
}

// ArgSourceNote records which rule supplied one argument's value.
type ArgSourceNote struct {
	Argument string
	Source   ArgSource
}

func containsSourceNote(notes []ArgSourceNote, name string) bool {
	for _, n := range notes {
		if n.Argument == name {
			return true
		}
	}
	return false
}

type strategyKind string

const (
	strategyJSON     strategyKind = "json"
	strategyKeyValue strategyKind = "key_value"
	strategySimple   strategyKind = "simple_text"
	strategyFallback strategyKind = "fallback"
)

func parseByStrategy(raw string, def *domain.Definition) (map[string]interface{}, strategyKind) {
	trimmed := strings.TrimSpace(raw)

	if trimmed != "" && reJSONish.MatchString(trimmed) {
		var asObject map[string]interface{}
		if err := sonic.UnmarshalString(trimmed, &asObject); err == nil {
			return asObject, strategyJSON
		}
		var asArray []interface{}
		if err := sonic.UnmarshalString(trimmed, &asArray); err == nil && len(def.Arguments) == 1 {
			return map[string]interface{}{def.Arguments[0].Name: asArray}, strategyJSON
		}
	}

	if trimmed != "" && reKeyValueAny.MatchString(trimmed) {
		out := map[string]interface{}{}
		for _, m := range reKeyValue.FindAllStringSubmatch(trimmed, -1) {
			key := m[1]
			val := m[3]
			if val == "" {
				val = m[4]
			}
			if val == "" {
				val = m[5]
			}
			out[key] = val
		}
		if len(out) > 0 {
			return out, strategyKeyValue
		}
	}

	if trimmed != "" && len(def.Arguments) > 0 {
		return map[string]interface{}{}, strategySimple
	}

	return map[string]interface{}{}, strategyFallback
}

func coerceTypes(args map[string]interface{}, def *domain.Definition) {
	for name, v := range args {
		arg, ok := def.FindArgument(name)
		if !ok {
			continue
		}
		s, isString := v.(string)
		if !isString {
			continue
		}
		switch arg.Type {
		case domain.TypeNumber:
			if n, err := strconv.ParseFloat(s, 64); err == nil {
				args[name] = n
			}
		case domain.TypeBoolean:
			switch strings.ToLower(s) {
			case "true":
				args[name] = true
			case "false":
				args[name] = false
			}
		case domain.TypeArray:
			if strings.Contains(s, ",") {
				parts := strings.Split(s, ",")
				for i := range parts {
					parts[i] = strings.TrimSpace(parts[i])
				}
				args[name] = parts
			}
		case domain.TypeObject:
			var obj map[string]interface{}
			if err := sonic.UnmarshalString(s, &obj); err == nil {
				args[name] = obj
			}
		}
	}
}

// applyIntelligentMapping implements spec.md §4.2's last paragraph: when
// exactly one argument is missing and the raw text is a single bare blob
// (the simple-text strategy matched), map the blob onto that missing
// argument and record it as SourceSmartMapped.
func applyIntelligentMapping(args map[string]interface{}, def *domain.Definition, raw string, strategy strategyKind, notes *[]ArgSourceNote) {
	if strategy != strategySimple {
		return
	}
	var missing []domain.Argument
	for _, a := range def.Arguments {
		if _, ok := args[a.Name]; !ok {
			missing = append(missing, a)
		}
	}
	if len(missing) != 1 {
		return
	}
	args[missing[0].Name] = strings.TrimSpace(raw)
	*notes = append(*notes, ArgSourceNote{Argument: missing[0].Name, Source: SourceSmartMapped})
}

func applyDefaults(args map[string]interface{}, def *domain.Definition, pctx ArgParseContext, notes *[]ArgSourceNote) {
	for _, a := range def.Arguments {
		if v, ok := args[a.Name]; ok && v != nil && v != "" {
			continue
		}
		if a.DefaultValue != nil {
			args[a.Name] = a.DefaultValue
			*notes = append(*notes, ArgSourceNote{Argument: a.Name, Source: SourceDefaultValue})
			continue
		}
		if pctx.PromptDefaults != nil {
			if v, ok := pctx.PromptDefaults[a.Name]; ok {
				args[a.Name] = v
				*notes = append(*notes, ArgSourceNote{Argument: a.Name, Source: SourceRuntimeDefault})
				continue
			}
		}
		envKey := "PROMPT_" + strings.ToUpper(strings.ReplaceAll(a.Name, "-", "_"))
		if v := pctx.Env(envKey); v != "" {
			args[a.Name] = v
			*notes = append(*notes, ArgSourceNote{Argument: a.Name, Source: SourceEnv})
			continue
		}
		args[a.Name] = ""
		*notes = append(*notes, ArgSourceNote{Argument: a.Name, Source: SourceEmptyFallback})
	}
}

func validateArguments(args map[string]interface{}, def *domain.Definition) []ArgumentError {
	var errs []ArgumentError
	for _, a := range def.Arguments {
		v := args[a.Name]
		s, _ := v.(string)

		if a.Required && (v == nil || v == "" || rePlaceholder.MatchString(strings.TrimSpace(s))) {
			errs = append(errs, ArgumentError{
				Argument:  a.Name,
				Code:      "REQUIRED_ARGUMENT_MISSING",
				Message:   "argument \"" + a.Name + "\" is required but was not provided",
				RetryHint: "supply a value for \"" + a.Name + "\"",
				Example:   a.Name + "=\"...\"",
			})
			continue
		}
		if a.Type == domain.TypeObject {
			if obj, ok := v.(map[string]interface{}); ok {
				if schemaJSON, found := extractSchemaFence(a.Description); found {
					if err := validateAgainstSchema(obj, schemaJSON); err != nil {
						errs = append(errs, ArgumentError{
							Argument:  a.Name,
							Code:      "SCHEMA_MISMATCH",
							Message:   "argument \"" + a.Name + "\" does not satisfy its declared $schema: " + err.Error(),
							RetryHint: "supply an object matching the JSON Schema documented for \"" + a.Name + "\"",
						})
					}
				}
			}
			continue
		}
		if a.Validation == nil || !isString(v) {
			continue
		}
		if a.Validation.MinLength != nil && len(s) < *a.Validation.MinLength {
			errs = append(errs, ArgumentError{
				Argument: a.Name, Code: "LENGTH_BOUND",
				Message:   "argument \"" + a.Name + "\" is shorter than the minimum length",
				RetryHint: "provide at least " + strconv.Itoa(*a.Validation.MinLength) + " characters",
			})
		}
		if a.Validation.MaxLength != nil && len(s) > *a.Validation.MaxLength {
			errs = append(errs, ArgumentError{
				Argument: a.Name, Code: "LENGTH_BOUND",
				Message:   "argument \"" + a.Name + "\" exceeds the maximum length",
				RetryHint: "shorten to at most " + strconv.Itoa(*a.Validation.MaxLength) + " characters",
			})
		}
		if a.Validation.Pattern != "" {
			if re, err := regexp.Compile(a.Validation.Pattern); err == nil && !re.MatchString(s) {
				errs = append(errs, ArgumentError{
					Argument: a.Name, Code: "PATTERN_MISMATCH",
					Message:   "argument \"" + a.Name + "\" does not match the required pattern",
					RetryHint: "match pattern " + a.Validation.Pattern,
				})
			}
		}
	}
	return errs
}

func isString(v interface{}) bool {
	_, ok := v.(string)
	return ok
}

// extractSchemaFence pulls the first fenced code block out of an argument's
// description, the $schema escape hatch spec.md §4.2 documents for object
// arguments: a prompt author embeds a JSON Schema fence (```schema or
// ```json) in the description to demand more than min/max/pattern can
// express.
func extractSchemaFence(description string) (string, bool) {
	m := reSchemaFence.FindStringSubmatch(description)
	if m == nil {
		return "", false
	}
	body := strings.TrimSpace(m[1])
	if body == "" {
		return "", false
	}
	return body, true
}

// validateAgainstSchema compiles schemaJSON with santhosh-tekuri/jsonschema/v6
// and validates value against it, mirroring
// internal/gateeval/validators.go's validateJSONSchema.
func validateAgainstSchema(value map[string]interface{}, schemaJSON string) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("decode $schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	const resourceURL = "argument://validation/schema"
	if err := compiler.AddResource(resourceURL, schemaDoc); err != nil {
		return fmt.Errorf("add $schema resource: %w", err)
	}
	sch, err := compiler.Compile(resourceURL)
	if err != nil {
		return fmt.Errorf("compile $schema: %w", err)
	}

	encoded, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode argument value: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("decode argument value: %w", err)
	}
	return sch.Validate(instance)
}
