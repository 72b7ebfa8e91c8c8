package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	promptdomain "github.com/forgecrew/promptengine/internal/domain/prompt"
	"github.com/forgecrew/promptengine/internal/pkg/logger"
	promptregistry "github.com/forgecrew/promptengine/internal/registry/prompt"
	"github.com/forgecrew/promptengine/internal/scriptexec"
)

// ScriptExecutionStage implements spec.md §4.4: detect which scriptTools
// match the current input/args, partition by mode, run auto/auto-approve
// tools immediately, and place results on state.scripts.results.
type ScriptExecutionStage struct {
	Prompts  *promptregistry.Registry
	Executor scriptexec.Executor
	Timeout  time.Duration
}

func (s *ScriptExecutionStage) Name() string { return "ScriptExecution" }

func (s *ScriptExecutionStage) Execute(ctx *ExecutionContext) error {
	if ctx.Terminated() || ctx.ParsedCommand == nil {
		return nil
	}
	def, ok := s.Prompts.Resolve(ctx.ParsedCommand.PromptID)
	if !ok || len(def.ScriptTools) == 0 {
		return nil
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	for _, tool := range def.ScriptTools {
		if !toolMatches(tool, ctx.State.Normalization.Options) {
			continue
		}
		switch tool.Mode {
		case "manual":
			continue // skipped unless explicitly named; named-invocation is a future extension point
		case "confirm":
			continue // deferred until explicit approval; not run inline
		case "auto", "auto_approve_on_valid":
			out, err := s.run(tool, timeout)
			if err != nil {
				logger.Warn("[ScriptExecution] tool %s failed: %v", tool.ID, err)
				continue
			}
			if tool.Mode == "auto_approve_on_valid" && !jsonValid(out) {
				logger.Debug("[ScriptExecution] tool %s output failed 'valid' gate, discarding", tool.ID)
				continue
			}
			ctx.State.Scripts.Results[tool.ID] = out
		}
	}
	return nil
}

func toolMatches(tool promptdomain.ScriptTool, args map[string]interface{}) bool {
	if tool.Trigger == "" {
		return true
	}
	for k := range args {
		if strings.EqualFold(k, tool.Trigger) {
			return true
		}
	}
	return strings.Contains(tool.Trigger, "*")
}

func (s *ScriptExecutionStage) run(tool promptdomain.ScriptTool, timeout time.Duration) (string, error) {
	goCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	result, err := s.Executor.Run(goCtx, tool.Command, nil)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

// jsonValid inspects a script's JSON output for a top-level "valid" field,
// per spec.md §4.4's auto-approve-on-valid mode.
func jsonValid(out string) bool {
	var parsed struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &parsed); err != nil {
		return false
	}
	return parsed.Valid
}
