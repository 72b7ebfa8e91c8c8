package prompt

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/forgecrew/promptengine/internal/domain/prompt"
)

// decodeFile parses a prompt.yaml plus its optional companion
// user-message.md (inlined into UserMessageTemplate when the YAML field is
// empty) per spec.md §6.2.
func decodeFile(data []byte, dir string) (prompt.Definition, error) {
	var def prompt.Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return prompt.Definition{}, err
	}
	def.PromptDir = dir

	if def.UserMessageTemplate == "" {
		if content, err := os.ReadFile(filepath.Join(dir, "user-message.md")); err == nil {
			def.UserMessageTemplate = string(content)
		}
	}
	if def.SystemMessage == "" {
		if content, err := os.ReadFile(filepath.Join(dir, "guidance.md")); err == nil {
			def.SystemMessage = string(content)
		}
	}

	for i := range def.ChainSteps {
		if def.ChainSteps[i].StepNumber == 0 {
			def.ChainSteps[i].StepNumber = i + 1
		}
	}

	return def, nil
}
