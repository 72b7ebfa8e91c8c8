package gate

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/forgecrew/promptengine/internal/domain/gate"
)

func decodeFile(data []byte, dir string) (gate.Definition, error) {
	var def gate.Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return gate.Definition{}, err
	}
	if def.Guidance == "" {
		if content, err := os.ReadFile(filepath.Join(dir, "guidance.md")); err == nil {
			def.Guidance = string(content)
		}
	}
	return def, nil
}
