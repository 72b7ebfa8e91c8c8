package style

import (
	"gopkg.in/yaml.v3"

	"github.com/forgecrew/promptengine/internal/domain/style"
)

func decodeFile(data []byte, dir string) (style.Definition, error) {
	var def style.Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return style.Definition{}, err
	}
	return def, nil
}
