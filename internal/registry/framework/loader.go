package framework

import (
	"gopkg.in/yaml.v3"

	"github.com/forgecrew/promptengine/internal/domain/framework"
)

func decodeFile(data []byte, dir string) (framework.Definition, error) {
	var def framework.Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return framework.Definition{}, err
	}
	return def, nil
}
