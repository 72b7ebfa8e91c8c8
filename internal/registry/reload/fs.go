package reload

import (
	"os"
	"path/filepath"
)

// listResourceDirs returns the immediate subdirectories of root — each one
// is a resource ID directory (resources/{prompts,gates,...}/<id>/).
func listResourceDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	return dirs, nil
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
