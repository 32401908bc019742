package manifest

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Load reads a nanobot manifest file and returns the Manifest record. It
// fails only when the file cannot be read or is not valid YAML for the
// manifest shape; missing sections are tolerated and left at their zero
// values for the merge to handle.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes raw manifest bytes. The path is used only for error context.
func Parse(data []byte, path string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &m, nil
}
