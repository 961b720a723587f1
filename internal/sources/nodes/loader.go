package nodes

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of a YAML node list file
type Loader struct {
	filePath string
}

// NewLoader creates a new node list loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the node list file
func (l *Loader) Load() (*NodesFile, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read node list file: %w", err)
	}

	var file NodesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse node list yaml: %w", err)
	}

	return &file, nil
}

// ParseJSON parses the environment variable node format: a JSON array of
// node objects, e.g. [{"host":"n1.example","port":443,"secret":"...","secure":true}]
func ParseJSON(raw string) ([]NodeEntry, error) {
	var entries []NodeEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("failed to parse node list json: %w", err)
	}
	return entries, nil
}
