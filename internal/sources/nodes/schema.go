// Package nodes loads backing-node lists for the relay coordinator from
// the supported configuration sources: a JSON environment variable, discrete
// host/port fields, or a YAML node file.
package nodes

// NodesFile represents the top-level structure of a relay node list file.
type NodesFile struct {
	Nodes []NodeEntry `yaml:"nodes"`
}

// NodeEntry contains a single backing node's connection properties.
// The same shape is accepted as YAML (node file) and JSON (env var).
type NodeEntry struct {
	Host   string `yaml:"host" json:"host"`
	Port   int    `yaml:"port" json:"port"`
	Secret string `yaml:"secret" json:"secret"`
	Secure bool   `yaml:"secure" json:"secure"`
	Label  string `yaml:"label,omitempty" json:"label,omitempty"`
}
