package nodes

import (
	"fmt"

	"github.com/medley-audio/medley/internal/relay"
)

// Mapper converts node list entries to relay.Node values
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapNodes validates entries and converts them to relay nodes.
// Entries without a host or with an out-of-range port are skipped;
// a missing port defaults to 443 for secure nodes and 80 otherwise.
func (m *Mapper) MapNodes(entries []NodeEntry) ([]relay.Node, error) {
	out := make([]relay.Node, 0, len(entries))

	for _, e := range entries {
		if e.Host == "" {
			continue
		}
		port := e.Port
		if port > 65535 {
			continue
		}
		if port <= 0 {
			if e.Secure {
				port = 443
			} else {
				port = 80
			}
		}

		out = append(out, relay.Node{
			Host:   e.Host,
			Port:   port,
			Secret: e.Secret,
			Secure: e.Secure,
			Label:  e.Label,
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no valid nodes found in node list")
	}

	return out, nil
}
