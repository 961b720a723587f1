package nodes

import (
	"github.com/medley-audio/medley/internal/config"
	"github.com/medley-audio/medley/internal/logger"
	"github.com/medley-audio/medley/internal/relay"
)

// FallbackNodes returns the built-in public nodes used when no node
// configuration is provided. They are community nodes run by the project
// and may be rate limited.
func FallbackNodes() []relay.Node {
	return []relay.Node{
		{Host: "node1.medley-audio.dev", Port: 443, Secret: "medley", Secure: true, Label: "public-1"},
		{Host: "node2.medley-audio.dev", Port: 443, Secret: "medley", Secure: true, Label: "public-2"},
	}
}

// Resolve determines the backing node list from configuration. Sources are
// tried in order: the JSON env var, the discrete host/port fields, the YAML
// node file, then the built-in public nodes. An unusable source is logged
// and skipped, so the result is never empty.
func Resolve(cfg *config.Config, log logger.Logger) []relay.Node {
	mapper := NewMapper()

	if cfg.RelayNodesJSON != "" {
		entries, err := ParseJSON(cfg.RelayNodesJSON)
		if err == nil {
			nodes, mapErr := mapper.MapNodes(entries)
			if mapErr == nil {
				log.Info("using relay nodes from environment json", logger.Int("count", len(nodes)))
				return nodes
			}
			err = mapErr
		}
		log.Warn("ignoring invalid relay node json", logger.Error(err))
	}

	if cfg.RelayHost != "" {
		nodes, err := mapper.MapNodes([]NodeEntry{{
			Host:   cfg.RelayHost,
			Port:   cfg.RelayPort,
			Secret: cfg.RelaySecret,
			Secure: cfg.RelaySecure,
		}})
		if err == nil {
			log.Info("using relay node from environment", logger.String("host", cfg.RelayHost))
			return nodes
		}
		log.Warn("ignoring invalid relay node fields", logger.Error(err))
	}

	if cfg.RelayNodesFile != "" {
		file, err := NewLoader(cfg.RelayNodesFile).Load()
		if err == nil {
			nodes, mapErr := mapper.MapNodes(file.Nodes)
			if mapErr == nil {
				log.Info("using relay nodes from file",
					logger.String("path", cfg.RelayNodesFile),
					logger.Int("count", len(nodes)))
				return nodes
			}
			err = mapErr
		}
		log.Warn("ignoring unusable relay node file",
			logger.String("path", cfg.RelayNodesFile),
			logger.Error(err))
	}

	nodes := FallbackNodes()
	log.Info("using built-in public relay nodes", logger.Int("count", len(nodes)))
	return nodes
}
