// Package relay maintains the control connection to a backing audio
// node and fails over across the configured node list.
package relay

import (
	"context"
	"fmt"
	"net/http"

	"github.com/medley-audio/medley/internal/utils"
)

// Node is one backing audio node the coordinator can attach to.
type Node struct {
	Host   string `json:"host" yaml:"host"`
	Port   int    `json:"port" yaml:"port"`
	Secret string `json:"secret" yaml:"secret"`
	Secure bool   `json:"secure" yaml:"secure"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Addr returns host:port.
func (n Node) Addr() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// Name returns the label, falling back to the address.
func (n Node) Name() string {
	if n.Label != "" {
		return n.Label
	}
	return n.Addr()
}

// VersionURL returns the HTTP endpoint used by the health probe.
func (n Node) VersionURL() string {
	scheme := "http"
	if n.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/version", scheme, n.Addr())
}

// SocketURL returns the websocket control endpoint.
func (n Node) SocketURL() string {
	scheme := "ws"
	if n.Secure {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s/", scheme, n.Addr())
}

// Probe checks the node's version endpoint with its secret. The caller
// owns the client and any timeout on ctx.
func Probe(ctx context.Context, client *http.Client, node Node) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, node.VersionURL(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", node.Secret)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe status %d", resp.StatusCode)
	}
	return nil
}
