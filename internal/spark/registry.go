package spark

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/config"
	"github.com/sparkmcp/spark-history-mcp/internal/errors"
)

// Registry holds one client per configured history server and resolves the
// optional server argument of tool calls. The default server is used when
// no name is given.
type Registry struct {
	clients     map[string]*Client
	defaultName string
}

// NewRegistry builds clients for every configured server.
func NewRegistry(cfg *config.Config, logger *zap.Logger, version string) (*Registry, error) {
	r := &Registry{clients: make(map[string]*Client, len(cfg.Servers))}
	for name, sc := range cfg.Servers {
		c, err := NewClient(cfg, name, sc, logger, version)
		if err != nil {
			return nil, fmt.Errorf("server %q: %w", name, err)
		}
		r.clients[name] = c
		if sc.Default || len(cfg.Servers) == 1 {
			r.defaultName = name
		}
	}
	if r.defaultName == "" {
		return nil, fmt.Errorf("no default server configured")
	}
	return r, nil
}

// SetRecorder attaches a request recorder to every client.
func (r *Registry) SetRecorder(rec RequestRecorder) {
	for _, c := range r.clients {
		c.SetRecorder(rec)
	}
}

// Default returns the default server's client.
func (r *Registry) Default() *Client {
	return r.clients[r.defaultName]
}

// Get resolves a server by name; the empty string selects the default.
func (r *Registry) Get(name string) (*Client, error) {
	if name == "" {
		return r.Default(), nil
	}
	c, ok := r.clients[name]
	if !ok {
		return nil, errors.NewInvalidArgument(
			fmt.Sprintf("unknown server %q, configured servers: %s", name, strings.Join(r.Names(), ", ")))
	}
	return c, nil
}

// Names lists configured server names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases all clients' idle connections.
func (r *Registry) Close() error {
	for _, c := range r.clients {
		_ = c.Close()
	}
	return nil
}
