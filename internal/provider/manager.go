package provider

import (
	"sync"

	"github.com/rbright/glimpse/internal/artifact"
	"github.com/rbright/glimpse/internal/config"
)

// Manager hands out the current client and rebuilds it when provider
// configuration changes. Callers must fetch a fresh client per operation
// rather than caching one.
type Manager struct {
	mu     sync.RWMutex
	client *Client
	reader interface {
		Read(artifact.Artifact) ([]byte, error)
	}
}

// NewManager builds a manager seeded with the initial configuration.
func NewManager(cfg config.ProviderConfig, reader interface {
	Read(artifact.Artifact) ([]byte, error)
}) *Manager {
	return &Manager{
		client: NewClient(cfg, reader),
		reader: reader,
	}
}

// Client returns the client built from the most recent configuration.
func (m *Manager) Client() *Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// Apply rebuilds the client from new configuration. In-flight requests keep
// the client they started with.
func (m *Manager) Apply(cfg config.ProviderConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = NewClient(cfg, m.reader)
}
