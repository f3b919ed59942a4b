package adplatform

import (
	"fmt"
	"sync"
)

// Registry maps platform identifiers to their shared client instances.
// Clients are immutable after construction and safe for concurrent use.
type Registry struct {
	clients map[string]Client
}

// NewRegistryFromEnv constructs every platform client once from environment
// configuration.
func NewRegistryFromEnv() *Registry {
	return NewRegistry(
		NewGoogleAdsClientFromEnv(),
		NewTikTokAdsClientFromEnv(),
		NewPinterestClientFromEnv(),
		NewMetaAdsClientFromEnv(),
		NewInstagramClientFromEnv(),
	)
}

// NewRegistry builds a registry from explicit clients, mainly for tests.
func NewRegistry(clients ...Client) *Registry {
	m := make(map[string]Client, len(clients))
	for _, c := range clients {
		m[c.Platform()] = c
	}
	return &Registry{clients: m}
}

// ClientFor returns the client serving the given platform.
func (r *Registry) ClientFor(platform string) (Client, error) {
	c, ok := r.clients[platform]
	if !ok {
		return nil, fmt.Errorf("no client registered for platform %q", platform)
	}
	return c, nil
}

var (
	defaultRegistry *Registry
	registryOnce    sync.Once
)

// DefaultRegistry returns the process-wide registry, building it on first
// use the way the repository factory does.
func DefaultRegistry() *Registry {
	registryOnce.Do(func() {
		defaultRegistry = NewRegistryFromEnv()
	})
	return defaultRegistry
}

// Compile-time checks that every client satisfies the contract.
var (
	_ Client = (*GoogleAdsClient)(nil)
	_ Client = (*TikTokAdsClient)(nil)
	_ Client = (*PinterestClient)(nil)
	_ Client = (*MetaClient)(nil)
)
