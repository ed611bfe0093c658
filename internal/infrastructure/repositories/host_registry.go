package repositories

import (
	"fmt"
	"sort"

	domainRepos "github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// HostFactory creates a HostRepository given an auth token and an optional
// base URL for self-hosted instances.
type HostFactory func(token, baseURL string) domainRepos.HostRepository

// HostRegistry manages all registered Git host implementations.
type HostRegistry struct {
	hosts map[string]HostFactory
}

// NewHostRegistry creates an empty host registry.
func NewHostRegistry() *HostRegistry {
	return &HostRegistry{
		hosts: make(map[string]HostFactory),
	}
}

// Register adds a host factory under the given name (e.g. "github").
func (r *HostRegistry) Register(name string, factory HostFactory) {
	r.hosts[name] = factory
}

// Get returns a configured host instance for the given name and credentials.
func (r *HostRegistry) Get(name, token, baseURL string) (domainRepos.HostRepository, error) {
	factory, ok := r.hosts[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %q", name)
	}
	return factory(token, baseURL), nil
}

// Names returns the registered host names in alphabetical order.
func (r *HostRegistry) Names() []string {
	names := make([]string, 0, len(r.hosts))
	for name := range r.hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
