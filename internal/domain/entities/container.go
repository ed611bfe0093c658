package entities

import (
	"time"

	"go.uber.org/dig"
)

// Clock returns the current time. Commands take it as a dependency so batch
// timestamps are deterministic under test.
type Clock func() time.Time

// RegisterProviders registers all entity providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Settings requires a config file path, provided by controllers layer
	return container.Provide(func() Clock { return time.Now })
}
