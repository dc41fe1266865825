package builder

import (
	"github.com/vk/patterngrid/internal/config"
	"github.com/vk/patterngrid/internal/factorgraph"
	"github.com/vk/patterngrid/internal/registry"
)

// Builder compiles models against one function registry. It caches compiled
// graphs per model, so a Builder is not safe for concurrent use.
type Builder struct {
	registry *registry.Registry
	graphs   map[*config.Model]*factorgraph.Graph
	building map[*config.Model]bool
}

// New creates a builder whose expressions may call the functions in r.
func New(r *registry.Registry) *Builder {
	return &Builder{
		registry: r,
		graphs:   make(map[*config.Model]*factorgraph.Graph),
		building: make(map[*config.Model]bool),
	}
}
