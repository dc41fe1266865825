package config

import (
	"context"
)

// Loader is the interface for a format-specific graph loader.
type Loader interface {
	// Load reads the graph definition at path, along with every instance it
	// nests, and translates it into the format-agnostic model.
	Load(ctx context.Context, path string) (*Model, error)
}
