package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/zclconf/go-cty/cty/function"
)

// Module is the interface that all function modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the expression functions available to one application instance.
type Registry struct {
	functions map[string]function.Function
}

// New creates a registry with the given modules registered.
func New(modules ...Module) *Registry {
	r := &Registry{functions: make(map[string]function.Function)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterFunction registers a function under a name. Registering a name twice
// is a programmer error.
func (r *Registry) RegisterFunction(name string, fn function.Function) {
	if _, exists := r.functions[name]; exists {
		panic(fmt.Sprintf("function with name '%s' already registered", name))
	}
	slog.Debug("Registering expression function.", "name", name)
	r.functions[name] = fn
}

// Functions returns the function table for an hcl.EvalContext.
func (r *Registry) Functions() map[string]function.Function {
	return r.functions
}

// Names returns the registered function names in lexical order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.functions))
}

// ValidateCalls checks that every called function is registered.
func (r *Registry) ValidateCalls(called []string) error {
	var missing []string
	for _, name := range called {
		if _, ok := r.functions[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("unknown function(s): %s", strings.Join(missing, ", "))
	}
	return nil
}
