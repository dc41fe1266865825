package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/patterngrid/internal/config"
	"github.com/vk/patterngrid/internal/ctxlog"
	"github.com/vk/patterngrid/internal/factorgraph"
	"github.com/vk/patterngrid/internal/hclexpr"
	"github.com/vk/patterngrid/internal/registry"
)

// ErrNestingCycle is returned when a model nests itself through its instances.
var ErrNestingCycle = errors.New("model nests itself")

// Build compiles a model with a one-off builder.
func Build(ctx context.Context, model *config.Model, r *registry.Registry) (*factorgraph.Graph, error) {
	return New(r).Build(ctx, model)
}

// Build compiles model and every model it nests.
func (b *Builder) Build(ctx context.Context, model *config.Model) (*factorgraph.Graph, error) {
	if model == nil {
		return nil, fmt.Errorf("nil model")
	}
	if g, ok := b.graphs[model]; ok {
		return g, nil
	}
	if b.building[model] {
		return nil, fmt.Errorf("graph %q: %w", model.Name, ErrNestingCycle)
	}
	b.building[model] = true
	defer delete(b.building, model)

	logger := ctxlog.FromContext(ctx).With("graph", model.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Build: Starting graph compilation.")

	fb := factorgraph.NewBuilder(model.Name)

	for _, inst := range model.Instances {
		child, err := b.Build(ctx, inst.Model)
		if err != nil {
			return nil, fmt.Errorf("graph %q, instance %q: %w", model.Name, inst.Name, err)
		}
		fb.AddInstance(inst.Name, child)
	}
	logger.Debug("Build: Instances compiled.", "instances", len(model.Instances))

	scope := hclexpr.NewScope(b.registry.Functions())
	scope.SetProbe(declareBlocks(model, fb, scope))
	logger.Debug("Build: Block layout declared.", "variable_blocks", len(model.Variables), "parameter_blocks", len(model.Parameters))

	if err := b.checkFunctions(model); err != nil {
		return nil, fmt.Errorf("graph %q: %w", model.Name, err)
	}

	var diags hcl.Diagnostics
	diags = append(diags, compileOutputs(model, fb, scope)...)
	diags = append(diags, compileFactors(model, fb, scope)...)
	logger.Debug("Build: Expressions compiled.", "outputs", len(model.Outputs), "factors", len(model.Factors), "diagnostics", len(diags))

	g, err := fb.Build()
	if diags.HasErrors() {
		return nil, errors.Join(fmt.Errorf("graph %q: %w", model.Name, diags), err)
	}
	if err != nil {
		return nil, err
	}

	b.graphs[model] = g
	logger.Info("Build: Graph compiled.", "variables", g.NumVariables(), "factors", len(g.Factors()), "outputs", len(g.Outputs()))
	return g, nil
}

// checkFunctions reports every unregistered function the model calls at once.
func (b *Builder) checkFunctions(model *config.Model) error {
	exprs := make([]hcl.Expression, 0, len(model.Outputs)+len(model.Factors))
	for _, o := range model.Outputs {
		exprs = append(exprs, o.Value)
	}
	for _, f := range model.Factors {
		exprs = append(exprs, f.Expr)
	}
	// Reference problems are reported per expression during compilation.
	refs, _ := hclexpr.Analyze(exprs...)
	return b.registry.ValidateCalls(refs.Functions)
}
