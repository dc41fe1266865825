// This file contains the logic for translating HCL schema structs into the
// format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/patterngrid/internal/config"
	"github.com/vk/patterngrid/internal/ctxlog"
	"github.com/vk/patterngrid/internal/factorgraph"
	"github.com/vk/patterngrid/internal/schema"
)

// translateFile appends the blocks of one decoded file to the model, keeping
// declaration order. Instances are handled by the loader.
func (l *Loader) translateFile(ctx context.Context, m *config.Model, f *schema.File) error {
	var errs []error
	for _, v := range f.Variables {
		def, err := translateVariable(v)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.Variables = append(m.Variables, def)
	}
	for _, p := range f.Parameters {
		def, err := translateParameter(ctx, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.Parameters = append(m.Parameters, def)
	}
	for _, o := range f.Outputs {
		def, err := translateOutput(ctx, o)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.Outputs = append(m.Outputs, def)
	}
	for _, fa := range f.Factors {
		def, err := translateFactor(ctx, fa)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.Factors = append(m.Factors, def)
	}
	return errors.Join(errs...)
}

func translateVariable(v *schema.Variable) (*config.Variable, error) {
	count := 1
	if v.Count != nil {
		count = *v.Count
	}
	if count < 0 {
		return nil, fmt.Errorf("variable %q: count must not be negative, got %d", v.Name, count)
	}
	if v.Min > v.Max {
		return nil, fmt.Errorf("variable %q: min %d is greater than max %d", v.Name, v.Min, v.Max)
	}
	return &config.Variable{
		Name:        v.Name,
		Count:       count,
		Min:         v.Min,
		Max:         v.Max,
		Description: v.Description,
	}, nil
}

// translateParameter resolves the block length from count, then from the
// default's length, then falls back to a single value.
func translateParameter(ctx context.Context, p *schema.Parameter) (*config.Parameter, error) {
	logger := ctxlog.FromContext(ctx).With("parameter", p.Name)

	t, err := parseValueType(p.Type)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	def := &config.Parameter{Name: p.Name, Type: t, Description: p.Description}

	n := -1
	if isExprDefined(ctx, p.Default, "default") {
		val, diags := p.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default value for parameter %q: %w", p.Name, diags)
		}
		def.IntDefaults, def.FloatDefaults, err = decodeDefaults(val, t)
		if err != nil {
			return nil, fmt.Errorf("invalid default value for parameter %q: %w", p.Name, err)
		}
		if def.IntDefaults != nil || def.FloatDefaults != nil {
			n = max(len(def.IntDefaults), len(def.FloatDefaults))
		}
	}

	switch {
	case p.Count != nil:
		if *p.Count < 0 {
			return nil, fmt.Errorf("parameter %q: count must not be negative, got %d", p.Name, *p.Count)
		}
		if n >= 0 && n != *p.Count {
			return nil, fmt.Errorf("parameter %q: %d defaults for count %d: %w", p.Name, n, *p.Count, factorgraph.ErrLengthMismatch)
		}
		def.Count = *p.Count
	case n >= 0:
		def.Count = n
	default:
		def.Count = 1
	}
	logger.Debug("Translated parameter.", "type", t, "count", def.Count)
	return def, nil
}

func translateOutput(ctx context.Context, o *schema.Output) (*config.Output, error) {
	t, err := parseValueType(o.Type)
	if err != nil {
		return nil, fmt.Errorf("output %q: %w", o.Name, err)
	}
	if !isExprDefined(ctx, o.Value, "value") {
		return nil, fmt.Errorf("output %q: value must be set", o.Name)
	}
	return &config.Output{
		Name:        o.Name,
		Type:        t,
		Value:       o.Value,
		Description: o.Description,
	}, nil
}

func translateFactor(ctx context.Context, f *schema.Factor) (*config.Factor, error) {
	hasScore := isExprDefined(ctx, f.Score, "score")
	hasRequire := isExprDefined(ctx, f.Require, "require")

	switch {
	case hasScore == hasRequire:
		return nil, fmt.Errorf("factor %q: exactly one of score and require must be set", f.Name)
	case hasRequire && f.Weight != nil:
		return nil, fmt.Errorf("factor %q: weight has no effect on a require factor", f.Name)
	}

	def := &config.Factor{Name: f.Name, Weight: 1, Description: f.Description}
	if hasRequire {
		def.Expr = f.Require
		def.Hard = true
		return def, nil
	}
	def.Expr = f.Score
	if f.Weight != nil {
		def.Weight = *f.Weight
	}
	return def, nil
}
