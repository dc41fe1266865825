// Package factorgraph holds the immutable description of a probabilistic
// pattern model: discrete random variables, typed parameter blocks, typed
// named outputs, weighted factors and named nested instances.
//
// A Graph is assembled once with a Builder and never mutated afterwards, so it
// can be shared between any number of samplers and environments. All mutable
// state (variations, masks, parameter values) lives outside the graph and is
// handed to it through a Context.
package factorgraph
