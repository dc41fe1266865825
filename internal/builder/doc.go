/*
Package builder compiles a config.Model into an immutable *factorgraph.Graph.

The compilation is a multi-phase process:

 1. Instances: every nested model is compiled first, depth first. A model
    nested several times is compiled once and its graph is shared.

 2. Layout: variable and parameter blocks are declared in model order, both on
    the factorgraph.Builder and on an hclexpr.Scope, and a probe context is
    assembled from the lowest value of every variable and the parameter
    defaults.

 3. Expressions: output and factor expressions are checked against the
    function registry, then compiled by hclexpr. Compilation evaluates each
    expression once against the probe, which fixes output lengths and catches
    type errors before any sampling happens.

 4. Validation: factorgraph.Builder.Build checks names, lengths, instance
    wiring and instance ordering.

Diagnostics from every phase are collected and reported together.
*/
package builder
