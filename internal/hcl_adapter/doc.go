// Package hcl_adapter is the HCL implementation of config.Loader.
//
// A graph is either a single .hcl file or a directory whose top-level .hcl
// files are merged in name order. Every `instance` block names the source of a
// nested graph relative to the file declaring it; the loader follows those
// sources recursively and rejects include cycles. Expressions are kept
// unevaluated for the builder, which compiles them against the graph layout.
package hcl_adapter
