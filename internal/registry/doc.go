// Package registry provides the central "glue" between graph files and the
// Go functions their expressions may call.
//
// Modules register cty functions under the names graph expressions use
// (e.g. "clamp", "in_scale"). Before a graph is compiled, the registry checks
// that every function its expressions call is registered, so a typo surfaces
// as a load error instead of a violated factor at sampling time.
package registry
