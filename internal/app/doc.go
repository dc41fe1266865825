// Package app wires the loader, builder, sampler and projections into one
// pattern generation run, and owns the run's logger and side services.
package app
