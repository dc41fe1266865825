// Package config defines the format-agnostic model of a graph definition,
// along with the Loader interface for reading it from some source.
//
// The config.Model is the single input of the builder package. Concrete
// loaders, such as the HCL one, live in separate packages.
package config
