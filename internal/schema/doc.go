// Package schema defines the gohcl decoding targets for graph files.
package schema
