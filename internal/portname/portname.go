// internal/portname/portname.go
package portname

import (
	"fmt"
	"strings"
)

const (
	// SourceSuffix marks a parent output that drives an instance parameter.
	SourceSuffix = ".Source"
	// TargetSuffix marks a parent parameter block driven by an instance output.
	TargetSuffix = ".Target"
)

// Direction tells which way data flows through a port.
type Direction int

const (
	// Inbound ports carry parent data into an instance (`.Source`).
	Inbound Direction = iota
	// Outbound ports carry instance data back to the parent (`.Target`).
	Outbound
)

func (d Direction) String() string {
	switch d {
	case Inbound:
		return "source"
	case Outbound:
		return "target"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Port is the structured form of a wiring name.
type Port struct {
	Instance  string
	Name      string
	Direction Direction
}

// Source returns the name of the parent output feeding `parameter` of `instance`.
func Source(instance, parameter string) string {
	return instance + "." + parameter + SourceSuffix
}

// Target returns the name of the parent parameter block receiving `output` of `instance`.
func Target(instance, output string) string {
	return instance + "." + output + TargetSuffix
}

// IsSource reports whether name follows the `.Source` convention.
func IsSource(name string) bool {
	return strings.HasSuffix(name, SourceSuffix)
}

// IsTarget reports whether name follows the `.Target` convention.
func IsTarget(name string) bool {
	return strings.HasSuffix(name, TargetSuffix)
}

// ValidInstanceName reports whether name can be used as an instance name.
func ValidInstanceName(name string) bool {
	return name != "" && !strings.ContainsAny(name, ". \t\n")
}

// Parse splits a wiring name into its instance, port name and direction.
func Parse(name string) (Port, error) {
	var port Port
	var rest string
	switch {
	case IsSource(name):
		port.Direction = Inbound
		rest = strings.TrimSuffix(name, SourceSuffix)
	case IsTarget(name):
		port.Direction = Outbound
		rest = strings.TrimSuffix(name, TargetSuffix)
	default:
		return Port{}, fmt.Errorf("name %q is neither a source nor a target port", name)
	}

	instance, portName, ok := strings.Cut(rest, ".")
	if !ok || instance == "" || portName == "" {
		return Port{}, fmt.Errorf("port name %q must have the form <instance>.<name>%s", name, name[len(rest):])
	}
	port.Instance = instance
	port.Name = portName
	return port, nil
}

// String serializes the port back into its canonical wiring name.
func (p Port) String() string {
	if p.Direction == Outbound {
		return Target(p.Instance, p.Name)
	}
	return Source(p.Instance, p.Name)
}
