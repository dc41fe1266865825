package sampling

import (
	"fmt"
	"strings"
)

// Strategy selects how a sweep picks a value from a conditional distribution.
type Strategy int

const (
	// Sample draws from the conditional distribution.
	Sample Strategy = iota
	// Maximize picks the most probable value, preferring the lowest on ties.
	Maximize
)

func (s Strategy) String() string {
	switch s {
	case Sample:
		return "sample"
	case Maximize:
		return "maximize"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy converts a strategy name into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sample":
		return Sample, nil
	case "maximize", "max":
		return Maximize, nil
	default:
		return Sample, fmt.Errorf("unknown sampling strategy %q (want sample or maximize)", s)
	}
}
