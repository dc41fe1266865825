package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/vk/patterngrid/internal/crate"
	"github.com/vk/patterngrid/internal/factorgraph"
	"github.com/vk/patterngrid/internal/pattern"
	"github.com/vk/patterngrid/internal/sampling"
	"github.com/vk/patterngrid/internal/tracker"
)

// Result is what one run writes to the output.
type Result struct {
	Graph    string    `json:"graph" yaml:"graph"`
	RunID    uuid.UUID `json:"run_id" yaml:"run_id"`
	Strategy string    `json:"strategy" yaml:"strategy"`
	Seed     uint64    `json:"seed" yaml:"seed"`
	// Score is nil when the variation violates a hard factor.
	Score     *float64        `json:"score" yaml:"score"`
	Variation []int32         `json:"variation" yaml:"variation"`
	Pattern   *pattern.Data   `json:"pattern" yaml:"pattern"`
	Crate     *crate.Data     `json:"crate" yaml:"crate"`
	Tracker   *tracker.Module `json:"tracker,omitempty" yaml:"tracker,omitempty"`
}

// VariableMarginal is the distribution of one variable over its domain.
type VariableMarginal struct {
	Block         string    `json:"block"`
	Index         int       `json:"index"`
	Min           int32     `json:"min"`
	Probabilities []float64 `json:"probabilities"`
}

// MarginalsFile is the document written to the marginals path.
type MarginalsFile struct {
	Graph     string             `json:"graph"`
	Variables []VariableMarginal `json:"variables"`
}

func (a *App) writeResult(result *Result) error {
	switch a.config.Format {
	case "yaml":
		enc := yaml.NewEncoder(a.outW)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(a.outW)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
}

func writeMarginals(path string, g *factorgraph.Graph, m sampling.Marginals) error {
	doc := MarginalsFile{Graph: g.Name(), Variables: make([]VariableMarginal, 0, len(m))}
	offsets := make(map[string]int)
	for i, probs := range m {
		v := g.Variable(i)
		doc.Variables = append(doc.Variables, VariableMarginal{
			Block:         v.Block,
			Index:         offsets[v.Block],
			Min:           v.Min,
			Probabilities: probs,
		})
		offsets[v.Block]++
	}

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode marginals: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("failed to write marginals: %w", err)
	}
	return nil
}
