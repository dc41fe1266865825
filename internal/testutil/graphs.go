package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/patterngrid/internal/factorgraph"
)

// ChordGraph builds a nested graph whose two variables "c" are forced to
// equal the int parameter "root". Its float output "level_out" doubles the
// float parameter "level".
func ChordGraph(t *testing.T) *factorgraph.Graph {
	t.Helper()
	b := factorgraph.NewBuilder("chord")
	c := b.AddVariables("c", 2, 0, 7)
	root := b.AddIntParameters("root", 2, nil)
	level := b.AddFloatParameters("level", 1, nil)
	for i := range 2 {
		b.AddFactor(&factorgraph.FuncFactor{
			Name: "follow_root",
			Vars: []int{c.Offset + i},
			Hard: true,
			Fn: func(ctx *factorgraph.Context) float64 {
				if ctx.Values(c)[i] == ctx.Ints(root)[i] {
					return 0
				}
				return -1
			},
		})
	}
	b.AddOutput("tones", factorgraph.VariableOutput{Block: c})
	b.AddOutput("level_out", factorgraph.FloatFuncOutput{
		N:    1,
		Deps: []string{"level"},
		Fn: func(ctx *factorgraph.Context, dst []float32) {
			dst[0] = 2 * ctx.Floats(level)[0]
		},
	})
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

// SongGraph builds a graph with two "note" variables in [0, 7], each rewarded
// by its value, and a nested ChordGraph instance "Chords" wired both ways:
//
//	Chords.root.Source       notes feed the chord roots
//	Chords.level.Source      constant 0.25 feeds the chord level
//	Chords.tones.Target      chord tones come back as int parameters
//	Chords.level_out.Target  doubled level comes back as a float parameter
//
// Outputs "Lead.Note" and "Lead.Instrument[1]" are column paths, "misc" is
// not, and "Mix.level" is a float output.
func SongGraph(t *testing.T) *factorgraph.Graph {
	t.Helper()
	b := factorgraph.NewBuilder("song")
	note := b.AddVariables("note", 2, 0, 7)
	tones := b.AddIntParameters("Chords.tones.Target", 2, nil)
	mix := b.AddFloatParameters("Chords.level_out.Target", 1, nil)
	for i := range 2 {
		b.AddFactor(&factorgraph.FuncFactor{
			Name:   "prefer_high",
			Vars:   []int{note.Offset + i},
			Weight: 1,
			Fn: func(ctx *factorgraph.Context) float64 {
				return float64(ctx.Values(note)[i])
			},
		})
	}
	b.AddOutput("Chords.root.Source", factorgraph.VariableOutput{Block: note})
	b.AddOutput("Chords.level.Source", factorgraph.FloatFuncOutput{
		N:  1,
		Fn: func(_ *factorgraph.Context, dst []float32) { dst[0] = 0.25 },
	})
	b.AddOutput("Lead.Note", factorgraph.VariableOutput{Block: note})
	b.AddOutput("Lead.Instrument[1]", factorgraph.ParameterOutput{
		Name: "Chords.tones.Target", ValueType: factorgraph.Int, Block: tones,
	})
	b.AddOutput("misc", factorgraph.IntFuncOutput{
		N:  1,
		Fn: func(_ *factorgraph.Context, dst []int32) { dst[0] = 5 },
	})
	b.AddOutput("Mix.level", factorgraph.ParameterOutput{
		Name: "Chords.level_out.Target", ValueType: factorgraph.Float, Block: mix,
	})
	b.AddInstance("Chords", ChordGraph(t))
	g, err := b.Build()
	require.NoError(t, err)
	return g
}
