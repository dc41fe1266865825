// Package music registers pitch-class helpers for graph expressions. Notes
// are semitone numbers; pitch classes are taken modulo 12, so negative notes
// wrap like any other.
package music

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/patterngrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the functions with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunction("in_scale", InScaleFunc)
	r.RegisterFunction("interval", IntervalFunc)
	r.RegisterFunction("chord_tone", ChordToneFunc)
}

// Scales maps scale names to their semitone offsets from the root.
var Scales = map[string][]int{
	"chromatic":      {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	"major":          {0, 2, 4, 5, 7, 9, 11},
	"minor":          {0, 2, 3, 5, 7, 8, 10},
	"harmonic_minor": {0, 2, 3, 5, 7, 8, 11},
	"dorian":         {0, 2, 3, 5, 7, 9, 10},
	"mixolydian":     {0, 2, 4, 5, 7, 9, 10},
	"pentatonic":     {0, 2, 4, 7, 9},
	"blues":          {0, 3, 5, 6, 7, 10},
}

// Chords maps chord qualities to their semitone offsets from the root.
var Chords = map[string][]int{
	"major": {0, 4, 7},
	"minor": {0, 3, 7},
	"dim":   {0, 3, 6},
	"aug":   {0, 4, 8},
	"sus2":  {0, 2, 7},
	"sus4":  {0, 5, 7},
	"maj7":  {0, 4, 7, 11},
	"min7":  {0, 3, 7, 10},
	"dom7":  {0, 4, 7, 10},
}

// PitchClass returns n modulo 12 in [0, 11].
func PitchClass(n int) int {
	return ((n % 12) + 12) % 12
}

func lookup(table map[string][]int, kind, name string) ([]int, error) {
	offsets, ok := table[strings.ToLower(name)]
	if !ok {
		names := make([]string, 0, len(table))
		for k := range table {
			names = append(names, k)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown %s %q (known: %s)", kind, name, strings.Join(names, ", "))
	}
	return offsets, nil
}

func ints(args []cty.Value) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		if err := gocty.FromCtyValue(a, &out[i]); err != nil {
			return nil, function.NewArgError(i, err)
		}
	}
	return out, nil
}

// InScaleFunc reports whether note belongs to the named scale built on root.
var InScaleFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "note", Type: cty.Number},
		{Name: "root", Type: cty.Number},
		{Name: "scale", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.Bool),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		n, err := ints(args[:2])
		if err != nil {
			return cty.UnknownVal(cty.Bool), err
		}
		offsets, err := lookup(Scales, "scale", args[2].AsString())
		if err != nil {
			return cty.UnknownVal(cty.Bool), function.NewArgError(2, err)
		}
		return cty.BoolVal(slices.Contains(offsets, PitchClass(n[0]-n[1]))), nil
	},
})

// IntervalFunc returns the ascending interval in semitones, 0 to 11, from the
// pitch class of a to the pitch class of b.
var IntervalFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "from", Type: cty.Number},
		{Name: "to", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		n, err := ints(args)
		if err != nil {
			return cty.UnknownVal(cty.Number), err
		}
		return cty.NumberIntVal(int64(PitchClass(n[1] - n[0]))), nil
	},
})

// ChordToneFunc returns the note of the given chord degree. Degrees past the
// last chord tone continue in the next octave.
var ChordToneFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "root", Type: cty.Number},
		{Name: "quality", Type: cty.String},
		{Name: "degree", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		n, err := ints([]cty.Value{args[0], args[2]})
		if err != nil {
			return cty.UnknownVal(cty.Number), err
		}
		root, degree := n[0], n[1]
		if degree < 0 {
			return cty.UnknownVal(cty.Number), function.NewArgErrorf(2, "degree must not be negative")
		}
		offsets, err := lookup(Chords, "chord quality", args[1].AsString())
		if err != nil {
			return cty.UnknownVal(cty.Number), function.NewArgError(1, err)
		}
		octave, idx := degree/len(offsets), degree%len(offsets)
		return cty.NumberIntVal(int64(root + 12*octave + offsets[idx])), nil
	},
})
