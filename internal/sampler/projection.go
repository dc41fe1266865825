package sampler

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vk/patterngrid/internal/crate"
	"github.com/vk/patterngrid/internal/factorgraph"
	"github.com/vk/patterngrid/internal/pattern"
	"github.com/vk/patterngrid/internal/portname"
)

// SetColumnsFromOutputs rewrites the tracks of data from the int outputs whose
// names are column paths. Arrays already allocated in data for the same track,
// column and kind are reused; tracks no longer produced are dropped. Outputs
// that are not column paths are ignored. The revision is renewed. Projections
// fail with ErrConcurrentSampling while an asynchronous result is pending.
func (s *Sampler) SetColumnsFromOutputs(data *pattern.Data) error {
	if s.IsSamplingVariation() {
		return ErrConcurrentSampling
	}
	previous := data.Tracks
	data.Tracks = make(map[string]*pattern.Track, len(previous))

	for _, no := range s.graph.Outputs() {
		if no.Output.Type() != factorgraph.Int || portname.IsSource(no.Name) {
			continue
		}
		path, err := pattern.ParseColumnPath(no.Name)
		if err != nil {
			continue
		}
		track, ok := data.Tracks[path.Track]
		if !ok {
			track = &pattern.Track{}
			data.Tracks[path.Track] = track
		}
		if n := path.Column + 1 - len(track.Columns); n > 0 {
			track.Columns = append(track.Columns, make([]pattern.Column, n)...)
		}

		values := track.Columns[path.Column].Values(path.Kind)
		if prev, ok := previous[path.Track]; ok && path.Column < len(prev.Columns) {
			*values = *prev.Columns[path.Column].Values(path.Kind)
		}
		*values = resize(*values, no.Output.Len())
		if err := no.Output.EvalInt(s.ctx, *values); err != nil {
			return fmt.Errorf("output %q: %w", no.Name, err)
		}
	}
	data.Revision = uuid.New()
	return nil
}

// FillCrateWithOutputs replaces the blocks of data with the values of every
// output that does not feed a nested instance.
func (s *Sampler) FillCrateWithOutputs(data *crate.Data) error {
	if s.IsSamplingVariation() {
		return ErrConcurrentSampling
	}
	data.Reset()
	for _, no := range s.graph.Outputs() {
		if portname.IsSource(no.Name) {
			continue
		}
		switch t := no.Output.Type(); t {
		case factorgraph.Int:
			values := make([]int32, no.Output.Len())
			if err := no.Output.EvalInt(s.ctx, values); err != nil {
				return fmt.Errorf("output %q: %w", no.Name, err)
			}
			data.IntBlocks[no.Name] = values
		case factorgraph.Float:
			values := make([]float32, no.Output.Len())
			if err := no.Output.EvalFloat(s.ctx, values); err != nil {
				return fmt.Errorf("output %q: %w", no.Name, err)
			}
			data.FloatBlocks[no.Name] = values
		default:
			panic(fmt.Sprintf("sampler: unknown value type %v", t))
		}
	}
	return nil
}

func resize(s []int32, n int) []int32 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]int32, n)
}
