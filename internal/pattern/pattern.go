// internal/pattern/pattern.go
package pattern

import (
	"slices"

	"github.com/google/uuid"
)

// Column holds parallel value arrays, one entry per row.
type Column struct {
	Notes       []int32 `json:"notes,omitempty" yaml:"notes,omitempty"`
	Instruments []int32 `json:"instruments,omitempty" yaml:"instruments,omitempty"`
	Volumes     []int32 `json:"volumes,omitempty" yaml:"volumes,omitempty"`
	Delays      []int32 `json:"delays,omitempty" yaml:"delays,omitempty"`
}

// Values returns a pointer to the array of the given kind.
func (c *Column) Values(kind ColumnKind) *[]int32 {
	switch kind {
	case Note:
		return &c.Notes
	case Instrument:
		return &c.Instruments
	case Volume:
		return &c.Volumes
	case Delay:
		return &c.Delays
	default:
		panic("pattern: unknown column kind " + kind.String())
	}
}

// AddMidiNoop appends a row that triggers nothing to every array.
func (c *Column) AddMidiNoop() {
	c.Notes = append(c.Notes, 0)
	c.Instruments = append(c.Instruments, 0)
	c.Volumes = append(c.Volumes, 0)
	c.Delays = append(c.Delays, 0)
}

// Track is an ordered list of columns.
type Track struct {
	Columns []Column `json:"columns" yaml:"columns"`
}

// Data is a complete pattern: named tracks plus playback flags. Revision
// changes whenever the tracks are rewritten, so players can tell patterns
// apart without comparing them.
type Data struct {
	Tracks              map[string]*Track `json:"tracks" yaml:"tracks"`
	ChangePatternOnBeat bool              `json:"change_pattern_on_beat" yaml:"change_pattern_on_beat"`
	Revision            uuid.UUID         `json:"revision" yaml:"revision"`
}

// NewData returns an empty pattern with a fresh revision.
func NewData() *Data {
	return &Data{Tracks: make(map[string]*Track), Revision: uuid.New()}
}

// TrackNames returns the track names in lexical order.
func (d *Data) TrackNames() []string {
	names := make([]string, 0, len(d.Tracks))
	for name := range d.Tracks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Column returns the column a path addresses, or nil.
func (d *Data) Column(p ColumnPath) *Column {
	t, ok := d.Tracks[p.Track]
	if !ok || p.Column >= len(t.Columns) {
		return nil
	}
	return &t.Columns[p.Column]
}

// Rows returns the length of the longest array in the pattern.
func (d *Data) Rows() int {
	rows := 0
	for _, t := range d.Tracks {
		for i := range t.Columns {
			c := &t.Columns[i]
			rows = max(rows, len(c.Notes), len(c.Instruments), len(c.Volumes), len(c.Delays))
		}
	}
	return rows
}
