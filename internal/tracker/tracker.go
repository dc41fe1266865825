package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vk/patterngrid/internal/ctxlog"
	"github.com/vk/patterngrid/internal/pattern"
)

const (
	// KeyOff is the note value that releases the playing note.
	KeyOff = 0x81
	// MaxNote is the highest playable note value.
	MaxNote = 128
	// MaxVolume is the highest volume column value.
	MaxVolume = 65
	// MaxDelay is the highest note delay, in ticks.
	MaxDelay = 0x0F

	// EffectExtended is the extended effect command.
	EffectExtended = 0x0E
	// EffectNoteDelay is the extended sub-command delaying a note by the low nibble.
	EffectNoteDelay = 0xD0
)

// Event is one row of one module track.
type Event struct {
	Note         uint8 `json:"note" yaml:"note"`
	Instrument   uint8 `json:"instrument" yaml:"instrument"`
	Volume       uint8 `json:"volume" yaml:"volume"`
	Effect       uint8 `json:"effect" yaml:"effect"`
	EffectParam  uint8 `json:"effect_param" yaml:"effect_param"`
	Effect2      uint8 `json:"effect2" yaml:"effect2"`
	Effect2Param uint8 `json:"effect2_param" yaml:"effect2_param"`
}

var noteNames = [12]string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

// String renders the event in tracker notation, like "C#4 02 40 ED3".
func (e Event) String() string {
	var b strings.Builder
	switch {
	case e.Note == 0:
		b.WriteString("...")
	case e.Note == KeyOff:
		b.WriteString("===")
	default:
		n := int(e.Note) - 1
		fmt.Fprintf(&b, "%s%d", noteNames[n%12], n/12)
	}
	if e.Instrument == 0 {
		b.WriteString(" ..")
	} else {
		fmt.Fprintf(&b, " %02X", e.Instrument)
	}
	fmt.Fprintf(&b, " %02X", e.Volume)
	if e.Effect == 0 && e.EffectParam == 0 {
		b.WriteString(" ...")
	} else {
		fmt.Fprintf(&b, " %X%02X", e.Effect, e.EffectParam)
	}
	return b.String()
}

// Module is the pattern part of a tracker module: named instruments, a fixed
// number of tracks with a fixed number of rows each, and the tempo.
type Module struct {
	Instruments []string  `json:"instruments" yaml:"instruments"`
	Tracks      [][]Event `json:"tracks" yaml:"tracks"`
	BPM         int       `json:"bpm" yaml:"bpm"`
	Speed       int       `json:"speed" yaml:"speed"`

	applied uuid.UUID
}

// NewModule returns a cleared module with the given instruments and tracks of
// rows events each.
func NewModule(instruments []string, tracks, rows, bpm, speed int) *Module {
	m := &Module{
		Instruments: instruments,
		Tracks:      make([][]Event, tracks),
		BPM:         bpm,
		Speed:       speed,
	}
	for i := range m.Tracks {
		m.Tracks[i] = make([]Event, rows)
	}
	m.Clear()
	return m
}

// Clear releases every row and removes all effects. Instrument and volume
// columns are left as they are.
func (m *Module) Clear() {
	for _, track := range m.Tracks {
		for row := range track {
			e := &track[row]
			e.Note = KeyOff
			e.Effect, e.EffectParam = 0, 0
			e.Effect2, e.Effect2Param = 0, 0
		}
	}
	m.applied = uuid.Nil
}

// Revision returns the revision of the pattern last applied, or uuid.Nil.
func (m *Module) Revision() uuid.UUID {
	return m.applied
}

// Apply clears the module and writes p into it. A pattern whose revision was
// already applied is skipped; Apply reports whether the module changed.
func (m *Module) Apply(ctx context.Context, p *pattern.Data) bool {
	logger := ctxlog.FromContext(ctx)
	if p.Revision != uuid.Nil && p.Revision == m.applied {
		logger.Debug("Pattern revision already applied.", "revision", p.Revision)
		return false
	}
	m.Clear()

	next := 0
	for ins, name := range m.Instruments {
		track, right := m.lookup(p, name)
		if track == nil {
			continue
		}
		for ci := range track.Columns {
			if next >= len(m.Tracks) {
				logger.Warn("Pattern has more columns than the module has tracks.", "tracks", len(m.Tracks), "instrument", name)
				m.applied = p.Revision
				return true
			}
			writeColumn(m.Tracks[next], &track.Columns[ci], ins, len(m.Instruments), right)
			next++
		}
	}
	m.applied = p.Revision
	logger.Debug("Pattern applied.", "revision", p.Revision, "tracks_used", next)
	return true
}

func (m *Module) lookup(p *pattern.Data, name string) (*pattern.Track, bool) {
	if track, ok := p.Tracks[name]; ok {
		return track, false
	}
	if len(name) < 2 || name[1] != '_' || !strings.ContainsRune("MLR", rune(name[0])) {
		return nil, false
	}
	track, ok := p.Tracks[name[2:]]
	if !ok {
		return nil, false
	}
	return track, name[0] == 'R'
}

func writeColumn(events []Event, c *pattern.Column, ins, numIns int, right bool) {
	for row := range events {
		note := valueAt(c.Notes, row)
		switch {
		case note > 0:
			note = min(note+1, MaxNote)
		case note < 0:
			note = KeyOff
		}

		instrument := valueAt(c.Instruments, row)
		switch {
		case instrument == 0 && note > 0:
			instrument = int32(ins + 1)
		case instrument != 0 && right:
			instrument++
		}
		if note == KeyOff {
			instrument = 0
		}
		instrument = clamp(instrument, 0, int32(numIns))

		e := &events[row]
		e.Note = uint8(note)
		e.Instrument = uint8(instrument)
		e.Volume = uint8(clamp(valueAt(c.Volumes, row), 0, MaxVolume))
		e.Effect = EffectExtended
		e.EffectParam = EffectNoteDelay | uint8(clamp(valueAt(c.Delays, row), 0, MaxDelay))
	}
}

func valueAt(values []int32, row int) int32 {
	if row < len(values) {
		return values[row]
	}
	return 0
}

func clamp(v, lo, hi int32) int32 {
	return max(lo, min(v, hi))
}

// RowDuration is the time one row lasts at the given tempo.
func RowDuration(bpm, speed int) time.Duration {
	return time.Duration(rowSeconds(bpm, speed) * float64(time.Second))
}

// FramesToSkip is the number of audio frames that play before startLine.
func FramesToSkip(startLine, bpm, speed, sampleRate int) int {
	return int(float64(startLine) * rowSeconds(bpm, speed) * float64(sampleRate))
}

func rowSeconds(bpm, speed int) float64 {
	if bpm <= 0 {
		return 0
	}
	return 2.5 / float64(bpm) * float64(speed)
}
