// internal/pattern/path.go
package pattern

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NoteOff is the note value that releases the playing note.
const NoteOff = -1

// ColumnKind names one of the value arrays of a column.
type ColumnKind int

const (
	Note ColumnKind = iota
	Instrument
	Volume
	Delay
)

var kindNames = [...]string{"Note", "Instrument", "Volume", "Delay"}

func (k ColumnKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ColumnKind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseColumnKind converts a column kind name.
func ParseColumnKind(s string) (ColumnKind, bool) {
	for i, name := range kindNames {
		if s == name {
			return ColumnKind(i), true
		}
	}
	return 0, false
}

// ErrInvalidPath is returned for names that do not address a column.
var ErrInvalidPath = errors.New("invalid column path")

// ColumnPath addresses one value array of one column of one track.
type ColumnPath struct {
	Track  string
	Column int
	Kind   ColumnKind
}

// ParseColumnPath parses "<track>.<Kind>" or "<track>.<Kind>[<column>]".
func ParseColumnPath(name string) (ColumnPath, error) {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return ColumnPath{}, fmt.Errorf("%w %q: want <track>.<Kind>[<column>]", ErrInvalidPath, name)
	}
	track, last := name[:dot], name[dot+1:]

	column := 0
	if open := strings.IndexByte(last, '['); open != -1 {
		if !strings.HasSuffix(last, "]") {
			return ColumnPath{}, fmt.Errorf("%w %q: missing closing bracket", ErrInvalidPath, name)
		}
		n, err := strconv.Atoi(last[open+1 : len(last)-1])
		if err != nil || n < 0 {
			return ColumnPath{}, fmt.Errorf("%w %q: column index must be a non-negative integer", ErrInvalidPath, name)
		}
		column, last = n, last[:open]
	}

	kind, ok := ParseColumnKind(last)
	if !ok {
		return ColumnPath{}, fmt.Errorf("%w %q: unknown column kind %q", ErrInvalidPath, name, last)
	}
	if strings.HasPrefix(track, ".") || strings.HasSuffix(track, ".") || strings.Contains(track, "..") {
		return ColumnPath{}, fmt.Errorf("%w %q: empty track name segment", ErrInvalidPath, name)
	}
	return ColumnPath{Track: track, Column: column, Kind: kind}, nil
}

// String returns the canonical name of the path. Column 0 is written without
// an index.
func (p ColumnPath) String() string {
	if p.Column == 0 {
		return p.Track + "." + p.Kind.String()
	}
	return fmt.Sprintf("%s.%s[%d]", p.Track, p.Kind, p.Column)
}
