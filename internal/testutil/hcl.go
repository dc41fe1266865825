package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ChordsHCL is the HCL form of ChordGraph.
const ChordsHCL = `
name = "chords"

variable "c" {
  count = 2
  min   = 0
  max   = 7
}

parameter "root" {
  type  = int
  count = 2
}

parameter "level" {
  type = float
}

factor "follow_root_0" {
  require = var.c[0] == param.root[0]
}

factor "follow_root_1" {
  require = var.c[1] == param.root[1]
}

output "tones" {
  type  = int
  value = var.c
}

output "level_out" {
  type  = float
  value = 2 * param.level[0]
}
`

// SongHCL is the HCL form of SongGraph. It nests parts/chords.hcl.
const SongHCL = `
name = "song"

variable "note" {
  count = 2
  min   = 0
  max   = 7
}

instance "Chords" {
  source = "parts/chords.hcl"
}

parameter "Chords.tones.Target" {
  type  = int
  count = 2
}

parameter "Chords.level_out.Target" {
  type = float
}

factor "prefer_high" {
  score = sum(var.note)
}

output "Chords.root.Source" {
  type  = int
  value = var.note
}

output "Chords.level.Source" {
  type  = float
  value = 0.25
}

output "Lead.Note" {
  type  = int
  value = var.note
}

output "Lead.Instrument[1]" {
  type  = int
  value = param["Chords.tones.Target"]
}

output "misc" {
  type  = int
  value = 5
}

output "Mix.level" {
  type  = float
  value = param["Chords.level_out.Target"]
}
`

// WriteFiles writes the given files below a fresh temporary directory and
// returns the directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

// WriteSong writes SongHCL and ChordsHCL and returns the path of the song file.
func WriteSong(t *testing.T) string {
	t.Helper()
	dir := WriteFiles(t, map[string]string{
		"song.hcl":         SongHCL,
		"parts/chords.hcl": ChordsHCL,
	})
	return filepath.Join(dir, "song.hcl")
}
