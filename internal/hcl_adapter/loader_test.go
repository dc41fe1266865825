package hcl_adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/patterngrid/internal/factorgraph"
)

func writeHCL(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeHCL(t, dir, "lead.hcl", `
name = "lead"

variable "note" {
  count = 4
  min   = -1
  max   = 11
}

variable "accent" {
  min = 0
  max = 1
}

parameter "root" {
  type    = int
  default = [2]
}

parameter "gain" {
  type  = float
  count = 2
}

parameter "weights" {
  type    = float
  default = [0.5, 1.5, 2]
}

output "Lead.Note" {
  type  = int
  value = [for n in var.note : n < 0 ? -1 : n + param.root[0]]
}

factor "smooth" {
  weight = 0.5
  score  = -abs(var.note[1] - var.note[0])
}

factor "starts_on_root" {
  require = var.note[0] == 0
}
`)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "lead", model.Name)
	assert.Equal(t, path, model.Path)

	require.Len(t, model.Variables, 2)
	assert.Equal(t, "note", model.Variables[0].Name)
	assert.Equal(t, 4, model.Variables[0].Count)
	assert.Equal(t, int32(-1), model.Variables[0].Min)
	assert.Equal(t, int32(11), model.Variables[0].Max)
	assert.Equal(t, 1, model.Variables[1].Count, "count defaults to one")

	require.Len(t, model.Parameters, 3)
	root, gain, weights := model.Parameters[0], model.Parameters[1], model.Parameters[2]
	assert.Equal(t, factorgraph.Int, root.Type)
	assert.Equal(t, 1, root.Count)
	assert.Equal(t, []int32{2}, root.IntDefaults)
	assert.Equal(t, factorgraph.Float, gain.Type)
	assert.Equal(t, 2, gain.Count)
	assert.Nil(t, gain.FloatDefaults)
	assert.Equal(t, 3, weights.Count)
	assert.Equal(t, []float32{0.5, 1.5, 2}, weights.FloatDefaults)

	require.Len(t, model.Outputs, 1)
	assert.Equal(t, "Lead.Note", model.Outputs[0].Name)
	assert.Equal(t, factorgraph.Int, model.Outputs[0].Type)
	assert.NotNil(t, model.Outputs[0].Value)

	require.Len(t, model.Factors, 2)
	assert.Equal(t, 0.5, model.Factors[0].Weight)
	assert.False(t, model.Factors[0].Hard)
	assert.True(t, model.Factors[1].Hard)
	assert.Equal(t, 1.0, model.Factors[1].Weight)
}

func TestLoad_DirectoryAndInstances(t *testing.T) {
	dir := t.TempDir()
	writeHCL(t, dir, "song/a_vars.hcl", `
variable "note" {
  count = 2
  min   = 0
  max   = 7
}
`)
	writeHCL(t, dir, "song/b_wiring.hcl", `
instance "Chords" {
  source = "../parts/chords.hcl"
}

instance "Bass" {
  source = "../parts/chords.hcl"
}

parameter "Chords.tones.Target" {
  type  = int
  count = 2
}
`)
	writeHCL(t, dir, "parts/chords.hcl", `
variable "c" {
  count = 2
  min   = 0
  max   = 7
}

output "tones" {
  type  = int
  value = var.c
}
`)

	model, err := NewLoader().Load(context.Background(), filepath.Join(dir, "song"))
	require.NoError(t, err)

	assert.Equal(t, "song", model.Name, "directory name is the default graph name")
	require.Len(t, model.Variables, 1)
	require.Len(t, model.Parameters, 1)
	require.Len(t, model.Instances, 2)
	assert.Equal(t, "Chords", model.Instances[0].Name)
	assert.Equal(t, "Bass", model.Instances[1].Name)
	assert.Equal(t, "chords", model.Instances[0].Model.Name)
	assert.Same(t, model.Instances[0].Model, model.Instances[1].Model, "one source is loaded once")
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "invalid syntax",
			content: `variable "note" {`,
			wantErr: "failed to parse HCL file",
		},
		{
			name:    "unknown block",
			content: `step "print" "hello" {}`,
			wantErr: "failed to decode HCL file",
		},
		{
			name:    "quoted type",
			content: `parameter "p" { type = "int" }`,
			wantErr: "keyword int or float",
		},
		{
			name:    "unknown type",
			content: `output "o" {
  type  = string
  value = 1
}`,
			wantErr: "unknown value type",
		},
		{
			name:    "empty domain",
			content: `variable "v" {
  min = 3
  max = 1
}`,
			wantErr: "greater than max",
		},
		{
			name:    "fractional int default",
			content: `parameter "p" {
  type    = int
  default = [1.5]
}`,
			wantErr: "invalid default value",
		},
		{
			name:    "default length disagrees with count",
			content: `parameter "p" {
  type    = float
  count   = 3
  default = [1, 2]
}`,
			wantErr: "2 defaults for count 3",
		},
		{
			name:    "factor without expression",
			content: `factor "f" { weight = 2 }`,
			wantErr: "exactly one of score and require",
		},
		{
			name:    "factor with both expressions",
			content: `factor "f" {
  score   = 1
  require = true
}`,
			wantErr: "exactly one of score and require",
		},
		{
			name:    "weighted require",
			content: `factor "f" {
  weight  = 2
  require = true
}`,
			wantErr: "weight has no effect",
		},
		{
			name:    "missing instance source",
			content: `instance "Chords" { source = "nowhere.hcl" }`,
			wantErr: "error accessing path",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeHCL(t, t.TempDir(), "main.hcl", tc.content)
			_, err := NewLoader().Load(context.Background(), path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_RejectsIncludeCycles(t *testing.T) {
	dir := t.TempDir()
	writeHCL(t, dir, "a.hcl", `instance "B" { source = "b.hcl" }`)
	writeHCL(t, dir, "b.hcl", `instance "A" { source = "a.hcl" }`)

	_, err := NewLoader().Load(context.Background(), filepath.Join(dir, "a.hcl"))
	assert.ErrorIs(t, err, ErrIncludeCycle)
}

func TestLoad_RejectsConflictingNames(t *testing.T) {
	dir := t.TempDir()
	writeHCL(t, dir, "a.hcl", `name = "one"`)
	writeHCL(t, dir, "b.hcl", `name = "two"`)

	_, err := NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already named")
}

func TestLoad_EmptyDirectory(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .hcl files")
}
