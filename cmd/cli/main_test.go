package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/patterngrid/internal/testutil"
)

func TestRun_InvalidGraph(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	invalidHCL := `
		variable "note" {
			count = 2
		// Missing closing brace here
	`
	filePath := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600))
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, logs, []string{filePath})

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load graph")
	require.Empty(t, out.String(), "Nothing should be written on failure")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, logs, []string{"-h"})

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(context.Background(), out, logs, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_Song(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := testutil.WriteSong(t)
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, logs, []string{"--mode=maximize", "--seed=1", path})

	// --- Assert ---
	require.NoError(t, err)
	var result struct {
		Graph   string `json:"graph"`
		Pattern struct {
			Tracks map[string]json.RawMessage `json:"tracks"`
		} `json:"pattern"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result), "output: %s", out.String())
	require.Equal(t, "song", result.Graph)
	require.Contains(t, result.Pattern.Tracks, "Lead")
	require.Contains(t, logs.String(), "Sampling finished.")
}
