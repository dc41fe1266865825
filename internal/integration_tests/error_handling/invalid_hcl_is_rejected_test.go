package integration_tests

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vk/patterngrid/internal/app"
	"github.com/vk/patterngrid/internal/hcl_adapter"
	"github.com/vk/patterngrid/internal/testutil"
)

func runFiles(t *testing.T, files map[string]string, entry string) error {
	t.Helper()
	dir := testutil.WriteFiles(t, files)
	cfg, err := app.NewConfig(app.Config{GraphPath: dir + "/" + entry, Iterations: 1})
	if err != nil {
		t.Fatalf("failed to create config: %v", err)
	}
	testApp, _, _ := app.SetupAppTest(t, cfg)
	return testApp.Run(context.Background())
}

// Test for: invalid hcl is rejected
func TestErrorHandling_InvalidHCL_IsRejected(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	invalidHCL := `
		variable "note" {
			count = 2
		// Missing closing brace here
	`

	// --- Act ---
	runErr := runFiles(t, map[string]string{"main.hcl": invalidHCL}, "main.hcl")

	// --- Assert ---
	if runErr == nil {
		t.Fatal("app.Run() should have returned an error for invalid HCL, but it returned nil")
	}
	errMsg := runErr.Error()
	if !strings.Contains(errMsg, "failed to parse") && !strings.Contains(errMsg, "failed to decode") {
		t.Errorf("expected error message to indicate an HCL parsing failure, but got: %s", errMsg)
	}
}

// Test for: instances that include each other are rejected
func TestErrorHandling_IncludeCycle_IsRejected(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"a.hcl": `
instance "B" {
  source = "b.hcl"
}
`,
		"b.hcl": `
instance "A" {
  source = "a.hcl"
}
`,
	}

	runErr := runFiles(t, files, "a.hcl")

	if !errors.Is(runErr, hcl_adapter.ErrIncludeCycle) {
		t.Fatalf("expected ErrIncludeCycle, got: %v", runErr)
	}
}

// Test for: a factor that cannot be satisfied still produces a pattern
func TestErrorHandling_UngratifiableFactor_StillRuns(t *testing.T) {
	t.Parallel()

	files := map[string]string{"main.hcl": `
variable "note" {
  min = 0
  max = 3
}

factor "impossible" {
  require = var.note[0] > 10
}

output "Lead.Note" {
  type  = int
  value = var.note
}
`}

	if err := runFiles(t, files, "main.hcl"); err != nil {
		t.Fatalf("app.Run() returned an unexpected error: %v", err)
	}
}
