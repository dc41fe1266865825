package hcl_adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/patterngrid/internal/config"
	"github.com/vk/patterngrid/internal/ctxlog"
	"github.com/vk/patterngrid/internal/fsutil"
	"github.com/vk/patterngrid/internal/schema"
)

// ErrIncludeCycle is returned when a graph nests itself through its instances.
var ErrIncludeCycle = errors.New("instance include cycle")

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL graph loader.
func NewLoader() *Loader {
	return &Loader{}
}

// loadState is shared by one Load call and its recursive instance loads.
type loadState struct {
	parser *hclparse.Parser
	models map[string]*config.Model
	files  int
}

// Load parses the graph at path and every graph it nests.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	st := &loadState{
		parser: hclparse.NewParser(),
		models: make(map[string]*config.Model),
	}
	model, err := l.load(ctx, st, path, nil)
	if err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.", "graph", model.Name, "graphs", len(st.models), "files", st.files)
	return model, nil
}

func (l *Loader) load(ctx context.Context, st *loadState, path string, stack []string) (*config.Model, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("error resolving path %s: %w", path, err)
	}
	if slices.Contains(stack, abs) {
		chain := append(slices.Clone(stack), abs)
		return nil, fmt.Errorf("%s: %w", strings.Join(chain, " -> "), ErrIncludeCycle)
	}
	if model, ok := st.models[abs]; ok {
		return model, nil
	}

	files, err := l.findHCLFiles(abs)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Discovered HCL files.", "path", abs, "count", len(files))
	st.files += len(files)

	model := &config.Model{Path: abs}
	stack = append(slices.Clone(stack), abs)

	for _, file := range files {
		hclFile, diags := st.parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.File
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.Name != "" {
			if model.Name != "" && model.Name != root.Name {
				return nil, fmt.Errorf("file %s names the graph %q, but it is already named %q", file, root.Name, model.Name)
			}
			model.Name = root.Name
		}
		if err := l.translateFile(ctx, model, &root); err != nil {
			return nil, fmt.Errorf("in file %s: %w", file, err)
		}

		for _, inst := range root.Instances {
			source := inst.Source
			if !filepath.IsAbs(source) {
				source = filepath.Join(filepath.Dir(file), source)
			}
			child, err := l.load(ctx, st, source, stack)
			if err != nil {
				return nil, fmt.Errorf("instance %q in %s: %w", inst.Name, file, err)
			}
			model.Instances = append(model.Instances, &config.Instance{
				Name:   inst.Name,
				Source: inst.Source,
				Model:  child,
			})
		}
	}

	if model.Name == "" {
		model.Name = strings.TrimSuffix(filepath.Base(abs), ".hcl")
	}
	st.models[abs] = model
	return model, nil
}

// findHCLFiles returns path itself when it is a file, or the .hcl files
// directly inside it when it is a directory.
func (l *Loader) findHCLFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	files, err := fsutil.FindFilesByExtension(path, ".hcl", false)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %s", path)
	}
	return files, nil
}
