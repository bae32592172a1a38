package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/schema"
	"sigs.k8s.io/yaml"
)

// SchemaFile is one model schema read from the schemas directory.
type SchemaFile struct {
	Model string
	Path  string
	JSON  []byte
}

// LoadSchemaFiles reads every *.json, *.yaml and *.yml file in dir.
// The model name is the file name without its extension. YAML documents
// are converted to JSON; their properties come out in key order.
func LoadSchemaFiles(dir string) ([]SchemaFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schemas directory: %w\nHint: create it or pass --schemas-dir", err)
	}

	var files []SchemaFile
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		model := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if prev, ok := seen[model]; ok {
			return nil, fmt.Errorf("%w: model %s defined by both %s and %s", core.ErrInvalidSchema, model, prev, path)
		}
		seen[model] = path

		raw, err := os.ReadFile(path) //nolint:gosec // path comes from the configured schemas dir
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if ext != ".json" {
			if raw, err = yaml.YAMLToJSON(raw); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", core.ErrInvalidSchema, path, err)
			}
		}
		files = append(files, SchemaFile{Model: model, Path: path, JSON: raw})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Model < files[j].Model })
	return files, nil
}

// buildRegistry parses files into a registry without connecting.
func buildRegistry(files []SchemaFile) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	for _, f := range files {
		if _, err := reg.Register(f.Model, f.JSON); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
