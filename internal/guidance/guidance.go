// Package guidance holds the read-only table of advice shown per emergency category.
package guidance

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

//go:embed guidance.yaml
var defaultTable []byte

// Registry maps categories to guidance bundles. It is immutable after
// construction and safe for concurrent readers.
type Registry struct {
	bundles map[models.Category]models.GuidanceBundle
}

// Default returns the registry built from the embedded table
func Default() *Registry {
	r, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded guidance table: %v", err))
	}
	return r
}

// Load reads a YAML table from path
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open guidance %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read guidance %s: %w", path, err)
	}
	return Parse(data)
}

// LoadOrDefault reads path when set, otherwise returns the embedded table
func LoadOrDefault(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes a YAML document keyed by category name
func Parse(data []byte) (*Registry, error) {
	var raw map[string]models.GuidanceBundle
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode guidance: %w", err)
	}

	bundles := make(map[models.Category]models.GuidanceBundle, len(raw))
	for key, bundle := range raw {
		cat := models.ParseCategory(key)
		if cat == models.CategoryUnknown && key != string(models.CategoryUnknown) {
			return nil, fmt.Errorf("decode guidance: unknown category %q", key)
		}
		bundles[cat] = bundle
	}
	return &Registry{bundles: bundles}, nil
}

// For returns the bundle for c. The second result is false when the
// category has no guidance, which callers treat as a displayable state.
// The bundle is a copy; the table itself is never handed out.
func (r *Registry) For(c models.Category) (models.GuidanceBundle, bool) {
	b, ok := r.bundles[c]
	if !ok {
		return models.GuidanceBundle{}, false
	}
	return models.GuidanceBundle{
		Precautions: slices.Clone(b.Precautions),
		Dos:         slices.Clone(b.Dos),
		Donts:       slices.Clone(b.Donts),
	}, true
}

// Categories lists the categories that carry guidance, sorted
func (r *Registry) Categories() []models.Category {
	out := make([]models.Category, 0, len(r.bundles))
	for c := range r.bundles {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
