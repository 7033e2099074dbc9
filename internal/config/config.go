// Package config builds a component graph from a YAML composition file.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	component "github.com/hanpama/graphql-component/component"
)

var (
	// ErrUnknownComponent is returned when a name does not refer to a declared component.
	ErrUnknownComponent = errors.New("unknown component")
	// ErrImportCycle is returned when components import each other in a cycle.
	ErrImportCycle = errors.New("import cycle")
)

// File is a composition file.
type File struct {
	// Root names the component operations execute against. Defaults to the
	// last declared component.
	Root              string      `yaml:"root"`
	UseMocks          bool        `yaml:"useMocks"`
	PreserveResolvers bool        `yaml:"preserveResolvers"`
	MaxConcurrency    int         `yaml:"maxConcurrency"`
	Components        []Component `yaml:"components"`

	dir string
}

// Component declares one component.
type Component struct {
	Name string `yaml:"name"`
	// Types are SDL files, relative to the composition file.
	Types []string `yaml:"types"`
	// SDL is inline SDL added after Types.
	SDL     string   `yaml:"sdl"`
	Imports []Import `yaml:"imports"`
	// Fixtures are static field values keyed by "Type.field".
	Fixtures map[string]any `yaml:"fixtures"`
	// Mocks are static mock values keyed by type name.
	Mocks map[string]any `yaml:"mocks"`
}

// Import is an import edge.
type Import struct {
	Component string   `yaml:"component"`
	Exclude   []string `yaml:"exclude"`
}

// Load reads and parses the composition file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// Parse parses a composition file. Type paths resolve against the working
// directory.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Components) == 0 {
		return nil, errors.New("no components declared")
	}
	seen := make(map[string]bool, len(f.Components))
	for _, c := range f.Components {
		if c.Name == "" {
			return nil, errors.New("component without a name")
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("component %s declared twice", c.Name)
		}
		seen[c.Name] = true
	}
	return &f, nil
}

// Build creates every declared component, imports first, and returns them
// by name together with the root. opts are applied to every component.
func (f *File) Build(logger *zap.Logger, opts ...component.Option) (map[string]*component.Component, *component.Component, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	decls := make(map[string]*Component, len(f.Components))
	for i := range f.Components {
		decls[f.Components[i].Name] = &f.Components[i]
	}

	built := make(map[string]*component.Component, len(decls))
	visiting := make(map[string]bool)
	var build func(name string, chain []string) (*component.Component, error)
	build = func(name string, chain []string) (*component.Component, error) {
		if c, ok := built[name]; ok {
			return c, nil
		}
		decl, ok := decls[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, name)
		}
		chain = append(chain, name)
		if visiting[name] {
			return nil, fmt.Errorf("%w: %s", ErrImportCycle, strings.Join(chain, " -> "))
		}
		visiting[name] = true
		defer delete(visiting, name)

		compOpts := []component.Option{
			component.WithName(name),
			component.WithLogger(logger),
			component.WithUseMocks(f.UseMocks),
			component.WithPreserveResolvers(f.PreserveResolvers),
			component.WithMaxConcurrency(f.MaxConcurrency),
		}
		for _, imp := range decl.Imports {
			dep, err := build(imp.Component, chain)
			if err != nil {
				return nil, err
			}
			compOpts = append(compOpts, component.WithImport(dep, imp.Exclude...))
		}
		sdl, err := f.readTypes(decl)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", name, err)
		}
		compOpts = append(compOpts, component.WithTypes(sdl...))
		if len(decl.Fixtures) > 0 {
			resolvers, err := fixtures(decl.Fixtures)
			if err != nil {
				return nil, fmt.Errorf("component %s: %w", name, err)
			}
			compOpts = append(compOpts, component.WithResolvers(resolvers))
		}
		if len(decl.Mocks) > 0 {
			compOpts = append(compOpts, component.WithMocks(staticMocks(decl.Mocks)))
		}

		c, err := component.New(append(compOpts, opts...)...)
		if err != nil {
			return nil, err
		}
		built[name] = c
		return c, nil
	}

	for _, decl := range f.Components {
		if _, err := build(decl.Name, nil); err != nil {
			return nil, nil, err
		}
	}

	root := f.Root
	if root == "" {
		root = f.Components[len(f.Components)-1].Name
	}
	rc, ok := built[root]
	if !ok {
		return nil, nil, fmt.Errorf("root: %w: %s", ErrUnknownComponent, root)
	}
	return built, rc, nil
}

func (f *File) readTypes(decl *Component) ([]string, error) {
	var out []string
	for _, p := range decl.Types {
		if !filepath.IsAbs(p) && f.dir != "" {
			p = filepath.Join(f.dir, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, string(data))
	}
	if strings.TrimSpace(decl.SDL) != "" {
		out = append(out, decl.SDL)
	}
	return out, nil
}

func fixtures(values map[string]any) (component.ResolverMap, error) {
	out := make(component.ResolverMap)
	for key, v := range values {
		typeName, field, ok := strings.Cut(key, ".")
		if !ok || typeName == "" || field == "" {
			return nil, fmt.Errorf("fixture %q: want Type.field", key)
		}
		fields, _ := out[typeName].(component.Fields)
		if fields == nil {
			fields = make(component.Fields)
			out[typeName] = fields
		}
		value := v
		fields[field] = component.ResolverFunc(func(ctx context.Context, p component.ResolveParams) (any, error) {
			return value, nil
		})
	}
	return out, nil
}

func staticMocks(values map[string]any) func(component.MockMap) component.MockMap {
	return func(imported component.MockMap) component.MockMap {
		for typeName, v := range values {
			value := v
			imported[typeName] = func() any {
				if m, ok := value.(map[string]any); ok {
					cp := make(map[string]any, len(m))
					for k, v := range m {
						cp[k] = v
					}
					return cp
				}
				return value
			}
		}
		return imported
	}
}
