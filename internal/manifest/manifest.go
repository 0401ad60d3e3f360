// Package manifest parses catalog manifests and applies them to a
// GeoServer catalog.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/gsconfig-go/gsconfig/pkg/catalog"
)

// Workspace declares a workspace and its namespace URI.
type Workspace struct {
	Name    string `yaml:"name"`
	URI     string `yaml:"uri"`
	Default bool   `yaml:"default"`
}

// Style declares an SLD style. File is resolved relative to the manifest.
type Style struct {
	Name      string `yaml:"name"`
	File      string `yaml:"file"`
	Workspace string `yaml:"workspace"`
	Overwrite bool   `yaml:"overwrite"`
}

// Bounds is a layer group extent.
type Bounds struct {
	MinX float64 `yaml:"minx"`
	MaxX float64 `yaml:"maxx"`
	MinY float64 `yaml:"miny"`
	MaxY float64 `yaml:"maxy"`
	CRS  string  `yaml:"crs"`
}

// LayerGroup declares a layer group.
type LayerGroup struct {
	Name   string   `yaml:"name"`
	Layers []string `yaml:"layers"`
	Styles []string `yaml:"styles"`
	Bounds *Bounds  `yaml:"bounds"`
}

// Manifest represents a parsed catalog manifest.
type Manifest struct {
	Workspaces  []Workspace  `yaml:"workspaces"`
	Styles      []Style      `yaml:"styles"`
	LayerGroups []LayerGroup `yaml:"layergroups"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expanding %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	if len(m.Workspaces) == 0 && len(m.Styles) == 0 && len(m.LayerGroups) == 0 {
		return nil, fmt.Errorf("manifest declares nothing")
	}
	for i, ws := range m.Workspaces {
		if ws.Name == "" {
			return nil, fmt.Errorf("workspace %d: name is required", i)
		}
		if ws.URI == "" {
			m.Workspaces[i].URI = "http://" + ws.Name
		}
	}
	base := filepath.Dir(path)
	for i, s := range m.Styles {
		if s.Name == "" {
			return nil, fmt.Errorf("style %d: name is required", i)
		}
		if s.File == "" {
			return nil, fmt.Errorf("style %q: file is required", s.Name)
		}
		file, err := homedir.Expand(s.File)
		if err != nil {
			return nil, fmt.Errorf("style %q: %w", s.Name, err)
		}
		if !filepath.IsAbs(file) {
			file = filepath.Join(base, file)
		}
		m.Styles[i].File = file
	}
	for i, g := range m.LayerGroups {
		if g.Name == "" {
			return nil, fmt.Errorf("layer group %d: name is required", i)
		}
		if len(g.Layers) == 0 {
			return nil, fmt.Errorf("layer group %q: at least one layer is required", g.Name)
		}
		if len(g.Styles) > len(g.Layers) {
			return nil, fmt.Errorf("layer group %q: more styles than layers", g.Name)
		}
	}
	return &m, nil
}

// Action is what Apply did with one manifest item.
type Action string

const (
	Created Action = "created"
	Updated Action = "updated"
	Exists  Action = "exists"
	Failed  Action = "failed"
)

// Outcome reports one manifest item.
type Outcome struct {
	Kind   string
	Name   string
	Action Action
	Err    error
}

// Apply creates whatever the manifest declares and the catalog lacks.
// Items are applied in order (workspaces, styles, layer groups); a failing
// item does not stop the rest. The returned error aggregates every failure.
func Apply(ctx context.Context, c *catalog.Catalog, m *Manifest) ([]Outcome, error) {
	var outcomes []Outcome
	var result *multierror.Error
	record := func(kind, name string, action Action, err error) {
		if err != nil {
			action = Failed
			result = multierror.Append(result, fmt.Errorf("%s %s: %w", kind, name, err))
		}
		outcomes = append(outcomes, Outcome{Kind: kind, Name: name, Action: action, Err: err})
	}

	for _, ws := range m.Workspaces {
		action, err := applyWorkspace(ctx, c, ws)
		record("workspace", ws.Name, action, err)
	}
	for _, s := range m.Styles {
		action, err := applyStyle(ctx, c, s)
		name := s.Name
		if s.Workspace != "" {
			name = s.Workspace + ":" + s.Name
		}
		record("style", name, action, err)
	}
	for _, g := range m.LayerGroups {
		action, err := applyLayerGroup(ctx, c, g)
		record("layergroup", g.Name, action, err)
	}
	return outcomes, result.ErrorOrNil()
}

func applyWorkspace(ctx context.Context, c *catalog.Catalog, ws Workspace) (Action, error) {
	action := Exists
	_, err := c.Workspace(ctx, ws.Name)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		if _, err := c.CreateWorkspace(ctx, ws.Name, ws.URI); err != nil {
			return Failed, err
		}
		action = Created
	case err != nil:
		return Failed, err
	}
	if ws.Default {
		if err := c.SetDefaultWorkspace(ctx, ws.Name); err != nil {
			return Failed, fmt.Errorf("setting default: %w", err)
		}
	}
	return action, nil
}

func applyStyle(ctx context.Context, c *catalog.Catalog, s Style) (Action, error) {
	sld, err := os.ReadFile(s.File)
	if err != nil {
		return Failed, fmt.Errorf("reading sld: %w", err)
	}
	opts := catalog.StyleOptions{Workspace: s.Workspace}
	_, err = c.CreateStyle(ctx, s.Name, sld, opts)
	switch {
	case err == nil:
		return Created, nil
	case !errors.Is(err, catalog.ErrConflict):
		return Failed, err
	case !s.Overwrite:
		return Exists, nil
	}
	opts.Overwrite = true
	if _, err := c.CreateStyle(ctx, s.Name, sld, opts); err != nil {
		return Failed, err
	}
	return Updated, nil
}

func applyLayerGroup(ctx context.Context, c *catalog.Catalog, g LayerGroup) (Action, error) {
	var bounds *catalog.BoundingBox
	if b := g.Bounds; b != nil {
		crs := b.CRS
		if crs == "" {
			crs = catalog.WorldBounds.CRS
		}
		bounds = &catalog.BoundingBox{MinX: b.MinX, MaxX: b.MaxX, MinY: b.MinY, MaxY: b.MaxY, CRS: crs}
	}
	group, err := c.CreateLayerGroup(ctx, g.Name, g.Layers, g.Styles, bounds)
	switch {
	case errors.Is(err, catalog.ErrConflict):
		return Exists, nil
	case err != nil:
		return Failed, err
	}
	if err := c.Save(ctx, group); err != nil {
		return Failed, err
	}
	return Created, nil
}
