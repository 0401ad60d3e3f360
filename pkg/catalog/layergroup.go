package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

type layerGroupList struct {
	LayerGroups []namedRef `xml:"layerGroup"`
}

type layerGroupDoc struct {
	Name   string     `xml:"name"`
	Layers []namedRef `xml:"layers>layer"`
	Styles []namedRef `xml:"styles>style"`
	Bounds *bboxDoc   `xml:"bounds"`
}

// WorldBounds is the envelope given to new layer groups when none is set.
var WorldBounds = BoundingBox{MinX: -180, MaxX: 180, MinY: -90, MaxY: 90, CRS: "EPSG:4326"}

// LayerGroup renders several layers as one. Styles pair with layers by
// position; an empty style name means the layer's default.
type LayerGroup struct {
	info
	name  string
	saved bool
	doc   layerGroupDoc
}

var layerGroupWriters = []fieldWriter{
	{"name", writeString("name")},
	{"layers", writeStringList("layers", "layer")},
	{"styles", writeStyleRefs},
	{"bounds", writeBBox("bounds")},
}

func newLayerGroup(c *Catalog, name string) *LayerGroup {
	return &LayerGroup{info: newInfo(c), name: name, saved: true}
}

func (g *LayerGroup) Name() string   { return g.name }
func (g *LayerGroup) String() string { return g.name }

func (g *LayerGroup) Href() string {
	return g.catalog.url([]string{"layergroups", g.name + ".xml"}, nil)
}

func (g *LayerGroup) Fetch(ctx context.Context) error {
	var doc layerGroupDoc
	if err := g.fetchInto(ctx, g.Href(), &doc); err != nil {
		return err
	}
	g.doc = doc
	return nil
}

func (g *LayerGroup) Layers() []string {
	names := make([]string, 0, len(g.doc.Layers))
	for _, ref := range g.doc.Layers {
		names = append(names, ref.name())
	}
	return dirtyStrings(&g.info, "layers", names)
}

func (g *LayerGroup) SetLayers(names ...string) {
	g.set("layers", append([]string{}, names...))
}

func (g *LayerGroup) Styles() []string {
	names := make([]string, 0, len(g.doc.Styles))
	for _, ref := range g.doc.Styles {
		names = append(names, ref.name())
	}
	return dirtyStrings(&g.info, "styles", names)
}

func (g *LayerGroup) SetStyles(names ...string) {
	g.set("styles", append([]string{}, names...))
}

func (g *LayerGroup) Bounds() *BoundingBox {
	return dirtyBBox(&g.info, "bounds", g.doc.Bounds.box())
}

func (g *LayerGroup) SetBounds(b BoundingBox) { g.set("bounds", b) }

func (g *LayerGroup) Message() ([]byte, error) {
	return writeMessage("layerGroup", g.dirty, layerGroupWriters)
}

func (g *LayerGroup) saveTarget() (string, string) {
	if g.saved {
		return http.MethodPut, g.Href()
	}
	return http.MethodPost, g.catalog.url([]string{"layergroups"}, url.Values{"name": {g.name}})
}

func (g *LayerGroup) afterSave(ctx context.Context) error {
	g.saved = true
	g.resetDirty()
	return g.Fetch(ctx)
}

// LayerGroup fetches a layer group by name.
func (c *Catalog) LayerGroup(ctx context.Context, name string) (*LayerGroup, error) {
	g := newLayerGroup(c, name)
	if err := g.Fetch(ctx); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound("layer group", name)
		}
		return nil, err
	}
	return g, nil
}

func (c *Catalog) LayerGroups(ctx context.Context) ([]*LayerGroup, error) {
	var list layerGroupList
	if err := c.getXML(ctx, c.url([]string{"layergroups.xml"}, nil), &list); err != nil {
		return nil, err
	}
	out := make([]*LayerGroup, 0, len(list.LayerGroups))
	for _, ref := range list.LayerGroups {
		out = append(out, newLayerGroup(c, ref.name()))
	}
	return out, nil
}

// CreateLayerGroup returns an unsaved layer group. Missing styles are
// padded with layer defaults and a nil bounds becomes WorldBounds.
func (c *Catalog) CreateLayerGroup(ctx context.Context, name string, layers, styles []string, bounds *BoundingBox) (*LayerGroup, error) {
	existing, err := c.LayerGroups(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range existing {
		if g.name == name {
			return nil, conflict("layer group named %s already exists", name)
		}
	}

	padded := make([]string, len(layers))
	copy(padded, styles)
	box := WorldBounds
	if bounds != nil {
		box = *bounds
	}

	g := newLayerGroup(c, name)
	g.saved = false
	g.set("name", name)
	g.set("layers", append([]string{}, layers...))
	g.set("styles", padded)
	g.set("bounds", box)
	return g, nil
}
