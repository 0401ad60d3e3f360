package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
)

type layerList struct {
	Layers []namedRef `xml:"layer"`
}

type attributionDoc struct {
	Title      *string `xml:"title"`
	LogoWidth  *string `xml:"logoWidth"`
	LogoHeight *string `xml:"logoHeight"`
}

type layerDoc struct {
	Name         string          `xml:"name"`
	Type         *string         `xml:"type"`
	DefaultStyle *namedRef       `xml:"defaultStyle"`
	Styles       []namedRef      `xml:"styles>style"`
	Resource     *namedRef       `xml:"resource"`
	Enabled      *string         `xml:"enabled"`
	Advertised   *string         `xml:"advertised"`
	Attribution  *attributionDoc `xml:"attribution"`
}

// Attribution credits the data provider in capabilities documents. Zero
// logo dimensions are omitted.
type Attribution struct {
	Title      string
	LogoWidth  int
	LogoHeight int
}

// Layer publishes a resource with a default style and optional alternates.
type Layer struct {
	info
	name string
	doc  layerDoc
}

var layerWriters = []fieldWriter{
	{"attribution", writeAttribution},
	{"enabled", writeBool("enabled")},
	{"advertised", writeBool("advertised")},
	{"defaultStyle", writeNested("defaultStyle")},
	{"styles", writeStyleRefs},
}

func writeAttribution(b *builder, v any) {
	a := v.(Attribution)
	b.start("attribution")
	if a.Title != "" {
		b.element("title", a.Title)
	}
	if a.LogoWidth != 0 {
		b.element("logoWidth", strconv.Itoa(a.LogoWidth))
	}
	if a.LogoHeight != 0 {
		b.element("logoHeight", strconv.Itoa(a.LogoHeight))
	}
	b.end("attribution")
}

// writeStyleRefs renders <styles><style><name>..</name></style>...</styles>.
func writeStyleRefs(b *builder, v any) {
	b.start("styles")
	for _, name := range v.([]string) {
		writeNested("style")(b, name)
	}
	b.end("styles")
}

func newLayer(c *Catalog, name string) *Layer {
	return &Layer{info: newInfo(c), name: name}
}

func (l *Layer) Name() string   { return l.name }
func (l *Layer) String() string { return l.name }

func (l *Layer) Href() string {
	return l.catalog.url([]string{"layers", l.name + ".xml"}, nil)
}

func (l *Layer) Fetch(ctx context.Context) error {
	var doc layerDoc
	if err := l.fetchInto(ctx, l.Href(), &doc); err != nil {
		return err
	}
	l.doc = doc
	return nil
}

// Type is VECTOR, RASTER or another GeoServer layer type.
func (l *Layer) Type() string { return textOf(l.doc.Type) }

func (l *Layer) Enabled() bool {
	return dirtyBool(&l.info, "enabled", parseBool(l.doc.Enabled, false))
}

func (l *Layer) SetEnabled(enabled bool) { l.set("enabled", enabled) }

// Advertised defaults to true when the server omits it.
func (l *Layer) Advertised() bool {
	return dirtyBool(&l.info, "advertised", parseBool(l.doc.Advertised, true))
}

func (l *Layer) SetAdvertised(advertised bool) { l.set("advertised", advertised) }

func (l *Layer) Attribution() Attribution {
	if v, ok := l.dirtyValue("attribution"); ok {
		return v.(Attribution)
	}
	var a Attribution
	if d := l.doc.Attribution; d != nil {
		a.Title = textOf(d.Title)
		a.LogoWidth, _ = strconv.Atoi(textOf(d.LogoWidth))
		a.LogoHeight, _ = strconv.Atoi(textOf(d.LogoHeight))
	}
	return a
}

func (l *Layer) SetAttribution(a Attribution) { l.set("attribution", a) }

// SetAttributionText changes the title and keeps the logo dimensions.
func (l *Layer) SetAttributionText(title string) {
	a := l.Attribution()
	a.Title = title
	l.set("attribution", a)
}

// DefaultStyleName returns the default style's name without resolving it.
func (l *Layer) DefaultStyleName() string {
	if v, ok := l.dirtyValue("defaultStyle"); ok {
		return v.(string)
	}
	if l.doc.DefaultStyle == nil {
		return ""
	}
	return l.doc.DefaultStyle.name()
}

// SetDefaultStyle sets the default style by name; "" clears it.
func (l *Layer) SetDefaultStyle(name string) { l.set("defaultStyle", name) }

// DefaultStyle resolves the default style. Styles outside the global
// namespace are loaded through the reference's link. A layer without a
// default style yields nil.
func (l *Layer) DefaultStyle(ctx context.Context) (*Style, error) {
	if v, ok := l.dirtyValue("defaultStyle"); ok {
		if v.(string) == "" {
			return nil, nil
		}
		return l.catalog.styleByRef(ctx, v.(string))
	}
	if l.doc.DefaultStyle == nil || l.doc.DefaultStyle.name() == "" {
		return nil, nil
	}
	return l.catalog.resolveStyle(ctx, *l.doc.DefaultStyle)
}

// StyleNames returns the alternate style names without resolving them.
func (l *Layer) StyleNames() []string {
	if v, ok := l.dirtyValue("styles"); ok {
		return append([]string(nil), v.([]string)...)
	}
	names := make([]string, 0, len(l.doc.Styles))
	for _, ref := range l.doc.Styles {
		names = append(names, ref.name())
	}
	return names
}

// Styles resolves the alternate styles.
func (l *Layer) Styles(ctx context.Context) ([]*Style, error) {
	if v, ok := l.dirtyValue("styles"); ok {
		var out []*Style
		for _, name := range v.([]string) {
			s, err := l.catalog.styleByRef(ctx, name)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	out := make([]*Style, 0, len(l.doc.Styles))
	for _, ref := range l.doc.Styles {
		s, err := l.catalog.resolveStyle(ctx, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// SetStyles replaces the alternate styles.
func (l *Layer) SetStyles(names ...string) {
	l.set("styles", append([]string{}, names...))
}

// Resource loads the published resource.
func (l *Layer) Resource(ctx context.Context) (Resource, error) {
	if l.doc.Resource == nil {
		return nil, notFound("resource for layer", l.name)
	}
	if href := l.doc.Resource.Link.Href; href != "" {
		return l.catalog.ResourceByURL(ctx, href)
	}
	return l.catalog.Resource(ctx, l.doc.Resource.name(), ResourceQuery{})
}

// ResourceHref is the link to the published resource, "" if unknown.
func (l *Layer) ResourceHref() string {
	if l.doc.Resource == nil {
		return ""
	}
	return l.doc.Resource.Link.Href
}

func (l *Layer) Message() ([]byte, error) {
	return writeMessage("layer", l.dirty, layerWriters)
}

func (l *Layer) saveTarget() (string, string) { return http.MethodPut, l.Href() }

func (l *Layer) afterSave(ctx context.Context) error {
	l.resetDirty()
	return l.Fetch(ctx)
}

// Layer fetches a layer by name.
func (c *Catalog) Layer(ctx context.Context, name string) (*Layer, error) {
	l := newLayer(c, name)
	if err := l.Fetch(ctx); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound("layer", name)
		}
		return nil, err
	}
	return l, nil
}

// Layers lists every layer, or only those publishing resource when it is
// not nil.
func (c *Catalog) Layers(ctx context.Context, resource Resource) ([]*Layer, error) {
	var list layerList
	if err := c.getXML(ctx, c.url([]string{"layers.xml"}, nil), &list); err != nil {
		return nil, err
	}
	out := make([]*Layer, 0, len(list.Layers))
	for _, ref := range list.Layers {
		l := newLayer(c, ref.name())
		if resource != nil {
			if err := l.Fetch(ctx); err != nil {
				return nil, err
			}
			if !sameHref(l.ResourceHref(), resource.Href()) {
				continue
			}
		}
		out = append(out, l)
	}
	return out, nil
}
