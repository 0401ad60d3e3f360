package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Resource is a publishable dataset: a FeatureType from a data store or a
// Coverage from a coverage store.
type Resource interface {
	Savable
	Name() string
	// Store is nil when the resource was loaded by URL and its store could
	// not be recovered.
	Store() Store
	Fetch(ctx context.Context) error

	Title() string
	SetTitle(string)
	Abstract() string
	SetAbstract(string)
	Enabled() bool
	SetEnabled(bool)
	Keywords() []string
	SetKeywords([]string)
	Projection() string
	SetProjection(string)
	ProjectionPolicy() string
	SetProjectionPolicy(string)
	NativeBoundingBox() *BoundingBox
	SetNativeBoundingBox(BoundingBox)
	LatLonBoundingBox() *BoundingBox
	SetLatLonBoundingBox(BoundingBox)
	MetadataLinks() []MetadataLink
	SetMetadataLinks([]MetadataLink)
}

type resourceList struct {
	FeatureTypes []namedRef `xml:"featureType"`
	Coverages    []namedRef `xml:"coverage"`
}

// resourceDoc holds the elements feature types and coverages share.
type resourceDoc struct {
	Name              string         `xml:"name"`
	Title             *string        `xml:"title"`
	Abstract          *string        `xml:"abstract"`
	Enabled           *string        `xml:"enabled"`
	Keywords          []string       `xml:"keywords>string"`
	SRS               *string        `xml:"srs"`
	ProjectionPolicy  *string        `xml:"projectionPolicy"`
	NativeBoundingBox *bboxDoc       `xml:"nativeBoundingBox"`
	LatLonBoundingBox *bboxDoc       `xml:"latLonBoundingBox"`
	MetadataLinks     []MetadataLink `xml:"metadataLinks>metadataLink"`
	Namespace         namedRef       `xml:"namespace"`
	Store             namedRef       `xml:"store"`
}

var resourceWriters = []fieldWriter{
	{"name", writeString("name")},
	{"title", writeString("title")},
	{"abstract", writeString("abstract")},
	{"enabled", writeBool("enabled")},
	{"keywords", writeStringList("keywords", "string")},
	{"srs", writeString("srs")},
	{"projectionPolicy", writeString("projectionPolicy")},
	{"nativeBoundingBox", writeBBox("nativeBoundingBox")},
	{"latLonBoundingBox", writeBBox("latLonBoundingBox")},
	{"metadataLinks", writeMetadataLinks},
}

// resourceCommon implements the accessors shared by FeatureType and
// Coverage. res points into the embedding type's decoded document.
type resourceCommon struct {
	info
	store Store
	name  string
	href  string
	res   *resourceDoc
}

func (r *resourceCommon) Name() string { return r.name }
func (r *resourceCommon) Store() Store { return r.store }

func (r *resourceCommon) String() string {
	if r.store == nil {
		return r.name
	}
	return r.store.Workspace().Name() + ":" + r.name
}

func (r *resourceCommon) Title() string {
	return dirtyString(&r.info, "title", textOf(r.res.Title))
}

func (r *resourceCommon) SetTitle(t string) { r.set("title", t) }

func (r *resourceCommon) Abstract() string {
	return dirtyString(&r.info, "abstract", textOf(r.res.Abstract))
}

func (r *resourceCommon) SetAbstract(a string) { r.set("abstract", a) }

func (r *resourceCommon) Enabled() bool {
	return dirtyBool(&r.info, "enabled", parseBool(r.res.Enabled, false))
}

func (r *resourceCommon) SetEnabled(enabled bool) { r.set("enabled", enabled) }

func (r *resourceCommon) Keywords() []string {
	return dirtyStrings(&r.info, "keywords", append([]string(nil), r.res.Keywords...))
}

func (r *resourceCommon) SetKeywords(k []string) {
	r.set("keywords", append([]string(nil), k...))
}

// Projection is the declared SRS, e.g. "EPSG:4326".
func (r *resourceCommon) Projection() string {
	return dirtyString(&r.info, "srs", textOf(r.res.SRS))
}

func (r *resourceCommon) SetProjection(srs string) { r.set("srs", srs) }

func (r *resourceCommon) ProjectionPolicy() string {
	return dirtyString(&r.info, "projectionPolicy", textOf(r.res.ProjectionPolicy))
}

func (r *resourceCommon) SetProjectionPolicy(p string) { r.set("projectionPolicy", p) }

func (r *resourceCommon) NativeBoundingBox() *BoundingBox {
	return dirtyBBox(&r.info, "nativeBoundingBox", r.res.NativeBoundingBox.box())
}

func (r *resourceCommon) SetNativeBoundingBox(b BoundingBox) {
	r.set("nativeBoundingBox", b)
}

func (r *resourceCommon) LatLonBoundingBox() *BoundingBox {
	return dirtyBBox(&r.info, "latLonBoundingBox", r.res.LatLonBoundingBox.box())
}

func (r *resourceCommon) SetLatLonBoundingBox(b BoundingBox) {
	r.set("latLonBoundingBox", b)
}

func (r *resourceCommon) MetadataLinks() []MetadataLink {
	if v, ok := r.dirtyValue("metadataLinks"); ok {
		return append([]MetadataLink(nil), v.([]MetadataLink)...)
	}
	return append([]MetadataLink(nil), r.res.MetadataLinks...)
}

func (r *resourceCommon) SetMetadataLinks(links []MetadataLink) {
	r.set("metadataLinks", append([]MetadataLink(nil), links...))
}

// Attribute describes one column of a feature type.
type Attribute struct {
	Name      string `xml:"name"`
	MinOccurs int    `xml:"minOccurs"`
	MaxOccurs int    `xml:"maxOccurs"`
	Nillable  bool   `xml:"nillable"`
	Binding   string `xml:"binding"`
}

type featureTypeDoc struct {
	resourceDoc
	Attributes []Attribute `xml:"attributes>attribute"`
}

// FeatureType is a vector resource published from a DataStore.
type FeatureType struct {
	resourceCommon
	doc featureTypeDoc
}

func newFeatureType(c *Catalog, store Store, name string) *FeatureType {
	ft := &FeatureType{}
	ft.resourceCommon = resourceCommon{info: newInfo(c), store: store, name: name}
	ft.res = &ft.doc.resourceDoc
	return ft
}

func (f *FeatureType) Href() string {
	if f.href != "" {
		return f.href
	}
	return f.catalog.url([]string{
		"workspaces", f.store.Workspace().Name(),
		"datastores", f.store.Name(),
		"featuretypes", f.name + ".xml",
	}, nil)
}

func (f *FeatureType) Fetch(ctx context.Context) error {
	var doc featureTypeDoc
	if err := f.fetchInto(ctx, f.Href(), &doc); err != nil {
		return err
	}
	f.doc = doc
	return nil
}

// Attributes is read-only; GeoServer derives it from the underlying data.
func (f *FeatureType) Attributes() []Attribute {
	return append([]Attribute(nil), f.doc.Attributes...)
}

func (f *FeatureType) Message() ([]byte, error) {
	return writeMessage("featureType", f.dirty, resourceWriters)
}

func (f *FeatureType) saveTarget() (string, string) { return http.MethodPut, f.Href() }

func (f *FeatureType) afterSave(ctx context.Context) error {
	f.resetDirty()
	return f.Fetch(ctx)
}

type coverageDoc struct {
	resourceDoc
	RequestSRS       []string `xml:"requestSRS>string"`
	ResponseSRS      []string `xml:"responseSRS>string"`
	SupportedFormats []string `xml:"supportedFormats>string"`
}

var coverageWriters = append(append([]fieldWriter(nil), resourceWriters...),
	fieldWriter{"requestSRS", writeStringList("requestSRS", "string")},
	fieldWriter{"responseSRS", writeStringList("responseSRS", "string")},
	fieldWriter{"supportedFormats", writeStringList("supportedFormats", "string")},
)

// Coverage is a raster resource published from a CoverageStore.
type Coverage struct {
	resourceCommon
	doc coverageDoc
}

func newCoverage(c *Catalog, store Store, name string) *Coverage {
	cv := &Coverage{}
	cv.resourceCommon = resourceCommon{info: newInfo(c), store: store, name: name}
	cv.res = &cv.doc.resourceDoc
	return cv
}

func (c *Coverage) Href() string {
	if c.href != "" {
		return c.href
	}
	return c.catalog.url([]string{
		"workspaces", c.store.Workspace().Name(),
		"coveragestores", c.store.Name(),
		"coverages", c.name + ".xml",
	}, nil)
}

func (c *Coverage) Fetch(ctx context.Context) error {
	var doc coverageDoc
	if err := c.fetchInto(ctx, c.Href(), &doc); err != nil {
		return err
	}
	c.doc = doc
	return nil
}

func (c *Coverage) RequestSRS() []string {
	return dirtyStrings(&c.info, "requestSRS", append([]string(nil), c.doc.RequestSRS...))
}

func (c *Coverage) SetRequestSRS(srs []string) {
	c.set("requestSRS", append([]string(nil), srs...))
}

func (c *Coverage) ResponseSRS() []string {
	return dirtyStrings(&c.info, "responseSRS", append([]string(nil), c.doc.ResponseSRS...))
}

func (c *Coverage) SetResponseSRS(srs []string) {
	c.set("responseSRS", append([]string(nil), srs...))
}

func (c *Coverage) SupportedFormats() []string {
	return dirtyStrings(&c.info, "supportedFormats", append([]string(nil), c.doc.SupportedFormats...))
}

func (c *Coverage) SetSupportedFormats(formats []string) {
	c.set("supportedFormats", append([]string(nil), formats...))
}

func (c *Coverage) Message() ([]byte, error) {
	return writeMessage("coverage", c.dirty, coverageWriters)
}

func (c *Coverage) saveTarget() (string, string) { return http.MethodPut, c.Href() }

func (c *Coverage) afterSave(ctx context.Context) error {
	c.resetDirty()
	return c.Fetch(ctx)
}

// ResourceQuery narrows a resource lookup. Empty fields are unconstrained.
type ResourceQuery struct {
	Store     string
	Workspace string
}

// Resource finds a resource by name. With both a store and a workspace the
// store's resource is fetched directly. With only a store, the store's
// resources must contain exactly one match. Otherwise the stores of the
// workspace (or of every workspace) are searched in order and the first
// match wins.
func (c *Catalog) Resource(ctx context.Context, name string, q ResourceQuery) (Resource, error) {
	if q.Store != "" && q.Workspace != "" {
		store, err := c.Store(ctx, q.Store, q.Workspace)
		if err != nil {
			return nil, err
		}
		return store.Resource(ctx, name)
	}

	if q.Store != "" {
		store, err := c.Store(ctx, q.Store, "")
		if err != nil {
			return nil, err
		}
		all, err := store.Resources(ctx)
		if err != nil {
			return nil, err
		}
		var matches []Resource
		for _, r := range all {
			if r.Name() == name {
				matches = append(matches, r)
			}
		}
		switch len(matches) {
		case 0:
			return nil, notFound("resource", name)
		case 1:
			return matches[0], nil
		default:
			hrefs := make([]string, len(matches))
			for i, r := range matches {
				hrefs[i] = r.Href()
			}
			return nil, &AmbiguousError{Kind: "resource", Name: name, Matches: hrefs}
		}
	}

	stores, err := c.Stores(ctx, q.Workspace)
	if err != nil {
		return nil, err
	}
	for _, s := range stores {
		all, err := s.Resources(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range all {
			if r.Name() == name {
				return r, nil
			}
		}
	}
	return nil, notFound("resource", name)
}

// Resources lists the resources of one store, of every store in a
// workspace, or of the whole catalog.
func (c *Catalog) Resources(ctx context.Context, q ResourceQuery) ([]Resource, error) {
	var stores []Store
	if q.Store != "" {
		s, err := c.Store(ctx, q.Store, q.Workspace)
		if err != nil {
			return nil, err
		}
		stores = []Store{s}
	} else {
		all, err := c.Stores(ctx, q.Workspace)
		if err != nil {
			return nil, err
		}
		stores = all
	}

	var out []Resource
	for _, s := range stores {
		rs, err := s.Resources(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

// ResourceByURL loads the feature type or coverage document at href. The
// root element decides which.
func (c *Catalog) ResourceByURL(ctx context.Context, href string) (Resource, error) {
	var root rootElement
	if err := c.getXML(ctx, href, &root); err != nil {
		return nil, err
	}

	var r Resource
	switch root.XMLName.Local {
	case "featureType":
		ft := newFeatureType(c, c.storeFromHref(href, "datastores"), strings.TrimSpace(root.Name))
		ft.href = href
		r = ft
	case "coverage":
		cv := newCoverage(c, c.storeFromHref(href, "coveragestores"), strings.TrimSpace(root.Name))
		cv.href = href
		r = cv
	default:
		return nil, fmt.Errorf("%s: unexpected resource type %q", href, root.XMLName.Local)
	}
	if err := r.Fetch(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// storeFromHref recovers the store from a
// /workspaces/{ws}/{kind}/{store}/... resource path.
func (c *Catalog) storeFromHref(href, kind string) Store {
	segments := restSegments(c.serviceURL, href)
	for i := 0; i+3 < len(segments); i++ {
		if segments[i] != "workspaces" || segments[i+2] != kind {
			continue
		}
		ws := newWorkspace(c, segments[i+1])
		if kind == "datastores" {
			return newDataStore(c, ws, segments[i+3])
		}
		return newCoverageStore(c, ws, segments[i+3])
	}
	return nil
}
