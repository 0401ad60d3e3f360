package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"

	"golang.org/x/sync/errgroup"
)

// StoreKind distinguishes vector from raster stores.
type StoreKind string

const (
	DataStoreKind     StoreKind = "dataStore"
	CoverageStoreKind StoreKind = "coverageStore"
)

// Store is a source of geospatial data inside a workspace.
type Store interface {
	Savable
	Name() string
	Kind() StoreKind
	Workspace() *Workspace
	Fetch(ctx context.Context) error
	// Resources lists the feature types or coverages published from the store.
	Resources(ctx context.Context) ([]Resource, error)
	// Resource fetches one published resource by name.
	Resource(ctx context.Context, name string) (Resource, error)
}

type storeList struct {
	DataStores     []namedRef `xml:"dataStore"`
	CoverageStores []namedRef `xml:"coverageStore"`
}

type dataStoreDoc struct {
	Name                 string     `xml:"name"`
	Type                 *string    `xml:"type"`
	Description          *string    `xml:"description"`
	Enabled              *string    `xml:"enabled"`
	ConnectionParameters []entryDoc `xml:"connectionParameters>entry"`
}

// DataStore holds vector data (shapefiles, PostGIS, ...).
type DataStore struct {
	info
	workspace *Workspace
	name      string
	saved     bool
	doc       dataStoreDoc
}

var dataStoreWriters = []fieldWriter{
	{"name", writeString("name")},
	{"type", writeString("type")},
	{"description", writeString("description")},
	{"enabled", writeBool("enabled")},
	{"connectionParameters", writeEntries("connectionParameters")},
}

func newDataStore(c *Catalog, ws *Workspace, name string) *DataStore {
	return &DataStore{info: newInfo(c), workspace: ws, name: name, saved: true}
}

func (s *DataStore) Name() string          { return s.name }
func (s *DataStore) Kind() StoreKind       { return DataStoreKind }
func (s *DataStore) Workspace() *Workspace { return s.workspace }
func (s *DataStore) String() string        { return s.workspace.name + ":" + s.name }

func (s *DataStore) Message() ([]byte, error) {
	return writeMessage("dataStore", s.dirty, dataStoreWriters)
}

func (s *DataStore) Href() string {
	return s.catalog.url([]string{"workspaces", s.workspace.name, "datastores", s.name + ".xml"}, nil)
}

// FeatureTypesURL lists the feature types configured from the store.
func (s *DataStore) FeatureTypesURL() string {
	return s.catalog.url([]string{"workspaces", s.workspace.name, "datastores", s.name, "featuretypes.xml"}, nil)
}

func (s *DataStore) Fetch(ctx context.Context) error {
	var doc dataStoreDoc
	if err := s.fetchInto(ctx, s.Href(), &doc); err != nil {
		return err
	}
	s.doc = doc
	return nil
}

func (s *DataStore) Type() string {
	return dirtyString(&s.info, "type", textOf(s.doc.Type))
}

func (s *DataStore) SetType(t string) { s.set("type", t) }

func (s *DataStore) Description() string {
	return dirtyString(&s.info, "description", textOf(s.doc.Description))
}

func (s *DataStore) SetDescription(d string) { s.set("description", d) }

func (s *DataStore) Enabled() bool {
	return dirtyBool(&s.info, "enabled", parseBool(s.doc.Enabled, false))
}

func (s *DataStore) SetEnabled(enabled bool) { s.set("enabled", enabled) }

// ConnectionParameters returns a copy of the store's connection parameters.
func (s *DataStore) ConnectionParameters() map[string]string {
	out := make(map[string]string)
	if v, ok := s.dirtyValue("connectionParameters"); ok {
		for k, val := range v.(map[string]string) {
			out[k] = val
		}
		return out
	}
	for _, e := range s.doc.ConnectionParameters {
		out[e.Key] = e.Value
	}
	return out
}

// SetConnectionParameters replaces the whole parameter set.
func (s *DataStore) SetConnectionParameters(params map[string]string) {
	cp := make(map[string]string, len(params))
	for k, v := range params {
		cp[k] = v
	}
	s.set("connectionParameters", cp)
}

func (s *DataStore) saveTarget() (string, string) {
	if s.saved {
		return http.MethodPut, s.Href()
	}
	return http.MethodPost, s.catalog.url(
		[]string{"workspaces", s.workspace.name, "datastores"},
		url.Values{"name": {s.name}},
	)
}

func (s *DataStore) afterSave(ctx context.Context) error {
	s.saved = true
	s.resetDirty()
	return s.Fetch(ctx)
}

func (s *DataStore) Resources(ctx context.Context) ([]Resource, error) {
	var list resourceList
	if err := s.catalog.getXML(ctx, s.FeatureTypesURL(), &list); err != nil {
		return nil, err
	}
	out := make([]Resource, 0, len(list.FeatureTypes))
	for _, ref := range list.FeatureTypes {
		out = append(out, newFeatureType(s.catalog, s, ref.name()))
	}
	return out, nil
}

func (s *DataStore) Resource(ctx context.Context, name string) (Resource, error) {
	ft := newFeatureType(s.catalog, s, name)
	if err := ft.Fetch(ctx); err != nil {
		return nil, err
	}
	return ft, nil
}

type coverageStoreDoc struct {
	Name        string  `xml:"name"`
	Type        *string `xml:"type"`
	Description *string `xml:"description"`
	Enabled     *string `xml:"enabled"`
	URL         *string `xml:"url"`
}

// CoverageStore holds raster data (GeoTIFF, world images, ...).
type CoverageStore struct {
	info
	workspace *Workspace
	name      string
	saved     bool
	doc       coverageStoreDoc
}

var coverageStoreWriters = []fieldWriter{
	{"name", writeString("name")},
	{"type", writeString("type")},
	{"description", writeString("description")},
	{"enabled", writeBool("enabled")},
	{"url", writeString("url")},
	{"workspace", writeString("workspace")},
}

func newCoverageStore(c *Catalog, ws *Workspace, name string) *CoverageStore {
	return &CoverageStore{info: newInfo(c), workspace: ws, name: name, saved: true}
}

func (s *CoverageStore) Name() string          { return s.name }
func (s *CoverageStore) Kind() StoreKind       { return CoverageStoreKind }
func (s *CoverageStore) Workspace() *Workspace { return s.workspace }
func (s *CoverageStore) String() string        { return s.workspace.name + ":" + s.name }

func (s *CoverageStore) Message() ([]byte, error) {
	return writeMessage("coverageStore", s.dirty, coverageStoreWriters)
}

func (s *CoverageStore) Href() string {
	return s.catalog.url([]string{"workspaces", s.workspace.name, "coveragestores", s.name + ".xml"}, nil)
}

// CoveragesURL lists the coverages configured from the store.
func (s *CoverageStore) CoveragesURL() string {
	return s.catalog.url([]string{"workspaces", s.workspace.name, "coveragestores", s.name, "coverages.xml"}, nil)
}

func (s *CoverageStore) Fetch(ctx context.Context) error {
	var doc coverageStoreDoc
	if err := s.fetchInto(ctx, s.Href(), &doc); err != nil {
		return err
	}
	s.doc = doc
	return nil
}

func (s *CoverageStore) Type() string {
	return dirtyString(&s.info, "type", textOf(s.doc.Type))
}

func (s *CoverageStore) SetType(t string) { s.set("type", t) }

func (s *CoverageStore) Description() string {
	return dirtyString(&s.info, "description", textOf(s.doc.Description))
}

func (s *CoverageStore) SetDescription(d string) { s.set("description", d) }

func (s *CoverageStore) Enabled() bool {
	return dirtyBool(&s.info, "enabled", parseBool(s.doc.Enabled, false))
}

func (s *CoverageStore) SetEnabled(enabled bool) { s.set("enabled", enabled) }

// URL is the location of the raster data, e.g. "file:data/world.tif".
func (s *CoverageStore) URL() string {
	return dirtyString(&s.info, "url", textOf(s.doc.URL))
}

func (s *CoverageStore) SetURL(u string) { s.set("url", u) }

func (s *CoverageStore) saveTarget() (string, string) {
	if s.saved {
		return http.MethodPut, s.Href()
	}
	return http.MethodPost, s.catalog.url(
		[]string{"workspaces", s.workspace.name, "coveragestores"},
		url.Values{"name": {s.name}},
	)
}

func (s *CoverageStore) afterSave(ctx context.Context) error {
	s.saved = true
	s.resetDirty()
	return s.Fetch(ctx)
}

func (s *CoverageStore) Resources(ctx context.Context) ([]Resource, error) {
	var list resourceList
	if err := s.catalog.getXML(ctx, s.CoveragesURL(), &list); err != nil {
		return nil, err
	}
	out := make([]Resource, 0, len(list.Coverages))
	for _, ref := range list.Coverages {
		out = append(out, newCoverage(s.catalog, s, ref.name()))
	}
	return out, nil
}

func (s *CoverageStore) Resource(ctx context.Context, name string) (Resource, error) {
	cv := newCoverage(s.catalog, s, name)
	if err := cv.Fetch(ctx); err != nil {
		return nil, err
	}
	return cv, nil
}

// storeFanOut bounds the concurrent per-workspace listings in Stores.
const storeFanOut = 4

// Stores lists data stores followed by coverage stores. With an empty
// workspace every workspace is listed, in server order.
func (c *Catalog) Stores(ctx context.Context, workspace string) ([]Store, error) {
	if workspace != "" {
		ws, err := c.Workspace(ctx, workspace)
		if err != nil {
			return nil, err
		}
		return c.workspaceStores(ctx, ws)
	}

	all, err := c.Workspaces(ctx)
	if err != nil {
		return nil, err
	}
	perWorkspace := make([][]Store, len(all))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(storeFanOut)
	for i, ws := range all {
		g.Go(func() error {
			stores, err := c.workspaceStores(gctx, ws)
			if err != nil {
				return err
			}
			perWorkspace[i] = stores
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []Store
	for _, stores := range perWorkspace {
		out = append(out, stores...)
	}
	return out, nil
}

func (c *Catalog) workspaceStores(ctx context.Context, ws *Workspace) ([]Store, error) {
	var ds, cs storeList
	if err := c.getXML(ctx, ws.DataStoresURL(), &ds); err != nil {
		return nil, err
	}
	if err := c.getXML(ctx, ws.CoverageStoresURL(), &cs); err != nil {
		return nil, err
	}
	out := make([]Store, 0, len(ds.DataStores)+len(cs.CoverageStores))
	for _, ref := range ds.DataStores {
		out = append(out, newDataStore(c, ws, ref.name()))
	}
	for _, ref := range cs.CoverageStores {
		out = append(out, newCoverageStore(c, ws, ref.name()))
	}
	return out, nil
}

// Store finds a store by name. When workspace is empty, or names a
// workspace that does not exist, every workspace is searched and a name
// present in more than one is ambiguous.
func (c *Catalog) Store(ctx context.Context, name, workspace string) (Store, error) {
	var workspaces []*Workspace
	if workspace != "" {
		ws, err := c.Workspace(ctx, workspace)
		switch {
		case err == nil:
			workspaces = append(workspaces, ws)
		case errors.Is(err, ErrNotFound):
			c.logger.DebugContext(ctx, "workspace not found, searching all", "workspace", workspace)
		default:
			return nil, err
		}
	}
	if len(workspaces) == 0 {
		all, err := c.Workspaces(ctx)
		if err != nil {
			return nil, err
		}
		workspaces = all
	}

	found := make(map[string]Store)
	for _, ws := range workspaces {
		stores, err := c.workspaceStores(ctx, ws)
		if err != nil {
			return nil, err
		}
		for _, s := range stores {
			if s.Name() == name {
				found[ws.name+":"+name] = s
				break
			}
		}
	}

	switch len(found) {
	case 0:
		return nil, notFound("store", name)
	case 1:
		for _, s := range found {
			return s, nil
		}
	}
	keys := make([]string, 0, len(found))
	for k := range found {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return nil, &AmbiguousError{Kind: "store", Name: name, Matches: keys}
}

func (c *Catalog) workspaceOrDefault(ctx context.Context, workspace string) (*Workspace, error) {
	if workspace == "" {
		return c.DefaultWorkspace(), nil
	}
	return c.Workspace(ctx, workspace)
}

// CreateDataStore returns an unsaved data store in workspace (the default
// workspace when empty). Configure it and call Save to create it.
func (c *Catalog) CreateDataStore(ctx context.Context, name, workspace string) (*DataStore, error) {
	ws, err := c.workspaceOrDefault(ctx, workspace)
	if err != nil {
		return nil, err
	}
	s := newDataStore(c, ws, name)
	s.saved = false
	s.set("name", name)
	s.set("enabled", true)
	s.set("connectionParameters", map[string]string{})
	return s, nil
}

// CreateCoverageStore returns an unsaved GeoTIFF coverage store in
// workspace (the default workspace when empty).
func (c *Catalog) CreateCoverageStore(ctx context.Context, name, workspace string) (*CoverageStore, error) {
	ws, err := c.workspaceOrDefault(ctx, workspace)
	if err != nil {
		return nil, err
	}
	s := newCoverageStore(c, ws, name)
	s.saved = false
	s.set("name", name)
	s.set("enabled", true)
	s.set("type", "GeoTIFF")
	s.set("url", "file:data/")
	s.set("workspace", ws.name)
	return s, nil
}
