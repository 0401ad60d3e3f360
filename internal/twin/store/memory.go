package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	pkgstore "github.com/gsconfig-go/gsconfig/pkg/store"
)

var (
	// ErrNotFound maps to 404.
	ErrNotFound = errors.New("not found")
	// ErrExists maps to 500, which is what GeoServer answers duplicate creates with.
	ErrExists = errors.New("already exists")
	// ErrNotEmpty maps to 403: the object still has dependents and recurse was not set.
	ErrNotEmpty = errors.New("has dependent objects")
	// ErrInvalid maps to 400.
	ErrInvalid = errors.New("invalid request")
)

// DefaultWorkspaceAlias is the name GeoServer resolves to the default workspace.
const DefaultWorkspaceAlias = "default"

// MemoryStore holds the twin's catalog. Collections are individually
// thread-safe; mu serialises operations that span several of them.
type MemoryStore struct {
	mu sync.Mutex

	Workspaces     *pkgstore.Store[Workspace]
	DataStores     *pkgstore.Store[DataStore]
	CoverageStores *pkgstore.Store[CoverageStore]
	FeatureTypes   *pkgstore.Store[Resource]
	Coverages      *pkgstore.Store[Resource]
	Layers         *pkgstore.Store[Layer]
	Styles         *pkgstore.Store[Style]
	LayerGroups    *pkgstore.Store[LayerGroup]

	defaultWorkspace string
}

// New creates a MemoryStore holding only the built-in styles.
func New() *MemoryStore {
	s := &MemoryStore{
		Workspaces:     pkgstore.New[Workspace](),
		DataStores:     pkgstore.New[DataStore](),
		CoverageStores: pkgstore.New[CoverageStore](),
		FeatureTypes:   pkgstore.New[Resource](),
		Coverages:      pkgstore.New[Resource](),
		Layers:         pkgstore.New[Layer](),
		Styles:         pkgstore.New[Style](),
		LayerGroups:    pkgstore.New[LayerGroup](),
	}
	s.seedStyles()
	return s
}

func (s *MemoryStore) seedStyles() {
	for _, st := range builtinStyles() {
		s.Styles.Set(styleKey("", st.Name), st)
	}
}

func styleKey(ws, name string) string { return pkgstore.Key(ws, name) }

func (s *MemoryStore) resources(kind ResourceKind) *pkgstore.Store[Resource] {
	if kind == CoverageKind {
		return s.Coverages
	}
	return s.FeatureTypes
}

// stateSnapshot is the JSON-serializable state for admin endpoints.
type stateSnapshot struct {
	DefaultWorkspace string                          `json:"default_workspace"`
	Workspaces       []pkgstore.Entry[Workspace]     `json:"workspaces"`
	DataStores       []pkgstore.Entry[DataStore]     `json:"datastores"`
	CoverageStores   []pkgstore.Entry[CoverageStore] `json:"coveragestores"`
	FeatureTypes     []pkgstore.Entry[Resource]      `json:"featuretypes"`
	Coverages        []pkgstore.Entry[Resource]      `json:"coverages"`
	Layers           []pkgstore.Entry[Layer]         `json:"layers"`
	Styles           []pkgstore.Entry[Style]         `json:"styles"`
	LayerGroups      []pkgstore.Entry[LayerGroup]    `json:"layergroups"`
}

// Snapshot returns the full state as a JSON-serializable value.
func (s *MemoryStore) Snapshot() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stateSnapshot{
		DefaultWorkspace: s.defaultWorkspace,
		Workspaces:       s.Workspaces.Snapshot(),
		DataStores:       s.DataStores.Snapshot(),
		CoverageStores:   s.CoverageStores.Snapshot(),
		FeatureTypes:     s.FeatureTypes.Snapshot(),
		Coverages:        s.Coverages.Snapshot(),
		Layers:           s.Layers.Snapshot(),
		Styles:           s.Styles.Snapshot(),
		LayerGroups:      s.LayerGroups.Snapshot(),
	}
}

// LoadState replaces the full state from a JSON body. A snapshot without
// styles keeps the built-in ones.
func (s *MemoryStore) LoadState(data []byte) error {
	var snap stateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultWorkspace = snap.DefaultWorkspace
	s.Workspaces.LoadSnapshot(snap.Workspaces)
	s.DataStores.LoadSnapshot(snap.DataStores)
	s.CoverageStores.LoadSnapshot(snap.CoverageStores)
	s.FeatureTypes.LoadSnapshot(snap.FeatureTypes)
	s.Coverages.LoadSnapshot(snap.Coverages)
	s.Layers.LoadSnapshot(snap.Layers)
	s.LayerGroups.LoadSnapshot(snap.LayerGroups)
	if len(snap.Styles) == 0 {
		s.Styles.Reset()
		s.seedStyles()
	} else {
		s.Styles.LoadSnapshot(snap.Styles)
	}
	if s.defaultWorkspace == "" {
		if keys := s.Workspaces.Keys(); len(keys) > 0 {
			s.defaultWorkspace = keys[0]
		}
	}
	return nil
}

// Reset restores the initial catalog.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Workspaces.Reset()
	s.DataStores.Reset()
	s.CoverageStores.Reset()
	s.FeatureTypes.Reset()
	s.Coverages.Reset()
	s.Layers.Reset()
	s.Styles.Reset()
	s.LayerGroups.Reset()
	s.defaultWorkspace = ""
	s.seedStyles()
}

// ---------------------------------------------------------------------------
// Workspaces
// ---------------------------------------------------------------------------

// ResolveWorkspace maps the "default" alias onto the default workspace.
func (s *MemoryStore) ResolveWorkspace(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(name)
}

func (s *MemoryStore) resolveLocked(name string) string {
	if name == DefaultWorkspaceAlias && s.defaultWorkspace != "" && !s.Workspaces.Has(DefaultWorkspaceAlias) {
		return s.defaultWorkspace
	}
	return name
}

func (s *MemoryStore) Workspace(name string) (Workspace, error) {
	ws, ok := s.Workspaces.Get(s.ResolveWorkspace(name))
	if !ok {
		return Workspace{}, fmt.Errorf("no such workspace: %s: %w", name, ErrNotFound)
	}
	return ws, nil
}

func (s *MemoryStore) DefaultWorkspace() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaultWorkspace
}

// CreateWorkspace adds a workspace. The first workspace becomes the default.
func (s *MemoryStore) CreateWorkspace(ws Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ws.Name == "" {
		return fmt.Errorf("workspace name is required: %w", ErrInvalid)
	}
	if s.Workspaces.Has(ws.Name) {
		return fmt.Errorf("workspace named '%s' already exists: %w", ws.Name, ErrExists)
	}
	s.Workspaces.Set(ws.Name, ws)
	if s.defaultWorkspace == "" {
		s.defaultWorkspace = ws.Name
	}
	return nil
}

func (s *MemoryStore) UpdateWorkspace(name string, fn func(Workspace) Workspace) error {
	if !s.Workspaces.Update(s.ResolveWorkspace(name), fn) {
		return fmt.Errorf("no such workspace: %s: %w", name, ErrNotFound)
	}
	return nil
}

func (s *MemoryStore) SetDefaultWorkspace(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Workspaces.Has(name) {
		return fmt.Errorf("no such workspace: %s: %w", name, ErrNotFound)
	}
	s.defaultWorkspace = name
	return nil
}

// DeleteWorkspace removes a workspace. Stores and styles inside it make the
// delete fail unless recurse is set, in which case they go too.
func (s *MemoryStore) DeleteWorkspace(name string, recurse bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = s.resolveLocked(name)
	if !s.Workspaces.Has(name) {
		return fmt.Errorf("no such workspace: %s: %w", name, ErrNotFound)
	}

	inWS := func(ws string) bool { return ws == name }
	hasContent := s.DataStores.Any(func(_ string, d DataStore) bool { return inWS(d.Workspace) }) ||
		s.CoverageStores.Any(func(_ string, c CoverageStore) bool { return inWS(c.Workspace) }) ||
		s.Styles.Any(func(_ string, st Style) bool { return inWS(st.Workspace) })
	if hasContent && !recurse {
		return fmt.Errorf("workspace %s is not empty: %w", name, ErrNotEmpty)
	}

	for _, d := range s.DataStores.Filter(func(_ string, d DataStore) bool { return inWS(d.Workspace) }) {
		s.deleteStoreLocked(FeatureTypeKind, d.Workspace, d.Name)
	}
	for _, c := range s.CoverageStores.Filter(func(_ string, c CoverageStore) bool { return inWS(c.Workspace) }) {
		s.deleteStoreLocked(CoverageKind, c.Workspace, c.Name)
	}
	for _, st := range s.Styles.Filter(func(_ string, st Style) bool { return inWS(st.Workspace) }) {
		s.unlinkStyleLocked(StyleRef{Workspace: st.Workspace, Name: st.Name})
	}
	s.Styles.DeleteFunc(func(_ string, st Style) bool { return inWS(st.Workspace) })
	s.Workspaces.Delete(name)

	if s.defaultWorkspace == name {
		s.defaultWorkspace = ""
		if keys := s.Workspaces.Keys(); len(keys) > 0 {
			s.defaultWorkspace = keys[0]
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Stores
// ---------------------------------------------------------------------------

func (s *MemoryStore) storeNameTaken(ws, name string) bool {
	key := pkgstore.Key(ws, name)
	return s.DataStores.Has(key) || s.CoverageStores.Has(key)
}

func (s *MemoryStore) requireWorkspaceLocked(name string) (string, error) {
	name = s.resolveLocked(name)
	if !s.Workspaces.Has(name) {
		return "", fmt.Errorf("no such workspace: %s: %w", name, ErrNotFound)
	}
	return name, nil
}

func (s *MemoryStore) DataStore(ws, name string) (DataStore, error) {
	d, ok := s.DataStores.Get(pkgstore.Key(s.ResolveWorkspace(ws), name))
	if !ok {
		return DataStore{}, fmt.Errorf("no such datastore: %s,%s: %w", ws, name, ErrNotFound)
	}
	return d, nil
}

func (s *MemoryStore) ListDataStores(ws string) ([]DataStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.requireWorkspaceLocked(ws)
	if err != nil {
		return nil, err
	}
	return s.DataStores.Filter(func(_ string, d DataStore) bool { return d.Workspace == ws }), nil
}

func (s *MemoryStore) CreateDataStore(d DataStore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.requireWorkspaceLocked(d.Workspace)
	if err != nil {
		return err
	}
	if d.Name == "" {
		return fmt.Errorf("store name is required: %w", ErrInvalid)
	}
	if s.storeNameTaken(ws, d.Name) {
		return fmt.Errorf("store '%s' already exists in workspace '%s': %w", d.Name, ws, ErrExists)
	}
	d.Workspace = ws
	s.DataStores.Set(pkgstore.Key(ws, d.Name), d)
	return nil
}

func (s *MemoryStore) UpdateDataStore(ws, name string, fn func(DataStore) DataStore) error {
	if !s.DataStores.Update(pkgstore.Key(s.ResolveWorkspace(ws), name), fn) {
		return fmt.Errorf("no such datastore: %s,%s: %w", ws, name, ErrNotFound)
	}
	return nil
}

func (s *MemoryStore) CoverageStore(ws, name string) (CoverageStore, error) {
	c, ok := s.CoverageStores.Get(pkgstore.Key(s.ResolveWorkspace(ws), name))
	if !ok {
		return CoverageStore{}, fmt.Errorf("no such coverage store: %s,%s: %w", ws, name, ErrNotFound)
	}
	return c, nil
}

func (s *MemoryStore) ListCoverageStores(ws string) ([]CoverageStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.requireWorkspaceLocked(ws)
	if err != nil {
		return nil, err
	}
	return s.CoverageStores.Filter(func(_ string, c CoverageStore) bool { return c.Workspace == ws }), nil
}

func (s *MemoryStore) CreateCoverageStore(c CoverageStore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.requireWorkspaceLocked(c.Workspace)
	if err != nil {
		return err
	}
	if c.Name == "" {
		return fmt.Errorf("store name is required: %w", ErrInvalid)
	}
	if s.storeNameTaken(ws, c.Name) {
		return fmt.Errorf("store '%s' already exists in workspace '%s': %w", c.Name, ws, ErrExists)
	}
	c.Workspace = ws
	s.CoverageStores.Set(pkgstore.Key(ws, c.Name), c)
	return nil
}

func (s *MemoryStore) UpdateCoverageStore(ws, name string, fn func(CoverageStore) CoverageStore) error {
	if !s.CoverageStores.Update(pkgstore.Key(s.ResolveWorkspace(ws), name), fn) {
		return fmt.Errorf("no such coverage store: %s,%s: %w", ws, name, ErrNotFound)
	}
	return nil
}

// DeleteStore removes a data store (FeatureTypeKind) or coverage store
// (CoverageKind). Configured resources block the delete unless recurse is set.
func (s *MemoryStore) DeleteStore(kind ResourceKind, ws, name string, recurse bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws = s.resolveLocked(ws)
	key := pkgstore.Key(ws, name)
	exists := s.DataStores.Has(key)
	if kind == CoverageKind {
		exists = s.CoverageStores.Has(key)
	}
	if !exists {
		return fmt.Errorf("no such store: %s,%s: %w", ws, name, ErrNotFound)
	}
	if !recurse && s.resources(kind).Any(func(_ string, r Resource) bool {
		return r.Workspace == ws && r.Store == name
	}) {
		return fmt.Errorf("store %s:%s has resources: %w", ws, name, ErrNotEmpty)
	}
	s.deleteStoreLocked(kind, ws, name)
	return nil
}

func (s *MemoryStore) deleteStoreLocked(kind ResourceKind, ws, name string) {
	for _, r := range s.resources(kind).Filter(func(_ string, r Resource) bool {
		return r.Workspace == ws && r.Store == name
	}) {
		s.deleteResourceLocked(kind, ws, name, r.Name)
	}
	if kind == CoverageKind {
		s.CoverageStores.Delete(pkgstore.Key(ws, name))
	} else {
		s.DataStores.Delete(pkgstore.Key(ws, name))
	}
}

// ---------------------------------------------------------------------------
// Resources
// ---------------------------------------------------------------------------

func (s *MemoryStore) Resource(kind ResourceKind, ws, store, name string) (Resource, error) {
	r, ok := s.resources(kind).Get(pkgstore.Key(s.ResolveWorkspace(ws), store, name))
	if !ok {
		return Resource{}, fmt.Errorf("no such %s: %s:%s: %w", kind, store, name, ErrNotFound)
	}
	return r, nil
}

// ListResources lists the resources of one store; the store must exist.
func (s *MemoryStore) ListResources(kind ResourceKind, ws, store string) ([]Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws = s.resolveLocked(ws)
	key := pkgstore.Key(ws, store)
	if (kind == FeatureTypeKind && !s.DataStores.Has(key)) || (kind == CoverageKind && !s.CoverageStores.Has(key)) {
		return nil, fmt.Errorf("no such store: %s,%s: %w", ws, store, ErrNotFound)
	}
	return s.resources(kind).Filter(func(_ string, r Resource) bool {
		return r.Workspace == ws && r.Store == store
	}), nil
}

func (s *MemoryStore) UpdateResource(kind ResourceKind, ws, store, name string, fn func(Resource) Resource) error {
	if !s.resources(kind).Update(pkgstore.Key(s.ResolveWorkspace(ws), store, name), fn) {
		return fmt.Errorf("no such %s: %s:%s: %w", kind, store, name, ErrNotFound)
	}
	return nil
}

// DeleteResource removes a resource. Its layer blocks the delete unless
// recurse is set.
func (s *MemoryStore) DeleteResource(kind ResourceKind, ws, store, name string, recurse bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws = s.resolveLocked(ws)
	if !s.resources(kind).Has(pkgstore.Key(ws, store, name)) {
		return fmt.Errorf("no such %s: %s:%s: %w", kind, store, name, ErrNotFound)
	}
	ref := ResourceRef{Kind: kind, Workspace: ws, Store: store, Name: name}
	if !recurse && s.Layers.Any(func(_ string, l Layer) bool { return l.Resource == ref }) {
		return fmt.Errorf("%s %s is published by a layer: %w", kind, name, ErrNotEmpty)
	}
	s.deleteResourceLocked(kind, ws, store, name)
	return nil
}

func (s *MemoryStore) deleteResourceLocked(kind ResourceKind, ws, store, name string) {
	ref := ResourceRef{Kind: kind, Workspace: ws, Store: store, Name: name}
	for _, l := range s.Layers.Filter(func(_ string, l Layer) bool { return l.Resource == ref }) {
		s.deleteLayerLocked(l.Name)
	}
	s.resources(kind).Delete(pkgstore.Key(ws, store, name))
}

// Publish stores a resource together with a layer of the same name. An
// existing resource is overwritten and keeps its layer.
func (s *MemoryStore) Publish(r Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked(r)
}

func (s *MemoryStore) publishLocked(r Resource) {
	s.resources(r.Kind).Set(pkgstore.Key(r.Workspace, r.Store, r.Name), r)
	if s.Layers.Has(r.Name) {
		return
	}
	layerType, style := "VECTOR", "polygon"
	if r.Kind == CoverageKind {
		layerType, style = "RASTER", "raster"
	}
	s.Layers.Set(r.Name, Layer{
		Name:         r.Name,
		Type:         layerType,
		Resource:     ResourceRef{Kind: r.Kind, Workspace: r.Workspace, Store: r.Store, Name: r.Name},
		DefaultStyle: StyleRef{Name: style},
		Enabled:      true,
	})
}

// ---------------------------------------------------------------------------
// Layers
// ---------------------------------------------------------------------------

func (s *MemoryStore) Layer(name string) (Layer, error) {
	l, ok := s.Layers.Get(name)
	if !ok {
		return Layer{}, fmt.Errorf("no such layer: %s: %w", name, ErrNotFound)
	}
	return l, nil
}

// UpdateLayer applies fn and checks that the styles it references exist.
func (s *MemoryStore) UpdateLayer(name string, fn func(Layer) Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.Layers.Get(name)
	if !ok {
		return fmt.Errorf("no such layer: %s: %w", name, ErrNotFound)
	}
	l = fn(l)
	refs := append([]StyleRef{l.DefaultStyle}, l.Styles...)
	for _, ref := range refs {
		if ref.Name != "" && !s.Styles.Has(styleKey(ref.Workspace, ref.Name)) {
			return fmt.Errorf("no such style: %s: %w", ref.Name, ErrInvalid)
		}
	}
	s.Layers.Set(name, l)
	return nil
}

// FindStyle resolves a style name as a layer reference would: the layer's
// own workspace first, then the global styles.
func (s *MemoryStore) FindStyle(ws, name string) (StyleRef, bool) {
	if ws != "" && s.Styles.Has(styleKey(ws, name)) {
		return StyleRef{Workspace: ws, Name: name}, true
	}
	if s.Styles.Has(styleKey("", name)) {
		return StyleRef{Name: name}, true
	}
	return StyleRef{}, false
}

// DeleteLayer removes a layer. Layer groups holding it block the delete
// unless recurse is set; recurse also removes the published resource.
func (s *MemoryStore) DeleteLayer(name string, recurse bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.Layers.Get(name)
	if !ok {
		return fmt.Errorf("no such layer: %s: %w", name, ErrNotFound)
	}
	if !recurse && s.LayerGroups.Any(func(_ string, g LayerGroup) bool { return contains(g.Layers, name) }) {
		return fmt.Errorf("layer %s is part of a layer group: %w", name, ErrNotEmpty)
	}
	s.deleteLayerLocked(name)
	if recurse {
		r := l.Resource
		s.resources(r.Kind).Delete(pkgstore.Key(r.Workspace, r.Store, r.Name))
	}
	return nil
}

func (s *MemoryStore) deleteLayerLocked(name string) {
	for _, g := range s.LayerGroups.List() {
		if !contains(g.Layers, name) {
			continue
		}
		var layers, styles []string
		for i, l := range g.Layers {
			if l == name {
				continue
			}
			layers = append(layers, l)
			if i < len(g.Styles) {
				styles = append(styles, g.Styles[i])
			} else {
				styles = append(styles, "")
			}
		}
		g.Layers, g.Styles = layers, styles
		s.LayerGroups.Set(g.Name, g)
	}
	s.Layers.Delete(name)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Styles
// ---------------------------------------------------------------------------

func (s *MemoryStore) Style(ws, name string) (Style, error) {
	if ws != "" {
		ws = s.ResolveWorkspace(ws)
	}
	st, ok := s.Styles.Get(styleKey(ws, name))
	if !ok {
		return Style{}, fmt.Errorf("no such style: %s: %w", name, ErrNotFound)
	}
	return st, nil
}

// ListStyles lists the global styles, or those of a workspace.
func (s *MemoryStore) ListStyles(ws string) ([]Style, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ws != "" {
		var err error
		if ws, err = s.requireWorkspaceLocked(ws); err != nil {
			return nil, err
		}
	}
	return s.Styles.Filter(func(_ string, st Style) bool { return st.Workspace == ws }), nil
}

func (s *MemoryStore) CreateStyle(st Style) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Name == "" {
		return fmt.Errorf("style name is required: %w", ErrInvalid)
	}
	if st.Workspace != "" {
		ws, err := s.requireWorkspaceLocked(st.Workspace)
		if err != nil {
			return err
		}
		st.Workspace = ws
	}
	if s.Styles.Has(styleKey(st.Workspace, st.Name)) {
		return fmt.Errorf("style '%s' already exists: %w", st.Name, ErrExists)
	}
	if st.Filename == "" {
		st.Filename = st.Name + ".sld"
	}
	s.Styles.Set(styleKey(st.Workspace, st.Name), st)
	return nil
}

func (s *MemoryStore) UpdateStyle(ws, name string, fn func(Style) Style) error {
	if ws != "" {
		ws = s.ResolveWorkspace(ws)
	}
	if !s.Styles.Update(styleKey(ws, name), fn) {
		return fmt.Errorf("no such style: %s: %w", name, ErrNotFound)
	}
	return nil
}

// DeleteStyle removes a style. Layers using it block the delete unless
// recurse is set, which resets their default style and drops it from
// their alternates. purge has no files to remove in memory.
func (s *MemoryStore) DeleteStyle(ws, name string, recurse bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ws != "" {
		ws = s.resolveLocked(ws)
	}
	if !s.Styles.Has(styleKey(ws, name)) {
		return fmt.Errorf("no such style: %s: %w", name, ErrNotFound)
	}
	ref := StyleRef{Workspace: ws, Name: name}
	inUse := s.Layers.Any(func(_ string, l Layer) bool {
		if l.DefaultStyle == ref {
			return true
		}
		for _, alt := range l.Styles {
			if alt == ref {
				return true
			}
		}
		return false
	})
	if inUse && !recurse {
		return fmt.Errorf("style %s is in use: %w", name, ErrNotEmpty)
	}
	s.unlinkStyleLocked(ref)
	s.Styles.Delete(styleKey(ws, name))
	return nil
}

func (s *MemoryStore) unlinkStyleLocked(ref StyleRef) {
	for _, l := range s.Layers.List() {
		changed := false
		if l.DefaultStyle == ref {
			l.DefaultStyle = StyleRef{Name: "polygon"}
			if l.Type == "RASTER" {
				l.DefaultStyle = StyleRef{Name: "raster"}
			}
			changed = true
		}
		var alts []StyleRef
		for _, alt := range l.Styles {
			if alt == ref {
				changed = true
				continue
			}
			alts = append(alts, alt)
		}
		if changed {
			l.Styles = alts
			s.Layers.Set(l.Name, l)
		}
	}
}

// ---------------------------------------------------------------------------
// Layer groups
// ---------------------------------------------------------------------------

func (s *MemoryStore) LayerGroup(name string) (LayerGroup, error) {
	g, ok := s.LayerGroups.Get(name)
	if !ok {
		return LayerGroup{}, fmt.Errorf("no such layer group: %s: %w", name, ErrNotFound)
	}
	return g, nil
}

func (s *MemoryStore) validateGroupLocked(g LayerGroup) error {
	for _, l := range g.Layers {
		if !s.Layers.Has(l) {
			return fmt.Errorf("no such layer: %s: %w", l, ErrInvalid)
		}
	}
	for _, st := range g.Styles {
		if st != "" && !s.Styles.Has(styleKey("", st)) {
			return fmt.Errorf("no such style: %s: %w", st, ErrInvalid)
		}
	}
	return nil
}

func (s *MemoryStore) CreateLayerGroup(g LayerGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.Name == "" {
		return fmt.Errorf("layer group name is required: %w", ErrInvalid)
	}
	if s.LayerGroups.Has(g.Name) {
		return fmt.Errorf("layer group '%s' already exists: %w", g.Name, ErrExists)
	}
	if err := s.validateGroupLocked(g); err != nil {
		return err
	}
	s.LayerGroups.Set(g.Name, g)
	return nil
}

func (s *MemoryStore) UpdateLayerGroup(name string, fn func(LayerGroup) LayerGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.LayerGroups.Get(name)
	if !ok {
		return fmt.Errorf("no such layer group: %s: %w", name, ErrNotFound)
	}
	g = fn(g)
	if err := s.validateGroupLocked(g); err != nil {
		return err
	}
	s.LayerGroups.Set(name, g)
	return nil
}

func (s *MemoryStore) DeleteLayerGroup(name string) error {
	if !s.LayerGroups.Delete(name) {
		return fmt.Errorf("no such layer group: %s: %w", name, ErrNotFound)
	}
	return nil
}
