package catalog

import (
	"context"
	"fmt"
	"net/http"
)

// defaultWorkspaceName is GeoServer's alias for whichever workspace is the default.
const defaultWorkspaceName = "default"

type workspaceDoc struct {
	Name    string  `xml:"name"`
	Enabled *string `xml:"enabled"`
}

type workspaceList struct {
	Workspaces []namedRef `xml:"workspace"`
}

// Workspace groups stores and styles under one namespace.
type Workspace struct {
	info
	name string
	doc  workspaceDoc
}

func newWorkspace(c *Catalog, name string) *Workspace {
	return &Workspace{info: newInfo(c), name: name}
}

var workspaceWriters = []fieldWriter{
	{"enabled", writeBool("enabled")},
}

func (w *Workspace) Name() string { return w.name }

func (w *Workspace) Href() string {
	return w.catalog.url([]string{"workspaces", w.name + ".xml"}, nil)
}

// DataStoresURL lists the workspace's data stores.
func (w *Workspace) DataStoresURL() string {
	return w.catalog.url([]string{"workspaces", w.name, "datastores.xml"}, nil)
}

// CoverageStoresURL lists the workspace's coverage stores.
func (w *Workspace) CoverageStoresURL() string {
	return w.catalog.url([]string{"workspaces", w.name, "coveragestores.xml"}, nil)
}

// StylesURL lists the styles scoped to the workspace.
func (w *Workspace) StylesURL() string {
	return w.catalog.url([]string{"workspaces", w.name, "styles.xml"}, nil)
}

func (w *Workspace) Fetch(ctx context.Context) error {
	var doc workspaceDoc
	if err := w.fetchInto(ctx, w.Href(), &doc); err != nil {
		return err
	}
	w.doc = doc
	return nil
}

// Enabled defaults to true when the server does not say otherwise.
func (w *Workspace) Enabled() bool {
	return dirtyBool(&w.info, "enabled", parseBool(w.doc.Enabled, true))
}

func (w *Workspace) SetEnabled(enabled bool) {
	w.set("enabled", enabled)
}

func (w *Workspace) Message() ([]byte, error) {
	return writeMessage("workspace", w.dirty, workspaceWriters)
}

func (w *Workspace) saveTarget() (string, string) {
	return http.MethodPut, w.Href()
}

func (w *Workspace) afterSave(ctx context.Context) error {
	w.resetDirty()
	return w.Fetch(ctx)
}

func (w *Workspace) String() string { return w.name }

// Workspaces lists every workspace.
func (c *Catalog) Workspaces(ctx context.Context) ([]*Workspace, error) {
	var list workspaceList
	if err := c.getXML(ctx, c.url([]string{"workspaces.xml"}, nil), &list); err != nil {
		return nil, err
	}
	out := make([]*Workspace, 0, len(list.Workspaces))
	for _, ref := range list.Workspaces {
		out = append(out, newWorkspace(c, ref.name()))
	}
	return out, nil
}

// Workspace finds a workspace by name.
func (c *Catalog) Workspace(ctx context.Context, name string) (*Workspace, error) {
	all, err := c.Workspaces(ctx)
	if err != nil {
		return nil, err
	}
	var matches []*Workspace
	for _, w := range all {
		if w.name == name {
			matches = append(matches, w)
		}
	}
	switch len(matches) {
	case 0:
		return nil, notFound("workspace", name)
	case 1:
		return matches[0], nil
	default:
		hrefs := make([]string, len(matches))
		for i, w := range matches {
			hrefs[i] = w.Href()
		}
		return nil, &AmbiguousError{Kind: "workspace", Name: name, Matches: hrefs}
	}
}

// DefaultWorkspace returns a handle on the server's default workspace alias.
// No request is made.
func (c *Catalog) DefaultWorkspace() *Workspace {
	return newWorkspace(c, defaultWorkspaceName)
}

// SetDefaultWorkspace makes the named workspace the server default.
func (c *Catalog) SetDefaultWorkspace(ctx context.Context, name string) error {
	b := newBuilder()
	b.start("workspace")
	b.element("name", name)
	b.end("workspace")
	msg, err := b.bytes()
	if err != nil {
		return err
	}
	target := c.DefaultWorkspace().Href()
	resp, err := c.mutate(ctx, http.MethodPut, target, msg, xmlHeaders())
	if err != nil {
		return err
	}
	if resp.status >= 400 {
		return &RequestError{Method: http.MethodPut, URL: target, StatusCode: resp.status, Body: string(resp.body)}
	}
	return nil
}

// CreateWorkspace creates a workspace together with its namespace URI.
func (c *Catalog) CreateWorkspace(ctx context.Context, name, uri string) (*Workspace, error) {
	b := newBuilder()
	b.start("namespace")
	b.element("prefix", name)
	b.element("uri", uri)
	b.end("namespace")
	msg, err := b.bytes()
	if err != nil {
		return nil, err
	}

	target := c.url([]string{"namespaces"}, nil)
	resp, err := c.mutate(ctx, http.MethodPost, target, msg, http.Header{"Content-Type": {contentTypeXML}})
	if err != nil {
		return nil, err
	}
	if resp.status < 200 || resp.status >= 300 {
		return nil, fmt.Errorf("creating workspace %q: %w", name,
			&RequestError{Method: http.MethodPost, URL: target, StatusCode: resp.status, Body: string(resp.body)})
	}
	return c.Workspace(ctx, name)
}
