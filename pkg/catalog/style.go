package catalog

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type styleList struct {
	Styles []namedRef `xml:"style"`
}

type styleDoc struct {
	Name      string   `xml:"name"`
	Filename  *string  `xml:"filename"`
	Workspace namedRef `xml:"workspace"`
}

// sldDoc picks the naming elements out of a StyledLayerDescriptor.
type sldDoc struct {
	NamedLayers []struct {
		Name       string `xml:"Name"`
		UserStyles []struct {
			Name  string `xml:"Name"`
			Title string `xml:"Title"`
		} `xml:"UserStyle"`
	} `xml:"NamedLayer"`
}

// Style is an SLD document registered globally or within a workspace.
type Style struct {
	info
	workspace *Workspace
	name      string
	doc       styleDoc
}

var styleWriters = []fieldWriter{
	{"name", writeString("name")},
	{"filename", writeString("filename")},
}

func newStyle(c *Catalog, ws *Workspace, name string) *Style {
	return &Style{info: newInfo(c), workspace: ws, name: name}
}

func (s *Style) Name() string { return s.name }

// Workspace is nil for global styles.
func (s *Style) Workspace() *Workspace { return s.workspace }

func (s *Style) String() string {
	if s.workspace == nil {
		return s.name
	}
	return s.workspace.name + ":" + s.name
}

func (s *Style) segments(file string) []string {
	if s.workspace == nil {
		return []string{"styles", file}
	}
	return []string{"workspaces", s.workspace.name, "styles", file}
}

func (s *Style) Href() string { return s.catalog.url(s.segments(s.name+".xml"), nil) }

// BodyHref is the location of the SLD document itself.
func (s *Style) BodyHref() string { return s.catalog.url(s.segments(s.name+".sld"), nil) }

func (s *Style) Fetch(ctx context.Context) error {
	var doc styleDoc
	if err := s.fetchInto(ctx, s.Href(), &doc); err != nil {
		return err
	}
	s.doc = doc
	return nil
}

func (s *Style) Filename() string {
	return dirtyString(&s.info, "filename", textOf(s.doc.Filename))
}

func (s *Style) SetFilename(f string) { s.set("filename", f) }

// Body returns the raw SLD.
func (s *Style) Body(ctx context.Context) ([]byte, error) {
	return s.catalog.get(ctx, s.BodyHref())
}

func (s *Style) sld(ctx context.Context) (*sldDoc, error) {
	body, err := s.Body(ctx)
	if err != nil {
		return nil, err
	}
	var doc sldDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("GeoServer gave non-XML response for [GET %s]: %s: %w", s.BodyHref(), body, err)
	}
	return &doc, nil
}

// SLDTitle is the Title of the first UserStyle in the body.
func (s *Style) SLDTitle(ctx context.Context) (string, error) {
	doc, err := s.sld(ctx)
	if err != nil {
		return "", err
	}
	for _, nl := range doc.NamedLayers {
		for _, us := range nl.UserStyles {
			if t := strings.TrimSpace(us.Title); t != "" {
				return t, nil
			}
		}
	}
	return "", nil
}

// SLDName is the Name of the first UserStyle, falling back to the
// NamedLayer's.
func (s *Style) SLDName(ctx context.Context) (string, error) {
	doc, err := s.sld(ctx)
	if err != nil {
		return "", err
	}
	for _, nl := range doc.NamedLayers {
		for _, us := range nl.UserStyles {
			if n := strings.TrimSpace(us.Name); n != "" {
				return n, nil
			}
		}
		if n := strings.TrimSpace(nl.Name); n != "" {
			return n, nil
		}
	}
	return "", nil
}

// UpdateBody replaces the SLD document.
func (s *Style) UpdateBody(ctx context.Context, sld []byte) error {
	return s.catalog.putSLD(ctx, http.MethodPut, s.BodyHref(), sld)
}

func (s *Style) Message() ([]byte, error) {
	return writeMessage("style", s.dirty, styleWriters)
}

func (s *Style) saveTarget() (string, string) { return http.MethodPut, s.Href() }

func (s *Style) afterSave(ctx context.Context) error {
	s.resetDirty()
	return s.Fetch(ctx)
}

func (c *Catalog) putSLD(ctx context.Context, method, target string, sld []byte) error {
	header := http.Header{
		"Content-Type": {contentTypeSLD},
		"Accept":       {contentTypeXML},
	}
	resp, err := c.mutate(ctx, method, target, sld, header)
	if err != nil {
		return err
	}
	if resp.status < 200 || resp.status > 299 {
		return &UploadError{URL: target, StatusCode: resp.status, Body: string(resp.body)}
	}
	return nil
}

// fetchStyle loads a style by name, globally when ws is nil.
func (c *Catalog) fetchStyle(ctx context.Context, ws *Workspace, name string) (*Style, error) {
	s := newStyle(c, ws, name)
	if err := s.Fetch(ctx); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound("style", s.String())
		}
		return nil, err
	}
	if n := strings.TrimSpace(s.doc.Name); n != "" {
		s.name = n
	}
	return s, nil
}

// Style fetches a global style by name.
func (c *Catalog) Style(ctx context.Context, name string) (*Style, error) {
	return c.fetchStyle(ctx, nil, name)
}

// styleByRef fetches a style named either "name" (global) or "ws:name".
func (c *Catalog) styleByRef(ctx context.Context, ref string) (*Style, error) {
	if ws, name, ok := strings.Cut(ref, ":"); ok {
		return c.fetchStyle(ctx, newWorkspace(c, ws), name)
	}
	return c.Style(ctx, ref)
}

// StyleByURL loads the style document at href. A path containing
// workspaces/{ws} yields a workspace-scoped style.
func (c *Catalog) StyleByURL(ctx context.Context, href string) (*Style, error) {
	var doc styleDoc
	if err := c.getXML(ctx, href, &doc); err != nil {
		return nil, err
	}
	var ws *Workspace
	if name := workspaceFromURL(c.serviceURL, href); name != "" {
		ws = newWorkspace(c, name)
	}
	s := newStyle(c, ws, strings.TrimSpace(doc.Name))
	s.doc = doc
	s.fetched = true
	return s, nil
}

// resolveStyle looks a reference up globally and falls back to its link
// for styles that live in a workspace.
func (c *Catalog) resolveStyle(ctx context.Context, ref namedRef) (*Style, error) {
	s, err := c.styleByRef(ctx, ref.name())
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) || ref.Link.Href == "" {
		return nil, err
	}
	return c.StyleByURL(ctx, ref.Link.Href)
}

// Styles lists the global styles.
func (c *Catalog) Styles(ctx context.Context) ([]*Style, error) {
	return c.listStyles(ctx, nil, c.url([]string{"styles.xml"}, nil))
}

// WorkspaceStyles lists the styles scoped to a workspace.
func (c *Catalog) WorkspaceStyles(ctx context.Context, workspace string) ([]*Style, error) {
	ws := newWorkspace(c, workspace)
	return c.listStyles(ctx, ws, ws.StylesURL())
}

func (c *Catalog) listStyles(ctx context.Context, ws *Workspace, target string) ([]*Style, error) {
	var list styleList
	if err := c.getXML(ctx, target, &list); err != nil {
		return nil, err
	}
	out := make([]*Style, 0, len(list.Styles))
	for _, ref := range list.Styles {
		out = append(out, newStyle(c, ws, ref.name()))
	}
	return out, nil
}

// StyleOptions control CreateStyle.
type StyleOptions struct {
	// Overwrite replaces the SLD of an existing style instead of failing.
	Overwrite bool
	// Workspace scopes the style; empty means global.
	Workspace string
}

// CreateStyle uploads an SLD document as a new style and returns it.
func (c *Catalog) CreateStyle(ctx context.Context, name string, sld []byte, opts StyleOptions) (*Style, error) {
	var ws *Workspace
	if opts.Workspace != "" {
		ws = newWorkspace(c, opts.Workspace)
	}
	style := newStyle(c, ws, name)

	if !opts.Overwrite {
		_, err := c.fetchStyle(ctx, ws, name)
		switch {
		case err == nil:
			return nil, conflict("there is already a style named %s", style)
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}

	var err error
	if opts.Overwrite {
		err = c.putSLD(ctx, http.MethodPut, style.BodyHref(), sld)
	} else {
		segments := style.segments("")
		target := c.url(segments[:len(segments)-1], url.Values{"name": {name}})
		err = c.putSLD(ctx, http.MethodPost, target, sld)
	}
	if err != nil {
		return nil, err
	}
	return c.fetchStyle(ctx, ws, name)
}
