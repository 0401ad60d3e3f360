package api

import (
	"net/http"
	"strings"

	"github.com/gsconfig-go/gsconfig/internal/twin/store"
	"github.com/gsconfig-go/gsconfig/pkg/twincore"
)

// styleHref is the document URL of a global or workspace style.
func styleHref(r *http.Request, s store.StyleRef) string {
	if s.Workspace == "" {
		return restURL(r, "styles", s.Name+".xml")
	}
	return restURL(r, "workspaces", s.Workspace, "styles", s.Name+".xml")
}

// styleRefToXML names workspace styles "ws:name", as GeoServer does.
func styleRefToXML(r *http.Request, s store.StyleRef) styleRefXML {
	if s.Name == "" {
		return styleRefXML{}
	}
	name := s.Name
	if s.Workspace != "" {
		name = s.Workspace + ":" + s.Name
	}
	return styleRefXML{Name: name, Workspace: s.Workspace, Link: link(styleHref(r, s))}
}

func layerToXML(r *http.Request, l store.Layer) layerXML {
	x := layerXML{
		Name:       l.Name,
		Type:       l.Type,
		Enabled:    l.Enabled,
		Advertised: l.Advertised,
		Resource: resourceRefXML{
			Class: string(l.Resource.Kind),
			Name:  l.Resource.Workspace + ":" + l.Resource.Name,
			Link:  link(resourceHref(r, l.Resource)),
		},
	}
	if l.DefaultStyle.Name != "" {
		ds := styleRefToXML(r, l.DefaultStyle)
		x.DefaultStyle = &ds
	}
	for _, s := range l.Styles {
		x.Styles = append(x.Styles, styleRefToXML(r, s))
	}
	if a := l.Attribution; a != nil {
		x.Attribution = &attributionXML{Title: a.Title, LogoWidth: a.LogoWidth, LogoHeight: a.LogoHeight}
	}
	return x
}

// resolveStyleName turns a layer's style reference into a StyleRef. A
// "ws:name" reference is taken literally; a bare name is looked up in ws
// and then globally.
func (h *Handler) resolveStyleName(ws, name string) store.StyleRef {
	if prefix, local, found := strings.Cut(name, ":"); found {
		return store.StyleRef{Workspace: h.store.ResolveWorkspace(prefix), Name: local}
	}
	if s, ok := h.store.FindStyle(ws, name); ok {
		return s
	}
	return store.StyleRef{Name: name}
}

// ListLayers handles GET /rest/layers.
func (h *Handler) ListLayers(w http.ResponseWriter, r *http.Request) {
	var list layerList
	for _, l := range h.store.Layers.List() {
		list.Items = append(list.Items, ref{Name: l.Name, Link: link(restURL(r, "layers", l.Name+".xml"))})
	}
	twincore.XML(w, http.StatusOK, list)
}

// GetLayer handles GET /rest/layers/{name}.
func (h *Handler) GetLayer(w http.ResponseWriter, r *http.Request) {
	l, err := h.store.Layer(param(r, "name"))
	if err != nil {
		storeError(w, err)
		return
	}
	twincore.XML(w, http.StatusOK, layerToXML(r, l))
}

// UpdateLayer handles PUT /rest/layers/{name}. Only the elements present in
// the body change; attribution sub-fields merge into the current ones.
func (h *Handler) UpdateLayer(w http.ResponseWriter, r *http.Request) {
	var in layerIn
	if !readXML(w, r, &in) {
		return
	}
	name := param(r, "name")
	current, err := h.store.Layer(name)
	if err != nil {
		storeError(w, err)
		return
	}

	// Style names resolve before the update, which holds the store lock.
	ws := current.Resource.Workspace
	var defaultStyle store.StyleRef
	if in.DefaultStyle != nil {
		if n := in.DefaultStyle.name(); n != "" {
			defaultStyle = h.resolveStyleName(ws, n)
		}
	}
	var styles []store.StyleRef
	if in.Styles != nil {
		for _, s := range in.Styles.Items {
			if n := s.name(); n != "" {
				styles = append(styles, h.resolveStyleName(ws, n))
			}
		}
	}

	err = h.store.UpdateLayer(name, func(l store.Layer) store.Layer {
		if in.DefaultStyle != nil {
			l.DefaultStyle = defaultStyle
		}
		if in.Styles != nil {
			l.Styles = styles
		}
		if in.Enabled != nil {
			l.Enabled = *in.Enabled
		}
		if in.Advertised != nil {
			v := *in.Advertised
			l.Advertised = &v
		}
		if in.Attribution != nil {
			a := store.Attribution{}
			if l.Attribution != nil {
				a = *l.Attribution
			}
			if in.Attribution.Title != nil {
				a.Title = *in.Attribution.Title
			}
			if in.Attribution.LogoWidth != nil {
				a.LogoWidth = *in.Attribution.LogoWidth
			}
			if in.Attribution.LogoHeight != nil {
				a.LogoHeight = *in.Attribution.LogoHeight
			}
			l.Attribution = &a
		}
		return l
	})
	if err != nil {
		storeError(w, err)
		return
	}
	writeOK(w)
}

// DeleteLayer handles DELETE /rest/layers/{name}?recurse=.
func (h *Handler) DeleteLayer(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteLayer(param(r, "name"), queryBool(r, "recurse")); err != nil {
		storeError(w, err)
		return
	}
	writeOK(w)
}
