package api

import (
	"net/http"
	"strings"

	"github.com/gsconfig-go/gsconfig/internal/twin/store"
	"github.com/gsconfig-go/gsconfig/pkg/twincore"
)

func layerGroupToXML(r *http.Request, g store.LayerGroup) layerGroupXML {
	x := layerGroupXML{Name: g.Name, Mode: "SINGLE", Bounds: toBBoxXML(g.Bounds)}
	for i, l := range g.Layers {
		x.Layers = append(x.Layers, ref{Name: l, Link: link(restURL(r, "layers", l+".xml"))})
		var style string
		if i < len(g.Styles) {
			style = g.Styles[i]
		}
		x.Styles = append(x.Styles, styleRefToXML(r, store.StyleRef{Name: style}))
	}
	return x
}

// applyLayerGroup copies the present elements of in onto g and pads the
// styles to one per layer.
func applyLayerGroup(g store.LayerGroup, in layerGroupIn) store.LayerGroup {
	if in.Layers != nil {
		g.Layers = nil
		for _, l := range in.Layers.Items {
			if n := l.name(); n != "" {
				g.Layers = append(g.Layers, n)
			}
		}
	}
	if in.Styles != nil {
		g.Styles = nil
		for _, s := range in.Styles.Items {
			g.Styles = append(g.Styles, s.name())
		}
	}
	if in.Bounds != nil {
		g.Bounds = in.Bounds.model()
	}
	for len(g.Styles) < len(g.Layers) {
		g.Styles = append(g.Styles, "")
	}
	g.Styles = g.Styles[:len(g.Layers)]
	return g
}

// ListLayerGroups handles GET /rest/layergroups.
func (h *Handler) ListLayerGroups(w http.ResponseWriter, r *http.Request) {
	var list layerGroupList
	for _, g := range h.store.LayerGroups.List() {
		list.Items = append(list.Items, ref{Name: g.Name, Link: link(restURL(r, "layergroups", g.Name+".xml"))})
	}
	twincore.XML(w, http.StatusOK, list)
}

// GetLayerGroup handles GET /rest/layergroups/{name}.
func (h *Handler) GetLayerGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.store.LayerGroup(param(r, "name"))
	if err != nil {
		storeError(w, err)
		return
	}
	twincore.XML(w, http.StatusOK, layerGroupToXML(r, g))
}

// CreateLayerGroup handles POST /rest/layergroups?name=.
func (h *Handler) CreateLayerGroup(w http.ResponseWriter, r *http.Request) {
	var in layerGroupIn
	if !readXML(w, r, &in) {
		return
	}
	g := applyLayerGroup(store.LayerGroup{Name: nameFromQueryOrBody(r, in.Name)}, in)
	if len(g.Layers) == 0 {
		twincore.Error(w, http.StatusBadRequest, "Layer group must not be empty")
		return
	}
	if err := h.store.CreateLayerGroup(g); err != nil {
		storeError(w, err)
		return
	}
	created(w, restURL(r, "layergroups", g.Name), g.Name)
}

// UpdateLayerGroup handles PUT /rest/layergroups/{name}.
func (h *Handler) UpdateLayerGroup(w http.ResponseWriter, r *http.Request) {
	var in layerGroupIn
	if !readXML(w, r, &in) {
		return
	}
	name := param(r, "name")
	if in.Name != nil && strings.TrimSpace(*in.Name) != name {
		twincore.Error(w, http.StatusForbidden, "Can't change the name of a layer group.")
		return
	}
	err := h.store.UpdateLayerGroup(name, func(g store.LayerGroup) store.LayerGroup {
		return applyLayerGroup(g, in)
	})
	if err != nil {
		storeError(w, err)
		return
	}
	writeOK(w)
}

// DeleteLayerGroup handles DELETE /rest/layergroups/{name}.
func (h *Handler) DeleteLayerGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteLayerGroup(param(r, "name")); err != nil {
		storeError(w, err)
		return
	}
	writeOK(w)
}
