package api

import (
	"net/http"
	"strings"

	"github.com/gsconfig-go/gsconfig/internal/twin/store"
	"github.com/gsconfig-go/gsconfig/pkg/twincore"
)

// resourcePath returns the segments under /rest for a resource document.
func resourcePath(kind store.ResourceKind, ws, st, name string) []string {
	if kind == store.CoverageKind {
		return []string{"workspaces", ws, "coveragestores", st, "coverages", name}
	}
	return []string{"workspaces", ws, "datastores", st, "featuretypes", name}
}

func resourceHref(r *http.Request, ref store.ResourceRef) string {
	segments := resourcePath(ref.Kind, ref.Workspace, ref.Store, ref.Name+".xml")
	return restURL(r, segments...)
}

func commonResourceXML(r *http.Request, res store.Resource) resourceXML {
	x := resourceXML{
		Name:              res.Name,
		NativeName:        res.Name,
		Namespace:         ref{Name: res.Workspace, Link: link(restURL(r, "namespaces", res.Workspace+".xml"))},
		Title:             res.Title,
		Abstract:          res.Abstract,
		Keywords:          newStringList(res.Keywords),
		SRS:               res.SRS,
		NativeBoundingBox: toBBoxXML(res.NativeBoundingBox),
		LatLonBoundingBox: toBBoxXML(res.LatLonBoundingBox),
		ProjectionPolicy:  res.ProjectionPolicy,
		Enabled:           res.Enabled,
	}
	if len(res.MetadataLinks) > 0 {
		x.MetadataLinks = &metadataLinksXML{}
		for _, l := range res.MetadataLinks {
			x.MetadataLinks.Items = append(x.MetadataLinks.Items, metadataLinkXML(l))
		}
	}
	if res.Kind == store.CoverageKind {
		x.Store = storeRef{
			Class: "coverageStore",
			Name:  res.Workspace + ":" + res.Store,
			Link:  link(restURL(r, "workspaces", res.Workspace, "coveragestores", res.Store+".xml")),
		}
	} else {
		x.Store = storeRef{
			Class: "dataStore",
			Name:  res.Workspace + ":" + res.Store,
			Link:  link(restURL(r, "workspaces", res.Workspace, "datastores", res.Store+".xml")),
		}
	}
	return x
}

func resourceToXML(r *http.Request, res store.Resource) any {
	if res.Kind == store.CoverageKind {
		return coverageXML{
			resourceXML:      commonResourceXML(r, res),
			RequestSRS:       newStringList(res.RequestSRS),
			ResponseSRS:      newStringList(res.ResponseSRS),
			SupportedFormats: newStringList(res.SupportedFormats),
		}
	}
	x := featureTypeXML{resourceXML: commonResourceXML(r, res)}
	for _, a := range res.Attributes {
		x.Attributes = append(x.Attributes, attributeXML(a))
	}
	return x
}

func applyResource(res store.Resource, in resourceIn) store.Resource {
	if in.Title != nil {
		res.Title = *in.Title
	}
	if in.Abstract != nil {
		res.Abstract = *in.Abstract
	}
	if in.Enabled != nil {
		res.Enabled = *in.Enabled
	}
	if in.Keywords != nil {
		res.Keywords = in.Keywords.values()
	}
	if in.SRS != nil {
		res.SRS = strings.TrimSpace(*in.SRS)
	}
	if in.ProjectionPolicy != nil {
		res.ProjectionPolicy = strings.TrimSpace(*in.ProjectionPolicy)
	}
	if in.NativeBoundingBox != nil {
		res.NativeBoundingBox = in.NativeBoundingBox.model()
	}
	if in.LatLonBoundingBox != nil {
		res.LatLonBoundingBox = in.LatLonBoundingBox.model()
	}
	if in.MetadataLinks != nil {
		res.MetadataLinks = nil
		for _, l := range in.MetadataLinks.Items {
			res.MetadataLinks = append(res.MetadataLinks, store.MetadataLink(l))
		}
	}
	if res.Kind == store.CoverageKind {
		if in.RequestSRS != nil {
			res.RequestSRS = in.RequestSRS.values()
		}
		if in.ResponseSRS != nil {
			res.ResponseSRS = in.ResponseSRS.values()
		}
		if in.SupportedFormats != nil {
			res.SupportedFormats = in.SupportedFormats.values()
		}
	}
	return res
}

func (h *Handler) listResources(w http.ResponseWriter, r *http.Request, kind store.ResourceKind) {
	resources, err := h.store.ListResources(kind, param(r, "ws"), param(r, "store"))
	if err != nil {
		storeError(w, err)
		return
	}
	items := make([]ref, 0, len(resources))
	for _, res := range resources {
		items = append(items, ref{
			Name: res.Name,
			Link: link(resourceHref(r, store.ResourceRef{Kind: kind, Workspace: res.Workspace, Store: res.Store, Name: res.Name})),
		})
	}
	if kind == store.CoverageKind {
		twincore.XML(w, http.StatusOK, coverageList{Items: items})
		return
	}
	twincore.XML(w, http.StatusOK, featureTypeList{Items: items})
}

func (h *Handler) getResource(w http.ResponseWriter, r *http.Request, kind store.ResourceKind) {
	res, err := h.store.Resource(kind, param(r, "ws"), param(r, "store"), param(r, "name"))
	if err != nil {
		storeError(w, err)
		return
	}
	twincore.XML(w, http.StatusOK, resourceToXML(r, res))
}

func (h *Handler) updateResource(w http.ResponseWriter, r *http.Request, kind store.ResourceKind) {
	var in resourceIn
	if !readXML(w, r, &in) {
		return
	}
	name := param(r, "name")
	if in.Name != nil && strings.TrimSpace(*in.Name) != name {
		twincore.Error(w, http.StatusForbidden, "Can't change the name of a resource.")
		return
	}
	err := h.store.UpdateResource(kind, param(r, "ws"), param(r, "store"), name, func(res store.Resource) store.Resource {
		return applyResource(res, in)
	})
	if err != nil {
		storeError(w, err)
		return
	}
	writeOK(w)
}

func (h *Handler) deleteResource(w http.ResponseWriter, r *http.Request, kind store.ResourceKind) {
	err := h.store.DeleteResource(kind, param(r, "ws"), param(r, "store"), param(r, "name"), queryBool(r, "recurse"))
	if err != nil {
		storeError(w, err)
		return
	}
	writeOK(w)
}

// ListFeatureTypes handles GET /rest/workspaces/{ws}/datastores/{store}/featuretypes.
func (h *Handler) ListFeatureTypes(w http.ResponseWriter, r *http.Request) {
	h.listResources(w, r, store.FeatureTypeKind)
}

// GetFeatureType handles GET .../featuretypes/{name}.
func (h *Handler) GetFeatureType(w http.ResponseWriter, r *http.Request) {
	h.getResource(w, r, store.FeatureTypeKind)
}

// UpdateFeatureType handles PUT .../featuretypes/{name}.
func (h *Handler) UpdateFeatureType(w http.ResponseWriter, r *http.Request) {
	h.updateResource(w, r, store.FeatureTypeKind)
}

// DeleteFeatureType handles DELETE .../featuretypes/{name}?recurse=.
func (h *Handler) DeleteFeatureType(w http.ResponseWriter, r *http.Request) {
	h.deleteResource(w, r, store.FeatureTypeKind)
}

// ListCoverages handles GET /rest/workspaces/{ws}/coveragestores/{store}/coverages.
func (h *Handler) ListCoverages(w http.ResponseWriter, r *http.Request) {
	h.listResources(w, r, store.CoverageKind)
}

// GetCoverage handles GET .../coverages/{name}.
func (h *Handler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	h.getResource(w, r, store.CoverageKind)
}

// UpdateCoverage handles PUT .../coverages/{name}.
func (h *Handler) UpdateCoverage(w http.ResponseWriter, r *http.Request) {
	h.updateResource(w, r, store.CoverageKind)
}

// DeleteCoverage handles DELETE .../coverages/{name}?recurse=.
func (h *Handler) DeleteCoverage(w http.ResponseWriter, r *http.Request) {
	h.deleteResource(w, r, store.CoverageKind)
}
