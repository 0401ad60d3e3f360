package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gsconfig-go/gsconfig/internal/twin/store"
	"github.com/gsconfig-go/gsconfig/pkg/twincore"
)

func workspaceRef(r *http.Request, ws string) ref {
	return ref{Name: ws, Link: link(restURL(r, "workspaces", ws+".xml"))}
}

func dataStoreToXML(r *http.Request, d store.DataStore) dataStoreXML {
	keys := make([]string, 0, len(d.ConnectionParameters))
	for k := range d.ConnectionParameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	params := make([]entryXML, 0, len(keys))
	for _, k := range keys {
		params = append(params, entryXML{Key: k, Value: d.ConnectionParameters[k]})
	}
	return dataStoreXML{
		Name:                 d.Name,
		Description:          d.Description,
		Type:                 d.Type,
		Enabled:              d.Enabled,
		Workspace:            workspaceRef(r, d.Workspace),
		ConnectionParameters: params,
		FeatureTypes: linkHolder{Link: link(restURL(r,
			"workspaces", d.Workspace, "datastores", d.Name, "featuretypes.xml"))},
	}
}

func coverageStoreToXML(r *http.Request, c store.CoverageStore) coverageStoreXML {
	return coverageStoreXML{
		Name:        c.Name,
		Description: c.Description,
		Type:        c.Type,
		Enabled:     c.Enabled,
		Workspace:   workspaceRef(r, c.Workspace),
		URL:         c.URL,
		Coverages: linkHolder{Link: link(restURL(r,
			"workspaces", c.Workspace, "coveragestores", c.Name, "coverages.xml"))},
	}
}

func applyDataStore(d store.DataStore, in dataStoreIn) store.DataStore {
	if in.Type != nil {
		d.Type = strings.TrimSpace(*in.Type)
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.Enabled != nil {
		d.Enabled = *in.Enabled
	}
	if in.ConnectionParameters != nil {
		params := make(map[string]string, len(in.ConnectionParameters.Entries))
		for _, e := range in.ConnectionParameters.Entries {
			params[e.Key] = e.Value
		}
		d.ConnectionParameters = params
	}
	return d
}

func applyCoverageStore(c store.CoverageStore, in coverageStoreIn) store.CoverageStore {
	if in.Type != nil {
		c.Type = strings.TrimSpace(*in.Type)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Enabled != nil {
		c.Enabled = *in.Enabled
	}
	if in.URL != nil {
		c.URL = strings.TrimSpace(*in.URL)
	}
	return c
}

// ---------------------------------------------------------------------------
// Data stores
// ---------------------------------------------------------------------------

// ListDataStores handles GET /rest/workspaces/{ws}/datastores.
func (h *Handler) ListDataStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.store.ListDataStores(param(r, "ws"))
	if err != nil {
		storeError(w, err)
		return
	}
	var list dataStoreList
	for _, d := range stores {
		list.Items = append(list.Items, ref{
			Name: d.Name,
			Link: link(restURL(r, "workspaces", d.Workspace, "datastores", d.Name+".xml")),
		})
	}
	twincore.XML(w, http.StatusOK, list)
}

// GetDataStore handles GET /rest/workspaces/{ws}/datastores/{store}.
func (h *Handler) GetDataStore(w http.ResponseWriter, r *http.Request) {
	d, err := h.store.DataStore(param(r, "ws"), param(r, "store"))
	if err != nil {
		storeError(w, err)
		return
	}
	twincore.XML(w, http.StatusOK, dataStoreToXML(r, d))
}

// CreateDataStore handles POST /rest/workspaces/{ws}/datastores.
func (h *Handler) CreateDataStore(w http.ResponseWriter, r *http.Request) {
	var in dataStoreIn
	if !readXML(w, r, &in) {
		return
	}
	ws := h.wsParam(r)
	d := applyDataStore(store.DataStore{
		Workspace: ws,
		Name:      nameFromQueryOrBody(r, in.Name),
	}, in)
	if err := h.store.CreateDataStore(d); err != nil {
		storeError(w, err)
		return
	}
	created(w, restURL(r, "workspaces", ws, "datastores", d.Name), d.Name)
}

// UpdateDataStore handles PUT /rest/workspaces/{ws}/datastores/{store}.
func (h *Handler) UpdateDataStore(w http.ResponseWriter, r *http.Request) {
	var in dataStoreIn
	if !readXML(w, r, &in) {
		return
	}
	err := h.store.UpdateDataStore(param(r, "ws"), param(r, "store"), func(d store.DataStore) store.DataStore {
		return applyDataStore(d, in)
	})
	if err != nil {
		storeError(w, err)
		return
	}
	writeOK(w)
}

// DeleteDataStore handles DELETE /rest/workspaces/{ws}/datastores/{store}?recurse=.
func (h *Handler) DeleteDataStore(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteStore(store.FeatureTypeKind, param(r, "ws"), param(r, "store"), queryBool(r, "recurse"))
	if err != nil {
		storeError(w, err)
		return
	}
	writeOK(w)
}

// ---------------------------------------------------------------------------
// Coverage stores
// ---------------------------------------------------------------------------

// ListCoverageStores handles GET /rest/workspaces/{ws}/coveragestores.
func (h *Handler) ListCoverageStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.store.ListCoverageStores(param(r, "ws"))
	if err != nil {
		storeError(w, err)
		return
	}
	var list coverageStoreList
	for _, c := range stores {
		list.Items = append(list.Items, ref{
			Name: c.Name,
			Link: link(restURL(r, "workspaces", c.Workspace, "coveragestores", c.Name+".xml")),
		})
	}
	twincore.XML(w, http.StatusOK, list)
}

// GetCoverageStore handles GET /rest/workspaces/{ws}/coveragestores/{store}.
func (h *Handler) GetCoverageStore(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.CoverageStore(param(r, "ws"), param(r, "store"))
	if err != nil {
		storeError(w, err)
		return
	}
	twincore.XML(w, http.StatusOK, coverageStoreToXML(r, c))
}

// CreateCoverageStore handles POST /rest/workspaces/{ws}/coveragestores.
func (h *Handler) CreateCoverageStore(w http.ResponseWriter, r *http.Request) {
	var in coverageStoreIn
	if !readXML(w, r, &in) {
		return
	}
	ws := h.wsParam(r)
	c := applyCoverageStore(store.CoverageStore{
		Workspace: ws,
		Name:      nameFromQueryOrBody(r, in.Name),
	}, in)
	if err := h.store.CreateCoverageStore(c); err != nil {
		storeError(w, err)
		return
	}
	created(w, restURL(r, "workspaces", ws, "coveragestores", c.Name), c.Name)
}

// UpdateCoverageStore handles PUT /rest/workspaces/{ws}/coveragestores/{store}.
func (h *Handler) UpdateCoverageStore(w http.ResponseWriter, r *http.Request) {
	var in coverageStoreIn
	if !readXML(w, r, &in) {
		return
	}
	err := h.store.UpdateCoverageStore(param(r, "ws"), param(r, "store"), func(c store.CoverageStore) store.CoverageStore {
		return applyCoverageStore(c, in)
	})
	if err != nil {
		storeError(w, err)
		return
	}
	writeOK(w)
}

// DeleteCoverageStore handles DELETE /rest/workspaces/{ws}/coveragestores/{store}?recurse=.
func (h *Handler) DeleteCoverageStore(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteStore(store.CoverageKind, param(r, "ws"), param(r, "store"), queryBool(r, "recurse"))
	if err != nil {
		storeError(w, err)
		return
	}
	writeOK(w)
}
