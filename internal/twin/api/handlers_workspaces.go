package api

import (
	"net/http"
	"strings"

	"github.com/gsconfig-go/gsconfig/internal/twin/store"
	"github.com/gsconfig-go/gsconfig/pkg/twincore"
)

func (h *Handler) workspaceXML(r *http.Request, ws store.Workspace) workspaceXML {
	return workspaceXML{
		Name:           ws.Name,
		Enabled:        ws.Enabled,
		DataStores:     linkHolder{Link: link(restURL(r, "workspaces", ws.Name, "datastores.xml"))},
		CoverageStores: linkHolder{Link: link(restURL(r, "workspaces", ws.Name, "coveragestores.xml"))},
	}
}

// ListWorkspaces handles GET /rest/workspaces.
func (h *Handler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	var list workspaceList
	for _, ws := range h.store.Workspaces.List() {
		list.Items = append(list.Items, ref{Name: ws.Name, Link: link(restURL(r, "workspaces", ws.Name+".xml"))})
	}
	twincore.XML(w, http.StatusOK, list)
}

// GetWorkspace handles GET /rest/workspaces/{ws}.
func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := h.store.Workspace(param(r, "ws"))
	if err != nil {
		storeError(w, err)
		return
	}
	twincore.XML(w, http.StatusOK, h.workspaceXML(r, ws))
}

// CreateWorkspace handles POST /rest/workspaces with a <workspace> body.
func (h *Handler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var in workspaceIn
	if !readXML(w, r, &in) {
		return
	}
	name := nameFromQueryOrBody(r, in.Name)
	ws := store.Workspace{Name: name, URI: "http://" + name, Enabled: true}
	if in.Enabled != nil {
		ws.Enabled = *in.Enabled
	}
	if err := h.store.CreateWorkspace(ws); err != nil {
		storeError(w, err)
		return
	}
	created(w, restURL(r, "workspaces", name), name)
}

// UpdateWorkspace handles PUT /rest/workspaces/{ws}. A PUT to the default
// alias naming another workspace makes that workspace the default.
func (h *Handler) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	var in workspaceIn
	if !readXML(w, r, &in) {
		return
	}
	target := param(r, "ws")
	if target == store.DefaultWorkspaceAlias && in.Name != nil && !h.store.Workspaces.Has(store.DefaultWorkspaceAlias) {
		if err := h.store.SetDefaultWorkspace(strings.TrimSpace(*in.Name)); err != nil {
			storeError(w, err)
			return
		}
		writeOK(w)
		return
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != h.store.ResolveWorkspace(target) {
		twincore.Error(w, http.StatusForbidden, "Can't change the name of a workspace.")
		return
	}
	err := h.store.UpdateWorkspace(target, func(ws store.Workspace) store.Workspace {
		if in.Enabled != nil {
			ws.Enabled = *in.Enabled
		}
		return ws
	})
	if err != nil {
		storeError(w, err)
		return
	}
	writeOK(w)
}

// DeleteWorkspace handles DELETE /rest/workspaces/{ws}?recurse=.
func (h *Handler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteWorkspace(param(r, "ws"), queryBool(r, "recurse")); err != nil {
		storeError(w, err)
		return
	}
	writeOK(w)
}

// ListNamespaces handles GET /rest/namespaces.
func (h *Handler) ListNamespaces(w http.ResponseWriter, r *http.Request) {
	var list namespaceList
	for _, ws := range h.store.Workspaces.List() {
		list.Items = append(list.Items, ref{Name: ws.Name, Link: link(restURL(r, "namespaces", ws.Name+".xml"))})
	}
	twincore.XML(w, http.StatusOK, list)
}

// GetNamespace handles GET /rest/namespaces/{ws}.
func (h *Handler) GetNamespace(w http.ResponseWriter, r *http.Request) {
	ws, err := h.store.Workspace(param(r, "ws"))
	if err != nil {
		storeError(w, err)
		return
	}
	twincore.XML(w, http.StatusOK, namespaceXML{Prefix: ws.Name, URI: ws.URI})
}

// CreateNamespace handles POST /rest/namespaces. Creating a namespace
// creates the workspace of the same name.
func (h *Handler) CreateNamespace(w http.ResponseWriter, r *http.Request) {
	var in namespaceIn
	if !readXML(w, r, &in) {
		return
	}
	prefix := strings.TrimSpace(in.Prefix)
	uri := strings.TrimSpace(in.URI)
	if prefix == "" || uri == "" {
		twincore.Error(w, http.StatusBadRequest, "Namespace prefix and URI are required.")
		return
	}
	if err := h.store.CreateWorkspace(store.Workspace{Name: prefix, URI: uri, Enabled: true}); err != nil {
		storeError(w, err)
		return
	}
	created(w, restURL(r, "namespaces", prefix), prefix)
}
