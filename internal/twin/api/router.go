// Package api implements the GeoServer REST catalog endpoints of the twin.
package api

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gsconfig-go/gsconfig/internal/twin/store"
	"github.com/gsconfig-go/gsconfig/pkg/twincore"
)

// Handler holds all API handler state.
type Handler struct {
	store   *store.MemoryStore
	mw      *twincore.Middleware
	version string
}

// NewHandler creates a new API handler. version is what /about/version.xml
// reports; empty makes the twin behave like a server that predates it.
func NewHandler(s *store.MemoryStore, mw *twincore.Middleware, version string) *Handler {
	return &Handler{store: s, mw: mw, version: version}
}

// Routes mounts the REST catalog under /rest.
func (h *Handler) Routes(r chi.Router) {
	const ws = "/workspaces/{ws}"
	r.Route("/rest", func(r chi.Router) {
		r.Use(h.mw.BasicAuth)
		// Fault injection for API routes (not admin)
		r.Use(h.mw.FaultInjection)

		r.Get("/about/{page}", h.About)
		r.Post("/reload", h.Reload)
		r.Put("/reload", h.Reload)

		// Workspaces and namespaces
		r.Get("/workspaces", h.ListWorkspaces)
		r.Get("/workspaces.xml", h.ListWorkspaces)
		r.Post("/workspaces", h.CreateWorkspace)
		r.Get("/namespaces", h.ListNamespaces)
		r.Get("/namespaces.xml", h.ListNamespaces)
		r.Post("/namespaces", h.CreateNamespace)
		r.Get("/namespaces/{ws}", h.GetNamespace)
		r.Get("/workspaces/{ws}", h.GetWorkspace)
		r.Put("/workspaces/{ws}", h.UpdateWorkspace)
		r.Delete("/workspaces/{ws}", h.DeleteWorkspace)

		// Data stores
		r.Get(ws+"/datastores", h.ListDataStores)
		r.Get(ws+"/datastores.xml", h.ListDataStores)
		r.Post(ws+"/datastores", h.CreateDataStore)
		r.Get(ws+"/datastores/{store}", h.GetDataStore)
		r.Put(ws+"/datastores/{store}", h.UpdateDataStore)
		r.Delete(ws+"/datastores/{store}", h.DeleteDataStore)
		r.Put(ws+"/datastores/{store}/{file}", h.UploadShapefile)

		// Feature types
		r.Get(ws+"/datastores/{store}/featuretypes", h.ListFeatureTypes)
		r.Get(ws+"/datastores/{store}/featuretypes.xml", h.ListFeatureTypes)
		r.Get(ws+"/datastores/{store}/featuretypes/{name}", h.GetFeatureType)
		r.Put(ws+"/datastores/{store}/featuretypes/{name}", h.UpdateFeatureType)
		r.Delete(ws+"/datastores/{store}/featuretypes/{name}", h.DeleteFeatureType)

		// Coverage stores
		r.Get(ws+"/coveragestores", h.ListCoverageStores)
		r.Get(ws+"/coveragestores.xml", h.ListCoverageStores)
		r.Post(ws+"/coveragestores", h.CreateCoverageStore)
		r.Get(ws+"/coveragestores/{store}", h.GetCoverageStore)
		r.Put(ws+"/coveragestores/{store}", h.UpdateCoverageStore)
		r.Delete(ws+"/coveragestores/{store}", h.DeleteCoverageStore)
		r.Put(ws+"/coveragestores/{store}/{file}", h.UploadCoverage)

		// Coverages
		r.Get(ws+"/coveragestores/{store}/coverages", h.ListCoverages)
		r.Get(ws+"/coveragestores/{store}/coverages.xml", h.ListCoverages)
		r.Get(ws+"/coveragestores/{store}/coverages/{name}", h.GetCoverage)
		r.Put(ws+"/coveragestores/{store}/coverages/{name}", h.UpdateCoverage)
		r.Delete(ws+"/coveragestores/{store}/coverages/{name}", h.DeleteCoverage)

		// Workspace styles
		r.Get(ws+"/styles", h.ListStyles)
		r.Get(ws+"/styles.xml", h.ListStyles)
		r.Post(ws+"/styles", h.CreateStyle)
		r.Get(ws+"/styles/{name}", h.GetStyle)
		r.Put(ws+"/styles/{name}", h.UpdateStyle)
		r.Delete(ws+"/styles/{name}", h.DeleteStyle)

		// Global styles
		r.Get("/styles", h.ListStyles)
		r.Get("/styles.xml", h.ListStyles)
		r.Post("/styles", h.CreateStyle)
		r.Get("/styles/{name}", h.GetStyle)
		r.Put("/styles/{name}", h.UpdateStyle)
		r.Delete("/styles/{name}", h.DeleteStyle)

		// Layers
		r.Get("/layers", h.ListLayers)
		r.Get("/layers.xml", h.ListLayers)
		r.Get("/layers/{name}", h.GetLayer)
		r.Put("/layers/{name}", h.UpdateLayer)
		r.Delete("/layers/{name}", h.DeleteLayer)

		// Layer groups
		r.Get("/layergroups", h.ListLayerGroups)
		r.Get("/layergroups.xml", h.ListLayerGroups)
		r.Post("/layergroups", h.CreateLayerGroup)
		r.Get("/layergroups/{name}", h.GetLayerGroup)
		r.Put("/layergroups/{name}", h.UpdateLayerGroup)
		r.Delete("/layergroups/{name}", h.DeleteLayerGroup)
	})
}

// param returns a path parameter without its representation suffix.
func param(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if u, err := url.PathUnescape(v); err == nil {
		v = u
	}
	for _, ext := range []string{".xml", ".sld", ".html", ".json"} {
		if strings.HasSuffix(v, ext) {
			return strings.TrimSuffix(v, ext)
		}
	}
	return v
}

// wsParam is the {ws} path parameter with the default alias resolved.
func (h *Handler) wsParam(r *http.Request) string {
	return h.store.ResolveWorkspace(param(r, "ws"))
}

// queryBool reads a true/false query parameter.
func queryBool(r *http.Request, key string) bool {
	return strings.EqualFold(r.URL.Query().Get(key), "true")
}

// restURL builds an absolute URL under /rest on the host the request came in on.
func restURL(r *http.Request, segments ...string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	var b strings.Builder
	b.WriteString(scheme + "://" + r.Host + "/rest")
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// readXML decodes the request body into v.
func readXML(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		twincore.Error(w, http.StatusBadRequest, "reading request body: "+err.Error())
		return false
	}
	if err := xml.Unmarshal(body, v); err != nil {
		twincore.Error(w, http.StatusBadRequest, "Invalid XML: "+err.Error())
		return false
	}
	return true
}

// storeError maps a store error onto the status GeoServer answers with.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		twincore.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNotEmpty):
		twincore.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrInvalid):
		twincore.Error(w, http.StatusBadRequest, err.Error())
	default:
		twincore.Error(w, http.StatusInternalServerError, err.Error())
	}
}

// created answers a POST with 201, a Location header and the new name.
func created(w http.ResponseWriter, location, name string) {
	w.Header().Set("Location", location)
	twincore.Raw(w, http.StatusCreated, "text/plain", []byte(name))
}

func writeOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

// nameFromQueryOrBody prefers ?name= over the body's <name>.
func nameFromQueryOrBody(r *http.Request, body *string) string {
	if n := r.URL.Query().Get("name"); n != "" {
		return n
	}
	if body != nil {
		return strings.TrimSpace(*body)
	}
	return ""
}

// About handles GET /rest/about/version.xml and version.html.
func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	if h.version == "" || (page != "version.xml" && page != "version.html" && page != "version") {
		twincore.Error(w, http.StatusNotFound, "No such resource: "+page)
		return
	}
	if page == "version.html" {
		body := fmt.Sprintf("<html><body><h2>GeoServer</h2><p>Version: %s</p></body></html>", h.version)
		twincore.Raw(w, http.StatusOK, "text/html", []byte(body))
		return
	}
	twincore.XML(w, http.StatusOK, aboutXML{Resources: []aboutResource{
		{Name: "GeoServer", Version: h.version},
		{Name: "GeoTools", Version: "30.2"},
	}})
}

// Reload handles POST/PUT /rest/reload. There is no on-disk configuration
// to reread, so it only acknowledges.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	writeOK(w)
}
