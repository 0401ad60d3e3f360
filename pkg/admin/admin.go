// Package admin provides the /admin/* control plane of the GeoServer twin:
// state management, fault injection, request inspection and runtime config.
package admin

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gsconfig-go/gsconfig/pkg/twincore"
)

// StateStore is the interface the twin's catalog implements for admin state management.
type StateStore interface {
	// Snapshot returns the full state as a JSON-serializable value.
	Snapshot() any
	// LoadState replaces the full state from a JSON body.
	LoadState(data []byte) error
	// Reset restores the initial catalog.
	Reset()
}

// ConfigProvider exposes runtime-tunable twin settings.
type ConfigProvider interface {
	GetConfig() map[string]any
	UpdateConfig(updates map[string]any) error
}

// Handler provides the admin endpoints.
type Handler struct {
	state  StateStore
	mw     *twincore.Middleware
	config ConfigProvider
}

// NewHandler creates a new admin handler.
func NewHandler(state StateStore, mw *twincore.Middleware) *Handler {
	return &Handler{state: state, mw: mw}
}

// SetConfigProvider enables GET/PATCH /admin/config.
func (h *Handler) SetConfigProvider(p ConfigProvider) {
	h.config = p
}

// Routes mounts the admin endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Post("/reset", h.handleReset)
		r.Get("/state", h.handleGetState)
		r.Post("/state", h.handleLoadState)
		r.Post("/fault/*", h.handleInjectFault)
		r.Delete("/fault/*", h.handleRemoveFault)
		r.Get("/faults", h.handleListFaults)
		r.Get("/requests", h.handleGetRequests)
		r.Get("/config", h.handleGetConfig)
		r.Patch("/config", h.handleUpdateConfig)
		r.Get("/health", h.handleHealth)
	})
}

// faultEndpoint turns the wildcard into the request path the fault applies to.
func faultEndpoint(r *http.Request) string {
	return "/" + strings.TrimPrefix(chi.URLParam(r, "*"), "/")
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.state.Reset()
	h.mw.ReqLog.Clear()
	h.mw.Faults.Reset()
	twincore.JSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	twincore.JSON(w, http.StatusOK, h.state.Snapshot())
}

func (h *Handler) handleLoadState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		twincore.JSONError(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return
	}
	if err := h.state.LoadState(body); err != nil {
		twincore.JSONError(w, http.StatusBadRequest, "failed to load state: "+err.Error())
		return
	}
	twincore.JSON(w, http.StatusOK, map[string]string{"status": "loaded"})
}

func (h *Handler) handleInjectFault(w http.ResponseWriter, r *http.Request) {
	endpoint := faultEndpoint(r)

	var fault twincore.FaultConfig
	if err := json.NewDecoder(r.Body).Decode(&fault); err != nil {
		twincore.JSONError(w, http.StatusBadRequest, "invalid fault config: "+err.Error())
		return
	}
	h.mw.Faults.Set(endpoint, fault)
	twincore.JSON(w, http.StatusOK, map[string]any{
		"status":   "injected",
		"endpoint": endpoint,
		"fault":    fault,
	})
}

func (h *Handler) handleRemoveFault(w http.ResponseWriter, r *http.Request) {
	endpoint := faultEndpoint(r)
	if h.mw.Faults.Remove(endpoint) {
		twincore.JSON(w, http.StatusOK, map[string]any{"status": "removed", "endpoint": endpoint})
	} else {
		twincore.JSONError(w, http.StatusNotFound, "no fault registered for "+endpoint)
	}
}

func (h *Handler) handleListFaults(w http.ResponseWriter, r *http.Request) {
	twincore.JSON(w, http.StatusOK, h.mw.Faults.All())
}

func (h *Handler) handleGetRequests(w http.ResponseWriter, r *http.Request) {
	twincore.JSON(w, http.StatusOK, h.mw.ReqLog.Entries())
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if h.config == nil {
		twincore.JSONError(w, http.StatusNotFound, "runtime config not available")
		return
	}
	twincore.JSON(w, http.StatusOK, h.config.GetConfig())
}

func (h *Handler) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	if h.config == nil {
		twincore.JSONError(w, http.StatusNotFound, "runtime config not available")
		return
	}
	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		twincore.JSONError(w, http.StatusBadRequest, "invalid config: "+err.Error())
		return
	}
	if err := h.config.UpdateConfig(updates); err != nil {
		twincore.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	twincore.JSON(w, http.StatusOK, h.config.GetConfig())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	twincore.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
