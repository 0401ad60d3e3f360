package api

import (
	"encoding/xml"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gsconfig-go/gsconfig/internal/twin/store"
	"github.com/gsconfig-go/gsconfig/pkg/twincore"
)

const contentTypeSLD = "application/vnd.ogc.sld+xml"

// sldNames picks the names an SLD document declares for itself.
type sldNames struct {
	XMLName    xml.Name
	NamedLayer []struct {
		Name      string `xml:"Name"`
		UserStyle []struct {
			Name string `xml:"Name"`
		} `xml:"UserStyle"`
	} `xml:"NamedLayer"`
}

// parseSLD checks body is a StyledLayerDescriptor and returns the style
// name it declares, if any.
func parseSLD(body []byte) (string, bool) {
	var doc sldNames
	if err := xml.Unmarshal(body, &doc); err != nil || doc.XMLName.Local != "StyledLayerDescriptor" {
		return "", false
	}
	for _, nl := range doc.NamedLayer {
		for _, us := range nl.UserStyle {
			if n := strings.TrimSpace(us.Name); n != "" {
				return n, true
			}
		}
		if n := strings.TrimSpace(nl.Name); n != "" {
			return n, true
		}
	}
	return "", true
}

func isSLD(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == contentTypeSLD
}

// styleScope is the workspace of a style route; "" on the global routes.
func (h *Handler) styleScope(r *http.Request) string {
	if chi.URLParam(r, "ws") == "" {
		return ""
	}
	return h.wsParam(r)
}

// ListStyles handles GET /rest/styles and /rest/workspaces/{ws}/styles.
func (h *Handler) ListStyles(w http.ResponseWriter, r *http.Request) {
	styles, err := h.store.ListStyles(h.styleScope(r))
	if err != nil {
		storeError(w, err)
		return
	}
	var list styleList
	for _, s := range styles {
		list.Items = append(list.Items, ref{
			Name: s.Name,
			Link: link(styleHref(r, store.StyleRef{Workspace: s.Workspace, Name: s.Name})),
		})
	}
	twincore.XML(w, http.StatusOK, list)
}

// GetStyle handles GET .../styles/{name}.xml for the style document and
// .../styles/{name}.sld for its SLD body.
func (h *Handler) GetStyle(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Style(h.styleScope(r), param(r, "name"))
	if err != nil {
		storeError(w, err)
		return
	}
	if strings.HasSuffix(chi.URLParam(r, "name"), ".sld") {
		if s.Body == "" {
			twincore.Error(w, http.StatusNotFound, "No SLD body for style "+s.Name)
			return
		}
		twincore.Raw(w, http.StatusOK, contentTypeSLD, []byte(s.Body))
		return
	}
	x := styleXML{
		Name:            s.Name,
		Format:          "sld",
		LanguageVersion: languageVersion{Version: "1.0.0"},
		Filename:        s.Filename,
	}
	if s.Workspace != "" {
		wr := workspaceRef(r, s.Workspace)
		x.Workspace = &wr
	}
	twincore.XML(w, http.StatusOK, x)
}

// CreateStyle handles POST .../styles?name=. An SLD body creates the style
// with that body; an XML <style> body registers it without one.
func (h *Handler) CreateStyle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		twincore.Error(w, http.StatusBadRequest, "reading request body: "+err.Error())
		return
	}
	s := store.Style{Workspace: h.styleScope(r), Name: r.URL.Query().Get("name")}

	if isSLD(r) {
		declared, valid := parseSLD(body)
		if !valid {
			twincore.Error(w, http.StatusBadRequest, "Invalid SLD document")
			return
		}
		if s.Name == "" {
			s.Name = declared
		}
		s.Body = string(body)
	} else {
		var in styleIn
		if err := xml.Unmarshal(body, &in); err != nil {
			twincore.Error(w, http.StatusBadRequest, "Invalid XML: "+err.Error())
			return
		}
		if s.Name == "" && in.Name != nil {
			s.Name = strings.TrimSpace(*in.Name)
		}
		if in.Filename != nil {
			s.Filename = strings.TrimSpace(*in.Filename)
		}
	}

	if err := h.store.CreateStyle(s); err != nil {
		storeError(w, err)
		return
	}
	created(w, styleHref(r, store.StyleRef{Workspace: s.Workspace, Name: s.Name}), s.Name)
}

// UpdateStyle handles PUT .../styles/{name}.sld (new SLD body) and
// PUT .../styles/{name}.xml (style document).
func (h *Handler) UpdateStyle(w http.ResponseWriter, r *http.Request) {
	ws, name := h.styleScope(r), param(r, "name")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		twincore.Error(w, http.StatusBadRequest, "reading request body: "+err.Error())
		return
	}

	if strings.HasSuffix(chi.URLParam(r, "name"), ".sld") || isSLD(r) {
		if _, valid := parseSLD(body); !valid {
			twincore.Error(w, http.StatusBadRequest, "Invalid SLD document")
			return
		}
		err = h.store.UpdateStyle(ws, name, func(s store.Style) store.Style {
			s.Body = string(body)
			return s
		})
	} else {
		var in styleIn
		if err := xml.Unmarshal(body, &in); err != nil {
			twincore.Error(w, http.StatusBadRequest, "Invalid XML: "+err.Error())
			return
		}
		if in.Name != nil && strings.TrimSpace(*in.Name) != name {
			twincore.Error(w, http.StatusForbidden, "Can't change the name of a style.")
			return
		}
		err = h.store.UpdateStyle(ws, name, func(s store.Style) store.Style {
			if in.Filename != nil {
				s.Filename = strings.TrimSpace(*in.Filename)
			}
			return s
		})
	}
	if err != nil {
		storeError(w, err)
		return
	}
	writeOK(w)
}

// DeleteStyle handles DELETE .../styles/{name}?purge=&recurse=.
func (h *Handler) DeleteStyle(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteStyle(h.styleScope(r), param(r, "name"), queryBool(r, "recurse")); err != nil {
		storeError(w, err)
		return
	}
	writeOK(w)
}
