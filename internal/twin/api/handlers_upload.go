package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/zip"

	"github.com/gsconfig-go/gsconfig/internal/twin/store"
	"github.com/gsconfig-go/gsconfig/pkg/twincore"
)

// maxUpload bounds the request bodies the twin will buffer.
const maxUpload = 64 << 20

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpload+1))
	if err != nil {
		twincore.Error(w, http.StatusBadRequest, "reading upload: "+err.Error())
		return nil, false
	}
	if len(body) > maxUpload {
		twincore.Error(w, http.StatusRequestEntityTooLarge, "upload too large")
		return nil, false
	}
	if len(body) == 0 {
		twincore.Error(w, http.StatusBadRequest, "empty upload")
		return nil, false
	}
	return body, true
}

// zipEntries lists the file names in a zip archive, grouped by lower-cased
// extension without the dot.
func zipEntries(body []byte) (map[string][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("not a zip archive: %w", err)
	}
	byExt := make(map[string][]string)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		base := path.Base(f.Name)
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(base), "."))
		byExt[ext] = append(byExt[ext], strings.TrimSuffix(base, path.Ext(base)))
	}
	for _, names := range byExt {
		sort.Strings(names)
	}
	return byExt, nil
}

// UploadShapefile handles PUT /rest/workspaces/{ws}/datastores/{store}/file.shp
// with a zipped shapefile bundle. Every .shp entry becomes a feature type
// and layer.
func (h *Handler) UploadShapefile(w http.ResponseWriter, r *http.Request) {
	if file := chi.URLParam(r, "file"); file != "file.shp" {
		twincore.Error(w, http.StatusNotFound, "No such upload method: "+file)
		return
	}
	body, ok := readUpload(w, r)
	if !ok {
		return
	}
	entries, err := zipEntries(body)
	if err != nil {
		twincore.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, required := range []string{"shp", "shx", "dbf"} {
		if len(entries[required]) == 0 {
			twincore.Error(w, http.StatusBadRequest, "shapefile bundle has no ."+required+" file")
			return
		}
	}

	overwrite := r.URL.Query().Get("update") == "overwrite"
	err = h.store.ImportShapefile(param(r, "ws"), param(r, "store"), entries["shp"], overwrite, r.URL.Query().Get("charset"))
	if err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// UploadCoverage handles PUT .../coveragestores/{store}/file.geotiff with a
// TIFF body and .../file.worldimage with a zip holding an image and its
// world file.
func (h *Handler) UploadCoverage(w http.ResponseWriter, r *http.Request) {
	var storeType string
	switch file := chi.URLParam(r, "file"); file {
	case "file.geotiff":
		storeType = store.GeoTIFFType
	case "file.worldimage":
		storeType = store.WorldImageType
	default:
		twincore.Error(w, http.StatusNotFound, "No such upload method: "+file)
		return
	}
	body, ok := readUpload(w, r)
	if !ok {
		return
	}

	if storeType == store.GeoTIFFType {
		if !isTIFF(body) && !isZip(body) {
			twincore.Error(w, http.StatusBadRequest, "upload is not a GeoTIFF")
			return
		}
	} else {
		entries, err := zipEntries(body)
		if err != nil {
			twincore.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(entries["tfw"]) == 0 && len(entries["pgw"]) == 0 && len(entries["wld"]) == 0 {
			twincore.Error(w, http.StatusBadRequest, "world image bundle has no world file")
			return
		}
	}

	if err := h.store.ImportCoverage(param(r, "ws"), param(r, "store"), storeType); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func isTIFF(b []byte) bool {
	return bytes.HasPrefix(b, []byte("II*\x00")) || bytes.HasPrefix(b, []byte("MM\x00*"))
}

func isZip(b []byte) bool {
	return bytes.HasPrefix(b, []byte("PK\x03\x04"))
}
