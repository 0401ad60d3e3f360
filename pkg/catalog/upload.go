package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"

	"github.com/klauspost/compress/zip"
)

const (
	contentTypeZip     = "application/zip"
	contentTypeTIFF    = "image/tiff"
	contentTypeArchive = "application/archive"
)

// UploadData is the payload of a file upload. Exactly one field is used,
// checked in the order Files, Archive, Reader.
type UploadData struct {
	// Files maps an extension ("shp", "dbf", "shx", "prj", "tif", "tfw") to
	// a local path. The files are zipped as {name}.{ext} before sending.
	Files map[string]string
	// Archive is a prepared zip, or a single GeoTIFF for coverage stores.
	Archive string
	// Reader supplies the prepared body directly.
	Reader io.Reader
}

// UploadOptions control the upload calls.
type UploadOptions struct {
	// Workspace defaults to the server's default workspace.
	Workspace string
	// Overwrite replaces existing data instead of failing with ErrConflict.
	Overwrite bool
	// Charset names the encoding of shapefile attribute data.
	Charset string
}

// PrepareUploadBundle zips files into a temporary archive with entries
// named {name}.{ext} and returns its path. The caller removes it.
func PrepareUploadBundle(name string, files map[string]string) (path string, err error) {
	f, err := os.CreateTemp("", "gsconfig-*.zip")
	if err != nil {
		return "", fmt.Errorf("creating upload bundle: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(f.Name())
			path = ""
		}
	}()

	exts := make([]string, 0, len(files))
	for ext := range files {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	zw := zip.NewWriter(f)
	for _, ext := range exts {
		if err := addToBundle(zw, name+"."+ext, files[ext]); err != nil {
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finishing upload bundle: %w", err)
	}
	return f.Name(), nil
}

func addToBundle(zw *zip.Writer, entry, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	dst, err := zw.CreateHeader(&zip.FileHeader{Name: entry, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("adding %s to bundle: %w", entry, err)
	}
	if _, err := io.Copy(dst, in); err != nil {
		return fmt.Errorf("adding %s to bundle: %w", entry, err)
	}
	return nil
}

// openUpload resolves data into a request body. done closes the body and
// removes any bundle built for it.
func openUpload(name string, data UploadData) (body io.Reader, done func(), err error) {
	switch {
	case len(data.Files) > 0:
		bundle, err := PrepareUploadBundle(name, data.Files)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.Open(bundle)
		if err != nil {
			_ = os.Remove(bundle)
			return nil, nil, err
		}
		return f, func() {
			_ = f.Close()
			_ = os.Remove(bundle)
		}, nil
	case data.Archive != "":
		f, err := os.Open(data.Archive)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { _ = f.Close() }, nil
	case data.Reader != nil:
		return data.Reader, func() {}, nil
	default:
		return nil, nil, errors.New("upload data is empty")
	}
}

// upload PUTs body to target and requires 201 Created.
func (c *Catalog) upload(ctx context.Context, target, contentType string, body io.Reader) error {
	payload, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("reading upload for %s: %w", target, err)
	}
	header := http.Header{
		"Content-Type": {contentType},
		"Accept":       {contentTypeXML},
	}
	c.logger.DebugContext(ctx, "uploading", "url", target, "bytes", len(payload))
	resp, err := c.do(ctx, http.MethodPut, target, bytes.NewReader(payload), header)
	c.cache.clear()
	if err != nil {
		return err
	}
	if resp.status != http.StatusCreated {
		return &UploadError{URL: target, StatusCode: resp.status, Body: string(resp.body)}
	}
	return nil
}

// AddDataToStore uploads shapefile data into an existing data store.
func (c *Catalog) AddDataToStore(ctx context.Context, store, name string, data UploadData, opts UploadOptions) error {
	s, err := c.Store(ctx, store, opts.Workspace)
	if err != nil {
		return err
	}
	ws := s.Workspace().Name()
	if opts.Workspace != "" && opts.Workspace != ws {
		return fmt.Errorf("store %s is not in workspace %s", s, opts.Workspace)
	}

	params := url.Values{}
	if opts.Overwrite {
		params.Set("update", "overwrite")
	}
	if opts.Charset != "" {
		params.Set("charset", opts.Charset)
	}

	body, done, err := openUpload(name, data)
	if err != nil {
		return err
	}
	defer done()
	target := c.url([]string{"workspaces", ws, "datastores", s.Name(), "file.shp"}, params)
	return c.upload(ctx, target, contentTypeZip, body)
}

// checkNoStore fails with ErrConflict when a store named name exists.
func (c *Catalog) checkNoStore(ctx context.Context, name, workspace string) error {
	_, err := c.Store(ctx, name, workspace)
	switch {
	case err == nil, errors.Is(err, ErrAmbiguous):
		if workspace != "" {
			return conflict("there is already a store named %s in %s", name, workspace)
		}
		return conflict("there is already a store named %s", name)
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return err
	}
}

// CreateFeatureStore creates a data store from a shapefile bundle.
func (c *Catalog) CreateFeatureStore(ctx context.Context, name string, data UploadData, opts UploadOptions) error {
	if !opts.Overwrite {
		if err := c.checkNoStore(ctx, name, opts.Workspace); err != nil {
			return err
		}
	}
	ws := opts.Workspace
	if ws == "" {
		ws = defaultWorkspaceName
	}

	params := url.Values{}
	if opts.Charset != "" {
		params.Set("charset", opts.Charset)
	}

	body, done, err := openUpload(name, data)
	if err != nil {
		return err
	}
	defer done()
	target := c.url([]string{"workspaces", ws, "datastores", name, "file.shp"}, params)
	return c.upload(ctx, target, contentTypeZip, body)
}

// CreateCoverageStoreFromFile creates a coverage store from a GeoTIFF. A
// Files bundle holding a "tfw" world file is sent as a world image.
func (c *Catalog) CreateCoverageStoreFromFile(ctx context.Context, name string, data UploadData, opts UploadOptions) error {
	if !opts.Overwrite {
		if err := c.checkNoStore(ctx, name, opts.Workspace); err != nil {
			return err
		}
	}
	ws := opts.Workspace
	if ws == "" {
		ws = defaultWorkspaceName
	}

	contentType, ext := contentTypeTIFF, "geotiff"
	if _, ok := data.Files["tfw"]; ok {
		contentType, ext = contentTypeArchive, "worldimage"
	}

	body, done, err := openUpload(name, data)
	if err != nil {
		return err
	}
	defer done()
	target := c.url([]string{"workspaces", ws, "coveragestores", name, "file." + ext}, nil)
	return c.upload(ctx, target, contentType, body)
}
