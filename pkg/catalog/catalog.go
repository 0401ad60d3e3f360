// Package catalog is a client for the GeoServer REST configuration API.
//
// A Catalog mirrors the server's object model: workspaces, data and coverage
// stores, the feature types and coverages they publish, layers, styles and
// layer groups. Objects are fetched as XML, mutated locally through setters
// that record dirty fields, and pushed back with Save, which sends only the
// fields that changed.
//
// GET responses are cached per URL for a short TTL; any mutating call clears
// the cache.
package catalog

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
)

const (
	// DefaultUsername and DefaultPassword are GeoServer's stock admin credentials.
	DefaultUsername = "admin"
	DefaultPassword = "geoserver"

	contentTypeXML = "application/xml"
	contentTypeSLD = "application/vnd.ogc.sld+xml"

	// legacyVersion is reported by servers that predate /about/version.xml.
	legacyVersion = "2.2.x"
)

// Object is anything with a REST location.
type Object interface {
	Href() string
}

// Savable is an object Save can push back to the server.
type Savable interface {
	Object
	// Message renders the dirty fields as the XML request body.
	Message() ([]byte, error)
	saveTarget() (method, target string)
	afterSave(ctx context.Context) error
}

// Catalog talks to one GeoServer REST endpoint. It is safe for concurrent use.
type Catalog struct {
	serviceURL string
	username   string
	password   string
	http       *http.Client
	logger     *slog.Logger
	cache      *responseCache

	versionMu sync.Mutex
	version   string
}

type options struct {
	username string
	password string
	client   *http.Client
	insecure bool
	timeout  time.Duration
	cacheTTL time.Duration
	logger   *slog.Logger
}

// Option configures a Catalog.
type Option func(*options)

// WithCredentials sets the basic auth credentials sent with every request.
func WithCredentials(username, password string) Option {
	return func(o *options) {
		o.username = username
		o.password = password
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithInsecureSkipVerify disables TLS certificate validation.
func WithInsecureSkipVerify() Option {
	return func(o *options) { o.insecure = true }
}

// WithTimeout sets a per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithCacheTTL sets how long GET responses are reused. Zero disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(o *options) { o.cacheTTL = d }
}

// WithLogger sets the logger requests are traced to at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns a Catalog for the REST endpoint at serviceURL, e.g.
// "http://localhost:8080/geoserver/rest".
func New(serviceURL string, opts ...Option) (*Catalog, error) {
	o := options{
		username: DefaultUsername,
		password: DefaultPassword,
		timeout:  60 * time.Second,
		cacheTTL: DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := url.Parse(serviceURL)
	if err != nil {
		return nil, fmt.Errorf("parsing service url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("service url %q: scheme must be http or https", serviceURL)
	}

	client := o.client
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if o.insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		}
		client = &http.Client{Timeout: o.timeout, Transport: transport}
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Catalog{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		username:   o.username,
		password:   o.password,
		http:       client,
		logger:     logger,
		cache:      newResponseCache(o.cacheTTL),
	}, nil
}

// ServiceURL returns the REST endpoint without a trailing slash.
func (c *Catalog) ServiceURL() string {
	return c.serviceURL
}

func (c *Catalog) url(segments []string, params url.Values) string {
	return buildURL(c.serviceURL, segments, params)
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *Catalog) do(ctx context.Context, method, target string, body io.Reader, header http.Header) (*response, error) {
	c.logger.DebugContext(ctx, "geoserver request", "method", method, "url", target)

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, target, err)
	}
	req.SetBasicAuth(c.username, c.password)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s response: %w", method, target, err)
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

func xmlHeaders() http.Header {
	return http.Header{
		"Content-Type": {contentTypeXML},
		"Accept":       {contentTypeXML},
	}
}

// get returns the body of a 200 GET, from the cache when fresh. Concurrent
// calls for the same URL within one cache generation share one request; a
// caller whose ctx ends stops waiting without failing the others.
func (c *Catalog) get(ctx context.Context, target string) ([]byte, error) {
	if body, ok := c.cache.get(target); ok {
		c.logger.DebugContext(ctx, "geoserver cache hit", "url", target)
		return body, nil
	}

	gen := c.cache.snapshot()
	shared := context.WithoutCancel(ctx)
	ch := c.cache.inflight.DoChan(fmt.Sprintf("%d|%s", gen, target), func() (any, error) {
		resp, err := c.do(shared, http.MethodGet, target, nil, nil)
		if err != nil {
			return nil, err
		}
		if resp.status != http.StatusOK {
			return nil, &RequestError{Method: http.MethodGet, URL: target, StatusCode: resp.status, Body: string(resp.body)}
		}
		c.cache.put(target, resp.body, gen)
		return resp.body, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("GET %s: %w", target, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// getXML fetches target and decodes it into v.
func (c *Catalog) getXML(ctx context.Context, target string, v any) error {
	body, err := c.get(ctx, target)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(body, v); err != nil {
		return fmt.Errorf("GeoServer gave non-XML response for [GET %s]: %s: %w", target, body, err)
	}
	return nil
}

// mutate sends a request that changes server state and clears the cache
// whatever the outcome.
func (c *Catalog) mutate(ctx context.Context, method, target string, body []byte, header http.Header) (*response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	resp, err := c.do(ctx, method, target, r, header)
	c.cache.clear()
	return resp, err
}

// About returns the HTML version page.
func (c *Catalog) About(ctx context.Context) (string, error) {
	target := c.url([]string{"about", "version.html"}, nil)
	resp, err := c.do(ctx, http.MethodGet, target, nil, nil)
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", fmt.Errorf("unable to determine version: %w",
			&RequestError{Method: http.MethodGet, URL: target, StatusCode: resp.status, Body: string(resp.body)})
	}
	return string(resp.body), nil
}

type aboutDoc struct {
	Resources []struct {
		Name    string `xml:"name,attr"`
		Version string `xml:"Version"`
	} `xml:"resource"`
}

// Version reports the GeoServer version. Servers too old to publish it
// report "2.2.x" provided the catalog itself answers. The result is memoized.
func (c *Catalog) Version(ctx context.Context) (string, error) {
	c.versionMu.Lock()
	defer c.versionMu.Unlock()
	if c.version != "" {
		return c.version, nil
	}

	var version string
	var doc aboutDoc
	target := c.url([]string{"about", "version.xml"}, nil)
	if err := c.getXML(ctx, target, &doc); err == nil {
		for _, r := range doc.Resources {
			if r.Name == "GeoServer" && strings.TrimSpace(r.Version) != "" {
				version = strings.TrimSpace(r.Version)
				break
			}
		}
	} else {
		c.logger.DebugContext(ctx, "version lookup failed", "err", err)
	}

	if version == "" {
		if _, err := c.Workspaces(ctx); err != nil {
			return "", err
		}
		version = legacyVersion
	}
	c.version = version
	return version, nil
}

// VersionAtLeast reports whether the server version satisfies ">= min".
func (c *Catalog) VersionAtLeast(ctx context.Context, min string) (bool, error) {
	raw, err := c.Version(ctx)
	if err != nil {
		return false, err
	}
	v, err := semver.NewVersion(normalizeVersion(raw))
	if err != nil {
		return false, fmt.Errorf("parsing server version %q: %w", raw, err)
	}
	m, err := semver.NewVersion(normalizeVersion(min))
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", min, err)
	}
	return !v.LessThan(m), nil
}

// normalizeVersion maps GeoServer's "2.2.x" and "2.4-SNAPSHOT" forms onto semver.
func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(v, "-SNAPSHOT")
	v = strings.ReplaceAll(v, ".x", ".0")
	return v
}

// DeleteOptions control DELETE semantics.
type DeleteOptions struct {
	// Purge also removes the style's SLD file from disk.
	Purge bool
	// Recurse also removes dependent objects (e.g. a layer's resource, a
	// store's resources).
	Recurse bool
}

// Delete removes obj from the server.
func (c *Catalog) Delete(ctx context.Context, obj Object, opts DeleteOptions) error {
	params := url.Values{}
	if opts.Purge {
		params.Set("purge", "true")
	}
	if opts.Recurse {
		params.Set("recurse", "true")
	}
	target := obj.Href()
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	resp, err := c.mutate(ctx, http.MethodDelete, target, nil, xmlHeaders())
	if err != nil {
		return err
	}
	if resp.status != http.StatusOK {
		return &RequestError{Method: http.MethodDelete, URL: target, StatusCode: resp.status, Body: string(resp.body)}
	}
	return nil
}

// Reload asks GeoServer to reread its configuration from disk.
func (c *Catalog) Reload(ctx context.Context) error {
	target := c.url([]string{"reload"}, nil)
	resp, err := c.mutate(ctx, http.MethodPost, target, nil, nil)
	if err != nil {
		return err
	}
	if resp.status >= 400 {
		return &RequestError{Method: http.MethodPost, URL: target, StatusCode: resp.status, Body: string(resp.body)}
	}
	return nil
}

// Save pushes obj's dirty fields to the server and reloads obj from its
// canonical location.
func (c *Catalog) Save(ctx context.Context, obj Savable) error {
	method, target := obj.saveTarget()
	msg, err := obj.Message()
	if err != nil {
		return fmt.Errorf("rendering %s: %w", target, err)
	}

	c.logger.DebugContext(ctx, "saving", "method", method, "url", target)
	resp, err := c.mutate(ctx, method, target, msg, xmlHeaders())
	if err != nil {
		return err
	}
	if resp.status >= 400 {
		return &RequestError{Method: method, URL: target, StatusCode: resp.status, Body: string(resp.body)}
	}
	if err := obj.afterSave(ctx); err != nil {
		return fmt.Errorf("reloading %s after save: %w", obj.Href(), err)
	}
	return nil
}
