// Package testutil runs an in-process GeoServer twin for tests and provides
// HTTP, admin and assertion helpers around it.
package testutil

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gsconfig-go/gsconfig/internal/twin/api"
	"github.com/gsconfig-go/gsconfig/internal/twin/store"
	"github.com/gsconfig-go/gsconfig/pkg/admin"
	"github.com/gsconfig-go/gsconfig/pkg/catalog"
	"github.com/gsconfig-go/gsconfig/pkg/twincore"
)

// Credentials the test twin accepts.
const (
	Username = "admin"
	Password = "geoserver"
	Version  = "2.24.2"
)

// Twin is a GeoServer twin served by httptest.
type Twin struct {
	Server *httptest.Server
	Store  *store.MemoryStore
	Core   *twincore.Twin
	Client *TwinClient
	Admin  *AdminClient
	t      *testing.T
}

// TwinOption adjusts the twin's config before it starts.
type TwinOption func(*twincore.Config)

// WithVersion sets the version /about/version.xml reports. Empty makes the
// twin answer 404 there.
func WithVersion(v string) TwinOption {
	return func(c *twincore.Config) { c.Version = v }
}

// NewTwin starts a twin for the duration of the test.
func NewTwin(t *testing.T, opts ...TwinOption) *Twin {
	t.Helper()
	cfg := &twincore.Config{
		Name:     "twin-geoserver-test",
		Username: Username,
		Password: Password,
		Version:  Version,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	core := twincore.NewWithLogOutput(cfg, io.Discard)
	memStore := store.New()
	api.NewHandler(memStore, core.Middleware(), cfg.Version).Routes(core.Router)
	adminHandler := admin.NewHandler(memStore, core.Middleware())
	adminHandler.SetConfigProvider(core)
	adminHandler.Routes(core.Router)

	srv := httptest.NewServer(core.Router)
	t.Cleanup(srv.Close)

	tc := NewTwinClient(t, srv)
	return &Twin{
		Server: srv,
		Store:  memStore,
		Core:   core,
		Client: tc,
		Admin:  NewAdminClient(tc),
		t:      t,
	}
}

// RestURL is the twin's REST endpoint.
func (tw *Twin) RestURL() string {
	return tw.Server.URL + "/rest"
}

// Catalog returns a client for the twin with the twin's credentials and
// caching disabled unless an option says otherwise.
func (tw *Twin) Catalog(opts ...catalog.Option) *catalog.Catalog {
	tw.t.Helper()
	all := append([]catalog.Option{
		catalog.WithCredentials(Username, Password),
		catalog.WithHTTPClient(tw.Server.Client()),
		catalog.WithCacheTTL(0),
		catalog.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	c, err := catalog.New(tw.RestURL(), all...)
	if err != nil {
		tw.t.Fatalf("creating catalog: %v", err)
	}
	return c
}

// TwinClient is an HTTP client for interacting with the twin in tests. It
// sends the twin's basic auth credentials unless NoAuth is set.
type TwinClient struct {
	BaseURL    string
	HTTPClient *http.Client
	NoAuth     bool
	t          *testing.T
}

// NewTwinClient creates a client pointed at a test server.
func NewTwinClient(t *testing.T, server *httptest.Server) *TwinClient {
	return &TwinClient{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		t:          t,
	}
}

// NewTwinClientURL creates a client pointed at a specific URL.
func NewTwinClientURL(t *testing.T, baseURL string) *TwinClient {
	return &TwinClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		t:          t,
	}
}

// Response wraps an HTTP response with helper methods.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	t          *testing.T
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) {
	r.t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		r.t.Fatalf("failed to unmarshal response: %v\nbody: %s", err, string(r.Body))
	}
}

// JSONMap returns the response body as a map.
func (r *Response) JSONMap() map[string]any {
	r.t.Helper()
	var m map[string]any
	r.JSON(&m)
	return m
}

// XML unmarshals the response body into v.
func (r *Response) XML(v any) {
	r.t.Helper()
	if err := xml.Unmarshal(r.Body, v); err != nil {
		r.t.Fatalf("failed to unmarshal XML response: %v\nbody: %s", err, string(r.Body))
	}
}

// AssertStatus asserts the response has the expected status code.
func (r *Response) AssertStatus(expected int) *Response {
	r.t.Helper()
	if r.StatusCode != expected {
		r.t.Errorf("expected status %d, got %d\nbody: %s", expected, r.StatusCode, string(r.Body))
	}
	return r
}

// AssertBodyContains asserts the response body contains the given substring.
func (r *Response) AssertBodyContains(substr string) *Response {
	r.t.Helper()
	if !strings.Contains(string(r.Body), substr) {
		r.t.Errorf("expected body to contain %q, got: %s", substr, string(r.Body))
	}
	return r
}

// Get performs a GET request.
func (c *TwinClient) Get(path string) *Response {
	c.t.Helper()
	return c.Do(http.MethodGet, path, "", nil)
}

// Post performs a POST request with a JSON body.
func (c *TwinClient) Post(path string, body any) *Response {
	c.t.Helper()
	return c.do(http.MethodPost, path, body)
}

// PostXML performs a POST request with an XML body.
func (c *TwinClient) PostXML(path, body string) *Response {
	c.t.Helper()
	return c.Do(http.MethodPost, path, "application/xml", []byte(body))
}

// PutXML performs a PUT request with an XML body.
func (c *TwinClient) PutXML(path, body string) *Response {
	c.t.Helper()
	return c.Do(http.MethodPut, path, "application/xml", []byte(body))
}

// Delete performs a DELETE request.
func (c *TwinClient) Delete(path string) *Response {
	c.t.Helper()
	return c.Do(http.MethodDelete, path, "", nil)
}

// Patch performs a PATCH request with a JSON body.
func (c *TwinClient) Patch(path string, body any) *Response {
	c.t.Helper()
	return c.do(http.MethodPatch, path, body)
}

func (c *TwinClient) do(method, path string, body any) *Response {
	c.t.Helper()
	if body == nil {
		return c.Do(method, path, "", nil)
	}
	data, err := json.Marshal(body)
	if err != nil {
		c.t.Fatalf("failed to marshal body: %v", err)
	}
	return c.Do(method, path, "application/json", data)
}

// Do performs a request with a raw body of the given content type.
func (c *TwinClient) Do(method, path, contentType string, body []byte) *Response {
	c.t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		c.t.Fatalf("failed to create request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if !c.NoAuth {
		req.SetBasicAuth(Username, Password)
	}
	return c.doReq(req)
}

func (c *TwinClient) doReq(req *http.Request) *Response {
	c.t.Helper()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("failed to read response: %v", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    resp.Header,
		t:          c.t,
	}
}

// AdminClient provides convenience methods for the /admin/* control plane.
type AdminClient struct {
	*TwinClient
}

// NewAdminClient creates an admin client from a twin client.
func NewAdminClient(tc *TwinClient) *AdminClient {
	return &AdminClient{tc}
}

// Reset calls POST /admin/reset.
func (ac *AdminClient) Reset() *Response {
	ac.t.Helper()
	return ac.Post("/admin/reset", nil)
}

// GetState calls GET /admin/state.
func (ac *AdminClient) GetState() *Response {
	ac.t.Helper()
	return ac.Get("/admin/state")
}

// LoadState calls POST /admin/state with the given state data.
func (ac *AdminClient) LoadState(state any) *Response {
	ac.t.Helper()
	return ac.Post("/admin/state", state)
}

// InjectFault calls POST /admin/fault/{endpoint}.
func (ac *AdminClient) InjectFault(endpoint string, fault twincore.FaultConfig) *Response {
	ac.t.Helper()
	return ac.Post("/admin/fault/"+strings.TrimPrefix(endpoint, "/"), fault)
}

// RemoveFault calls DELETE /admin/fault/{endpoint}.
func (ac *AdminClient) RemoveFault(endpoint string) *Response {
	ac.t.Helper()
	return ac.Delete("/admin/fault/" + strings.TrimPrefix(endpoint, "/"))
}

// Requests returns the twin's request log.
func (ac *AdminClient) Requests() []twincore.RequestLogEntry {
	ac.t.Helper()
	var entries []twincore.RequestLogEntry
	ac.Get("/admin/requests").AssertStatus(http.StatusOK).JSON(&entries)
	return entries
}

// Health calls GET /admin/health.
func (ac *AdminClient) Health() *Response {
	ac.t.Helper()
	return ac.Get("/admin/health")
}
