package twincore

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]string{"key": "value"})

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}
	if body["key"] != "value" {
		t.Errorf("expected key=value, got %+v", body)
	}
}

func TestJSONNilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusNoContent, nil)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %s", rec.Body.String())
	}
}

func TestXML(t *testing.T) {
	type workspace struct {
		XMLName xml.Name `xml:"workspace"`
		Name    string   `xml:"name"`
	}
	rec := httptest.NewRecorder()
	XML(rec, http.StatusOK, workspace{Name: "topp"})

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/xml" {
		t.Errorf("expected application/xml, got %s", ct)
	}
	if got := rec.Body.String(); got != "<workspace><name>topp</name></workspace>" {
		t.Errorf("unexpected body: %s", got)
	}
}

func TestRaw(t *testing.T) {
	rec := httptest.NewRecorder()
	Raw(rec, http.StatusOK, "application/vnd.ogc.sld+xml", []byte("<sld/>"))

	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.ogc.sld+xml" {
		t.Errorf("unexpected content type %s", ct)
	}
	if rec.Body.String() != "<sld/>" {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "No such workspace: nope")

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("expected text/plain, got %s", rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "No such workspace: nope" {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, http.StatusBadRequest, "bad input")

	var body map[string]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}
	if body["error"]["message"] != "bad input" {
		t.Errorf("unexpected message: %v", body["error"]["message"])
	}
	if body["error"]["code"] != float64(400) {
		t.Errorf("unexpected code: %v", body["error"]["code"])
	}
}

// ---------------------------------------------------------------------------
// Flags
// ---------------------------------------------------------------------------

func TestParseFlagsDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := ParseFlags("twin-geoserver", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "twin-geoserver" {
		t.Errorf("expected name twin-geoserver, got %s", cfg.Name)
	}
	if cfg.Username != "admin" || cfg.Password != "geoserver" {
		t.Errorf("unexpected credentials %s/%s", cfg.Username, cfg.Password)
	}
	if cfg.Version == "" {
		t.Error("expected a default version")
	}
}

func TestParseFlags(t *testing.T) {
	cfg, err := ParseFlags("twin-geoserver", []string{
		"--port", "9090", "--latency", "20ms", "--fail-rate", "0.5", "--gs-version", "", "--verbose",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.Latency != 20*time.Millisecond {
		t.Errorf("expected 20ms latency, got %s", cfg.Latency)
	}
	if cfg.FailRate != 0.5 {
		t.Errorf("expected fail rate 0.5, got %f", cfg.FailRate)
	}
	if cfg.Version != "" {
		t.Errorf("expected empty version, got %q", cfg.Version)
	}
	if !cfg.Verbose {
		t.Error("expected verbose")
	}
}

func TestParseFlagsPortFromEnv(t *testing.T) {
	t.Setenv("PORT", "4321")
	cfg, err := ParseFlags("twin-geoserver", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 4321 {
		t.Errorf("expected port 4321, got %d", cfg.Port)
	}
}

func TestParseFlagsRejectsBadFailRate(t *testing.T) {
	if _, err := ParseFlags("twin-geoserver", []string{"--fail-rate", "2"}); err == nil {
		t.Error("expected error for fail rate > 1")
	}
}

// ---------------------------------------------------------------------------
// Twin
// ---------------------------------------------------------------------------

func TestNewTwin(t *testing.T) {
	cfg := &Config{Name: "test-twin"}
	twin := NewWithLogOutput(cfg, io.Discard)

	if twin.Config != cfg {
		t.Error("expected config to be set")
	}
	if twin.Router == nil {
		t.Error("expected router to be set")
	}
	if twin.Middleware() == nil {
		t.Error("expected middleware to be set")
	}
}

func TestNewTwinVerboseLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	twin := NewWithLogOutput(&Config{Name: "test-twin", Verbose: true}, &buf)
	twin.Router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	twin.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if !strings.Contains(buf.String(), `"level":"DEBUG"`) {
		t.Errorf("expected a debug request log line, got %s", buf.String())
	}
}

func TestTwinServeHTTP(t *testing.T) {
	twin := NewWithLogOutput(&Config{Name: "test-twin"}, io.Discard)
	twin.Router.Get("/rest/about/version.xml", func(w http.ResponseWriter, r *http.Request) {
		Raw(w, http.StatusOK, "application/xml", []byte("<about/>"))
	})

	rec := httptest.NewRecorder()
	twin.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rest/about/version.xml", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	entries := twin.Middleware().ReqLog.Entries()
	if len(entries) != 1 || entries[0].Path != "/rest/about/version.xml" {
		t.Errorf("expected one logged request, got %+v", entries)
	}
}

func TestUpdateConfig(t *testing.T) {
	twin := NewWithLogOutput(&Config{Name: "test-twin"}, io.Discard)

	err := twin.UpdateConfig(map[string]any{"latency": "15ms", "fail_rate": 0.25, "verbose": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := twin.GetConfig()
	if got["latency"] != "15ms" || got["fail_rate"] != 0.25 || got["verbose"] != true {
		t.Errorf("unexpected config: %+v", got)
	}
}

func TestUpdateConfigIsAtomic(t *testing.T) {
	twin := NewWithLogOutput(&Config{Name: "test-twin"}, io.Discard)

	err := twin.UpdateConfig(map[string]any{"latency": "15ms", "fail_rate": 3.0})
	if err == nil {
		t.Fatal("expected error for out of range fail_rate")
	}
	if twin.Config.Latency != 0 {
		t.Errorf("expected latency unchanged, got %s", twin.Config.Latency)
	}

	for _, key := range []string{"name", "port", "version"} {
		if err := twin.UpdateConfig(map[string]any{key: "x"}); err == nil {
			t.Errorf("expected %s to be immutable", key)
		}
	}
	if err := twin.UpdateConfig(map[string]any{"bogus": 1}); err == nil {
		t.Error("expected error for unknown key")
	}
}

// ---------------------------------------------------------------------------
// statusRecorder
// ---------------------------------------------------------------------------

func TestStatusRecorderDefaultCode(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), statusCode: 200}
	if rec.statusCode != 200 {
		t.Errorf("expected default 200, got %d", rec.statusCode)
	}
}

func TestStatusRecorderExplicitCode(t *testing.T) {
	inner := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: inner, statusCode: 200}
	rec.WriteHeader(http.StatusCreated)

	if rec.statusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.statusCode)
	}
	if inner.Code != http.StatusCreated {
		t.Errorf("expected inner 201, got %d", inner.Code)
	}
}
