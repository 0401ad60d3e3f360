package twincore

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogEntry is one request the twin served.
type RequestLogEntry struct {
	Timestamp   time.Time     `json:"timestamp"`
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Query       string        `json:"query,omitempty"`
	User        string        `json:"user,omitempty"`
	ContentType string        `json:"content_type,omitempty"`
	BodyBytes   int64         `json:"body_bytes,omitempty"`
	StatusCode  int           `json:"status_code"`
	Duration    time.Duration `json:"duration_ms"`
	RequestID   string        `json:"request_id,omitempty"`
}

// RequestLog keeps the most recent requests, oldest first.
type RequestLog struct {
	mu      sync.RWMutex
	entries []RequestLogEntry
	limit   int
}

func NewRequestLog(limit int) *RequestLog {
	return &RequestLog{entries: make([]RequestLogEntry, 0, limit), limit: limit}
}

func (rl *RequestLog) Add(entry RequestLogEntry) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.entries) == rl.limit {
		copy(rl.entries, rl.entries[1:])
		rl.entries = rl.entries[:rl.limit-1]
	}
	rl.entries = append(rl.entries, entry)
}

// Entries returns a copy of the log.
func (rl *RequestLog) Entries() []RequestLogEntry {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return append([]RequestLogEntry(nil), rl.entries...)
}

// Find returns the logged requests with the given method and path.
func (rl *RequestLog) Find(method, path string) []RequestLogEntry {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	var out []RequestLogEntry
	for _, e := range rl.entries {
		if e.Method == method && e.Path == path {
			out = append(out, e)
		}
	}
	return out
}

func (rl *RequestLog) Clear() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.entries = rl.entries[:0]
}

// FaultConfig defines a fault injection for a specific endpoint pattern.
type FaultConfig struct {
	StatusCode int           `json:"status_code"`
	Body       string        `json:"body,omitempty"`
	Delay      time.Duration `json:"delay_ms,omitempty"`
	Rate       float64       `json:"rate"` // 0.0-1.0, probability of fault triggering
}

// FaultRegistry manages injected faults for specific endpoint patterns.
type FaultRegistry struct {
	mu     sync.RWMutex
	faults map[string]FaultConfig // path pattern -> fault config
}

// NewFaultRegistry creates a new fault registry.
func NewFaultRegistry() *FaultRegistry {
	return &FaultRegistry{
		faults: make(map[string]FaultConfig),
	}
}

// Set injects a fault for the given endpoint pattern.
func (fr *FaultRegistry) Set(pattern string, fault FaultConfig) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if fault.Rate == 0 {
		fault.Rate = 1.0
	}
	fr.faults[pattern] = fault
}

// Remove removes a fault for the given endpoint pattern.
func (fr *FaultRegistry) Remove(pattern string) bool {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	_, existed := fr.faults[pattern]
	delete(fr.faults, pattern)
	return existed
}

// Check returns a fault config if one matches the given path, or nil if no
// fault applies. A pattern matches its exact path and the same path with a
// .xml, .sld or .html suffix.
func (fr *FaultRegistry) Check(path string) *FaultConfig {
	fr.mu.RLock()
	defer fr.mu.RUnlock()
	f, ok := fr.faults[path]
	if !ok {
		f, ok = fr.faults[strings.TrimSuffix(path, filepath.Ext(path))]
	}
	if ok {
		if f.Rate >= 1.0 || rand.Float64() < f.Rate {
			return &f
		}
	}
	return nil
}

// All returns all registered faults.
func (fr *FaultRegistry) All() map[string]FaultConfig {
	fr.mu.RLock()
	defer fr.mu.RUnlock()
	out := make(map[string]FaultConfig, len(fr.faults))
	for k, v := range fr.faults {
		out[k] = v
	}
	return out
}

// Reset clears all faults.
func (fr *FaultRegistry) Reset() {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.faults = make(map[string]FaultConfig)
}

// Middleware provides the twin's middleware functions.
type Middleware struct {
	cfg    *Config
	logger *slog.Logger
	ReqLog *RequestLog
	Faults *FaultRegistry
}

// NewMiddleware creates a new Middleware instance.
func NewMiddleware(cfg *Config, logger *slog.Logger) *Middleware {
	return &Middleware{
		cfg:    cfg,
		logger: logger,
		ReqLog: NewRequestLog(1000),
		Faults: NewFaultRegistry(),
	}
}

// BasicAuth rejects requests without the configured credentials with a
// 401 and a realm challenge. Empty configured credentials disable the check.
func (m *Middleware) BasicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.cfg.Username == "" && m.cfg.Password == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(m.cfg.Username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(m.cfg.Password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="GeoServer Realm"`)
			Error(w, http.StatusUnauthorized, "HTTP Status 401 - Bad credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// RequestLog records every request. Uploads are identified by their
// content type and body size, which is how GeoServer tells a GeoTIFF from
// a zipped world image.
func (m *Middleware) RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		user, _, _ := r.BasicAuth()
		took := time.Since(start)
		m.ReqLog.Add(RequestLogEntry{
			Timestamp:   start,
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.RawQuery,
			User:        user,
			ContentType: r.Header.Get("Content-Type"),
			BodyBytes:   r.ContentLength,
			StatusCode:  rec.statusCode,
			Duration:    took,
			RequestID:   chimw.GetReqID(r.Context()),
		})
		m.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.statusCode,
			"duration", took,
		)
	})
}

// LatencyInjection adds configurable latency to every request.
func (m *Middleware) LatencyInjection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.cfg.Latency > 0 {
			// Add some jitter: 80-120% of configured latency
			jitter := 0.8 + rand.Float64()*0.4
			delay := time.Duration(float64(m.cfg.Latency) * jitter)
			time.Sleep(delay)
		}
		next.ServeHTTP(w, r)
	})
}

// RandomFailure randomly returns 500 errors based on the configured fail rate.
func (m *Middleware) RandomFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.cfg.FailRate > 0 && rand.Float64() < m.cfg.FailRate {
			Error(w, http.StatusInternalServerError, "simulated random failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FaultInjection checks the fault registry and applies any matching faults.
// Mount it on the /rest group only so admin endpoints stay reachable.
func (m *Middleware) FaultInjection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fault := m.Faults.Check(r.URL.Path); fault != nil {
			if fault.Delay > 0 {
				time.Sleep(fault.Delay)
			}
			if fault.StatusCode > 0 {
				body := fault.Body
				if body == "" {
					body = fmt.Sprintf("injected fault (%d)", fault.StatusCode)
				}
				Error(w, fault.StatusCode, body)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
