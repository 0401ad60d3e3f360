// Package twincore provides the base HTTP server, CLI flags, middleware chain,
// and response helpers for the GeoServer twin.
package twincore

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Config holds the twin configuration, parsed from CLI flags.
type Config struct {
	Port     int
	Latency  time.Duration
	FailRate float64
	SeedFile string
	Verbose  bool
	Name     string // twin name for logging
	Username string
	Password string
	// Version is reported by /rest/about/version.xml. Empty simulates a
	// server too old to publish it.
	Version string
}

// ParseFlags parses the twin's CLI flags from args and returns a Config.
func ParseFlags(twinName string, args []string) (*Config, error) {
	cfg := &Config{Name: twinName}
	fs := flag.NewFlagSet(twinName, flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", 0, "HTTP listen port (default: $PORT or 8080)")
	fs.DurationVar(&cfg.Latency, "latency", 0, "Base simulated latency")
	fs.Float64Var(&cfg.FailRate, "fail-rate", 0.0, "Random failure rate 0.0-1.0")
	fs.StringVar(&cfg.SeedFile, "seed-file", "", "Path to JSON fixture for initial state")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable request/response logging")
	fs.StringVar(&cfg.Username, "username", "admin", "Basic auth user")
	fs.StringVar(&cfg.Password, "password", "geoserver", "Basic auth password")
	fs.StringVar(&cfg.Version, "gs-version", "2.24.2", "GeoServer version to report (empty: none)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Port == 0 {
		if p := os.Getenv("PORT"); p != "" {
			if _, err := fmt.Sscanf(p, "%d", &cfg.Port); err != nil {
				return nil, fmt.Errorf("invalid PORT %q: %w", p, err)
			}
		}
	}
	if cfg.FailRate < 0 || cfg.FailRate > 1 {
		return nil, fmt.Errorf("fail-rate must be between 0.0 and 1.0")
	}
	return cfg, nil
}

// Twin is the base server. It wraps a chi router with common middleware
// and provides lifecycle management.
type Twin struct {
	Config *Config
	Router *chi.Mux
	Logger *slog.Logger
	mw     *Middleware
	mu     sync.RWMutex // protects Config fields during runtime updates
}

// New creates a Twin logging JSON to stdout.
func New(cfg *Config) *Twin {
	return NewWithLogOutput(cfg, os.Stdout)
}

// NewWithLogOutput creates a Twin logging JSON to out.
func NewWithLogOutput(cfg *Config, out io.Writer) *Twin {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))

	r := chi.NewRouter()
	mw := NewMiddleware(cfg, logger)

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLog)
	r.Use(mw.LatencyInjection)
	r.Use(mw.RandomFailure)

	return &Twin{
		Config: cfg,
		Router: r,
		Logger: logger,
		mw:     mw,
	}
}

// Middleware returns the middleware instance for external access (e.g., fault injection).
func (t *Twin) Middleware() *Middleware {
	return t.mw
}

// GetConfig returns the current runtime configuration as a map.
func (t *Twin) GetConfig() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return map[string]any{
		"name":      t.Config.Name,
		"port":      t.Config.Port,
		"latency":   t.Config.Latency.String(),
		"fail_rate": t.Config.FailRate,
		"verbose":   t.Config.Verbose,
		"version":   t.Config.Version,
	}
}

// UpdateConfig updates runtime configuration fields from a map. Only
// latency, fail_rate and verbose can change at runtime. All fields are
// validated before any are applied.
func (t *Twin) UpdateConfig(updates map[string]any) error {
	type configUpdate struct {
		latency  *time.Duration
		failRate *float64
		verbose  *bool
	}
	var cu configUpdate

	for k, v := range updates {
		switch k {
		case "latency":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("latency must be a duration string")
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("invalid latency duration: %w", err)
			}
			if d < 0 {
				return fmt.Errorf("latency must not be negative")
			}
			cu.latency = &d
		case "fail_rate":
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("fail_rate must be a number")
			}
			if f < 0 || f > 1 {
				return fmt.Errorf("fail_rate must be between 0.0 and 1.0")
			}
			cu.failRate = &f
		case "verbose":
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("verbose must be a boolean")
			}
			cu.verbose = &b
		case "name", "port", "version":
			return fmt.Errorf("%s cannot be changed at runtime", k)
		default:
			return fmt.Errorf("unknown config key: %s", k)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if cu.latency != nil {
		t.Config.Latency = *cu.latency
	}
	if cu.failRate != nil {
		t.Config.FailRate = *cu.failRate
	}
	if cu.verbose != nil {
		t.Config.Verbose = *cu.verbose
	}
	return nil
}

// Serve starts the HTTP server and blocks until ctx is done or a shutdown
// signal arrives.
func (t *Twin) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", t.Config.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      t.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		t.Logger.Info("starting twin", "name", t.Config.Name, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("serving %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}
	t.Logger.Info("shutting down twin", "name", t.Config.Name)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// ServeHTTP implements http.Handler so Twin can be used directly in tests.
func (t *Twin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.Router.ServeHTTP(w, r)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// XML writes an XML document with the given status code.
func XML(w http.ResponseWriter, status int, v any) {
	body, err := xml.Marshal(v)
	if err != nil {
		Error(w, http.StatusInternalServerError, "encoding response: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	w.Write(body)
}

// Raw writes body with the given content type.
func Raw(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(body)
}

// Error writes a plain text error, the way GeoServer's REST layer does.
func Error(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, message)
}

// JSONError writes a JSON error response for the admin plane.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    http.StatusText(status),
			"code":    status,
		},
	})
}
