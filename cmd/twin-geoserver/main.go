// twin-geoserver simulates the GeoServer REST configuration API in memory.
// It speaks the XML representations under /rest that the catalog client
// reads and writes, and exposes the usual twin control plane under /admin.
//
// Point a client at http://localhost:8080/rest with admin/geoserver.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/gsconfig-go/gsconfig/internal/twin/api"
	"github.com/gsconfig-go/gsconfig/internal/twin/store"
	"github.com/gsconfig-go/gsconfig/pkg/admin"
	"github.com/gsconfig-go/gsconfig/pkg/twincore"
)

func main() {
	cfg, err := twincore.ParseFlags("twin-geoserver", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("parsing flags: %v", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	twin := twincore.New(cfg)
	memStore := store.New()

	// API handlers
	apiHandler := api.NewHandler(memStore, twin.Middleware(), cfg.Version)
	apiHandler.Routes(twin.Router)

	// Admin control plane
	adminHandler := admin.NewHandler(memStore, twin.Middleware())
	adminHandler.SetConfigProvider(twin)
	adminHandler.Routes(twin.Router)

	// Load seed data if provided
	if cfg.SeedFile != "" {
		data, err := os.ReadFile(cfg.SeedFile)
		if err != nil {
			log.Fatalf("failed to read seed file: %v", err)
		}
		if err := memStore.LoadState(data); err != nil {
			log.Fatalf("failed to load seed data: %v", err)
		}
		twin.Logger.Info("loaded seed data", "file", cfg.SeedFile)
	}

	twin.Logger.Info("twin-geoserver ready",
		"port", cfg.Port,
		"username", cfg.Username,
		"version", cfg.Version,
	)

	if err := twin.Serve(context.Background()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
