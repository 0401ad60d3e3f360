// gsconfig manages a GeoServer catalog over the REST API.
//
// Usage:
//
//	gsconfig workspaces list              List workspaces
//	gsconfig upload shapefile <store> <f> Create a store from a shapefile
//	gsconfig layers set-style <l> <s>     Change a layer's default style
//	gsconfig apply <manifest>             Create what a manifest declares
//	gsconfig profile set <name> --url ..  Save connection settings
//
// Connection settings come from ~/.gsconfig/config.yaml, GSCONFIG_* variables
// and the --url/--username/--password flags, in increasing precedence.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "gsconfig: %v\n", err)
		os.Exit(1)
	}
}
