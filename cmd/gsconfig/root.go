package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/gsconfig-go/gsconfig/internal/config"
	"github.com/gsconfig-go/gsconfig/pkg/catalog"
)

type globalOptions struct {
	profile  string
	url      string
	username string
	password string
	insecure bool
	verbose  bool
	timeout  time.Duration
}

// app carries what every command needs: output streams, the global flags
// and the catalog client built from them on first use.
type app struct {
	out    io.Writer
	errOut io.Writer
	opts   globalOptions
	cat    *catalog.Catalog
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	cmd := &cobra.Command{
		Use:           "gsconfig",
		Short:         "Manage a GeoServer catalog over its REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	f := cmd.PersistentFlags()
	f.StringVar(&a.opts.profile, "profile", "", "config profile (default: the current profile)")
	f.StringVar(&a.opts.url, "url", "", "GeoServer REST URL, e.g. http://localhost:8080/geoserver/rest")
	f.StringVar(&a.opts.username, "username", "", "user for basic auth")
	f.StringVar(&a.opts.password, "password", "", "password for basic auth")
	f.BoolVar(&a.opts.insecure, "insecure", false, "skip TLS certificate verification")
	f.BoolVarP(&a.opts.verbose, "verbose", "v", false, "log every request to stderr")
	f.DurationVar(&a.opts.timeout, "timeout", 30*time.Second, "HTTP request timeout")

	cmd.AddCommand(
		a.newVersionCmd(),
		a.newAboutCmd(),
		a.newReloadCmd(),
		a.newWorkspacesCmd(),
		a.newStoresCmd(),
		a.newResourcesCmd(),
		a.newLayersCmd(),
		a.newStylesCmd(),
		a.newLayerGroupsCmd(),
		a.newUploadCmd(),
		a.newApplyCmd(),
		a.newProfileCmd(),
	)
	return cmd
}

func (a *app) logger() *slog.Logger {
	level := slog.LevelWarn
	if a.opts.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
}

// connection resolves the profile, then applies the environment and the
// flags on top of it.
func (a *app) connection() (config.Profile, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Profile{}, err
	}
	env, err := config.ReadEnv()
	if err != nil {
		return config.Profile{}, err
	}
	if a.opts.url != "" {
		env.URL = a.opts.url
	}
	if a.opts.username != "" {
		env.Username = a.opts.username
	}
	if a.opts.password != "" {
		env.Password = a.opts.password
	}
	p, err := cfg.Resolve(a.opts.profile, env)
	if err != nil {
		return config.Profile{}, err
	}
	if a.opts.insecure {
		p.Insecure = true
	}
	return p, nil
}

func (a *app) catalog() (*catalog.Catalog, error) {
	if a.cat != nil {
		return a.cat, nil
	}
	p, err := a.connection()
	if err != nil {
		return nil, err
	}
	opts := []catalog.Option{
		catalog.WithCredentials(p.Username, p.Password),
		catalog.WithTimeout(a.opts.timeout),
		catalog.WithLogger(a.logger()),
	}
	if p.Insecure {
		opts = append(opts, catalog.WithInsecureSkipVerify())
	}
	c, err := catalog.New(p.URL, opts...)
	if err != nil {
		return nil, err
	}
	a.cat = c
	return c, nil
}
