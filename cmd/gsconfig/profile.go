package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gsconfig-go/gsconfig/internal/config"
)

func (a *app) newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Aliases: []string{"profiles"},
		Short:   "Manage saved connection profiles",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			var rows []table.Row
			for _, name := range cfg.ProfileNames() {
				p := cfg.Profiles[name]
				current := ""
				if name == cfg.Current {
					current = "*"
				}
				rows = append(rows, table.Row{current, name, p.URL, p.Username})
			}
			renderTable(a.out, table.Row{"", "Name", "URL", "Username"}, rows)
			return nil
		},
	}

	use := &cobra.Command{
		Use:   "use <name>",
		Short: "Make a profile the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Use(args[0]); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			printf(a.out, "Using profile %s", args[0])
			return nil
		},
	}

	var p config.Profile
	var makeCurrent bool
	set := &cobra.Command{
		Use:   "set <name>",
		Short: "Create or replace a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cfg.SetProfile(args[0], p)
			if makeCurrent {
				cfg.Current = args[0]
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			printf(a.out, "Saved profile %s", args[0])
			return nil
		},
	}
	// Shadows the persistent connection flags; these describe the saved profile.
	set.Flags().StringVar(&p.URL, "url", "", "GeoServer REST URL")
	set.Flags().StringVar(&p.Username, "username", "", "user for basic auth")
	set.Flags().StringVar(&p.Password, "password", "", "password for basic auth")
	set.Flags().BoolVar(&p.Insecure, "insecure", false, "skip TLS certificate verification")
	set.Flags().BoolVar(&makeCurrent, "use", false, "also make it the current profile")
	_ = set.MarkFlagRequired("url")

	cmd.AddCommand(list, use, set)
	return cmd
}
