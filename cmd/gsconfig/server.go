package main

import (
	"github.com/spf13/cobra"
)

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client and server versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printf(a.out, "gsconfig %s", version)
			c, err := a.catalog()
			if err != nil {
				return err
			}
			v, err := c.Version(cmd.Context())
			if err != nil {
				return err
			}
			printf(a.out, "GeoServer %s", v)
			return nil
		},
	}
}

func (a *app) newAboutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "about",
		Short: "Print the server's version page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			page, err := c.About(cmd.Context())
			if err != nil {
				return err
			}
			printf(a.out, "%s", page)
			return nil
		},
	}
}

func (a *app) newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Make GeoServer reread its configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			if err := c.Reload(cmd.Context()); err != nil {
				return err
			}
			printf(a.out, "Reloaded")
			return nil
		},
	}
}
