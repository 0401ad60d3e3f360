package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gsconfig-go/gsconfig/pkg/catalog"
)

// findStyle looks a style up globally, or among a workspace's styles.
func findStyle(ctx context.Context, c *catalog.Catalog, name, workspace string) (*catalog.Style, error) {
	if workspace == "" {
		return c.Style(ctx, name)
	}
	styles, err := c.WorkspaceStyles(ctx, workspace)
	if err != nil {
		return nil, err
	}
	for _, s := range styles {
		if s.Name() == name {
			if err := s.Fetch(ctx); err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	return nil, fmt.Errorf("style %s:%s: %w", workspace, name, catalog.ErrNotFound)
}

func (a *app) newStylesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "styles",
		Aliases: []string{"style"},
		Short:   "List and manage SLD styles",
	}
	cmd.AddCommand(
		a.newStylesListCmd(),
		a.newStylesCreateCmd(),
		a.newStylesShowCmd(),
		a.newStylesDeleteCmd(),
	)
	return cmd
}

func (a *app) newStylesListCmd() *cobra.Command {
	var workspace string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List global styles, or a workspace's styles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var styles []*catalog.Style
			if workspace == "" {
				styles, err = c.Styles(ctx)
			} else {
				styles, err = c.WorkspaceStyles(ctx, workspace)
			}
			if err != nil {
				return err
			}
			var rows []table.Row
			for _, s := range styles {
				if err := s.Fetch(ctx); err != nil {
					return err
				}
				rows = append(rows, table.Row{s.String(), s.Filename()})
			}
			renderTable(a.out, table.Row{"Name", "Filename"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "list the styles of this workspace")
	return cmd
}

func (a *app) newStylesCreateCmd() *cobra.Command {
	var opts catalog.StyleOptions
	cmd := &cobra.Command{
		Use:   "create <name> <sld-file>",
		Short: "Upload an SLD file as a style",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			sld, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading sld: %w", err)
			}
			s, err := c.CreateStyle(cmd.Context(), args[0], sld, opts)
			if err != nil {
				return err
			}
			verb := "Created"
			if opts.Overwrite {
				verb = "Updated"
			}
			printf(a.out, "%s style %s", verb, s)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Workspace, "workspace", "w", "", "create the style in this workspace")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace the SLD of an existing style")
	return cmd
}

func (a *app) newStylesShowCmd() *cobra.Command {
	var workspace string
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a style's SLD document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			s, err := findStyle(cmd.Context(), c, args[0], workspace)
			if err != nil {
				return err
			}
			body, err := s.Body(cmd.Context())
			if err != nil {
				return err
			}
			_, err = a.out.Write(body)
			return err
		},
	}
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace holding the style")
	return cmd
}

func (a *app) newStylesDeleteCmd() *cobra.Command {
	var workspace string
	var opts catalog.DeleteOptions
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a style",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			s, err := findStyle(cmd.Context(), c, args[0], workspace)
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), s, opts); err != nil {
				return err
			}
			printf(a.out, "Deleted style %s", s)
			return nil
		},
	}
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace holding the style")
	cmd.Flags().BoolVar(&opts.Purge, "purge", false, "also remove the SLD file")
	cmd.Flags().BoolVar(&opts.Recurse, "recurse", false, "detach the style from layers using it")
	return cmd
}
