package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gsconfig-go/gsconfig/pkg/catalog"
)

func (a *app) newWorkspacesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspaces",
		Aliases: []string{"workspace", "ws"},
		Short:   "List and manage workspaces",
	}
	cmd.AddCommand(
		a.newWorkspacesListCmd(),
		a.newWorkspacesCreateCmd(),
		a.newWorkspacesDeleteCmd(),
		a.newWorkspacesDefaultCmd(),
	)
	return cmd
}

func (a *app) newWorkspacesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			all, err := c.Workspaces(ctx)
			if err != nil {
				return err
			}
			var rows []table.Row
			for _, ws := range all {
				if err := ws.Fetch(ctx); err != nil {
					return err
				}
				rows = append(rows, table.Row{ws.Name(), yesNo(ws.Enabled())})
			}
			renderTable(a.out, table.Row{"Name", "Enabled"}, rows)
			return nil
		},
	}
}

func (a *app) newWorkspacesCreateCmd() *cobra.Command {
	var uri string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a workspace and its namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			name := args[0]
			if uri == "" {
				uri = "http://" + name
			}
			if _, err := c.CreateWorkspace(cmd.Context(), name, uri); err != nil {
				return err
			}
			printf(a.out, "Created workspace %s (%s)", name, uri)
			return nil
		},
	}
	cmd.Flags().StringVar(&uri, "uri", "", "namespace URI (default: http://<name>)")
	return cmd
}

func (a *app) newWorkspacesDeleteCmd() *cobra.Command {
	var recurse bool
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			ws, err := c.Workspace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), ws, catalog.DeleteOptions{Recurse: recurse}); err != nil {
				return err
			}
			printf(a.out, "Deleted workspace %s", ws.Name())
			return nil
		},
	}
	cmd.Flags().BoolVar(&recurse, "recurse", false, "also delete the stores and styles inside it")
	return cmd
}

func (a *app) newWorkspacesDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default <name>",
		Short: "Make a workspace the server default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			if err := c.SetDefaultWorkspace(cmd.Context(), args[0]); err != nil {
				return err
			}
			printf(a.out, "Default workspace is now %s", args[0])
			return nil
		},
	}
}
