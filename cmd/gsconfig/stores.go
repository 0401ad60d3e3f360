package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gsconfig-go/gsconfig/pkg/catalog"
)

func storeType(s catalog.Store) string {
	switch st := s.(type) {
	case *catalog.DataStore:
		return st.Type()
	case *catalog.CoverageStore:
		return st.Type()
	}
	return ""
}

func (a *app) newStoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stores",
		Aliases: []string{"store"},
		Short:   "List and delete data and coverage stores",
	}

	var listWorkspace string
	list := &cobra.Command{
		Use:   "list",
		Short: "List stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			stores, err := c.Stores(ctx, listWorkspace)
			if err != nil {
				return err
			}
			var rows []table.Row
			for _, s := range stores {
				if err := s.Fetch(ctx); err != nil {
					return err
				}
				rows = append(rows, table.Row{s.Workspace().Name(), s.Name(), string(s.Kind()), storeType(s)})
			}
			renderTable(a.out, table.Row{"Workspace", "Name", "Kind", "Type"}, rows)
			return nil
		},
	}
	list.Flags().StringVarP(&listWorkspace, "workspace", "w", "", "only list stores in this workspace")

	var delWorkspace string
	var recurse bool
	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			s, err := c.Store(cmd.Context(), args[0], delWorkspace)
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), s, catalog.DeleteOptions{Recurse: recurse}); err != nil {
				return err
			}
			printf(a.out, "Deleted store %s:%s", s.Workspace().Name(), s.Name())
			return nil
		},
	}
	del.Flags().StringVarP(&delWorkspace, "workspace", "w", "", "workspace holding the store")
	del.Flags().BoolVar(&recurse, "recurse", false, "also delete its resources and layers")

	cmd.AddCommand(list, del)
	return cmd
}

func (a *app) newResourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resources",
		Aliases: []string{"resource"},
		Short:   "List feature types and coverages",
	}

	var q catalog.ResourceQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			resources, err := c.Resources(ctx, q)
			if err != nil {
				return err
			}
			var rows []table.Row
			for _, r := range resources {
				if err := r.Fetch(ctx); err != nil {
					return err
				}
				store := r.Store()
				rows = append(rows, table.Row{store.Workspace().Name(), store.Name(), r.Name(), r.Title(), r.Projection()})
			}
			renderTable(a.out, table.Row{"Workspace", "Store", "Name", "Title", "SRS"}, rows)
			return nil
		},
	}
	list.Flags().StringVarP(&q.Workspace, "workspace", "w", "", "only list resources in this workspace")
	list.Flags().StringVarP(&q.Store, "store", "s", "", "only list resources of this store")

	cmd.AddCommand(list)
	return cmd
}
