package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gsconfig-go/gsconfig/pkg/catalog"
)

func (a *app) newLayerGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "layergroups",
		Aliases: []string{"layergroup", "lg"},
		Short:   "List and manage layer groups",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List layer groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			groups, err := c.LayerGroups(ctx)
			if err != nil {
				return err
			}
			var rows []table.Row
			for _, g := range groups {
				if err := g.Fetch(ctx); err != nil {
					return err
				}
				rows = append(rows, table.Row{g.Name(), strings.Join(g.Layers(), ", "), joinOrDash(g.Styles())})
			}
			renderTable(a.out, table.Row{"Name", "Layers", "Styles"}, rows)
			return nil
		},
	}

	var layers, styles []string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a layer group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			g, err := c.CreateLayerGroup(ctx, args[0], layers, styles, nil)
			if err != nil {
				return err
			}
			if err := c.Save(ctx, g); err != nil {
				return err
			}
			printf(a.out, "Created layer group %s with %d layers", g.Name(), len(g.Layers()))
			return nil
		},
	}
	create.Flags().StringSliceVar(&layers, "layers", nil, "layers in drawing order (comma separated)")
	create.Flags().StringSliceVar(&styles, "styles", nil, "style per layer; missing entries use the layer default")
	_ = create.MarkFlagRequired("layers")

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a layer group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			g, err := c.LayerGroup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), g, catalog.DeleteOptions{}); err != nil {
				return err
			}
			printf(a.out, "Deleted layer group %s", g.Name())
			return nil
		},
	}

	cmd.AddCommand(list, create, del)
	return cmd
}
