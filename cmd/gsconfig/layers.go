package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gsconfig-go/gsconfig/pkg/catalog"
)

func (a *app) newLayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "layers",
		Aliases: []string{"layer"},
		Short:   "List and configure published layers",
	}
	cmd.AddCommand(
		a.newLayersListCmd(),
		a.newLayersShowCmd(),
		a.newLayersSetStyleCmd(),
		a.newLayersEnableCmd("enable", "Enable a layer", true),
		a.newLayersEnableCmd("disable", "Disable a layer", false),
		a.newLayersDeleteCmd(),
	)
	return cmd
}

func (a *app) newLayersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List layers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			layers, err := c.Layers(ctx, nil)
			if err != nil {
				return err
			}
			var rows []table.Row
			for _, l := range layers {
				if err := l.Fetch(ctx); err != nil {
					return err
				}
				rows = append(rows, table.Row{l.Name(), l.Type(), l.DefaultStyleName(), yesNo(l.Enabled())})
			}
			renderTable(a.out, table.Row{"Name", "Type", "Default Style", "Enabled"}, rows)
			return nil
		},
	}
}

func (a *app) newLayersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a layer's settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			l, err := c.Layer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			attr := l.Attribution()
			rows := []table.Row{
				{"Name", l.Name()},
				{"Type", l.Type()},
				{"Enabled", yesNo(l.Enabled())},
				{"Advertised", yesNo(l.Advertised())},
				{"Default style", l.DefaultStyleName()},
				{"Styles", joinOrDash(l.StyleNames())},
				{"Resource", l.ResourceHref()},
				{"Attribution", joinOrDash([]string{attr.Title})},
			}
			if attr.LogoWidth > 0 || attr.LogoHeight > 0 {
				rows = append(rows, table.Row{"Logo", fmt.Sprintf("%dx%d", attr.LogoWidth, attr.LogoHeight)})
			}
			renderTable(a.out, table.Row{"Field", "Value"}, rows)
			return nil
		},
	}
}

func (a *app) newLayersSetStyleCmd() *cobra.Command {
	var alternates []string
	cmd := &cobra.Command{
		Use:   "set-style <layer> <style>",
		Short: "Set a layer's default style",
		Long: "Set a layer's default style. Workspace styles are named ws:style.\n" +
			"--alternates replaces the list of other styles the layer offers.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			l, err := c.Layer(ctx, args[0])
			if err != nil {
				return err
			}
			l.SetDefaultStyle(args[1])
			if cmd.Flags().Changed("alternates") {
				l.SetStyles(alternates...)
			}
			if err := c.Save(ctx, l); err != nil {
				return err
			}
			printf(a.out, "Layer %s now uses %s", l.Name(), l.DefaultStyleName())
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&alternates, "alternates", nil, "alternate styles (comma separated)")
	return cmd
}

func (a *app) newLayersEnableCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			l, err := c.Layer(ctx, args[0])
			if err != nil {
				return err
			}
			l.SetEnabled(enabled)
			if err := c.Save(ctx, l); err != nil {
				return err
			}
			printf(a.out, "Layer %s %sd", l.Name(), use)
			return nil
		},
	}
}

func (a *app) newLayersDeleteCmd() *cobra.Command {
	var recurse bool
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			l, err := c.Layer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), l, catalog.DeleteOptions{Recurse: recurse}); err != nil {
				return err
			}
			printf(a.out, "Deleted layer %s", l.Name())
			return nil
		},
	}
	cmd.Flags().BoolVar(&recurse, "recurse", false, "also delete the published resource")
	return cmd
}
