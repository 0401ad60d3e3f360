package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gsconfig-go/gsconfig/internal/manifest"
)

func (a *app) newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <manifest>",
		Short: "Create the workspaces, styles and layer groups a manifest declares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			c, err := a.catalog()
			if err != nil {
				return err
			}

			outcomes, applyErr := manifest.Apply(cmd.Context(), c, m)
			var rows []table.Row
			for _, o := range outcomes {
				detail := ""
				if o.Err != nil {
					detail = o.Err.Error()
				}
				rows = append(rows, table.Row{o.Kind, o.Name, string(o.Action), detail})
			}
			renderTable(a.out, table.Row{"Kind", "Name", "Result", "Error"}, rows)
			return applyErr
		},
	}
}
