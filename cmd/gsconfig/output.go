package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderTable writes rows under header in a borderless light table.
func renderTable(out io.Writer, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(header)
	t.AppendRows(rows)
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func joinOrDash(values []string) string {
	var nonEmpty []string
	for _, v := range values {
		if v != "" {
			nonEmpty = append(nonEmpty, v)
		}
	}
	if len(nonEmpty) == 0 {
		return "-"
	}
	return strings.Join(nonEmpty, ", ")
}

func printf(out io.Writer, format string, args ...any) {
	fmt.Fprintf(out, format+"\n", args...)
}
