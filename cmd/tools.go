package cmd

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
)

func newToolsCmd() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the server exposes",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, cleanup, err := offlineRegistry(context.Background())
			if err != nil {
				return err
			}
			defer cleanup()

			renderToolTable(cmd.OutOrStdout(), r.Tools(), group)
			return nil
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Only list tools of this group (e.g. gmail, expenses)")

	return cmd
}

func renderToolTable(w io.Writer, entries []registry.Entry, group string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Tool", "Group", "Arguments", "Description"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: 60},
	})

	count := 0
	for _, e := range entries {
		if group != "" && e.Group != group {
			continue
		}
		t.AppendRow(table.Row{
			text.FgCyan.Sprint(e.Tool.Name),
			e.Group,
			argumentSummary(e.Tool),
			firstLine(e.Tool.Description),
		})
		count++
	}
	t.AppendFooter(table.Row{"", "", "", text.FgHiBlack.Sprintf("%d tools", count)})
	t.Render()
}

// argumentSummary lists argument names, required ones marked with "*".
func argumentSummary(tool mcp.Tool) string {
	names := make([]string, 0, len(tool.InputSchema.Properties))
	for name := range tool.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		if contains(tool.InputSchema.Required, name) {
			names[i] = name + "*"
		}
	}
	return strings.Join(names, ", ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
