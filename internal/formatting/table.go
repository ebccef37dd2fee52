// Package formatting renders check and status output for the CLI.
package formatting

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"stratum/internal/config"
	"stratum/internal/dependency"
)

// newTable builds a writer with the house style.
func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

func header(columns ...string) table.Row {
	row := make(table.Row, len(columns))
	for i, c := range columns {
		row[i] = text.FgHiCyan.Sprint(c)
	}
	return row
}

// RenderValidationErrors prints one row per invalid configuration field.
func RenderValidationErrors(out io.Writer, errs config.ValidationErrors) {
	t := newTable(out)
	t.AppendHeader(header("NAMESPACE", "FIELD", "PROBLEM", "VALUE"))
	for _, e := range errs {
		t.AppendRow(table.Row{e.Namespace, e.Field, e.Message, fmt.Sprintf("%v", e.Value)})
	}
	t.Render()
}

// RenderNamespaces prints every validated configuration namespace.
func RenderNamespaces(out io.Writer, namespaces []string) {
	t := newTable(out)
	t.AppendHeader(header("NAMESPACE", "STATUS"))
	for _, namespace := range namespaces {
		t.AppendRow(table.Row{namespace, text.FgGreen.Sprint("valid")})
	}
	t.Render()
}

// RenderPluginGraph prints the discovered plugins and their dependencies.
func RenderPluginGraph(out io.Writer, graph *dependency.Graph) {
	t := newTable(out)
	t.AppendHeader(header("PLUGIN", "KIND", "DEPENDS ON"))
	for _, id := range graph.IDs() {
		node := graph.Get(id)
		kind := "plugin"
		deps := joinIDs(graph.Dependencies(id))
		if node.Kind == dependency.KindLegacyBridge {
			kind = "legacy bridge"
			deps = "(all plugins)"
		}
		t.AppendRow(table.Row{id, kind, deps})
	}
	t.Render()
}

// Success prints a green confirmation line.
func Success(out io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(out, "\n%s %s\n", text.FgGreen.Sprint("OK:"), fmt.Sprintf(format, args...))
}

func joinIDs(ids []dependency.PluginID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
