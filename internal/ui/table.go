// Package ui renders list pages and drives interactive prompts in the
// terminal.
package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"

	"github.com/ehr/praxis/internal/listedit"
)

// MaxCellWidth bounds every table cell.
const MaxCellWidth = 40

// Cell renders one record value for a table cell.
func Cell(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+listedit.StringValue(t[k]))
		}
		s = strings.Join(parts, " ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, listedit.StringValue(e))
		}
		s = strings.Join(parts, ", ")
	default:
		s = listedit.StringValue(v)
	}
	s = strings.Join(strings.Fields(s), " ")
	return ansi.Truncate(s, MaxCellWidth, "…")
}

// Table renders the loaded page of res as a bordered table.
func Table(res *listedit.Resource, v listedit.View) string {
	cols := res.Columns()
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c
		if f, ok := res.Field(c); ok {
			headers[i] = f.DisplayLabel()
		}
	}

	rows := make([][]string, 0, len(v.Items))
	for _, item := range v.Items {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = Cell(item[c])
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

// Footer summarizes paging and load state below a table.
func Footer(v listedit.View) string {
	if v.LoadError != nil {
		return "Load failed: " + v.LoadError.Error()
	}
	if len(v.Items) == 0 {
		if v.Loading {
			return "Loading…"
		}
		return "No records"
	}

	pages := v.Meta.TotalPages()
	if pages == 0 {
		pages = 1
	}
	s := fmt.Sprintf("Page %d of %d · %d records", v.PageIndex+1, pages, v.Meta.Total)
	if v.Meta.Derived {
		s += " (server sent no total)"
	}
	if len(v.Filters) > 0 {
		keys := make([]string, 0, len(v.Filters))
		for k := range v.Filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+v.Filters[k])
		}
		s += " · filter " + strings.Join(parts, ", ")
	}
	return s
}

// RenderList writes title, table and footer of a list page.
func RenderList(w io.Writer, res *listedit.Resource, v listedit.View) error {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(res.Title + " list"))
	b.WriteString("\n")
	b.WriteString(Table(res, v))
	b.WriteString("\n")
	if v.LoadError != nil {
		b.WriteString(ErrorStyle.Render(Footer(v)))
	} else {
		b.WriteString(SubtitleStyle.Render(Footer(v)))
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderRecord writes every field of one record, labels first.
func RenderRecord(w io.Writer, res *listedit.Resource, rec listedit.Record) error {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(res.Title))
	b.WriteString("\n")

	seen := map[string]bool{}
	line := func(label string, v any) {
		b.WriteString(SubtitleStyle.Render(fmt.Sprintf("%-16s", label)))
		b.WriteString(" ")
		b.WriteString(listedit.StringValue(v))
		b.WriteString("\n")
	}
	line(res.ID(), rec[res.ID()])
	seen[res.ID()] = true
	for _, f := range res.Fields {
		seen[f.Name] = true
		if v, ok := rec[f.Name]; ok {
			line(f.DisplayLabel(), v)
		}
	}
	extra := make([]string, 0)
	for k := range rec {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		line(k, rec[k])
	}
	_, err := io.WriteString(w, b.String())
	return err
}
