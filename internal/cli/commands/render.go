package commands

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/orm"
)

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// renderRecords prints fetched rows in schema column order.
// Handles that are not *orm.Record are printed with %v.
func renderRecords(w io.Writer, s *core.ModelSchema, handles []orm.Handle, format string) error {
	if format == "json" {
		rows := make([]any, 0, len(handles))
		for _, h := range handles {
			if rec, ok := h.(*orm.Record); ok {
				rows = append(rows, rec.Map())
			} else {
				rows = append(rows, h)
			}
		}
		return renderJSON(w, rows)
	}

	if len(handles) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newTable(w)
	header := make(table.Row, len(s.Columns))
	for i, c := range s.Columns {
		header[i] = c.Name
	}
	t.AppendHeader(header)

	for _, h := range handles {
		rec, ok := h.(*orm.Record)
		if !ok {
			t.AppendRow(table.Row{fmt.Sprintf("%v", h)})
			continue
		}
		row := make(table.Row, len(s.Columns))
		for i, c := range s.Columns {
			v, found := rec.Get(c.Name)
			if !found {
				v = core.Null()
			}
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(handles))
	return nil
}

func renderMetadata(w io.Writer, meta *core.TableMetadata, format string) error {
	if format == "json" {
		type column struct {
			Name     string `json:"name"`
			Type     string `json:"type"`
			Nullable bool   `json:"nullable"`
		}
		cols := make([]column, len(meta.Columns))
		for i, c := range meta.Columns {
			cols[i] = column{Name: c.Name, Type: c.Type, Nullable: c.Nullable}
		}
		return renderJSON(w, map[string]any{
			"schema":    meta.Schema,
			"name":      meta.Name,
			"row_count": meta.RowCount,
			"columns":   cols,
		})
	}

	_, _ = fmt.Fprintf(w, "%s.%s (%d rows)\n", meta.Schema, meta.Name, meta.RowCount)
	t := newTable(w)
	t.AppendHeader(table.Row{"Column", "Type", "Nullable"})
	for _, c := range meta.Columns {
		t.AppendRow(table.Row{c.Name, c.Type, c.Nullable})
	}
	t.Render()
	return nil
}

func formatValue(v core.Value) string {
	if v.Kind == core.KindJSON {
		b, err := json.Marshal(v.JSON)
		if err != nil {
			return fmt.Sprintf("%v", v.JSON)
		}
		return string(b)
	}
	return v.String()
}
