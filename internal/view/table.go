package view

import "html/template"

const defaultEmpty = "No data available"

// Row is anything the table can print a plain cell for.
type Row interface {
	Field(key string) string
}

// Column maps a row attribute to a header. Render, when set, replaces the
// plain text of Field(Key).
type Column[T Row] struct {
	Key    string
	Label  string
	Render func(T) template.HTML
}

type Table[T Row] struct {
	Rows    []T
	Columns []Column[T]
	// Actions adds a trailing cell to every row when set.
	Actions func(T) (template.HTML, error)
	// Empty is the placeholder text of an empty table.
	Empty string
}

type tableRow struct {
	Cells   []any
	Actions template.HTML
}

type tableData struct {
	Headers    []string
	HasActions bool
	Rows       []tableRow
	Colspan    int
	Empty      string
}

func (t Table[T]) Render() (template.HTML, error) {
	data := tableData{
		Headers:    make([]string, 0, len(t.Columns)),
		HasActions: t.Actions != nil,
		Rows:       make([]tableRow, 0, len(t.Rows)),
		Colspan:    len(t.Columns),
		Empty:      t.Empty,
	}
	if data.HasActions {
		data.Colspan++
	}
	if data.Empty == "" {
		data.Empty = defaultEmpty
	}
	for _, col := range t.Columns {
		data.Headers = append(data.Headers, col.Label)
	}

	for _, row := range t.Rows {
		r := tableRow{Cells: make([]any, 0, len(t.Columns))}
		for _, col := range t.Columns {
			if col.Render != nil {
				r.Cells = append(r.Cells, col.Render(row))
				continue
			}
			r.Cells = append(r.Cells, row.Field(col.Key))
		}
		if t.Actions != nil {
			actions, err := t.Actions(row)
			if err != nil {
				return "", err
			}
			r.Actions = actions
		}
		data.Rows = append(data.Rows, r)
	}

	return execute("table", data)
}
