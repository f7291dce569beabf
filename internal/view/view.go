// Package view renders the admin screen: a generic table, a form built from
// the field catalog and the page around them.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

type Page struct {
	Title   string
	Success string
	Error   string
	Form    template.HTML
	Table   template.HTML
}

func RenderPage(w io.Writer, p Page) error {
	return templates.ExecuteTemplate(w, "page", p)
}

// Image renders a small round picture for table cells.
func Image(src, alt string) template.HTML {
	return template.HTML(fmt.Sprintf(`<img src="%s" alt="%s" class="avatar">`,
		template.HTMLEscapeString(src), template.HTMLEscapeString(alt)))
}

// RowActions are the per-row edit and delete affordances. Delete posts a
// delete intent with the row id to ActionURL.
type RowActions struct {
	EditURL   string
	ActionURL string
	ID        string
}

func (a RowActions) Render() (template.HTML, error) {
	return execute("row-actions", a)
}
