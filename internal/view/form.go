package view

import (
	"fmt"
	"html/template"
	"slices"

	"github.com/wichananm65/user-admin/internal/formfield"
)

// Form renders the field catalog. Values holds the current value(s) per
// field name; multi-choice fields may carry several.
type Form struct {
	ActionURL string
	CancelURL string
	Fields    []formfield.Field
	Values    map[string][]string
	// Editing switches the form to update mode for record ID.
	Editing bool
	ID      string
}

type formInput struct {
	Label   string
	Control template.HTML
}

type formData struct {
	ActionURL string
	CancelURL string
	Editing   bool
	ID        string
	Inputs    []formInput
}

type inputData struct {
	Type   string
	Name   string
	Value  string
	Accept string
}

type choice struct {
	Value   string
	Checked bool
}

type choicesData struct {
	Type    string
	Name    string
	Options []choice
}

func (f Form) Render() (template.HTML, error) {
	data := formData{
		ActionURL: f.ActionURL,
		CancelURL: f.CancelURL,
		Editing:   f.Editing,
		ID:        f.ID,
		Inputs:    make([]formInput, 0, len(f.Fields)),
	}
	for _, field := range f.Fields {
		control, err := f.control(field)
		if err != nil {
			return "", err
		}
		data.Inputs = append(data.Inputs, formInput{Label: field.Label, Control: control})
	}
	return execute("form", data)
}

func (f Form) value(name string) string {
	if vs := f.Values[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func (f Form) control(field formfield.Field) (template.HTML, error) {
	name := field.Name
	switch k := field.Kind.(type) {
	case formfield.Text, formfield.Email, formfield.Number, formfield.Date:
		return execute("input", inputData{Type: formfield.TypeOf(k), Name: name, Value: f.value(name)})
	case formfield.TextArea:
		return execute("textarea", inputData{Name: name, Value: f.value(name)})
	case formfield.File:
		return execute("file", inputData{Name: name, Accept: k.Accept, Value: f.value(name)})
	case formfield.SingleChoice:
		return execute("choices", f.choices("radio", name, k.Options))
	case formfield.MultiChoice:
		return execute("choices", f.choices("checkbox", name, k.Options))
	default:
		return "", fmt.Errorf("field %s: unsupported kind %T", name, k)
	}
}

func (f Form) choices(inputType, name string, options []string) choicesData {
	selected := f.Values[name]
	out := choicesData{Type: inputType, Name: name, Options: make([]choice, 0, len(options))}
	for _, opt := range options {
		out.Options = append(out.Options, choice{Value: opt, Checked: slices.Contains(selected, opt)})
	}
	return out
}
