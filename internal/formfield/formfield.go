// Package formfield describes the editable attributes of a user record.
//
// The catalog is data only: the admin page renders it and the fields endpoint
// serves it. Nothing here validates input.
package formfield

import "encoding/json"

// Kind is the input widget a field is rendered with. The set of kinds is
// closed; use a type switch to handle each one.
type Kind interface {
	tag() string
}

type (
	Text     struct{}
	Email    struct{}
	Number   struct{}
	Date     struct{}
	TextArea struct{}

	// File accepts an upload; Accept is the browser accept filter.
	File struct {
		Accept string
	}

	// SingleChoice lets the user pick exactly one of Options.
	SingleChoice struct {
		Options []string
	}

	// MultiChoice lets the user pick any subset of Options.
	MultiChoice struct {
		Options []string
	}
)

func (Text) tag() string         { return "text" }
func (Email) tag() string        { return "email" }
func (Number) tag() string       { return "number" }
func (Date) tag() string         { return "date" }
func (TextArea) tag() string     { return "textarea" }
func (File) tag() string         { return "file" }
func (SingleChoice) tag() string { return "radio" }
func (MultiChoice) tag() string  { return "checkbox" }

// TypeOf returns the wire tag of a kind, e.g. "radio" for SingleChoice.
func TypeOf(k Kind) string {
	if k == nil {
		return ""
	}
	return k.tag()
}

// OptionsOf returns the permitted values of a choice kind and nil otherwise.
func OptionsOf(k Kind) []string {
	switch v := k.(type) {
	case SingleChoice:
		return v.Options
	case MultiChoice:
		return v.Options
	default:
		return nil
	}
}

type Field struct {
	Name  string
	Label string
	Kind  Kind
}

type fieldJSON struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Type    string   `json:"type"`
	Accept  string   `json:"accept,omitempty"`
	Options []string `json:"options,omitempty"`
}

func (f Field) MarshalJSON() ([]byte, error) {
	out := fieldJSON{
		Name:    f.Name,
		Label:   f.Label,
		Type:    TypeOf(f.Kind),
		Options: OptionsOf(f.Kind),
	}
	if file, ok := f.Kind.(File); ok {
		out.Accept = file.Accept
	}
	return json.Marshal(out)
}

var (
	GenderOptions = []string{"Male", "Female", "Others"}
	SkillOptions  = []string{"JS", "Python", "Java"}
)

var catalog = []Field{
	{Name: "name", Label: "Name", Kind: Text{}},
	{Name: "email", Label: "Email", Kind: Email{}},
	{Name: "age", Label: "Age", Kind: Number{}},
	{Name: "dob", Label: "Date of Birth", Kind: Date{}},
	{Name: "profilePic", Label: "Profile Picture", Kind: File{Accept: "image/*"}},
	{Name: "gender", Label: "Gender", Kind: SingleChoice{Options: GenderOptions}},
	{Name: "skills", Label: "Skills", Kind: MultiChoice{Options: SkillOptions}},
	{Name: "bio", Label: "Bio", Kind: TextArea{}},
}

// Catalog returns the user form fields in display order. The slice is a
// copy; callers may reorder or filter it.
func Catalog() []Field {
	out := make([]Field, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(name string) (Field, bool) {
	for _, f := range catalog {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
