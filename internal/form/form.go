// Package form models the new-entry form that fetched metadata is written
// into, along with the state of the button that triggers the fetch.
package form

import (
	"fmt"
	"sort"
	"strings"

	"github.com/opted-eu/metafill/internal/record"
)

// Field is one input of the form. Multiple fields are multi-selects that only
// accept values listed in Options, unless Creatable lets new options in.
type Field struct {
	ID        string   `json:"id"`
	Label     string   `json:"label,omitempty"`
	Multiple  bool     `json:"multiple,omitempty"`
	Creatable bool     `json:"creatable,omitempty"`
	Options   []string `json:"options,omitempty"`

	value    string
	selected map[string]bool
	base     int // number of predefined options
}

// Value returns the value of a single-value field.
func (f *Field) Value() string {
	return f.value
}

// Selected returns the selected options of a multiple field, in option order.
func (f *Field) Selected() []string {
	var out []string
	for _, o := range f.Options {
		if f.selected[o] {
			out = append(out, o)
		}
	}
	return out
}

func (f *Field) hasOption(v string) bool {
	for _, o := range f.Options {
		if o == v {
			return true
		}
	}
	return false
}

func (f *Field) reset() {
	f.value = ""
	f.selected = nil
	f.Options = f.Options[:f.base]
}

// Form is an ordered set of fields.
type Form struct {
	fields []*Field
	byID   map[string]*Field
}

// New creates a form from field definitions. Duplicate IDs are rejected.
func New(fields ...Field) (*Form, error) {
	f := &Form{byID: make(map[string]*Field, len(fields))}
	for i := range fields {
		field := fields[i]
		field.Options = append([]string(nil), field.Options...)
		field.base = len(field.Options)
		if field.ID == "" {
			return nil, fmt.Errorf("field %d has no id", i)
		}
		if _, dup := f.byID[field.ID]; dup {
			return nil, fmt.Errorf("duplicate field id %q", field.ID)
		}
		f.fields = append(f.fields, &field)
		f.byID[field.ID] = &field
	}
	return f, nil
}

// Field returns the field with the given ID.
func (f *Form) Field(id string) (*Field, bool) {
	field, ok := f.byID[id]
	return field, ok
}

// Reset clears every value and selection.
func (f *Form) Reset() {
	for _, field := range f.fields {
		field.reset()
	}
}

// Fill writes fetched values into the form. Keys without a matching field are
// ignored. Multiple fields select each listed value that is one of their
// options; single fields take the value as text, lists joined by ";".
func (f *Form) Fill(values map[string]any) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, ok := f.byID[key]
		if !ok {
			continue
		}
		v := values[key]
		if field.Multiple {
			for _, s := range toList(v) {
				if s == "" {
					continue
				}
				if !field.hasOption(s) && field.Creatable {
					field.Options = append(field.Options, s)
				}
				if field.hasOption(s) {
					if field.selected == nil {
						field.selected = make(map[string]bool)
					}
					field.selected[s] = true
				}
			}
			continue
		}
		field.value = toText(v)
	}
}

// Values returns the current values: strings for single fields and string
// slices for multiple fields. Empty fields are omitted.
func (f *Form) Values() map[string]any {
	out := make(map[string]any)
	for _, field := range f.fields {
		if field.Multiple {
			if sel := field.Selected(); len(sel) > 0 {
				out[field.ID] = sel
			}
			continue
		}
		if field.value != "" {
			out[field.ID] = field.value
		}
	}
	return out
}

// Fields returns the fields in definition order.
func (f *Form) Fields() []*Field {
	return append([]*Field(nil), f.fields...)
}

func toList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, fmt.Sprint(e))
		}
		return out
	case string:
		return []string{t}
	case nil:
		return nil
	}
	return []string{fmt.Sprint(v)}
}

func toText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, record.AuthorSeparator)
	case []any:
		return strings.Join(toList(t), record.AuthorSeparator)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// NewEntryForm returns the new-entry form with the fields metadata can fill.
func NewEntryForm() *Form {
	f, err := New(
		Field{ID: record.FieldName, Label: "Name"},
		Field{ID: record.FieldTitle, Label: "Title"},
		Field{ID: record.FieldAlternateNames, Label: "Alternate names"},
		Field{ID: record.FieldDOI, Label: "DOI"},
		Field{ID: record.FieldArXiv, Label: "arXiv"},
		Field{ID: record.FieldCRAN, Label: "CRAN"},
		Field{ID: record.FieldPyPI, Label: "PyPI"},
		Field{ID: record.FieldGitHub, Label: "GitHub"},
		Field{ID: record.FieldURL, Label: "URL"},
		Field{ID: record.FieldJournal, Label: "Journal"},
		Field{ID: record.FieldPaperKind, Label: "Kind of paper"},
		Field{ID: record.FieldPublishedDate, Label: "Published"},
		Field{ID: record.FieldAuthors, Label: "Authors"},
		Field{ID: record.FieldDescription, Label: "Description"},
		Field{ID: record.FieldLicense, Label: "License"},
		Field{ID: record.FieldMaterials, Label: "Materials", Multiple: true, Creatable: true},
		Field{ID: record.FieldProgrammingLanguages, Label: "Programming languages", Multiple: true,
			Options: []string{"python", "r", "java", "javascript", "c", "c++", "go", "julia", "rust", "scala", "stata", "matlab", "perl"}},
		Field{ID: record.FieldPlatform, Label: "Platform", Multiple: true,
			Options: []string{"windows", "linux", "macos", "web"}},
		Field{ID: record.FieldOpenSource, Label: "Open source", Multiple: true,
			Options: []string{"yes", "no", "unknown"}},
		Field{ID: record.FieldUserAccess, Label: "User access", Multiple: true,
			Options: []string{"free", "registration", "request", "paid"}},
	)
	if err != nil {
		panic(err)
	}
	return f
}
