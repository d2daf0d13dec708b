package form

import (
	"reflect"
	"testing"

	"github.com/opted-eu/metafill/internal/record"
)

func TestForm_Fill(t *testing.T) {
	f := NewEntryForm()

	f.Fill(map[string]any{
		record.FieldName:                 "quanteda",
		record.FieldAuthors:              "Benoit, Kenneth;Watanabe, Kohei",
		record.FieldProgrammingLanguages: []string{"r", "cobol"},
		record.FieldPlatform:             []any{"windows", "linux", "macos"},
		record.FieldMaterials:            []string{"https://quanteda.io/docs"},
		"conditions_of_access":           "free",
		record.FieldLicense:              []string{"GPL-2", "GPL-3"},
	})

	want := map[string]any{
		record.FieldName:                 "quanteda",
		record.FieldAuthors:              "Benoit, Kenneth;Watanabe, Kohei",
		record.FieldProgrammingLanguages: []string{"r"},
		record.FieldPlatform:             []string{"windows", "linux", "macos"},
		record.FieldMaterials:            []string{"https://quanteda.io/docs"},
		record.FieldLicense:              "GPL-2;GPL-3",
	}
	if got := f.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %#v\nwant %#v", got, want)
	}
}

func TestForm_Reset(t *testing.T) {
	f := NewEntryForm()
	f.Fill(map[string]any{
		record.FieldName:       "x",
		record.FieldOpenSource: []string{"yes"},
		record.FieldMaterials:  []string{"https://a"},
	})
	f.Reset()

	if got := f.Values(); len(got) != 0 {
		t.Errorf("Values() after Reset = %v, want empty", got)
	}
	materials, _ := f.Field(record.FieldMaterials)
	if len(materials.Options) != 0 {
		t.Errorf("created options survived Reset: %v", materials.Options)
	}
}

func TestForm_FillRecordFields(t *testing.T) {
	r := record.Record{
		Name:                 "spacy",
		PyPI:                 "spacy",
		ProgrammingLanguages: []string{"python"},
		Platform:             record.DesktopPlatforms,
		OpenSource:           record.OpenSourceYes,
		UserAccess:           record.UserAccessFree,
	}
	f := NewEntryForm()
	f.Fill(r.Fields())

	ua, _ := f.Field(record.FieldUserAccess)
	if got := ua.Selected(); !reflect.DeepEqual(got, []string{"free"}) {
		t.Errorf("user_access selected = %v", got)
	}
	name, _ := f.Field(record.FieldName)
	if name.Value() != "spacy" {
		t.Errorf("name = %q", name.Value())
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(Field{ID: "a"}, Field{ID: "a"}); err == nil {
		t.Error("New() accepted duplicate ids")
	}
	if _, err := New(Field{}); err == nil {
		t.Error("New() accepted empty id")
	}
}
