package inventory

import (
	"errors"
	"testing"

	"github.com/opted-eu/metafill/internal/identifier"
	"github.com/opted-eu/metafill/internal/record"
)

func TestStatusVisible(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusDraft, true},
		{StatusAccepted, true},
		{StatusPending, true},
		{StatusRejected, false},
		{StatusRevise, false},
		{Status(""), false},
	}
	for _, tt := range tests {
		if got := tt.status.Visible(); got != tt.want {
			t.Errorf("Status(%q).Visible() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestWarning(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{
			name: "no match",
			res:  Result{Status: false},
			want: "",
		},
		{
			name: "status without data",
			res:  Result{Status: true},
			want: "",
		},
		{
			name: "doi preferred",
			res:  Result{Status: true, Data: []Entry{{DOI: "10.1/x", ArXiv: "2101.1", PyPI: "p"}}},
			want: `This entry is already in the inventory! You can find it by entering the identifier "10.1/x" in the search box above`,
		},
		{
			name: "pypi before cran",
			res:  Result{Status: true, Data: []Entry{{PyPI: "pkg", CRAN: "rpkg"}}},
			want: `This entry is already in the inventory! You can find it by entering the identifier "pkg" in the search box above`,
		},
		{
			name: "github last",
			res:  Result{Status: true, Data: []Entry{{GitHub: "o/r"}}},
			want: `This entry is already in the inventory! You can find it by entering the identifier "o/r" in the search box above`,
		},
		{
			name: "unique name fallback",
			res:  Result{Status: true, Data: []Entry{{UniqueName: "tool_x"}}},
			want: `This entry is already in the inventory! You can find it by entering the identifier "tool_x" in the search box above`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Warning(tt.res); got != tt.want {
				t.Errorf("Warning() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateField(t *testing.T) {
	for _, f := range LookupFields {
		if err := ValidateField(f); err != nil {
			t.Errorf("ValidateField(%q) = %v", f, err)
		}
	}
	if err := ValidateField("name; DROP TABLE entries"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("ValidateField(injection) = %v, want ErrUnknownField", err)
	}
}

func TestNewEntry(t *testing.T) {
	r := record.Record{Title: "A Paper", DOI: "10.1/x", AlternateNames: "AP"}
	e := NewEntry(r, TypeFor(identifier.DOI))

	if e.Name != "A Paper" {
		t.Errorf("Name = %q, want title fallback", e.Name)
	}
	if e.Status != StatusDraft {
		t.Errorf("Status = %q, want draft", e.Status)
	}
	if !e.HasType(TypePublication) || !e.HasType(TypeEntry) {
		t.Errorf("Types = %v", e.Types)
	}
	if e := NewEntry(record.Record{GitHub: "opted-eu/metafill"}, TypeTool); e.Name != "opted-eu/metafill" {
		t.Errorf("Name = %q, want identifier fallback", e.Name)
	}
	if TypeFor(identifier.CRAN) != TypeTool {
		t.Errorf("TypeFor(cran) = %q, want Tool", TypeFor(identifier.CRAN))
	}
}
