// Package inventory answers "is this item already in the inventory?" and
// manages the local entry store that backs the answer.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opted-eu/metafill/internal/identifier"
	"github.com/opted-eu/metafill/internal/record"
)

// Status is the review status of an entry.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusAccepted Status = "accepted"
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
	StatusRevise   Status = "revise"
)

// Visible reports whether entries with this status count as present in the
// inventory. Rejected entries and entries sent back for revision do not.
func (s Status) Visible() bool {
	switch s {
	case StatusDraft, StatusAccepted, StatusPending:
		return true
	}
	return false
}

// Entry types.
const (
	TypeEntry       = "Entry"
	TypePublication = "ScientificPublication"
	TypeTool        = "Tool"
)

// Identifier fields an entry can be looked up by.
const (
	FieldDOI      = "doi"
	FieldArXiv    = "arxiv"
	FieldCRAN     = "cran"
	FieldPyPI     = "pypi"
	FieldGitHub   = "github"
	FieldOpenAlex = "openalex"
)

// LookupFields lists the identifier fields in lookup precedence order.
var LookupFields = []string{FieldDOI, FieldArXiv, FieldCRAN, FieldPyPI, FieldGitHub, FieldOpenAlex}

// Errors.
var (
	ErrUnknownField = errors.New("unknown identifier field")
	ErrNotFound     = errors.New("entry not found")
	ErrDuplicate    = errors.New("entry already exists")
	ErrEmptyName    = errors.New("entry name is required")
)

// Entry is one item of the inventory.
type Entry struct {
	UID            string    `json:"uid"`
	UniqueName     string    `json:"_unique_name"`
	Name           string    `json:"name"`
	Title          string    `json:"title,omitempty"`
	AlternateNames string    `json:"alternate_names,omitempty"`
	Types          []string  `json:"dgraph.type"`
	Status         Status    `json:"entry_review_status"`
	DOI            string    `json:"doi,omitempty"`
	ArXiv          string    `json:"arxiv,omitempty"`
	CRAN           string    `json:"cran,omitempty"`
	PyPI           string    `json:"pypi,omitempty"`
	GitHub         string    `json:"github,omitempty"`
	OpenAlex       string    `json:"openalex,omitempty"`
	DateCreated    time.Time `json:"_date_created,omitempty"`
}

// Identifier returns the value of an identifier field.
func (e Entry) Identifier(field string) string {
	switch field {
	case FieldDOI:
		return e.DOI
	case FieldArXiv:
		return e.ArXiv
	case FieldCRAN:
		return e.CRAN
	case FieldPyPI:
		return e.PyPI
	case FieldGitHub:
		return e.GitHub
	case FieldOpenAlex:
		return e.OpenAlex
	}
	return ""
}

// HasType reports whether the entry carries the given type.
func (e Entry) HasType(t string) bool {
	for _, have := range e.Types {
		if strings.EqualFold(have, t) {
			return true
		}
	}
	return false
}

// ValidateField checks that field is a known identifier field.
func ValidateField(field string) error {
	for _, f := range LookupFields {
		if f == field {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// TypeFor returns the entry type created for items of a platform.
func TypeFor(p identifier.Platform) string {
	switch p {
	case identifier.DOI, identifier.ArXiv:
		return TypePublication
	}
	return TypeTool
}

// NewEntry builds a draft entry from a fetched record. UID and UniqueName are
// assigned when the entry is added. A record without name or title is named
// after its identifier.
func NewEntry(r record.Record, entryType string) Entry {
	name := r.Name
	if name == "" {
		name = r.Title
	}
	if name == "" {
		name = r.Identifier()
	}
	return Entry{
		Name:           name,
		Title:          r.Title,
		AlternateNames: r.AlternateNames,
		Types:          []string{TypeEntry, entryType},
		Status:         StatusDraft,
		DOI:            r.DOI,
		ArXiv:          r.ArXiv,
		CRAN:           r.CRAN,
		PyPI:           r.PyPI,
		GitHub:         r.GitHub,
	}
}

// Result is the answer to an identifier lookup. Status is true when at least
// one visible entry matched.
type Result struct {
	Status bool    `json:"status"`
	Data   []Entry `json:"data,omitempty"`
}

// Checker looks up entries by identifier.
type Checker interface {
	Lookup(ctx context.Context, field, id string) (Result, error)
}

// DuplicateFinder lists entries that may be the same item as a new one.
type DuplicateFinder interface {
	DuplicateCheck(ctx context.Context, name, entryType string, limit int) ([]Entry, error)
}

// Warning returns the message shown when a lookup found an existing entry,
// or "" when it found nothing. The identifier shown is the first entry's
// doi, arxiv, pypi, cran or github, in that order.
func Warning(res Result) string {
	if !res.Status || len(res.Data) == 0 {
		return ""
	}
	first := res.Data[0]
	id := ""
	for _, field := range []string{FieldDOI, FieldArXiv, FieldPyPI, FieldCRAN, FieldGitHub} {
		if v := first.Identifier(field); v != "" {
			id = v
			break
		}
	}
	if id == "" {
		id = first.UniqueName
	}
	return fmt.Sprintf("This entry is already in the inventory! You can find it by entering the identifier \"%s\" in the search box above", id)
}
