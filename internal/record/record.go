// Package record defines the normalized metadata shape every source produces
// and the form-field mapping derived from it.
package record

import (
	"strings"
)

// Record is the normalized metadata for one research item.
type Record struct {
	// Identity
	Name  string `json:"name,omitempty"`
	Title string `json:"title,omitempty"`

	// External identifiers
	DOI    string `json:"doi,omitempty"`
	ArXiv  string `json:"arxiv,omitempty"`
	CRAN   string `json:"cran,omitempty"`
	PyPI   string `json:"pypi,omitempty"`
	GitHub string `json:"github,omitempty"`

	// Publication metadata
	URL           string   `json:"url,omitempty"`
	Journal       string   `json:"journal,omitempty"`
	PaperKind     string   `json:"paper_kind,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"` // Year, e.g. "2020"
	Authors       []string `json:"authors,omitempty"`        // "Family, Given" or literal names
	Description   string   `json:"description,omitempty"`

	// Tool metadata
	AlternateNames       string   `json:"alternate_names,omitempty"`
	License              string   `json:"license,omitempty"`
	Materials            []string `json:"materials,omitempty"`
	ProgrammingLanguages []string `json:"programming_languages,omitempty"`
	Platform             []string `json:"platform,omitempty"`
	OpenSource           []string `json:"open_source,omitempty"`
	UserAccess           []string `json:"user_access,omitempty"`

	// Structured authors, when the source provides more than display names.
	Contributors []Contributor `json:"contributors,omitempty"`
}

// Contributor is an author with optional structured name parts.
type Contributor struct {
	Name     string `json:"name"`
	Given    string `json:"given,omitempty"`
	Family   string `json:"family,omitempty"`
	ORCID    string `json:"orcid,omitempty"` // Without URL prefix
	Sequence int    `json:"sequence"`
}

// AuthorSeparator joins authors in the single-value authors form field.
const AuthorSeparator = ";"

// Form field names.
const (
	FieldName                 = "name"
	FieldTitle                = "title"
	FieldDOI                  = "doi"
	FieldArXiv                = "arxiv"
	FieldCRAN                 = "cran"
	FieldPyPI                 = "pypi"
	FieldGitHub               = "github"
	FieldURL                  = "url"
	FieldJournal              = "journal"
	FieldPaperKind            = "paper_kind"
	FieldPublishedDate        = "published_date"
	FieldAuthors              = "authors"
	FieldDescription          = "description"
	FieldAlternateNames       = "alternate_names"
	FieldLicense              = "license"
	FieldMaterials            = "materials"
	FieldProgrammingLanguages = "programming_languages"
	FieldPlatform             = "platform"
	FieldOpenSource           = "open_source"
	FieldUserAccess           = "user_access"
)

// Values shared by the software sources.
var (
	DesktopPlatforms = []string{"windows", "linux", "macos"}
	OpenSourceYes    = []string{"yes"}
	UserAccessFree   = []string{"free"}
)

// AuthorsText returns the authors joined for the form field.
func (r Record) AuthorsText() string {
	return strings.Join(r.Authors, AuthorSeparator)
}

// Fields returns the form-field mapping. Empty values are omitted. List-valued
// form fields map to []string, everything else to string.
func (r Record) Fields() map[string]any {
	out := make(map[string]any)

	setString := func(key, v string) {
		if v != "" {
			out[key] = v
		}
	}
	setList := func(key string, v []string) {
		if len(v) > 0 {
			out[key] = append([]string(nil), v...)
		}
	}

	setString(FieldName, r.Name)
	setString(FieldTitle, r.Title)
	setString(FieldDOI, r.DOI)
	setString(FieldArXiv, r.ArXiv)
	setString(FieldCRAN, r.CRAN)
	setString(FieldPyPI, r.PyPI)
	setString(FieldGitHub, r.GitHub)
	setString(FieldURL, r.URL)
	setString(FieldJournal, r.Journal)
	setString(FieldPaperKind, r.PaperKind)
	setString(FieldPublishedDate, r.PublishedDate)
	setString(FieldAuthors, r.AuthorsText())
	setString(FieldDescription, r.Description)
	setString(FieldAlternateNames, r.AlternateNames)
	setString(FieldLicense, r.License)
	setList(FieldMaterials, r.Materials)
	setList(FieldProgrammingLanguages, r.ProgrammingLanguages)
	setList(FieldPlatform, r.Platform)
	setList(FieldOpenSource, r.OpenSource)
	setList(FieldUserAccess, r.UserAccess)

	return out
}

// Merge fills every empty field of r from other and returns the result.
// Non-empty fields of r are kept.
func (r Record) Merge(other Record) Record {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	pickList := func(a, b []string) []string {
		if len(a) > 0 {
			return a
		}
		return b
	}

	r.Name = pick(r.Name, other.Name)
	r.Title = pick(r.Title, other.Title)
	r.DOI = pick(r.DOI, other.DOI)
	r.ArXiv = pick(r.ArXiv, other.ArXiv)
	r.CRAN = pick(r.CRAN, other.CRAN)
	r.PyPI = pick(r.PyPI, other.PyPI)
	r.GitHub = pick(r.GitHub, other.GitHub)
	r.URL = pick(r.URL, other.URL)
	r.Journal = pick(r.Journal, other.Journal)
	r.PaperKind = pick(r.PaperKind, other.PaperKind)
	r.PublishedDate = pick(r.PublishedDate, other.PublishedDate)
	r.Authors = pickList(r.Authors, other.Authors)
	r.Description = pick(r.Description, other.Description)
	r.AlternateNames = pick(r.AlternateNames, other.AlternateNames)
	r.License = pick(r.License, other.License)
	r.Materials = pickList(r.Materials, other.Materials)
	r.ProgrammingLanguages = pickList(r.ProgrammingLanguages, other.ProgrammingLanguages)
	r.Platform = pickList(r.Platform, other.Platform)
	r.OpenSource = pickList(r.OpenSource, other.OpenSource)
	r.UserAccess = pickList(r.UserAccess, other.UserAccess)
	if len(r.Contributors) == 0 {
		r.Contributors = other.Contributors
	}
	return r
}

// Identifier returns the first non-empty external identifier, checked in the
// order doi, arxiv, pypi, cran, github.
func (r Record) Identifier() string {
	for _, id := range []string{r.DOI, r.ArXiv, r.PyPI, r.CRAN, r.GitHub} {
		if id != "" {
			return id
		}
	}
	return ""
}
