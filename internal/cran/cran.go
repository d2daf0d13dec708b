// Package cran fetches R package metadata from the crandb API.
package cran

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/opted-eu/metafill/internal/identifier"
	"github.com/opted-eu/metafill/internal/record"
	"github.com/opted-eu/metafill/internal/transport"
)

// DefaultBaseURL is the crandb endpoint.
const DefaultBaseURL = "https://crandb.r-pkg.org/"

var (
	githubPattern  = regexp.MustCompile(`^https?://(?:www\.)?github\.com/(.+)$`)
	bracketPattern = regexp.MustCompile(`\[.*?\]`)
	parenPattern   = regexp.MustCompile(`\(.*?\)`)
)

// Authors whose given name matches one of these are organisations, not people.
var skippedGiven = map[string]bool{
	"rstudio":     true,
	"r core team": true,
}

// Package is the subset of a crandb DESCRIPTION document that is mapped.
type Package struct {
	Package     string `json:"Package"`
	Title       string `json:"Title"`
	Description string `json:"Description"`
	URL         string `json:"URL"`
	License     string `json:"License"`
	AuthorsR    string `json:"Authors@R"`
	Author      string `json:"Author"`
}

// ParsePackage converts a crandb JSON document into a record.
func ParsePackage(body []byte) (record.Record, error) {
	var pkg Package
	if err := json.Unmarshal(body, &pkg); err != nil {
		return record.Record{}, fmt.Errorf("%w: decoding crandb JSON: %v", transport.ErrInvalidResponse, err)
	}
	return pkg.Record(), nil
}

// Record maps the package onto the inventory form fields.
func (pkg Package) Record() record.Record {
	r := record.Record{
		ProgrammingLanguages: []string{"r"},
		Platform:             append([]string(nil), record.DesktopPlatforms...),
		UserAccess:           append([]string(nil), record.UserAccessFree...),
		OpenSource:           append([]string(nil), record.OpenSourceYes...),
		Name:                 pkg.Package,
		CRAN:                 pkg.Package,
		Description:          pkg.Description,
		AlternateNames:       pkg.Title,
		License:              pkg.License,
	}

	if urls := splitURLs(pkg.URL); len(urls) > 0 {
		r.URL = urls[0]
		r.GitHub = githubRepo(urls)
	}

	if pkg.AuthorsR != "" {
		if contributors, err := ParseAuthorsR(pkg.AuthorsR); err == nil {
			r.Contributors = contributors
			for _, c := range contributors {
				r.Authors = append(r.Authors, record.FormatInverted(c.Given, c.Family))
			}
			return r
		}
	}
	if pkg.Author != "" {
		r.Authors = ParseAuthorText(pkg.Author)
	}
	return r
}

// splitURLs splits the comma- or whitespace-separated URL field.
func splitURLs(field string) []string {
	return strings.FieldsFunc(field, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// githubRepo returns owner/repo of the first GitHub URL, or "".
func githubRepo(urls []string) string {
	for _, u := range urls {
		m := githubPattern.FindStringSubmatch(u)
		if m == nil {
			continue
		}
		if owner, repo, err := identifier.ParseRepo(u); err == nil {
			return owner + "/" + repo
		}
		return strings.TrimSuffix(m[1], "/")
	}
	return ""
}

// ParseAuthorsR evaluates an Authors@R expression and returns the people in
// it. Entries without a family name and organisational authors (RStudio,
// R Core Team) are skipped.
func ParseAuthorsR(expr string) ([]record.Contributor, error) {
	v, err := evalR(strings.ReplaceAll(expr, "\n", " "))
	if err != nil {
		return nil, err
	}

	var people []any
	switch t := v.(type) {
	case map[string]any:
		people = []any{t}
	case []any:
		people = t
	default:
		return nil, fmt.Errorf("%w: Authors@R is not a person list", ErrRExpression)
	}

	var out []record.Contributor
	for i, p := range people {
		m, ok := p.(map[string]any)
		if !ok {
			continue
		}
		family := joinValue(m["family"])
		if family == "" {
			continue
		}
		given := joinValue(m["given"])
		if skippedGiven[strings.ToLower(given)] {
			continue
		}

		parts := []string{given}
		if middle := joinValue(m["middle"]); middle != "" {
			parts = append(parts, middle)
		}
		parts = append(parts, family)

		c := record.Contributor{
			Name:     strings.TrimSpace(strings.Join(parts, " ")),
			Given:    given,
			Family:   family,
			Sequence: i,
		}
		if comment, ok := m["comment"].(map[string]any); ok {
			c.ORCID, _ = comment["ORCID"].(string)
		}
		out = append(out, c)
	}
	return out, nil
}

// joinValue renders a person() field: strings as-is, vectors space-joined.
func joinValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}

// ParseAuthorText splits a free-text Author field. Role brackets and
// parenthesised notes are removed; names are split on " and " when present,
// otherwise on commas.
func ParseAuthorText(text string) []string {
	text = bracketPattern.ReplaceAllString(text, "")
	text = parenPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\n", " ")

	var parts []string
	if strings.Contains(text, " and ") {
		parts = strings.Split(text, " and ")
	} else {
		parts = strings.Split(text, ",")
	}

	var out []string
	for _, p := range parts {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Client queries crandb.
type Client struct {
	http    *transport.Client
	baseURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom crandb URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// NewClient creates a crandb client.
func NewClient(t *transport.Client, opts ...ClientOption) *Client {
	c := &Client{http: t, baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Platform returns the platform this client serves.
func (c *Client) Platform() identifier.Platform {
	return identifier.CRAN
}

// Fetch retrieves the record for a package. Responses that are not JSON are
// rejected with transport.ErrInvalidResponse.
func (c *Client) Fetch(ctx context.Context, pkg string) (record.Record, error) {
	resp, err := c.http.Get(ctx, c.baseURL+pkg, http.Header{"Accept": []string{"application/json"}})
	if err != nil {
		return record.Record{}, err
	}
	if !strings.Contains(resp.ContentType(), "json") {
		return record.Record{}, fmt.Errorf("%w: cannot parse %q as JSON", transport.ErrInvalidResponse, resp.ContentType())
	}
	return ParsePackage(resp.Body)
}
