// Package pypi fetches Python package metadata from the PyPI JSON API.
package pypi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/opted-eu/metafill/internal/identifier"
	"github.com/opted-eu/metafill/internal/record"
	"github.com/opted-eu/metafill/internal/transport"
)

// DefaultBaseURL is the PyPI JSON API root.
const DefaultBaseURL = "https://pypi.org/pypi/"

var githubPattern = regexp.MustCompile(`https?://github\.com/(.*)`)

// Info is the "info" object of a PyPI project response.
type Info struct {
	Name        string            `json:"name"`
	Summary     string            `json:"summary"`
	Description string            `json:"description"`
	HomePage    string            `json:"home_page"`
	ProjectURL  string            `json:"project_url"`
	Author      string            `json:"author"`
	License     string            `json:"license"`
	ProjectURLs map[string]string `json:"project_urls"`
}

type project struct {
	Info Info `json:"info"`
}

// ParseProject converts a PyPI project response into a record.
func ParseProject(body []byte) (record.Record, error) {
	var p project
	if err := json.Unmarshal(body, &p); err != nil {
		return record.Record{}, fmt.Errorf("%w: decoding PyPI JSON: %v", transport.ErrInvalidResponse, err)
	}
	if p.Info.Name == "" {
		return record.Record{}, fmt.Errorf("%w: PyPI response has no project name", transport.ErrInvalidResponse)
	}
	return p.Info.Record(), nil
}

// Record maps the project info onto the inventory form fields.
func (info Info) Record() record.Record {
	r := record.Record{
		Name:                 info.Name,
		PyPI:                 info.Name,
		Title:                info.Name,
		AlternateNames:       info.Summary,
		Description:          info.Description,
		URL:                  info.HomePage,
		License:              info.License,
		ProgrammingLanguages: []string{"python"},
		Platform:             append([]string(nil), record.DesktopPlatforms...),
		OpenSource:           append([]string(nil), record.OpenSourceYes...),
		UserAccess:           append([]string(nil), record.UserAccessFree...),
	}
	if r.URL == "" {
		r.URL = info.ProjectURL
	}
	if author := strings.TrimSpace(info.Author); author != "" {
		r.Authors = []string{author}
	}

	keys := make([]string, 0, len(info.ProjectURLs))
	for k := range info.ProjectURLs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		link := info.ProjectURLs[k]
		if m := githubPattern.FindStringSubmatch(link); m != nil {
			repo := strings.TrimSuffix(m[1], "/")
			repo = strings.TrimSuffix(repo, "/issues")
			r.GitHub = repo
			continue
		}
		r.Materials = append(r.Materials, link)
	}

	return r
}

// Client queries the PyPI JSON API.
type Client struct {
	http    *transport.Client
	baseURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom API URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// NewClient creates a PyPI client.
func NewClient(t *transport.Client, opts ...ClientOption) *Client {
	c := &Client{http: t, baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Platform returns the platform this client serves.
func (c *Client) Platform() identifier.Platform {
	return identifier.Python
}

// Fetch retrieves the record for a package name.
func (c *Client) Fetch(ctx context.Context, pkg string) (record.Record, error) {
	resp, err := c.http.Get(ctx, c.baseURL+url.PathEscape(pkg)+"/json", nil)
	if err != nil {
		return record.Record{}, err
	}
	return ParseProject(resp.Body)
}
