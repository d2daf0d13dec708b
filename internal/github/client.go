// Package github fetches repository metadata from the GitHub API and maps it
// onto an inventory record.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/opted-eu/metafill/internal/identifier"
	"github.com/opted-eu/metafill/internal/record"
	"github.com/opted-eu/metafill/internal/transport"
)

// DefaultBaseURL is the GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

// ErrInvalidURL is returned for input that is not a GitHub repository.
var ErrInvalidURL = errors.New("invalid GitHub URL format")

// Client is a GitHub API client for fetching repository metadata.
type Client struct {
	http    *transport.Client
	baseURL string
	token   string
}

// RepoMetadata contains metadata fetched from the GitHub API.
type RepoMetadata struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	Homepage    string   `json:"homepage"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
	HTMLURL     string   `json:"html_url"`
	CreatedAt   string   `json:"created_at"`
	License     *License `json:"license"`
}

// License is the license object of a repository.
type License struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	SPDXID string `json:"spdx_id"`
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the API token. An empty token keeps the environment default.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		if token != "" {
			c.token = token
		}
	}
}

// WithBaseURL sets a custom API URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// NewClient creates a new GitHub API client.
// It reads GITHUB_TOKEN from the environment for authenticated requests.
func NewClient(t *transport.Client, opts ...ClientOption) *Client {
	c := &Client{
		http:    t,
		baseURL: DefaultBaseURL,
		token:   os.Getenv("GITHUB_TOKEN"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseGitHubURL parses a GitHub URL or owner/repo shorthand and returns (owner, repo).
// Supported formats:
//   - https://github.com/owner/repo
//   - https://www.github.com/owner/repo.git
//   - github.com/owner/repo
//   - owner/repo
func ParseGitHubURL(input string) (owner, repo string, err error) {
	owner, repo, err = identifier.ParseRepo(input)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return owner, repo, nil
}

// NormalizeGitHubURL normalizes a GitHub URL input to the canonical https form.
func NormalizeGitHubURL(input string) (string, error) {
	owner, repo, err := ParseGitHubURL(input)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://github.com/%s/%s", owner, repo), nil
}

// FetchRepoMetadata fetches repository metadata from the GitHub API.
func (c *Client) FetchRepoMetadata(ctx context.Context, urlOrShorthand string) (*RepoMetadata, error) {
	owner, repo, err := ParseGitHubURL(urlOrShorthand)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	var meta RepoMetadata
	apiURL := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)
	if err := c.http.GetJSON(ctx, apiURL, header, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Platform returns the platform this client serves.
func (c *Client) Platform() identifier.Platform {
	return identifier.GitHub
}

// Fetch retrieves the record for an owner/repo identifier.
func (c *Client) Fetch(ctx context.Context, repo string) (record.Record, error) {
	meta, err := c.FetchRepoMetadata(ctx, repo)
	if err != nil {
		return record.Record{}, err
	}
	return meta.Record(), nil
}

// Record maps the repository onto the inventory form fields.
func (m RepoMetadata) Record() record.Record {
	r := record.Record{
		Name:       m.Name,
		Title:      m.Name,
		GitHub:     m.FullName,
		URL:        strings.TrimSpace(m.Homepage),
		OpenSource: append([]string(nil), record.OpenSourceYes...),
		UserAccess: append([]string(nil), record.UserAccessFree...),
	}
	if r.URL == "" {
		r.URL = "https://github.com/" + m.FullName
	}
	if m.License != nil && m.License.Name != "" {
		r.License = m.License.Name
	}
	r.PublishedDate = record.YearPrefix(m.CreatedAt)
	if m.Language != "" {
		r.ProgrammingLanguages = []string{strings.ToLower(m.Language)}
	}
	return r
}
