package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opted-eu/metafill/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGitHubURL(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		// Full HTTPS URLs
		{
			name:      "https url",
			input:     "https://github.com/opted-eu/metafill",
			wantOwner: "opted-eu",
			wantRepo:  "metafill",
			wantErr:   false,
		},
		{
			name:      "https url with .git",
			input:     "https://github.com/opted-eu/metafill.git",
			wantOwner: "opted-eu",
			wantRepo:  "metafill",
			wantErr:   false,
		},
		{
			name:      "http url",
			input:     "http://github.com/opted-eu/metafill",
			wantOwner: "opted-eu",
			wantRepo:  "metafill",
			wantErr:   false,
		},
		{
			name:      "www url with trailing slash",
			input:     "https://www.github.com/opted-eu/metafill/",
			wantOwner: "opted-eu",
			wantRepo:  "metafill",
		},
		// Without protocol
		{
			name:      "without protocol",
			input:     "github.com/opted-eu/metafill",
			wantOwner: "opted-eu",
			wantRepo:  "metafill",
			wantErr:   false,
		},
		{
			name:      "without protocol with .git",
			input:     "github.com/opted-eu/metafill.git",
			wantOwner: "opted-eu",
			wantRepo:  "metafill",
			wantErr:   false,
		},
		// Shorthand
		{
			name:      "shorthand",
			input:     "opted-eu/metafill",
			wantOwner: "opted-eu",
			wantRepo:  "metafill",
			wantErr:   false,
		},
		{
			name:      "shorthand with hyphen",
			input:     "opted-eu/textnets-paper",
			wantOwner: "opted-eu",
			wantRepo:  "textnets-paper",
			wantErr:   false,
		},
		{
			name:      "shorthand with underscore",
			input:     "opted-eu/text_nets",
			wantOwner: "opted-eu",
			wantRepo:  "text_nets",
			wantErr:   false,
		},
		// With whitespace
		{
			name:      "with leading/trailing whitespace",
			input:     "  opted-eu/metafill  ",
			wantOwner: "opted-eu",
			wantRepo:  "metafill",
			wantErr:   false,
		},
		// Invalid inputs
		{
			name:    "no slash",
			input:   "opted-eu",
			wantErr: true,
		},
		{
			name:    "too many slashes in shorthand",
			input:   "opted-eu/metafill/extra",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "just slash",
			input:   "/",
			wantErr: true,
		},
		{
			name:    "gitlab url",
			input:   "https://gitlab.com/opted-eu/metafill",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseGitHubURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseGitHubURL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if owner != tt.wantOwner {
					t.Errorf("ParseGitHubURL() owner = %v, want %v", owner, tt.wantOwner)
				}
				if repo != tt.wantRepo {
					t.Errorf("ParseGitHubURL() repo = %v, want %v", repo, tt.wantRepo)
				}
			}
		})
	}
}

func TestNormalizeGitHubURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "https url",
			input: "https://github.com/opted-eu/metafill",
			want:  "https://github.com/opted-eu/metafill",
		},
		{
			name:  "shorthand",
			input: "opted-eu/metafill",
			want:  "https://github.com/opted-eu/metafill",
		},
		{
			name:  "without protocol",
			input: "github.com/opted-eu/metafill",
			want:  "https://github.com/opted-eu/metafill",
		},
		{
			name:  "with .git",
			input: "https://github.com/opted-eu/metafill.git",
			want:  "https://github.com/opted-eu/metafill",
		},
		{
			name:    "invalid",
			input:   "not-a-url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeGitHubURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("NormalizeGitHubURL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("NormalizeGitHubURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

const repoFixture = `{
  "name": "quanteda",
  "full_name": "quanteda/quanteda",
  "homepage": "https://quanteda.io",
  "language": "R",
  "created_at": "2013-11-25T12:41:12Z",
  "license": {"key": "gpl-3.0", "name": "GNU General Public License v3.0", "spdx_id": "GPL-3.0"}
}`

func TestRepoMetadata_Record(t *testing.T) {
	tests := []struct {
		name     string
		meta     RepoMetadata
		wantURL  string
		wantLang []string
		wantLic  string
		wantYear string
	}{
		{
			name:     "homepage and license",
			meta:     RepoMetadata{Name: "q", FullName: "o/q", Homepage: "https://q.io", Language: "Python", License: &License{Name: "MIT License"}, CreatedAt: "2020-01-01T00:00:00Z"},
			wantURL:  "https://q.io",
			wantLang: []string{"python"},
			wantLic:  "MIT License",
			wantYear: "2020",
		},
		{
			name:    "no homepage falls back to repo url",
			meta:    RepoMetadata{Name: "q", FullName: "o/q"},
			wantURL: "https://github.com/o/q",
		},
		{
			name:    "non-numeric created_at ignored",
			meta:    RepoMetadata{Name: "q", FullName: "o/q", CreatedAt: "unknown"},
			wantURL: "https://github.com/o/q",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.meta.Record()
			assert.Equal(t, tt.wantURL, r.URL)
			assert.Equal(t, tt.wantLang, r.ProgrammingLanguages)
			assert.Equal(t, tt.wantLic, r.License)
			assert.Equal(t, tt.wantYear, r.PublishedDate)
			assert.Equal(t, []string{"yes"}, r.OpenSource)
			assert.Equal(t, []string{"free"}, r.UserAccess)
		})
	}
}

func TestClient_Fetch(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if r.URL.Path == "/repos/quanteda/quanteda" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(repoFixture))
			return
		}
		if r.URL.Path == "/repos/limited/repo" {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusForbidden)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	tc := transport.NewClient(transport.WithRateLimit(0), transport.WithRetry(0, 0, 0))
	c := NewClient(tc, WithBaseURL(srv.URL), WithToken("secret"))
	ctx := context.Background()

	r, err := c.Fetch(ctx, "https://github.com/quanteda/quanteda")
	require.NoError(t, err)
	assert.Equal(t, "/repos/quanteda/quanteda", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "quanteda", r.Name)
	assert.Equal(t, "quanteda/quanteda", r.GitHub)
	assert.Equal(t, "https://quanteda.io", r.URL)
	assert.Equal(t, "GNU General Public License v3.0", r.License)
	assert.Equal(t, "2013", r.PublishedDate)
	assert.Equal(t, []string{"r"}, r.ProgrammingLanguages)

	_, err = c.Fetch(ctx, "limited/repo")
	assert.True(t, transport.IsRateLimited(err))

	_, err = c.Fetch(ctx, "missing/repo")
	assert.True(t, transport.IsNotFound(err))

	_, err = c.Fetch(ctx, "not a repo")
	assert.ErrorIs(t, err, ErrInvalidURL)
}
