// Package arxiv fetches paper metadata from the arXiv export API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/opted-eu/metafill/internal/identifier"
	"github.com/opted-eu/metafill/internal/record"
	"github.com/opted-eu/metafill/internal/transport"
)

// DefaultBaseURL is the arXiv export API query endpoint.
const DefaultBaseURL = "https://export.arxiv.org/api/query"

var absPrefixes = []string{"https://arxiv.org/abs/", "http://arxiv.org/abs/"}

type feed struct {
	TotalResults string  `xml:"http://a9.com/-/spec/opensearch/1.1/ totalResults"`
	Entries      []entry `xml:"entry"`
}

type entry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Published string        `xml:"published"`
	Summary   string        `xml:"summary"`
	Authors   []entryAuthor `xml:"author"`
	DOI       string        `xml:"http://arxiv.org/schemas/atom doi"`
}

type entryAuthor struct {
	Name string `xml:"name"`
}

// errorPath marks the id of an error entry.
const errorPath = "arxiv.org/api/errors"

// ParseAtom converts an arXiv Atom feed into a record for its first entry.
// A feed reporting zero results yields transport.ErrNotFound; an error entry
// yields identifier.ErrInvalidArXivID.
func ParseAtom(body []byte) (record.Record, error) {
	var f feed
	if err := xml.Unmarshal(body, &f); err != nil {
		return record.Record{}, fmt.Errorf("%w: decoding arXiv feed: %v", transport.ErrInvalidResponse, err)
	}

	total, err := strconv.Atoi(strings.TrimSpace(f.TotalResults))
	if err != nil || total < 1 || len(f.Entries) == 0 {
		return record.Record{}, fmt.Errorf("%w: no arXiv entry", transport.ErrNotFound)
	}
	e := f.Entries[0]

	id := strings.TrimSpace(e.ID)
	// The API reports a rejected ID as a single entry pointing at its error page.
	if strings.Contains(id, errorPath) {
		return record.Record{}, fmt.Errorf("%w: %w: %s", identifier.ErrInvalidArXivID, transport.ErrInvalidResponse, collapse(e.Summary))
	}
	r := record.Record{
		URL:           id,
		ArXiv:         trimAbs(id),
		Name:          collapse(e.Title),
		PublishedDate: record.YearPrefix(e.Published),
		Description:   strings.TrimSpace(e.Summary),
		DOI:           strings.TrimSpace(e.DOI),
	}
	r.Title = r.Name

	for i, a := range e.Authors {
		name := collapse(a.Name)
		if name == "" {
			continue
		}
		given, family := record.SplitName(name)
		display := record.FormatInverted(given, family)
		r.Authors = append(r.Authors, display)
		r.Contributors = append(r.Contributors, record.Contributor{
			Name:     display,
			Given:    given,
			Family:   family,
			Sequence: i,
		})
	}

	return r, nil
}

func trimAbs(id string) string {
	for _, p := range absPrefixes {
		id = strings.Replace(id, p, "", 1)
	}
	return id
}

// collapse trims s and folds internal whitespace runs (titles wrap across lines).
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Client queries the arXiv export API.
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

// NewClient creates an arXiv client.
func NewClient(t *transport.Client, opts ...ClientOption) *Client {
	c := &Client{http: t, baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Platform returns the platform this client serves.
func (c *Client) Platform() identifier.Platform {
	return identifier.ArXiv
}

// Fetch retrieves the record for an arXiv ID.
func (c *Client) Fetch(ctx context.Context, id string) (record.Record, error) {
	u := c.baseURL + "?id_list=" + url.QueryEscape(id)
	resp, err := c.http.Get(ctx, u, http.Header{"Accept": []string{"application/atom+xml"}})
	if err != nil {
		return record.Record{}, err
	}
	return ParseAtom(resp.Body)
}
