// Package doi resolves DOIs to inventory records through doi.org content
// negotiation, with the Crossref works API as fallback.
package doi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/opted-eu/metafill/internal/identifier"
	"github.com/opted-eu/metafill/internal/logger"
	"github.com/opted-eu/metafill/internal/record"
	"github.com/opted-eu/metafill/internal/transport"
)

const (
	// ResolverURL is the doi.org content negotiation endpoint.
	ResolverURL = "https://doi.org/"

	// CrossrefURL is the Crossref works endpoint.
	CrossrefURL = "https://api.crossref.org/works/"

	// AcceptHeader asks for CSL-JSON, with BibTeX as the second choice.
	AcceptHeader = "application/vnd.citationstyles.csl+json, application/x-bibtex"
)

// ErrInvalidResponse indicates the response could not be parsed as CSL-JSON.
var ErrInvalidResponse = errors.New("invalid DOI metadata response")

// Client resolves DOIs.
type Client struct {
	http        *transport.Client
	resolverURL string
	crossrefURL string
	logger      *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithResolverURL sets a custom doi.org base URL (for testing).
func WithResolverURL(u string) ClientOption {
	return func(c *Client) {
		c.resolverURL = u
	}
}

// WithCrossrefURL sets a custom Crossref base URL (for testing).
func WithCrossrefURL(u string) ClientOption {
	return func(c *Client) {
		c.crossrefURL = u
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a DOI client on top of the shared transport.
func NewClient(t *transport.Client, opts ...ClientOption) *Client {
	c := &Client{
		http:        t,
		resolverURL: ResolverURL,
		crossrefURL: CrossrefURL,
		logger:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Platform returns the platform this client serves.
func (c *Client) Platform() identifier.Platform {
	return identifier.DOI
}

// Fetch resolves a cleaned DOI. A doi.org failure other than "not found", or a
// response that is not CSL-JSON, falls back to Crossref. A doi.org record
// without abstract, journal or authors is completed from Crossref.
func (c *Client) Fetch(ctx context.Context, doi string) (record.Record, error) {
	r, err := c.resolve(ctx, doi)
	if err == nil {
		if complete(r) {
			return r, nil
		}
		extra, xerr := c.crossref(ctx, doi)
		if xerr != nil {
			c.logger.Debug("crossref enrichment failed", "doi", doi, "error", xerr)
			return r, nil
		}
		return r.Merge(extra), nil
	}
	if transport.IsNotFound(err) || ctx.Err() != nil {
		return record.Record{}, err
	}

	c.logger.Warn("doi.org lookup failed, trying Crossref", "doi", doi, "error", err)
	fallback, ferr := c.crossref(ctx, doi)
	if ferr != nil {
		return record.Record{}, fmt.Errorf("resolving %s: %w (crossref: %v)", doi, err, ferr)
	}
	return fallback, nil
}

// complete reports whether r has the fields Crossref could add.
func complete(r record.Record) bool {
	return r.Description != "" && r.Journal != "" && len(r.Authors) > 0
}

// resolve queries doi.org with CSL-JSON content negotiation.
func (c *Client) resolve(ctx context.Context, doi string) (record.Record, error) {
	u := c.resolverURL + doi + "?lang=en"
	resp, err := c.http.Get(ctx, u, http.Header{"Accept": []string{AcceptHeader}})
	if err != nil {
		return record.Record{}, err
	}
	return ParseCSL(resp.Body)
}

// crossrefEnvelope is the Crossref works response wrapper.
type crossrefEnvelope struct {
	Status  string  `json:"status"`
	Message cslItem `json:"message"`
}

// crossref queries the Crossref works API.
func (c *Client) crossref(ctx context.Context, doi string) (record.Record, error) {
	resp, err := c.http.Get(ctx, c.crossrefURL+url.PathEscape(doi), http.Header{"Accept": []string{"application/json"}})
	if err != nil {
		return record.Record{}, err
	}
	r, err := ParseCrossref(resp.Body)
	if err != nil {
		return record.Record{}, err
	}
	if r.DOI == "" {
		r.DOI = doi
	}
	return r, nil
}

// ParseCrossref converts a Crossref works response into a record.
func ParseCrossref(body []byte) (record.Record, error) {
	var env crossrefEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return record.Record{}, fmt.Errorf("%w: parsing Crossref JSON: %v", ErrInvalidResponse, err)
	}
	if env.Status != "ok" {
		return record.Record{}, fmt.Errorf("%w: crossref status %q", ErrInvalidResponse, env.Status)
	}
	return mapCSL(env.Message), nil
}
