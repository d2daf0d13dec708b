package inventory

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/opted-eu/metafill/internal/transport"
)

// Remote checks a running inventory server over HTTP.
type Remote struct {
	http    *transport.Client
	baseURL string
}

// NewRemote creates a checker for the inventory served at baseURL.
func NewRemote(t *transport.Client, baseURL string) *Remote {
	return &Remote{http: t, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Lookup implements Checker against GET <base>/endpoint/identifier/lookup.
func (r *Remote) Lookup(ctx context.Context, field, id string) (Result, error) {
	if err := ValidateField(field); err != nil {
		return Result{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Result{}, nil
	}

	q := url.Values{}
	q.Set(field, id)

	var res Result
	if err := r.http.GetJSON(ctx, r.baseURL+"/endpoint/identifier/lookup?"+q.Encode(), nil, &res); err != nil {
		return Result{}, err
	}
	if len(res.Data) == 0 {
		res.Status = false
	}
	return res, nil
}

// DuplicateCheck queries GET <base>/add/check for potential duplicates of name.
// A positive limit is sent along and enforced on the answer.
func (r *Remote) DuplicateCheck(ctx context.Context, name, entryType string, limit int) ([]Entry, error) {
	q := url.Values{}
	q.Set("name", name)
	if entryType != "" {
		q.Set("dgraph_type", entryType)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var entries []Entry
	if err := r.http.GetJSON(ctx, r.baseURL+"/add/check?"+q.Encode(), nil, &entries); err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
