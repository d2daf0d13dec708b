// Package magic turns a platform selection and a pasted identifier into a
// filled-in record: it sanitizes the identifier, fetches the metadata and
// checks the inventory for an existing entry at the same time.
package magic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/opted-eu/metafill/internal/identifier"
	"github.com/opted-eu/metafill/internal/inventory"
	"github.com/opted-eu/metafill/internal/logger"
	"github.com/opted-eu/metafill/internal/record"
	"golang.org/x/sync/errgroup"
)

// ErrNoSource is returned when no source is registered for a platform.
var ErrNoSource = errors.New("no source registered for platform")

// Result is the outcome of one fetch.
type Result struct {
	Platform   identifier.Platform `json:"platform"`
	Identifier string              `json:"identifier"`
	Record     record.Record       `json:"record"`
	Fields     map[string]any      `json:"fields"`
	Inventory  inventory.Result    `json:"inventory"`
	Warning    string              `json:"warning,omitempty"`
	Cached     bool                `json:"cached,omitempty"`
}

// Resolver dispatches identifiers to sources.
type Resolver struct {
	sources *Registry
	checker inventory.Checker
	cache   *lru.Cache[string, record.Record]
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithChecker sets the inventory checker. Without one no inventory check runs.
func WithChecker(c inventory.Checker) Option {
	return func(r *Resolver) error {
		r.checker = c
		return nil
	}
}

// WithCache keeps up to size fetched records keyed by platform and identifier.
func WithCache(size int) Option {
	return func(r *Resolver) error {
		if size <= 0 {
			r.cache = nil
			return nil
		}
		cache, err := lru.New[string, record.Record](size)
		if err != nil {
			return fmt.Errorf("creating record cache: %w", err)
		}
		r.cache = cache
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) error {
		if l != nil {
			r.logger = l
		}
		return nil
	}
}

// NewResolver creates a resolver over the registered sources.
func NewResolver(sources *Registry, opts ...Option) (*Resolver, error) {
	r := &Resolver{sources: sources, logger: logger.Discard()}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Sanitize validates the platform selector and cleans the identifier.
func Sanitize(platform, raw string) (identifier.Platform, string, error) {
	p, err := identifier.ParsePlatform(platform)
	if err != nil {
		return "", "", err
	}
	id, err := identifier.Sanitize(p, raw)
	if err != nil {
		return p, "", err
	}
	return p, id, nil
}

// Fetch validates and sanitizes the input, then fetches the record and
// checks the inventory concurrently. A failed inventory check is logged and
// reported as "not found"; a failed fetch is returned.
func (r *Resolver) Fetch(ctx context.Context, platform, raw string) (*Result, error) {
	p, id, err := Sanitize(platform, raw)
	if err != nil {
		return nil, err
	}
	src, ok := r.sources.Get(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, p)
	}

	res := &Result{Platform: p, Identifier: id}
	key := string(p) + ":" + id

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.Inventory = r.check(gctx, p.InventoryField(), id)
		return nil
	})
	g.Go(func() error {
		if r.cache != nil {
			if rec, ok := r.cache.Get(key); ok {
				res.Record = rec
				res.Cached = true
				return nil
			}
		}
		rec, err := src.Fetch(gctx, id)
		if err != nil {
			return fmt.Errorf("fetching %s %s: %w", p.Label(), id, err)
		}
		res.Record = rec
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if r.cache != nil && !res.Cached {
		r.cache.Add(key, res.Record)
	}

	// The response may carry a different form of the ID than the one typed
	// (a version suffix, for instance).
	if p == identifier.ArXiv && !res.Inventory.Status && res.Record.ArXiv != "" && res.Record.ArXiv != id {
		res.Inventory = r.check(ctx, p.InventoryField(), res.Record.ArXiv)
	}

	res.Fields = res.Record.Fields()
	res.Warning = inventory.Warning(res.Inventory)

	r.logger.Info("fetched metadata",
		"platform", string(p),
		"identifier", id,
		"cached", res.Cached,
		"in_inventory", res.Inventory.Status)
	return res, nil
}

// check runs an inventory lookup, swallowing errors.
func (r *Resolver) check(ctx context.Context, field, id string) inventory.Result {
	if r.checker == nil {
		return inventory.Result{}
	}
	res, err := r.checker.Lookup(ctx, field, id)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("inventory check failed", "field", field, "identifier", id, "error", err)
		}
		return inventory.Result{}
	}
	return res
}

// Purge empties the record cache.
func (r *Resolver) Purge() {
	if r.cache != nil {
		r.cache.Purge()
	}
}
