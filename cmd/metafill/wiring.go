package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/opted-eu/metafill/internal/arxiv"
	"github.com/opted-eu/metafill/internal/config"
	"github.com/opted-eu/metafill/internal/cran"
	"github.com/opted-eu/metafill/internal/doi"
	"github.com/opted-eu/metafill/internal/form"
	"github.com/opted-eu/metafill/internal/github"
	"github.com/opted-eu/metafill/internal/identifier"
	"github.com/opted-eu/metafill/internal/inventory"
	"github.com/opted-eu/metafill/internal/magic"
	"github.com/opted-eu/metafill/internal/pypi"
	"github.com/opted-eu/metafill/internal/transport"
)

// newTransport builds the shared HTTP client from the repository and global config.
func newTransport(cfg *config.Config, log *slog.Logger) *transport.Client {
	opts := []transport.ClientOption{
		transport.WithUserAgent(config.GetUserAgent()),
		transport.WithMailto(config.GetMailto(cfg)),
		transport.WithLogger(log),
	}
	if rl := config.GetRateLimit(); rl > 0 {
		opts = append(opts, transport.WithRateLimit(rl))
	}
	return transport.NewClient(opts...)
}

// newRegistry registers one source per platform.
func newRegistry(t *transport.Client, log *slog.Logger) (*magic.Registry, error) {
	reg := magic.NewRegistry()
	sources := []magic.Source{
		doi.NewClient(t, doi.WithLogger(log)),
		arxiv.NewClient(t),
		cran.NewClient(t),
		pypi.NewClient(t),
		github.NewClient(t, github.WithToken(config.GetGitHubToken())),
	}
	for _, s := range sources {
		if err := reg.Register(s); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// openLocal opens the local inventory of a repository.
func openLocal(repoRoot string, log *slog.Logger) (*inventory.Local, error) {
	return inventory.OpenLocal(config.EntriesPath(repoRoot), config.DBPath(repoRoot),
		inventory.WithLocalLogger(log))
}

// inventoryStore is what the commands need from an inventory, local or remote.
type inventoryStore interface {
	inventory.Checker
	inventory.DuplicateFinder
}

// openChecker returns the remote inventory when one is configured, otherwise
// the local one. The returned close function is never nil. Without either,
// the store is nil and no inventory check runs.
func openChecker(repoRoot string, cfg *config.Config, t *transport.Client, log *slog.Logger) (inventoryStore, func(), error) {
	if u := config.GetInventoryURL(cfg); u != "" {
		return inventory.NewRemote(t, u), func() {}, nil
	}
	if repoRoot == "" {
		log.Warn("no inventory configured, skipping inventory check")
		return nil, func() {}, nil
	}
	local, err := openLocal(repoRoot, log)
	if err != nil {
		return nil, func() {}, err
	}
	return local, func() { _ = local.Close() }, nil
}

// loadOptionalConfig loads the repository config when there is a repository.
func loadOptionalConfig(repoRoot string) *config.Config {
	if repoRoot == "" {
		return &config.Config{}
	}
	return mustLoadConfig(repoRoot)
}

// exitCodeFor maps a fetch error to an exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case isInputError(err):
		return ExitInvalidIdentifier
	case errors.Is(err, inventory.ErrDuplicate):
		return ExitDuplicate
	case transport.IsNotFound(err):
		return ExitNotFound
	case errors.Is(err, transport.ErrInvalidResponse):
		return ExitDataError
	case errors.Is(err, magic.ErrNoSource):
		return ExitConfigError
	}
	return ExitAPIError
}

// isInputError reports errors raised while validating the platform or identifier.
func isInputError(err error) bool {
	for _, target := range []error{
		identifier.ErrNoPlatform,
		identifier.ErrUnknownPlatform,
		identifier.ErrEmptyIdentifier,
		identifier.ErrInvalidDOI,
		identifier.ErrInvalidGitHub,
		identifier.ErrInvalidPackage,
		identifier.ErrInvalidArXivID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// applyButton moves the button into the state matching the fetch outcome.
// An empty identifier only flags the input and leaves the button as it was.
func applyButton(b *form.Button, res *magic.Result, err error) {
	switch {
	case errors.Is(err, identifier.ErrEmptyIdentifier):
		return
	case errors.Is(err, identifier.ErrNoPlatform), errors.Is(err, identifier.ErrUnknownPlatform):
		b.Warn(form.LabelIdle)
	case errors.Is(err, identifier.ErrInvalidDOI):
		b.Warn(form.LabelInvalidDOI)
	case isInputError(err):
		b.Warn("")
	case err != nil:
		b.Fail()
	default:
		b.InventoryWarning(res.Warning)
		b.Succeed()
	}
}

// fetchWithButton validates the input before the button starts loading, so a
// rejected platform or identifier never shows the spinner and leaves the form
// as it was. An accepted input clears the form, and a successful fetch fills it.
func fetchWithButton(ctx context.Context, r *magic.Resolver, f *form.Form, b *form.Button, platform, raw string) (*magic.Result, error) {
	p, id, err := magic.Sanitize(platform, raw)
	if err != nil {
		applyButton(b, nil, err)
		return nil, err
	}
	f.Reset()
	b.Start()
	res, err := r.Fetch(ctx, string(p), id)
	applyButton(b, res, err)
	if err != nil {
		return nil, err
	}
	f.Fill(res.Fields)
	return res, nil
}
