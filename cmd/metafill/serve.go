package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opted-eu/metafill/internal/identifier"
	"github.com/opted-eu/metafill/internal/inventory"
	"github.com/opted-eu/metafill/internal/magic"
	"github.com/opted-eu/metafill/internal/transport"
	"github.com/spf13/cobra"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lookup endpoints over HTTP",
	Long: `Serve the inventory and metadata endpoints over HTTP.

Endpoints:
  GET /endpoint/identifier/lookup?doi=|arxiv=|cran=|pypi=|github=|openalex=
  GET /endpoint/cran?package=<name>
  GET /endpoint/fetch?platform=<platform>&identifier=<id>
  GET /add/check?name=<name>[&dgraph_type=<type>]

Fetched records are cached in memory (cache_size in the repository config).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	t := newTransport(cfg, log)

	local, err := openLocal(repoRoot, log)
	if err != nil {
		exitWithError(ExitDataError, "opening inventory: %v", err)
	}
	defer local.Close()

	reg, err := newRegistry(t, log)
	if err != nil {
		return err
	}
	resolver, err := magic.NewResolver(reg,
		magic.WithChecker(local),
		magic.WithCache(cfg.EffectiveCacheSize()),
		magic.WithLogger(log))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           newRouter(&server{resolver: resolver, sources: reg, local: local, logger: log}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SIGHUP drops the cached records.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", serveAddr, "repo", repoRoot, "platforms", reg.Platforms())
		errCh <- srv.ListenAndServe()
	}()

wait:
	for {
		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-hup:
			resolver.Purge()
			log.Info("record cache purged")
		case <-ctx.Done():
			break wait
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// server holds what the HTTP handlers need.
type server struct {
	resolver *magic.Resolver
	sources  *magic.Registry
	local    *inventory.Local
	logger   *slog.Logger
}

func newRouter(s *server) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/endpoint/identifier/lookup", s.handleLookup)
	r.Get("/endpoint/cran", s.handleCRAN)
	r.Get("/endpoint/fetch", s.handleFetch)
	r.Get("/add/check", s.handleDuplicateCheck)
	return r
}

// handleLookup answers with the first identifier field present in the query.
func (s *server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	for _, field := range inventory.LookupFields {
		id := strings.TrimSpace(q.Get(field))
		if id == "" {
			continue
		}
		res, err := s.local.Lookup(r.Context(), field, id)
		if err != nil {
			s.logger.Error("inventory lookup failed", "field", field, "identifier", id, "error", err)
			writeError(w, http.StatusInternalServerError, "inventory lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeJSON(w, http.StatusOK, inventory.Result{})
}

func (s *server) handleCRAN(w http.ResponseWriter, r *http.Request) {
	pkg, err := identifier.Sanitize(identifier.CRAN, r.URL.Query().Get("package"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	src, ok := s.sources.Get(identifier.CRAN)
	if !ok {
		writeError(w, http.StatusNotImplemented, magic.ErrNoSource.Error())
		return
	}
	rec, err := src.Fetch(r.Context(), pkg)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec.Fields())
}

func (s *server) handleFetch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.resolver.Fetch(r.Context(), q.Get("platform"), q.Get("identifier"))
	if errors.Is(err, magic.ErrNoSource) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%v (available: %v)", err, s.sources.Platforms()))
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleDuplicateCheck(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name parameter is required")
		return
	}
	limit := inventory.DefaultDuplicateLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.local.DuplicateCheck(r.Context(), name, q.Get("dgraph_type"), limit)
	if err != nil {
		s.logger.Error("duplicate check failed", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "duplicate check failed")
		return
	}
	if entries == nil {
		entries = []inventory.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// statusFor maps a fetch error to an HTTP status.
func statusFor(err error) int {
	switch {
	case isInputError(err), errors.Is(err, magic.ErrNoSource):
		return http.StatusBadRequest
	case transport.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
