package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opted-eu/metafill/internal/logger"
)

// DefaultDuplicateLimit caps the number of potential duplicates returned.
const DefaultDuplicateLimit = 25

// Local is the inventory kept in a JSONL file, queried through a SQLite cache
// that is rebuilt whenever the JSONL file is newer.
type Local struct {
	jsonlPath string
	db        *DB
	logger    *slog.Logger
	now       func() time.Time

	mu sync.Mutex // serializes Add
}

// LocalOption configures a Local store.
type LocalOption func(*Local)

// WithLocalLogger sets the logger.
func WithLocalLogger(l *slog.Logger) LocalOption {
	return func(s *Local) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for creation dates.
func WithClock(now func() time.Time) LocalOption {
	return func(s *Local) {
		s.now = now
	}
}

// OpenLocal opens the store backed by jsonlPath with its query cache at
// dbPath, rebuilding the cache when it is missing or stale.
func OpenLocal(jsonlPath, dbPath string, opts ...LocalOption) (*Local, error) {
	s := &Local{
		jsonlPath: jsonlPath,
		logger:    logger.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	stale := cacheIsStale(jsonlPath, dbPath)

	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, err
	}
	s.db = db

	if stale {
		n, err := db.RebuildFromJSONL(jsonlPath)
		if err != nil {
			db.Close()
			return nil, err
		}
		s.logger.Debug("rebuilt inventory cache", "entries", n, "db", dbPath)
	}
	return s, nil
}

// cacheIsStale reports whether the database is missing or older than the JSONL file.
func cacheIsStale(jsonlPath, dbPath string) bool {
	dbInfo, err := os.Stat(dbPath)
	if err != nil {
		return true
	}
	jsonlInfo, err := os.Stat(jsonlPath)
	if err != nil {
		return false
	}
	return jsonlInfo.ModTime().After(dbInfo.ModTime())
}

// Close closes the query cache.
func (s *Local) Close() error {
	return s.db.Close()
}

// Rebuild re-reads the JSONL file into the query cache.
func (s *Local) Rebuild() (int, error) {
	return s.db.RebuildFromJSONL(s.jsonlPath)
}

// Lookup implements Checker.
func (s *Local) Lookup(ctx context.Context, field, id string) (Result, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Result{}, nil
	}
	entries, err := s.db.LookupIdentifier(ctx, field, id)
	if err != nil {
		return Result{}, err
	}
	return Result{Status: len(entries) > 0, Data: entries}, nil
}

// List returns all entries, optionally limited.
func (s *Local) List(ctx context.Context, limit int) ([]Entry, error) {
	return s.db.ListAll(ctx, limit)
}

// Search runs a full-text search over names and titles.
func (s *Local) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	return s.db.Search(ctx, query, limit)
}

// Count returns the number of entries.
func (s *Local) Count(ctx context.Context) (int, error) {
	return s.db.Count(ctx)
}

// Add stores a new entry. It assigns a UID, a unique name and a creation
// date, and forces the draft status. An entry sharing any identifier with a
// visible entry is rejected with ErrDuplicate.
func (s *Local) Add(ctx context.Context, e Entry) (Entry, error) {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return Entry{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, field := range LookupFields {
		id := e.Identifier(field)
		if id == "" {
			continue
		}
		res, err := s.Lookup(ctx, field, id)
		if err != nil {
			return Entry{}, err
		}
		if res.Status {
			return Entry{}, fmt.Errorf("%w: %s %s (%s)", ErrDuplicate, field, id, res.Data[0].UniqueName)
		}
	}

	existing, err := ReadAll(s.jsonlPath)
	if err != nil {
		return Entry{}, err
	}

	entryType := TypeEntry
	if len(e.Types) > 0 {
		entryType = e.Types[len(e.Types)-1]
	} else {
		e.Types = []string{TypeEntry}
	}

	e.UID = "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
	e.UniqueName = GenerateUniqueName(existing, entryType, e.Name)
	e.Status = StatusDraft
	e.DateCreated = s.now().UTC().Truncate(time.Second)

	if err := Append(s.jsonlPath, e); err != nil {
		return Entry{}, err
	}
	if err := s.db.Insert(e); err != nil {
		return Entry{}, err
	}

	s.logger.Info("added entry", "uid", e.UID, "unique_name", e.UniqueName)
	return e, nil
}

// DuplicateCheck returns entries that may be the same item as name: full-text
// matches on name, title and alternate names, names containing the query and
// exact identifier matches.
// A non-empty entryType restricts the text matches to that type.
func (s *Local) DuplicateCheck(ctx context.Context, name, entryType string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultDuplicateLimit
	}
	identifierQuery := strings.TrimSpace(name)
	if identifierQuery == "" {
		return nil, nil
	}

	textQuery := cleanDuplicateQuery(identifierQuery)

	byText, err := s.db.Search(ctx, textQuery, limit)
	if err != nil {
		return nil, err
	}
	bySubstring, err := s.db.SearchNameSubstring(ctx, identifierQuery, limit)
	if err != nil {
		return nil, err
	}
	byID, err := s.db.FindByAnyIdentifier(ctx, identifierQuery)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []Entry
	for _, e := range append(byText, bySubstring...) {
		if entryType != "" && !e.HasType(entryType) {
			continue
		}
		if !seen[e.UID] {
			seen[e.UID] = true
			out = append(out, e)
		}
	}
	for _, e := range byID {
		if !seen[e.UID] {
			seen[e.UID] = true
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// cleanDuplicateQuery drops URL scheme and www prefixes and punctuation.
func cleanDuplicateQuery(q string) string {
	q = strings.ReplaceAll(q, "https://", "")
	q = strings.ReplaceAll(q, "http://", "")
	q = strings.ReplaceAll(q, "www.", "")
	q = strings.Map(func(r rune) rune {
		switch {
		case r == '_' || r == '-':
			return ' '
		case strings.ContainsRune(`"'*+:(){}[]^~/\.,;!?&|<>=@#$%`, r):
			return ' '
		}
		return r
	}, q)
	return strings.Join(strings.Fields(q), " ")
}
