package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB is the ephemeral SQLite query layer over the JSONL entries file.
type DB struct {
	db *sql.DB
}

// selectEntryFields contains the standard field list for SELECT queries.
const selectEntryFields = `uid, unique_name, name, title, alternate_names,
	types_json, status,
	doi, arxiv, cran, pypi, github, openalex,
	date_created`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			uid TEXT PRIMARY KEY,
			unique_name TEXT NOT NULL,
			name TEXT NOT NULL,
			title TEXT,
			alternate_names TEXT,
			types_json TEXT NOT NULL,
			status TEXT NOT NULL,
			doi TEXT,
			arxiv TEXT,
			cran TEXT,
			pypi TEXT,
			github TEXT,
			openalex TEXT,
			date_created TEXT
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_unique_name ON entries(unique_name);
		CREATE INDEX IF NOT EXISTS idx_entries_doi ON entries(doi COLLATE NOCASE) WHERE doi IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_entries_arxiv ON entries(arxiv COLLATE NOCASE) WHERE arxiv IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_entries_cran ON entries(cran COLLATE NOCASE) WHERE cran IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_entries_pypi ON entries(pypi COLLATE NOCASE) WHERE pypi IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_entries_github ON entries(github COLLATE NOCASE) WHERE github IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_entries_openalex ON entries(openalex COLLATE NOCASE) WHERE openalex IS NOT NULL;

		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			uid UNINDEXED,
			name,
			title,
			alternate_names
		);
	`
	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	entries, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return 0, fmt.Errorf("clearing entries table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM entries_fts"); err != nil {
		return 0, fmt.Errorf("clearing entries_fts table: %w", err)
	}

	for _, e := range entries {
		if err := insertEntry(tx, e); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(entries), nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Insert adds a single entry to the query layer.
func (d *DB) Insert(e Entry) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertEntry(tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

func insertEntry(x execer, e Entry) error {
	typesJSON, err := json.Marshal(e.Types)
	if err != nil {
		return fmt.Errorf("marshaling types for %s: %w", e.UID, err)
	}

	var created sql.NullString
	if !e.DateCreated.IsZero() {
		created = sql.NullString{String: e.DateCreated.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err = x.Exec(`
		INSERT INTO entries (
			uid, unique_name, name, title, alternate_names,
			types_json, status,
			doi, arxiv, cran, pypi, github, openalex,
			date_created
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UID, e.UniqueName, e.Name, nullableStringValue(e.Title), nullableStringValue(e.AlternateNames),
		string(typesJSON), string(e.Status),
		nullableStringValue(e.DOI), nullableStringValue(e.ArXiv), nullableStringValue(e.CRAN),
		nullableStringValue(e.PyPI), nullableStringValue(e.GitHub), nullableStringValue(e.OpenAlex),
		created,
	)
	if err != nil {
		return fmt.Errorf("inserting entry %s: %w", e.UID, err)
	}

	_, err = x.Exec(`INSERT INTO entries_fts (uid, name, title, alternate_names) VALUES (?, ?, ?, ?)`,
		e.UID, e.Name, e.Title, e.AlternateNames)
	if err != nil {
		return fmt.Errorf("inserting fts for %s: %w", e.UID, err)
	}
	return nil
}

// visibleStatuses is the SQL list of statuses that count for lookups.
const visibleStatuses = `('draft', 'accepted', 'pending')`

// LookupIdentifier returns visible entries whose identifier field equals id,
// ignoring case.
func (d *DB) LookupIdentifier(ctx context.Context, field, id string) ([]Entry, error) {
	if err := ValidateField(field); err != nil {
		return nil, err
	}

	// field is validated against LookupFields above.
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+selectEntryFields+`
		FROM entries
		WHERE `+field+` = ? COLLATE NOCASE AND status IN `+visibleStatuses+`
		ORDER BY uid`, id)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", field, err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Search performs a full-text search over names, titles and alternate names.
func (d *DB) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+selectEntryFields+`
		FROM entries
		WHERE uid IN (SELECT uid FROM entries_fts WHERE entries_fts MATCH ?)
		ORDER BY name
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// SearchNameSubstring returns entries whose name contains query, ignoring
// ASCII case.
func (d *DB) SearchNameSubstring(ctx context.Context, query string, limit int) ([]Entry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	escaped := likeEscaper.Replace(query)

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+selectEntryFields+`
		FROM entries
		WHERE name LIKE '%' || ? || '%' ESCAPE '\'
		ORDER BY name
		LIMIT ?`, escaped, limit)
	if err != nil {
		return nil, fmt.Errorf("matching names: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// FindByAnyIdentifier returns entries where any identifier field equals id.
func (d *DB) FindByAnyIdentifier(ctx context.Context, id string) ([]Entry, error) {
	var conds []string
	var args []any
	for _, f := range LookupFields {
		conds = append(conds, f+" = ? COLLATE NOCASE")
		args = append(args, id)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+selectEntryFields+`
		FROM entries
		WHERE `+strings.Join(conds, " OR ")+`
		ORDER BY uid`, args...)
	if err != nil {
		return nil, fmt.Errorf("matching identifiers: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListAll returns all entries, optionally limited.
func (d *DB) ListAll(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT ` + selectEntryFields + ` FROM entries ORDER BY unique_name`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = []any{limit}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Count returns the total number of entries.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var status, typesJSON string
	var title, altNames, doi, arxiv, cran, pypi, github, openalex, created sql.NullString

	err := s.Scan(
		&e.UID, &e.UniqueName, &e.Name, &title, &altNames,
		&typesJSON, &status,
		&doi, &arxiv, &cran, &pypi, &github, &openalex,
		&created,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	e.Status = Status(status)
	e.Title = title.String
	e.AlternateNames = altNames.String
	e.DOI = doi.String
	e.ArXiv = arxiv.String
	e.CRAN = cran.String
	e.PyPI = pypi.String
	e.GitHub = github.String
	e.OpenAlex = openalex.String

	if created.Valid {
		t, err := time.Parse(time.RFC3339, created.String)
		if err != nil {
			return nil, fmt.Errorf("parsing date_created for %s: %w", e.UID, err)
		}
		e.DateCreated = t
	}
	if err := json.Unmarshal([]byte(typesJSON), &e.Types); err != nil {
		return nil, fmt.Errorf("parsing types JSON for %s: %w", e.UID, err)
	}
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery turns free text into an FTS5 query that requires every
// term. Terms are quoted so punctuation (dots, hyphens, colons) cannot break
// the FTS5 syntax.
func prepareFTSQuery(query string) string {
	var terms []string
	for _, t := range strings.Fields(query) {
		t = strings.ReplaceAll(t, "\"", "\"\"")
		terms = append(terms, "\""+t+"\"")
	}
	return strings.Join(terms, " ")
}
