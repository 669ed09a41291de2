package store

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"log/slog"
	"sync"

	"github.com/ardnew/kay/lang"
	"github.com/ardnew/kay/log"
)

// SchemaVersion identifies the table layout written by this package.
const SchemaVersion = "1"

var (
	ErrOpen          = lang.NewError("open store")
	ErrSchemaVersion = lang.NewError("unsupported store schema version")
	ErrQuery         = lang.NewError("store query failed")
	ErrDecode        = lang.NewError("invalid stored value")
	ErrClosed        = lang.NewError("store closed")
)

// Store is a SQLite-backed set of bindings. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	logger log.Logger
}

// Entry is one persisted binding in its stored text form.
type Entry struct {
	Name  string
	Value string
}

// Option configures a [Store].
type Option func(*Store)

// WithLogger sets the logger used to report skipped bindings.
func WithLogger(logger log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Open opens or creates the database at path. The path ":memory:" opens a
// private in-memory database.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, ErrOpen.Wrap(err).With(slog.String("path", path))
	}

	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	s.db = db

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	s.logger.DebugContext(ctx, "store opened", slog.String("path", path))

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS bindings (
			seq   INTEGER PRIMARY KEY AUTOINCREMENT,
			name  TEXT NOT NULL UNIQUE,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return ErrOpen.Wrap(err).With(slog.String("path", s.path))
	}

	version, err := s.metadata(ctx, "schema_version")
	if err != nil {
		return err
	}

	switch version {
	case "":
		return s.setMetadata(ctx, "schema_version", SchemaVersion)
	case SchemaVersion:
		return nil
	}

	return ErrSchemaVersion.With(
		slog.String("path", s.path),
		slog.String("found", version),
		slog.String("want", SchemaVersion))
}

// Path returns the database path given to [Open].
func (s *Store) Path() string { return s.path }

// Load reads every binding into env in the order they were first saved and
// returns the number loaded. A row that does not parse aborts the load.
func (s *Store) Load(ctx context.Context, env lang.Environment) (int, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return 0, err
	}

	for i, e := range entries {
		v, err := lang.ParseValue(ctx, e.Value)
		if err != nil {
			return i, ErrDecode.Wrap(err).With(slog.String("name", e.Name))
		}

		env.Write(e.Name, v)
	}

	s.logger.DebugContext(ctx, "store loaded", slog.Int("bindings", len(entries)))

	return len(entries), nil
}

// Save replaces the stored bindings with bindings. Values that have no literal
// form are skipped with a warning; previously stored rows for their names are
// removed. Names keep their original order across saves.
func (s *Store) Save(ctx context.Context, bindings iter.Seq2[string, lang.Value]) error {
	rows := make([]Entry, 0)

	for name, v := range bindings {
		text, err := lang.FormatLiteral(v)
		if err != nil {
			s.logger.WarnContext(ctx, "binding not saved",
				slog.String("name", name),
				slog.String("type", v.Type()),
				slog.Any("error", err))

			continue
		}

		rows = append(rows, Entry{Name: name, Value: text})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ErrQuery.Wrap(err)
	}

	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `CREATE TEMP TABLE IF NOT EXISTS keep (name TEXT PRIMARY KEY)`); err != nil {
		return ErrQuery.Wrap(err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM keep`); err != nil {
		return ErrQuery.Wrap(err)
	}

	for _, e := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bindings (name, value) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET value = excluded.value
		`, e.Name, e.Value); err != nil {
			return ErrQuery.Wrap(err).With(slog.String("name", e.Name))
		}

		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO keep (name) VALUES (?)`, e.Name); err != nil {
			return ErrQuery.Wrap(err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bindings WHERE name NOT IN (SELECT name FROM keep)`); err != nil {
		return ErrQuery.Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return ErrQuery.Wrap(err)
	}

	s.logger.TraceContext(ctx, "store saved", slog.Int("bindings", len(rows)))

	return nil
}

// Entries returns the stored bindings in their stored text form.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM bindings ORDER BY seq`)
	if err != nil {
		return nil, ErrQuery.Wrap(err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Value); err != nil {
			return nil, ErrQuery.Wrap(err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, ErrQuery.Wrap(err)
	}

	return entries, nil
}

// Close releases the database. Further calls return [ErrClosed].
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	return err
}

func (s *Store) metadata(ctx context.Context, key string) (string, error) {
	var value string

	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}

	if err != nil {
		return "", ErrQuery.Wrap(err).With(slog.String("key", key))
	}

	return value, nil
}

func (s *Store) setMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return ErrQuery.Wrap(err).With(slog.String("key", key))
	}

	return nil
}
