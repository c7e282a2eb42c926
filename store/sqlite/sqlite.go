/*
Package sqlite provides a SQLite-backed factor.Store.

PURPOSE:
  Opens a SQLite database with go-sqlite3 and plugs the SQLite dialect into
  the shared sqlstore implementation.

SCHEMA:
  No schema is created up front. Each factor table is created by its first
  REPLACE and recreated by every later one.

  Keys are stored as TEXT "YYYY-MM-DD" so BETWEEN compares them correctly;
  factor values are REAL (NULL for missing).

WAL MODE:
  File databases are opened with WAL journaling: readers do not block the
  single writer.

IN-MEMORY:
  ":memory:" gives every pooled connection its own empty database, so the
  pool is pinned to a single connection for that path.

USAGE:
  store, err := sqlite.New("./factor_pool.db", log)
  if err != nil {
      log.Fatal().Err(err).Msg("open store")
  }
  defer store.Close()

  engine := factor.NewEngine(store, log)

SEE ALSO:
  - store/sqlstore: Shared SQL implementation
  - factor/store.go: Interface definition
*/
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/yearone/factor-pool/factor"
	"github.com/yearone/factor-pool/store/sqlstore"
)

// Store is a SQLite factor store.
type Store struct {
	*sqlstore.Store
}

// New opens (or creates) the SQLite database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string, log zerolog.Logger) (*Store, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("SQLite factor store opened")
	return &Store{Store: sqlstore.New(db, Dialect{}, log)}, nil
}

// =============================================================================
// DIALECT
// =============================================================================

// Dialect is the SQLite flavour of sqlstore.Dialect.
type Dialect struct{}

func (Dialect) Name() string              { return "sqlite" }
func (Dialect) Quote(ident string) string { return sqlstore.QuoteWith(`"`, ident) }
func (Dialect) KeyType() string           { return "TEXT" }
func (Dialect) ValueType() string         { return "REAL" }

func (Dialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
}

func (Dialect) ListColumnsQuery() string {
	return `SELECT name FROM pragma_table_info(?) ORDER BY cid`
}

func (Dialect) EncodeDate(d factor.Date) any { return d.String() }

// IsNoSuchTable matches SQLITE_ERROR "no such table: x".
func (Dialect) IsNoSuchTable(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrError {
		return strings.Contains(sqliteErr.Error(), "no such table")
	}
	return false
}
