/*
Package sqlstore implements factor.Store on top of database/sql.

PURPOSE:
  Factor tables are plain relational tables: one key column (factor.KeyColumn)
  plus one nullable float column per security identifier. This package
  issues the SQL for every Store operation; a Dialect supplies the parts that
  differ between backends (quoting, types, catalog queries, error codes).

TABLE LAYOUT:
  CREATE TABLE "momentum_20d" (
      "index_col" <key type>,
      "000001.XSHE" <value type>,
      "600000.XSHG" <value type>
  )

  The key column has no PRIMARY KEY or UNIQUE constraint. Uniqueness of keys
  is maintained by the engine, not by the schema.

REPLACE:
  Drop, create and insert run in one database transaction. Backends with
  non-transactional DDL (MySQL) commit the drop and create implicitly.

BACKENDS:
  - store/sqlite: SQLite dialect + go-sqlite3 driver
  - store/mysql:  MySQL dialect + go-sql-driver/mysql

SEE ALSO:
  - factor/store.go: Interface definition
  - dialect.go:      Dialect contract
*/
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yearone/factor-pool/factor"
)

// Store implements factor.Store over a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
	log     zerolog.Logger
}

var _ factor.Store = (*Store)(nil)

// New wraps an open database handle.
func New(db *sql.DB, dialect Dialect, log zerolog.Logger) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		log:     log.With().Str("component", "factor_store").Str("dialect", dialect.Name()).Logger(),
	}
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// CATALOG
// =============================================================================

func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.dialect.TableExistsQuery(), name).Scan(&n); err != nil {
		return false, factor.NewStoreError("table exists", name, err)
	}
	return n > 0, nil
}

func (s *Store) ListColumns(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.ListColumnsQuery(), name)
	if err != nil {
		return nil, s.classify("list columns", name, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, factor.NewStoreError("list columns", name, err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, factor.NewStoreError("list columns", name, err)
	}
	if len(columns) == 0 {
		return nil, &factor.NoSuchTableError{Table: name}
	}
	return columns, nil
}

// =============================================================================
// READS
// =============================================================================

func (s *Store) ReadAll(ctx context.Context, name string) (*factor.Table, error) {
	persisted, err := s.ListColumns(ctx, name)
	if err != nil {
		return nil, err
	}
	columns := valueColumns(persisted)

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		s.selectList(columns), s.dialect.Quote(name), s.dialect.Quote(factor.KeyColumn))
	return s.queryTable(ctx, "read", name, columns, query)
}

func (s *Store) ReadIndex(ctx context.Context, name string) ([]factor.Date, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", s.dialect.Quote(factor.KeyColumn), s.dialect.Quote(name))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, s.classify("read index", name, err)
	}
	defer rows.Close()

	var keys []factor.Date
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return nil, factor.NewStoreError("read index", name, err)
		}
		k, err := DecodeDate(raw)
		if err != nil {
			return nil, factor.NewStoreError("read index", name, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, factor.NewStoreError("read index", name, err)
	}
	return keys, nil
}

func (s *Store) ReadFiltered(ctx context.Context, name string, columns []string, from, to factor.Date) (*factor.Table, error) {
	persisted, err := s.ListColumns(ctx, name)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(persisted))
	for _, c := range persisted {
		have[c] = true
	}
	for _, c := range columns {
		if !have[c] || c == factor.KeyColumn {
			return nil, &factor.UnknownColumnError{Table: name, Column: c}
		}
	}

	key := s.dialect.Quote(factor.KeyColumn)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s BETWEEN ? AND ? ORDER BY %s",
		s.selectList(columns), s.dialect.Quote(name), key, key)
	return s.queryTable(ctx, "read filtered", name, columns, query,
		s.dialect.EncodeDate(from), s.dialect.EncodeDate(to))
}

func (s *Store) queryTable(ctx context.Context, op, name string, columns []string, query string, args ...any) (*factor.Table, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.classify(op, name, err)
	}
	defer rows.Close()

	t := factor.NewTable(columns...)
	dest := make([]any, len(columns)+1)
	var raw any
	dest[0] = &raw
	values := make([]factor.Value, len(columns))
	for i := range values {
		dest[i+1] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, factor.NewStoreError(op, name, err)
		}
		k, err := DecodeDate(raw)
		if err != nil {
			return nil, factor.NewStoreError(op, name, err)
		}
		if err := t.AppendRow(k, values...); err != nil {
			return nil, factor.NewStoreError(op, name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, factor.NewStoreError(op, name, err)
	}
	return t, nil
}

// =============================================================================
// WRITES
// =============================================================================

func (s *Store) AppendRows(ctx context.Context, name string, rows *factor.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return factor.NewStoreError("append", name, err)
	}
	defer tx.Rollback()

	if err := s.insertRows(ctx, tx, name, rows); err != nil {
		return s.classify("append", name, err)
	}
	if err := tx.Commit(); err != nil {
		return factor.NewStoreError("append", name, err)
	}

	s.log.Debug().Str("table", name).Int("rows", rows.Len()).Msg("Appended rows")
	return nil
}

func (s *Store) ReplaceTable(ctx context.Context, name string, t *factor.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return factor.NewStoreError("replace", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+s.dialect.Quote(name)); err != nil {
		return factor.NewStoreError("replace", name, err)
	}
	if _, err := tx.ExecContext(ctx, s.createTable(name, t.Columns)); err != nil {
		return factor.NewStoreError("replace", name, err)
	}
	if err := s.insertRows(ctx, tx, name, t); err != nil {
		return factor.NewStoreError("replace", name, err)
	}
	if err := tx.Commit(); err != nil {
		return factor.NewStoreError("replace", name, err)
	}

	s.log.Debug().Str("table", name).Int("rows", t.Len()).Int("columns", len(t.Columns)).Msg("Replaced table")
	return nil
}

func (s *Store) insertRows(ctx context.Context, tx *sql.Tx, name string, t *factor.Table) error {
	if t.Len() == 0 {
		return nil
	}

	names := make([]string, 0, len(t.Columns)+1)
	names = append(names, s.dialect.Quote(factor.KeyColumn))
	for _, c := range t.Columns {
		names = append(names, s.dialect.Quote(c))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.dialect.Quote(name), strings.Join(names, ", "), placeholders)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(names))
	for i, k := range t.Index {
		args[0] = s.dialect.EncodeDate(k)
		for j, c := range t.Columns {
			args[j+1] = t.Data[c][i]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SQL HELPERS
// =============================================================================

func (s *Store) createTable(name string, columns []string) string {
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, s.dialect.Quote(factor.KeyColumn)+" "+s.dialect.KeyType())
	for _, c := range columns {
		defs = append(defs, s.dialect.Quote(c)+" "+s.dialect.ValueType())
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", s.dialect.Quote(name), strings.Join(defs, ", "))
}

// selectList quotes the key column followed by columns.
func (s *Store) selectList(columns []string) string {
	quoted := make([]string, 0, len(columns)+1)
	quoted = append(quoted, s.dialect.Quote(factor.KeyColumn))
	for _, c := range columns {
		quoted = append(quoted, s.dialect.Quote(c))
	}
	return strings.Join(quoted, ", ")
}

// classify maps a missing-table driver error to factor.NoSuchTableError and
// wraps everything else as a store error.
func (s *Store) classify(op, name string, err error) error {
	var notFound *factor.NoSuchTableError
	if errors.As(err, &notFound) {
		return err
	}
	if s.dialect.IsNoSuchTable(err) {
		return &factor.NoSuchTableError{Table: name}
	}
	return factor.NewStoreError(op, name, err)
}

func valueColumns(persisted []string) []string {
	out := make([]string, 0, len(persisted))
	for _, c := range persisted {
		if c != factor.KeyColumn {
			out = append(out, c)
		}
	}
	return out
}
