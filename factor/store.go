/*
store.go - Storage adapter contract for factor tables

PURPOSE:
  Defines the interface between the reconciliation engine and the storage
  backend. The engine only ever reads whole tables, appends rows, or replaces
  a table wholesale; it never asks the backend to alter a schema in place or
  to upsert.

KEY INTERFACE:
  Store: existence check, column listing, full/indexed/filtered reads,
         append and replace.

KEY COLUMN:
  Adapters persist Table.Index as the KeyColumn ("index_col") column and
  strip it again on read. ListColumns is the one method that reports it.

DUPLICATES:
  AppendRows does not check for key collisions. Appending a key that is
  already stored produces two stored rows; the engine dedups beforehand.

IMPLEMENTATIONS:
  - factor/store/memory.go: In-memory for tests and development
  - store/sqlite:           SQLite via database/sql
  - store/mysql:            MySQL via database/sql

SEE ALSO:
  - engine.go: The only caller
  - store/sqlstore: Shared SQL implementation
*/
package factor

import "context"

// Store persists factor tables. Every method fails with a *StoreError when
// the backend is unavailable.
type Store interface {
	// TableExists reports whether the named table exists.
	TableExists(ctx context.Context, name string) (bool, error)

	// ListColumns returns the persisted column names in storage order,
	// including KeyColumn. Returns ErrNoSuchTable if absent.
	ListColumns(ctx context.Context, name string) ([]string, error)

	// ReadAll returns every row and column, ascending by key.
	ReadAll(ctx context.Context, name string) (*Table, error)

	// ReadIndex returns only the stored keys.
	ReadIndex(ctx context.Context, name string) ([]Date, error)

	// ReadFiltered returns the given columns for rows with key in [from, to],
	// ascending by key. Returns ErrUnknownColumn for a column the table lacks.
	ReadFiltered(ctx context.Context, name string, columns []string, from, to Date) (*Table, error)

	// AppendRows inserts rows. Persisted columns missing from rows are NULL.
	AppendRows(ctx context.Context, name string, rows *Table) error

	// ReplaceTable drops the table if present and recreates it with exactly
	// the schema and contents of t.
	ReplaceTable(ctx context.Context, name string, t *Table) error
}
