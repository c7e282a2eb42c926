/*
engine.go - Factor reconciliation engine

PURPOSE:
  Merges an in-memory factor update into a persisted factor table using only
  the whole-table primitives of Store.

SAVE MODES:
  REPLACE: Rewrite the table with exactly the update.
  APPEND:  Add the update's rows whose keys are not stored yet.

APPEND DECISION:
  1. List persisted columns. Missing table: abort with ErrNoSuchTable.
  2. Update adds no column -> append path:
       read stored keys, drop update rows at stored keys (no overwrite),
       append the rest in ascending key order.
  3. Update adds columns -> migrate path:
       read the whole table, add the new columns as nulls, replace the
       table with it, then run the append path against the new schema.

COLUMN PRUNING:
  By default the migrate path keeps persisted columns the update does not
  mention, so the result holds the union of both column sets. With
  PruneMissingColumns set, those columns are discarded during the rewrite.

PARTIAL FAILURE:
  The migrate path writes twice. If the append fails after the replace
  succeeded, the table keeps the reconciled schema with its previous rows
  and the error is returned. Nothing is rolled back.

CONCURRENCY:
  Not safe for concurrent writers to the same table. Callers serialize
  writes per table name.

SEE ALSO:
  - plan.go:  Column and row decisions, shared with the dry run
  - store.go: Store contract
*/
package factor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Engine reconciles factor updates with persisted factor tables.
type Engine struct {
	store Store
	log   zerolog.Logger

	// PruneMissingColumns drops persisted columns that an update does not
	// mention when the update forces a schema rewrite.
	PruneMissingColumns bool
}

// NewEngine creates an engine over the given store.
func NewEngine(store Store, log zerolog.Logger) *Engine {
	return &Engine{
		store: store,
		log:   log.With().Str("component", "factor_engine").Logger(),
	}
}

// =============================================================================
// SAVE
// =============================================================================

// Save persists update into the named table. The update is never modified.
func (e *Engine) Save(ctx context.Context, update *Table, name string, mode Mode) error {
	if err := checkSave(update, name, mode); err != nil {
		e.log.Warn().Err(err).Str("table", name).Str("mode", string(mode)).Msg("Save rejected")
		return err
	}
	work := update.Clone()

	switch mode {
	case ModeReplace:
		return e.saveReplace(ctx, name, work)
	default:
		return e.saveAppend(ctx, name, work)
	}
}

func (e *Engine) saveReplace(ctx context.Context, name string, work *Table) error {
	e.log.Info().Str("table", name).Int("rows", work.Len()).Int("columns", len(work.Columns)).Msg("Replacing factor table")
	if err := e.store.ReplaceTable(ctx, name, work); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (e *Engine) saveAppend(ctx context.Context, name string, work *Table) error {
	persisted, err := e.store.ListColumns(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNoSuchTable) {
			e.log.Warn().Str("table", name).Msg("Append aborted: table does not exist")
		}
		return err
	}

	cols := resolveColumns(persisted, work.Columns, e.PruneMissingColumns)
	if len(cols.Added) == 0 {
		e.log.Info().Str("table", name).Int("rows", work.Len()).Msg("Appending to factor table")
		return e.appendUnique(ctx, name, work)
	}

	e.log.Info().
		Str("table", name).
		Strs("added", cols.Added).
		Strs("dropped", cols.Dropped).
		Msg("Update adds columns, rewriting factor table")
	return e.migrate(ctx, name, work, cols)
}

// appendUnique appends the rows of work whose keys are not stored yet.
func (e *Engine) appendUnique(ctx context.Context, name string, work *Table) error {
	existing, err := e.store.ReadIndex(ctx, name)
	if err != nil {
		return fmt.Errorf("read index of %s: %w", name, err)
	}

	keys, collisions := uniqueKeys(work.Index, existing)
	if collisions > 0 {
		e.log.Debug().Str("table", name).Int("dropped_rows", collisions).Msg("Dropping update rows at stored keys")
	}
	if len(keys) == 0 {
		e.log.Debug().Str("table", name).Msg("No new rows to append")
		return nil
	}

	if err := e.store.AppendRows(ctx, name, work.Rows(keys)); err != nil {
		return fmt.Errorf("append to %s: %w", name, err)
	}
	return nil
}

// migrate rewrites the table under the reconciled schema, then appends.
func (e *Engine) migrate(ctx context.Context, name string, work *Table, cols columnPlan) error {
	current, err := e.store.ReadAll(ctx, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	reconciled := current.Select(cols.Kept)
	for _, c := range cols.Added {
		reconciled.AddNullColumn(c)
	}
	reconciled.SortByIndex()

	if err := e.store.ReplaceTable(ctx, name, reconciled); err != nil {
		return fmt.Errorf("rewrite %s with reconciled schema: %w", name, err)
	}

	if err := e.appendUnique(ctx, name, work); err != nil {
		e.log.Error().Err(err).Str("table", name).
			Msg("Append after schema rewrite failed; table keeps the new schema without the update rows")
		return fmt.Errorf("after schema rewrite of %s: %w", name, err)
	}
	return nil
}

// =============================================================================
// RETRIEVAL
// =============================================================================

// Get returns the requested columns of the named table for keys in
// [start, end]. A nil end means today. Requested columns the table does not
// have are left out of the result without error.
func (e *Engine) Get(ctx context.Context, name string, columnIDs []string, start Date, end *Date) (*Table, error) {
	if name == "" {
		return nil, ErrInvalidTableName
	}
	persisted, err := e.store.ListColumns(ctx, name)
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(persisted))
	for _, c := range persisted {
		if c != KeyColumn {
			have[c] = true
		}
	}
	var columns []string
	for _, c := range columnIDs {
		if have[c] {
			columns = append(columns, c)
			delete(have, c)
		}
	}

	to := Today()
	if end != nil {
		to = *end
	}

	e.log.Debug().Str("table", name).Strs("columns", columns).
		Stringer("from", start).Stringer("to", to).Msg("Reading factor")
	t, err := e.store.ReadFiltered(ctx, name, columns, start, to)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return t, nil
}

// Columns returns the persisted security columns of the named table.
func (e *Engine) Columns(ctx context.Context, name string) ([]string, error) {
	if name == "" {
		return nil, ErrInvalidTableName
	}
	persisted, err := e.store.ListColumns(ctx, name)
	if err != nil {
		return nil, err
	}
	return withoutKey(persisted), nil
}

// =============================================================================
// VALIDATION
// =============================================================================

func checkSave(update *Table, name string, mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q (expected APPEND or REPLACE)", ErrInvalidMode, string(mode))
	}
	if name == "" {
		return ErrInvalidTableName
	}
	if update == nil {
		return fmt.Errorf("%w: nil update", ErrInvalidTable)
	}
	if err := update.Validate(); err != nil {
		return err
	}
	if !update.IsNonDecreasing() {
		return &PreconditionError{First: update.Index[0], Last: update.Index[update.Len()-1]}
	}
	return nil
}
