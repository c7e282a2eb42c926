package factor

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// PLAN - What a save would do, without writing
// =============================================================================

// Action is the kind of write a save performs.
type Action string

const (
	ActionReplace Action = "replace" // rewrite with the update
	ActionAppend  Action = "append"  // append rows at new keys
	ActionMigrate Action = "migrate" // rewrite with added columns, then append
)

// Plan describes the writes Save would issue for an update.
type Plan struct {
	Table  string
	Mode   Mode
	Action Action

	// Common are update columns already persisted.
	Common []string
	// Added are update columns the table does not have yet.
	Added []string
	// Dropped are persisted columns the write discards. REPLACE drops every
	// column missing from the update; a migrate drops them only when column
	// pruning is enabled.
	Dropped []string

	// Inserted counts update rows that would be written.
	Inserted int
	// Collisions counts update rows dropped because their key is stored
	// already or repeats an earlier row of the update.
	Collisions int
}

// Plan runs the decision procedure of Save against the current table state
// and reports the outcome. Nothing is written.
func (e *Engine) Plan(ctx context.Context, update *Table, name string, mode Mode) (*Plan, error) {
	if err := checkSave(update, name, mode); err != nil {
		return nil, err
	}
	p := &Plan{Table: name, Mode: mode}

	persisted, err := e.store.ListColumns(ctx, name)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoSuchTable) && mode == ModeReplace:
		persisted = nil
	default:
		return nil, err
	}

	if mode == ModeReplace {
		cols := resolveColumns(persisted, update.Columns, true)
		p.Action = ActionReplace
		p.Common, p.Added, p.Dropped = cols.Common, cols.Added, cols.Dropped
		p.Inserted = update.Len()
		return p, nil
	}

	cols := resolveColumns(persisted, update.Columns, e.PruneMissingColumns)
	p.Common, p.Added, p.Dropped = cols.Common, cols.Added, cols.Dropped
	p.Action = ActionAppend
	if len(cols.Added) > 0 {
		p.Action = ActionMigrate
	}

	existing, err := e.store.ReadIndex(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read index of %s: %w", name, err)
	}
	keys, collisions := uniqueKeys(update.Index, existing)
	p.Inserted, p.Collisions = len(keys), collisions
	return p, nil
}

// =============================================================================
// COLUMN AND ROW DECISIONS
// =============================================================================

// columnPlan splits columns between a persisted table and an update.
type columnPlan struct {
	Common  []string // update columns already persisted, persisted order
	Added   []string // update columns not persisted, update order
	Dropped []string // persisted columns the rewrite discards
	Kept    []string // persisted columns carried into a rewrite
}

// resolveColumns compares persisted columns (key column included or not)
// with update columns. With prune set, persisted columns the update does not
// mention are dropped instead of kept.
func resolveColumns(persisted, update []string, prune bool) columnPlan {
	db := withoutKey(persisted)
	inUpdate := make(map[string]bool, len(update))
	for _, c := range update {
		inUpdate[c] = true
	}
	inDB := make(map[string]bool, len(db))

	var p columnPlan
	for _, c := range db {
		inDB[c] = true
		switch {
		case inUpdate[c]:
			p.Common = append(p.Common, c)
			p.Kept = append(p.Kept, c)
		case prune:
			p.Dropped = append(p.Dropped, c)
		default:
			p.Kept = append(p.Kept, c)
		}
	}
	for _, c := range update {
		if !inDB[c] {
			p.Added = append(p.Added, c)
		}
	}
	return p
}

// uniqueKeys returns the keys of update that are not in existing, ascending
// and without repeats, plus how many update rows were dropped.
func uniqueKeys(update, existing []Date) ([]Date, int) {
	stored := make(map[Date]struct{}, len(existing))
	for _, k := range existing {
		stored[k] = struct{}{}
	}

	seen := make(map[Date]struct{}, len(update))
	keys := make([]Date, 0, len(update))
	for _, k := range update {
		if _, ok := stored[k]; ok {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sortDates(keys)
	return keys, len(update) - len(keys)
}

func withoutKey(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != KeyColumn {
			out = append(out, c)
		}
	}
	return out
}
