package factor

import (
	"fmt"
	"sort"
)

// =============================================================================
// TABLE - Date-indexed columns of nullable floats
// =============================================================================

// Table is a date-indexed set of columns. Every slice in Data is aligned to
// Index. Columns fixes the column order; Data holds the values.
//
// The same type carries both a persisted factor table and a caller's update.
// The key column is never part of Columns; adapters add it on write and
// strip it on read.
type Table struct {
	Index   []Date
	Columns []string
	Data    map[string][]Value
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) *Table {
	t := &Table{
		Columns: make([]string, 0, len(columns)),
		Data:    make(map[string][]Value, len(columns)),
	}
	for _, c := range columns {
		t.AddNullColumn(c)
	}
	return t
}

func (t *Table) Len() int { return len(t.Index) }

// AppendRow adds one row. Values are matched to Columns by position.
func (t *Table) AppendRow(key Date, values ...Value) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("%w: row %s has %d values for %d columns", ErrInvalidTable, key, len(values), len(t.Columns))
	}
	t.Index = append(t.Index, key)
	for i, c := range t.Columns {
		t.Data[c] = append(t.Data[c], values[i])
	}
	return nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := &Table{
		Index:   append([]Date(nil), t.Index...),
		Columns: append([]string(nil), t.Columns...),
		Data:    make(map[string][]Value, len(t.Data)),
	}
	for _, name := range t.Columns {
		c.Data[name] = append([]Value(nil), t.Data[name]...)
	}
	return c
}

// Validate checks column alignment and naming.
func (t *Table) Validate() error {
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		switch {
		case c == "":
			return fmt.Errorf("%w: empty column name", ErrInvalidTable)
		case c == KeyColumn:
			return fmt.Errorf("%w: column name %q is reserved for the key", ErrInvalidTable, c)
		case seen[c]:
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidTable, c)
		}
		seen[c] = true
		if got := len(t.Data[c]); got != len(t.Index) {
			return fmt.Errorf("%w: column %q has %d values for %d index keys", ErrInvalidTable, c, got, len(t.Index))
		}
	}
	if len(t.Data) != len(t.Columns) {
		return fmt.Errorf("%w: %d data columns for %d declared columns", ErrInvalidTable, len(t.Data), len(t.Columns))
	}
	return nil
}

// IsNonDecreasing reports whether the first key is not after the last key.
// This is the only ordering an update is required to satisfy.
func (t *Table) IsNonDecreasing() bool {
	if len(t.Index) < 2 {
		return true
	}
	return t.Index[0].BeforeOrEqual(t.Index[len(t.Index)-1])
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.Data[name]
	return ok
}

// Column returns the values of a column, or nil if absent.
func (t *Table) Column(name string) []Value { return t.Data[name] }

// Select returns a copy restricted to the given columns, in the given order.
// Unknown names are skipped.
func (t *Table) Select(columns []string) *Table {
	out := &Table{
		Index: append([]Date(nil), t.Index...),
		Data:  make(map[string][]Value, len(columns)),
	}
	for _, c := range columns {
		vals, ok := t.Data[c]
		if !ok || out.HasColumn(c) {
			continue
		}
		out.Columns = append(out.Columns, c)
		out.Data[c] = append([]Value(nil), vals...)
	}
	return out
}

// AddNullColumn appends an all-null column. Existing columns are left alone.
func (t *Table) AddNullColumn(name string) {
	if t.Data == nil {
		t.Data = make(map[string][]Value)
	}
	if t.HasColumn(name) {
		return
	}
	t.Columns = append(t.Columns, name)
	t.Data[name] = make([]Value, len(t.Index))
}

// Rows returns a copy holding only the rows at keys, in the order given.
// When a key occurs more than once in the table its first row is used.
// Keys not in the table are skipped.
func (t *Table) Rows(keys []Date) *Table {
	pos := make(map[Date]int, len(t.Index))
	for i, k := range t.Index {
		if _, ok := pos[k]; !ok {
			pos[k] = i
		}
	}
	out := NewTable(t.Columns...)
	for _, k := range keys {
		i, ok := pos[k]
		if !ok {
			continue
		}
		out.Index = append(out.Index, k)
		for _, c := range t.Columns {
			out.Data[c] = append(out.Data[c], t.Data[c][i])
		}
	}
	return out
}

// SortByIndex sorts rows ascending by key in place. Equal keys keep their order.
func (t *Table) SortByIndex() {
	order := make([]int, len(t.Index))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return t.Index[order[a]].Before(t.Index[order[b]])
	})

	index := make([]Date, len(t.Index))
	for i, j := range order {
		index[i] = t.Index[j]
	}
	t.Index = index
	for _, c := range t.Columns {
		vals := t.Data[c]
		sorted := make([]Value, len(vals))
		for i, j := range order {
			sorted[i] = vals[j]
		}
		t.Data[c] = sorted
	}
}

// Equal compares contents, ignoring column and row order.
func (t *Table) Equal(other *Table) bool {
	if t.Len() != other.Len() || len(t.Columns) != len(other.Columns) {
		return false
	}
	for _, c := range t.Columns {
		if !other.HasColumn(c) {
			return false
		}
	}
	a, b := t.Clone(), other.Clone()
	a.SortByIndex()
	b.SortByIndex()
	for i := range a.Index {
		if a.Index[i] != b.Index[i] {
			return false
		}
		for _, c := range a.Columns {
			if a.Data[c][i] != b.Data[c][i] {
				return false
			}
		}
	}
	return true
}

// Value returns the cell at (key, column), and false if either is absent.
func (t *Table) Value(key Date, column string) (Value, bool) {
	vals, ok := t.Data[column]
	if !ok {
		return Null, false
	}
	for i, k := range t.Index {
		if k == key {
			return vals[i], true
		}
	}
	return Null, false
}

// sortDates sorts keys ascending in place.
func sortDates(keys []Date) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
}
