// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/yearone/factor-pool/factor"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps factor tables in process memory. Tables are deep-copied on
// every read and write so callers never share slices with the store.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*factor.Table
}

var _ factor.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*factor.Table)}
}

func (m *Memory) TableExists(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tables[name]
	return ok, nil
}

func (m *Memory) ListColumns(_ context.Context, name string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[name]
	if !ok {
		return nil, &factor.NoSuchTableError{Table: name}
	}
	return append([]string{factor.KeyColumn}, t.Columns...), nil
}

func (m *Memory) ReadAll(_ context.Context, name string) (*factor.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[name]
	if !ok {
		return nil, &factor.NoSuchTableError{Table: name}
	}
	out := t.Clone()
	out.SortByIndex()
	return out, nil
}

func (m *Memory) ReadIndex(_ context.Context, name string) ([]factor.Date, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[name]
	if !ok {
		return nil, &factor.NoSuchTableError{Table: name}
	}
	return append([]factor.Date(nil), t.Index...), nil
}

func (m *Memory) ReadFiltered(_ context.Context, name string, columns []string, from, to factor.Date) (*factor.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[name]
	if !ok {
		return nil, &factor.NoSuchTableError{Table: name}
	}
	for _, c := range columns {
		if !t.HasColumn(c) {
			return nil, &factor.UnknownColumnError{Table: name, Column: c}
		}
	}

	selected := t.Select(columns)
	var keys []factor.Date
	for _, k := range selected.Index {
		if from.BeforeOrEqual(k) && k.BeforeOrEqual(to) {
			keys = append(keys, k)
		}
	}
	out := filterRows(selected, keys)
	out.SortByIndex()
	return out, nil
}

func (m *Memory) AppendRows(_ context.Context, name string, rows *factor.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[name]
	if !ok {
		return &factor.NoSuchTableError{Table: name}
	}
	for _, c := range rows.Columns {
		if !t.HasColumn(c) {
			return factor.NewStoreError("append", name, fmt.Errorf("table has no column %q", c))
		}
	}

	t.Index = append(t.Index, rows.Index...)
	for _, c := range t.Columns {
		vals := rows.Column(c)
		if vals == nil {
			vals = make([]factor.Value, rows.Len())
		}
		t.Data[c] = append(t.Data[c], vals...)
	}
	return nil
}

func (m *Memory) ReplaceTable(_ context.Context, name string, t *factor.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = t.Clone()
	return nil
}

// filterRows keeps every row whose key is in keys, duplicates included.
func filterRows(t *factor.Table, keys []factor.Date) *factor.Table {
	want := make(map[factor.Date]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	out := factor.NewTable(t.Columns...)
	for i, k := range t.Index {
		if !want[k] {
			continue
		}
		out.Index = append(out.Index, k)
		for _, c := range t.Columns {
			out.Data[c] = append(out.Data[c], t.Data[c][i])
		}
	}
	return out
}
