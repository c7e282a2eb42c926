// Package storetest holds the behavior every factor.Store must share, as a
// reusable test suite.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yearone/factor-pool/factor"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) factor.Store

// D is shorthand for factor.MustParseDate.
func D(s string) factor.Date { return factor.MustParseDate(s) }

// F is shorthand for factor.Float.
func F(f float64) factor.Value { return factor.Float(f) }

// Build makes a table from keys and column/value pairs given in order.
func Build(t *testing.T, keys []string, columns []string, rows ...[]factor.Value) *factor.Table {
	t.Helper()
	tbl := factor.NewTable(columns...)
	require.Len(t, rows, len(keys), "one row per key")
	for i, k := range keys {
		require.NoError(t, tbl.AppendRow(D(k), rows[i]...))
	}
	return tbl
}

// Run exercises the factor.Store contract.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("missing table", func(t *testing.T) {
		s := newStore(t)

		exists, err := s.TableExists(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = s.ListColumns(ctx, "nope")
		assert.ErrorIs(t, err, factor.ErrNoSuchTable)
		_, err = s.ReadAll(ctx, "nope")
		assert.ErrorIs(t, err, factor.ErrNoSuchTable)
		_, err = s.ReadIndex(ctx, "nope")
		assert.ErrorIs(t, err, factor.ErrNoSuchTable)
		_, err = s.ReadFiltered(ctx, "nope", nil, D("2020-01-01"), D("2020-12-31"))
		assert.ErrorIs(t, err, factor.ErrNoSuchTable)

		rows := Build(t, []string{"2020-01-01"}, []string{"AAPL"}, []factor.Value{F(1)})
		err = s.AppendRows(ctx, "nope", rows)
		assert.ErrorIs(t, err, factor.ErrNoSuchTable)
	})

	t.Run("replace then read", func(t *testing.T) {
		s := newStore(t)
		tbl := Build(t,
			[]string{"2020-01-02", "2020-01-01"},
			[]string{"000001.XSHE", "MSFT"},
			[]factor.Value{F(2.5), factor.Null},
			[]factor.Value{F(1.5), F(-3)},
		)
		require.NoError(t, s.ReplaceTable(ctx, "momentum", tbl))

		exists, err := s.TableExists(ctx, "momentum")
		require.NoError(t, err)
		assert.True(t, exists)

		cols, err := s.ListColumns(ctx, "momentum")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{factor.KeyColumn, "000001.XSHE", "MSFT"}, cols)

		got, err := s.ReadAll(ctx, "momentum")
		require.NoError(t, err)
		assert.True(t, tbl.Equal(got), "read back %+v", got)
		assert.Equal(t, []factor.Date{D("2020-01-01"), D("2020-01-02")}, got.Index, "ascending by key")

		keys, err := s.ReadIndex(ctx, "momentum")
		require.NoError(t, err)
		assert.ElementsMatch(t, []factor.Date{D("2020-01-01"), D("2020-01-02")}, keys)
	})

	t.Run("replace drops previous schema", func(t *testing.T) {
		s := newStore(t)
		first := Build(t, []string{"2020-01-01"}, []string{"AAPL", "MSFT"}, []factor.Value{F(1), F(2)})
		second := Build(t, []string{"2021-01-01"}, []string{"GOOG"}, []factor.Value{F(3)})
		require.NoError(t, s.ReplaceTable(ctx, "t", first))
		require.NoError(t, s.ReplaceTable(ctx, "t", second))

		got, err := s.ReadAll(ctx, "t")
		require.NoError(t, err)
		assert.True(t, second.Equal(got))
	})

	t.Run("replace with empty table", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.ReplaceTable(ctx, "empty", factor.NewTable("AAPL")))

		got, err := s.ReadAll(ctx, "empty")
		require.NoError(t, err)
		assert.Equal(t, 0, got.Len())
		assert.Equal(t, []string{"AAPL"}, got.Columns)
	})

	t.Run("append does not dedup", func(t *testing.T) {
		s := newStore(t)
		tbl := Build(t, []string{"2020-01-01"}, []string{"AAPL"}, []factor.Value{F(1)})
		require.NoError(t, s.ReplaceTable(ctx, "t", tbl))
		require.NoError(t, s.AppendRows(ctx, "t", tbl))

		keys, err := s.ReadIndex(ctx, "t")
		require.NoError(t, err)
		assert.Len(t, keys, 2)
	})

	t.Run("append subset of columns fills nulls", func(t *testing.T) {
		s := newStore(t)
		base := Build(t, []string{"2020-01-01"}, []string{"AAPL", "MSFT"}, []factor.Value{F(1), F(2)})
		require.NoError(t, s.ReplaceTable(ctx, "t", base))

		rows := Build(t, []string{"2020-01-02"}, []string{"MSFT"}, []factor.Value{F(5)})
		require.NoError(t, s.AppendRows(ctx, "t", rows))

		got, err := s.ReadAll(ctx, "t")
		require.NoError(t, err)
		v, ok := got.Value(D("2020-01-02"), "AAPL")
		require.True(t, ok)
		assert.False(t, v.Valid)
		v, _ = got.Value(D("2020-01-02"), "MSFT")
		assert.Equal(t, F(5), v)
	})

	t.Run("append unknown column fails", func(t *testing.T) {
		s := newStore(t)
		base := Build(t, []string{"2020-01-01"}, []string{"AAPL"}, []factor.Value{F(1)})
		require.NoError(t, s.ReplaceTable(ctx, "t", base))

		rows := Build(t, []string{"2020-01-02"}, []string{"GOOG"}, []factor.Value{F(5)})
		err := s.AppendRows(ctx, "t", rows)
		assert.ErrorIs(t, err, factor.ErrStore)
	})

	t.Run("filtered read", func(t *testing.T) {
		s := newStore(t)
		tbl := Build(t,
			[]string{"2020-01-01", "2020-01-02", "2020-01-03", "2020-01-04"},
			[]string{"AAPL", "MSFT"},
			[]factor.Value{F(1), F(10)},
			[]factor.Value{F(2), F(20)},
			[]factor.Value{F(3), F(30)},
			[]factor.Value{F(4), F(40)},
		)
		require.NoError(t, s.ReplaceTable(ctx, "t", tbl))

		got, err := s.ReadFiltered(ctx, "t", []string{"MSFT"}, D("2020-01-02"), D("2020-01-03"))
		require.NoError(t, err)
		assert.Equal(t, []string{"MSFT"}, got.Columns)
		assert.Equal(t, []factor.Date{D("2020-01-02"), D("2020-01-03")}, got.Index, "inclusive bounds")
		assert.Equal(t, []factor.Value{F(20), F(30)}, got.Column("MSFT"))

		_, err = s.ReadFiltered(ctx, "t", []string{"AAPL", "NOPE"}, D("2020-01-01"), D("2020-01-04"))
		assert.ErrorIs(t, err, factor.ErrUnknownColumn)

		got, err = s.ReadFiltered(ctx, "t", nil, D("2020-01-01"), D("2020-01-01"))
		require.NoError(t, err)
		assert.Empty(t, got.Columns)
		assert.Equal(t, []factor.Date{D("2020-01-01")}, got.Index)
	})
}
