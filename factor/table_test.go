package factor

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) Date { return MustParseDate(s) }

func TestDate_ParseAndFormat(t *testing.T) {
	got, err := ParseDate("2020-02-29")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2020, time.February, 29), got)
	assert.Equal(t, "2020-02-29", got.String())

	_, err = ParseDate("2020-02-30")
	assert.Error(t, err)
	_, err = ParseDate("20200101")
	assert.Error(t, err)
}

func TestDate_Ordering(t *testing.T) {
	a, b := d("2019-12-31"), d("2020-01-01")
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.BeforeOrEqual(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
}

func TestDate_DateOfDropsTimeOfDay(t *testing.T) {
	ts := time.Date(2021, time.March, 5, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, d("2021-03-05"), DateOf(ts))
}

func TestDate_TextRoundTrip(t *testing.T) {
	b, err := json.Marshal(struct{ D Date }{d("2020-01-02")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"D":"2020-01-02"}`, string(b))

	var out struct{ D Date }
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, d("2020-01-02"), out.D)
}

func TestValue_Scan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want Value
	}{
		{"nil", nil, Null},
		{"float64", 1.5, Float(1.5)},
		{"int64", int64(3), Float(3)},
		{"bytes", []byte("2.25"), Float(2.25)},
		{"string", "-4", Float(-4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			require.NoError(t, v.Scan(tt.src))
			assert.Equal(t, tt.want, v)
		})
	}

	var v Value
	assert.Error(t, v.Scan("abc"))
	assert.Error(t, v.Scan(true))
}

func TestValue_NaNIsStoredAsNull(t *testing.T) {
	dv, err := Float(math.NaN()).Value()
	require.NoError(t, err)
	assert.Nil(t, dv)

	dv, err = Null.Value()
	require.NoError(t, err)
	assert.Nil(t, dv)

	dv, err = Float(2).Value()
	require.NoError(t, err)
	assert.Equal(t, 2.0, dv)
}

func TestValue_InfinityIsStoredAsNull(t *testing.T) {
	for _, f := range []float64{math.Inf(1), math.Inf(-1)} {
		v := Float(f)
		assert.False(t, v.IsFinite())

		dv, err := v.Value()
		require.NoError(t, err)
		assert.Nil(t, dv)
	}
	assert.True(t, Float(0).IsFinite())
	assert.False(t, Null.IsFinite())
}

func TestToday_IsUTCCalendarDay(t *testing.T) {
	before := DateOf(time.Now().UTC())
	got := Today()
	after := DateOf(time.Now().UTC())
	assert.True(t, got == before || got == after, "Today() = %s, UTC day %s", got, before)
}

func TestValue_JSON(t *testing.T) {
	b, err := json.Marshal([]Value{Float(1.5), Null, Float(math.Inf(1))})
	require.NoError(t, err)
	assert.Equal(t, `[1.5,null,null]`, string(b))

	var vals []Value
	require.NoError(t, json.Unmarshal([]byte(`[null, 2]`), &vals))
	assert.Equal(t, []Value{Null, Float(2)}, vals)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("APPEND")
	require.NoError(t, err)
	assert.Equal(t, ModeAppend, m)

	m, err = ParseMode("REPLACE")
	require.NoError(t, err)
	assert.Equal(t, ModeReplace, m)

	_, err = ParseMode("append")
	assert.ErrorIs(t, err, ErrInvalidMode)
	_, err = ParseMode("")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func sample(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable("AAPL", "MSFT")
	require.NoError(t, tbl.AppendRow(d("2020-01-03"), Float(3), Null))
	require.NoError(t, tbl.AppendRow(d("2020-01-01"), Float(1), Float(10)))
	require.NoError(t, tbl.AppendRow(d("2020-01-02"), Float(2), Float(20)))
	return tbl
}

func TestTable_AppendRowChecksWidth(t *testing.T) {
	tbl := NewTable("AAPL", "MSFT")
	err := tbl.AppendRow(d("2020-01-01"), Float(1))
	assert.ErrorIs(t, err, ErrInvalidTable)
	assert.Equal(t, 0, tbl.Len())
}

func TestTable_Validate(t *testing.T) {
	assert.NoError(t, sample(t).Validate())
	assert.NoError(t, NewTable().Validate())

	dup := NewTable("AAPL")
	dup.Columns = append(dup.Columns, "AAPL")
	assert.ErrorIs(t, dup.Validate(), ErrInvalidTable)

	orphan := NewTable("AAPL")
	orphan.Data["GHOST"] = nil
	assert.ErrorIs(t, orphan.Validate(), ErrInvalidTable)

	empty := NewTable("")
	assert.ErrorIs(t, empty.Validate(), ErrInvalidTable)
}

func TestTable_IsNonDecreasingChecksEndsOnly(t *testing.T) {
	assert.False(t, sample(t).IsNonDecreasing())

	// Unsorted middle is accepted
	tbl := NewTable("A")
	require.NoError(t, tbl.AppendRow(d("2020-01-01"), Float(1)))
	require.NoError(t, tbl.AppendRow(d("2020-03-01"), Float(3)))
	require.NoError(t, tbl.AppendRow(d("2020-02-01"), Float(2)))
	require.NoError(t, tbl.AppendRow(d("2020-01-01"), Float(4)))
	assert.True(t, tbl.IsNonDecreasing())

	assert.True(t, NewTable("A").IsNonDecreasing())
}

func TestTable_CloneIsDeep(t *testing.T) {
	orig := sample(t)
	c := orig.Clone()
	c.Data["AAPL"][0] = Float(99)
	c.Index[0] = d("1999-01-01")
	c.AddNullColumn("GOOG")

	assert.Equal(t, Float(3), orig.Data["AAPL"][0])
	assert.Equal(t, d("2020-01-03"), orig.Index[0])
	assert.False(t, orig.HasColumn("GOOG"))
}

func TestTable_SelectSkipsUnknownAndRepeats(t *testing.T) {
	got := sample(t).Select([]string{"MSFT", "NOPE", "MSFT"})
	assert.Equal(t, []string{"MSFT"}, got.Columns)
	assert.Len(t, got.Index, 3)
	assert.NoError(t, got.Validate())
}

func TestTable_AddNullColumn(t *testing.T) {
	tbl := sample(t)
	tbl.AddNullColumn("GOOG")
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, tbl.Columns)
	assert.Equal(t, []Value{Null, Null, Null}, tbl.Column("GOOG"))

	tbl.Data["GOOG"][0] = Float(5)
	tbl.AddNullColumn("GOOG")
	assert.Equal(t, Float(5), tbl.Column("GOOG")[0], "existing column untouched")
}

func TestTable_RowsFollowsKeyOrder(t *testing.T) {
	got := sample(t).Rows([]Date{d("2020-01-01"), d("2020-01-03"), d("2021-01-01")})
	assert.Equal(t, []Date{d("2020-01-01"), d("2020-01-03")}, got.Index)
	assert.Equal(t, []Value{Float(1), Float(3)}, got.Column("AAPL"))
	assert.Equal(t, []Value{Float(10), Null}, got.Column("MSFT"))
}

func TestTable_SortByIndexIsStable(t *testing.T) {
	tbl := NewTable("A")
	require.NoError(t, tbl.AppendRow(d("2020-01-02"), Float(1)))
	require.NoError(t, tbl.AppendRow(d("2020-01-01"), Float(2)))
	require.NoError(t, tbl.AppendRow(d("2020-01-02"), Float(3)))
	tbl.SortByIndex()

	assert.Equal(t, []Date{d("2020-01-01"), d("2020-01-02"), d("2020-01-02")}, tbl.Index)
	assert.Equal(t, []Value{Float(2), Float(1), Float(3)}, tbl.Column("A"))
}

func TestTable_EqualIgnoresOrder(t *testing.T) {
	a := sample(t)
	b := NewTable("MSFT", "AAPL")
	require.NoError(t, b.AppendRow(d("2020-01-01"), Float(10), Float(1)))
	require.NoError(t, b.AppendRow(d("2020-01-02"), Float(20), Float(2)))
	require.NoError(t, b.AppendRow(d("2020-01-03"), Null, Float(3)))
	assert.True(t, a.Equal(b))

	b.Data["MSFT"][0] = Float(11)
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(NewTable("AAPL", "MSFT")))
}

func TestTable_Value(t *testing.T) {
	tbl := sample(t)
	v, ok := tbl.Value(d("2020-01-02"), "MSFT")
	assert.True(t, ok)
	assert.Equal(t, Float(20), v)

	_, ok = tbl.Value(d("2020-01-09"), "MSFT")
	assert.False(t, ok)
	_, ok = tbl.Value(d("2020-01-02"), "GOOG")
	assert.False(t, ok)
}
