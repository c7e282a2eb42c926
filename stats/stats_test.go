package stats

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yearone/factor-pool/factor"
)

func TestDescribe(t *testing.T) {
	tbl := factor.NewTable("AAPL", "MSFT", "GOOG")
	rows := []struct {
		key  string
		vals []factor.Value
	}{
		{"2020-01-03", []factor.Value{factor.Float(4), factor.Null, factor.Null}},
		{"2020-01-01", []factor.Value{factor.Float(2), factor.Float(7), factor.Null}},
		{"2020-01-02", []factor.Value{factor.Null, factor.Float(math.NaN()), factor.Null}},
		{"2020-01-04", []factor.Value{factor.Float(6), factor.Null, factor.Null}},
		{"2020-01-05", []factor.Value{factor.Float(math.Inf(1)), factor.Null, factor.Float(math.Inf(-1))}},
	}
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow(factor.MustParseDate(r.key), r.vals...))
	}

	got := Describe(tbl)
	require.Len(t, got, 3)

	aapl := got[0]
	assert.Equal(t, "AAPL", aapl.Column)
	assert.Equal(t, 3, aapl.Count)
	assert.Equal(t, 2, aapl.Nulls, "+Inf counts as null")
	assert.InDelta(t, 4.0, aapl.Mean, 1e-12)
	assert.InDelta(t, 2.0, aapl.StdDev, 1e-12)
	assert.Equal(t, 2.0, aapl.Min)
	assert.Equal(t, 6.0, aapl.Max)
	assert.Equal(t, "2020-01-01", aapl.First)
	assert.Equal(t, "2020-01-04", aapl.Last)

	msft := got[1]
	assert.Equal(t, 1, msft.Count)
	assert.Equal(t, 4, msft.Nulls, "NaN counts as null")
	assert.Equal(t, 7.0, msft.Mean)
	assert.Zero(t, msft.StdDev)

	goog := got[2]
	assert.Zero(t, goog.Count)
	assert.Equal(t, 5, goog.Nulls)
	assert.Empty(t, goog.First)
}

func TestDescribe_SummariesEncodeAsJSON(t *testing.T) {
	tbl := factor.NewTable("AAPL")
	require.NoError(t, tbl.AppendRow(factor.MustParseDate("2020-01-01"), factor.Float(math.Inf(1))))
	require.NoError(t, tbl.AppendRow(factor.MustParseDate("2020-01-02"), factor.Float(1)))

	_, err := json.Marshal(Describe(tbl))
	assert.NoError(t, err)
}

func TestDescribe_EmptyTable(t *testing.T) {
	assert.Empty(t, Describe(factor.NewTable()))
}
