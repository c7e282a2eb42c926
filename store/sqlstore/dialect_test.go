package sqlstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yearone/factor-pool/factor"
)

func TestQuoteWith(t *testing.T) {
	assert.Equal(t, `"000001.XSHE"`, QuoteWith(`"`, "000001.XSHE"))
	assert.Equal(t, `"a""b"`, QuoteWith(`"`, `a"b`))
	assert.Equal(t, "`a``b`", QuoteWith("`", "a`b"))
}

func TestDecodeDate(t *testing.T) {
	want := factor.MustParseDate("2020-01-02")

	tests := []struct {
		name string
		src  any
	}{
		{"time", time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)},
		{"text", "2020-01-02"},
		{"text with time", "2020-01-02 00:00:00"},
		{"bytes", []byte("2020-01-02T00:00:00Z")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDate(tt.src)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := DecodeDate(nil)
	assert.Error(t, err)
	_, err = DecodeDate(int64(20200102))
	assert.Error(t, err)
	_, err = DecodeDate("not a date")
	assert.Error(t, err)
}
