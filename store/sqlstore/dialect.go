package sqlstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/yearone/factor-pool/factor"
)

// Dialect captures what differs between SQL backends for factor tables.
type Dialect interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Quote quotes an identifier. Security identifiers routinely contain
	// dots and start with digits, so every identifier is quoted.
	Quote(ident string) string

	// KeyType and ValueType are the DDL types of the key and factor columns.
	KeyType() string
	ValueType() string

	// TableExistsQuery takes the table name and returns a count.
	TableExistsQuery() string

	// ListColumnsQuery takes the table name and returns one column name per
	// row in storage order. No rows means no table.
	ListColumnsQuery() string

	// EncodeDate converts a key to a driver argument.
	EncodeDate(d factor.Date) any

	// IsNoSuchTable classifies a driver error as a missing table.
	IsNoSuchTable(err error) bool
}

// QuoteWith doubles every occurrence of q inside ident and wraps it in q.
func QuoteWith(q, ident string) string {
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// DecodeDate converts a scanned key column to a Date. Drivers return DATE
// columns as time.Time and TEXT columns as string or []byte.
func DecodeDate(src any) (factor.Date, error) {
	switch v := src.(type) {
	case time.Time:
		return factor.DateOf(v), nil
	case string:
		return parseDateText(v)
	case []byte:
		return parseDateText(string(v))
	case nil:
		return factor.Date{}, fmt.Errorf("null %s", factor.KeyColumn)
	default:
		return factor.Date{}, fmt.Errorf("cannot decode %T as %s", src, factor.KeyColumn)
	}
}

// parseDateText accepts YYYY-MM-DD optionally followed by a time part.
func parseDateText(s string) (factor.Date, error) {
	if len(s) > len(factor.DateLayout) {
		s = s[:len(factor.DateLayout)]
	}
	return factor.ParseDate(s)
}
