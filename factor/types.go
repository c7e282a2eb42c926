/*
Package factor provides the factor pool reconciliation engine.

PURPOSE:
  A factor is a date-indexed table of floating point metrics with one column
  per security identifier (e.g. a daily momentum score for every stock in a
  universe). This package persists factors through a Store and reconciles an
  in-memory update with whatever is already persisted:
  - rows whose date already exists are dropped, never overwritten
  - new security columns are added to the persisted table as nulls
  - a full replace rewrites the table with exactly the update

KEY CONCEPTS IN THIS FILE (types.go):
  - Date:  A calendar day, used as the row key
  - Value: A nullable float64 cell
  - Mode:  APPEND or REPLACE

DESIGN PRINCIPLES:
  1. Whole-table primitives only: the Store offers read/append/replace, no ALTER
  2. Caller data is never mutated: the engine works on a clone
  3. Deterministic output: rows are written in ascending key order

SEE ALSO:
  - table.go:  Table, the in-memory tabular structure
  - store.go:  Store, the storage adapter contract
  - engine.go: Save/Get reconciliation
*/
package factor

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// KeyColumn is the persisted name of the date key. "index" is an SQL keyword,
// so the key is materialized under this name instead.
const KeyColumn = "index_col"

// DateLayout is the text form of a Date.
const DateLayout = "2006-01-02"

// =============================================================================
// DATE - Calendar day row key
// =============================================================================

// Date is a calendar day. It is comparable and safe to use as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current UTC calendar day.
func Today() Date { return DateOf(time.Now().UTC()) }

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals; it panics on malformed input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) Time() time.Time { return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC) }
func (d Date) String() string  { return d.Time().Format(DateLayout) }
func (d Date) IsZero() bool    { return d == Date{} }

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

func (d Date) Before(other Date) bool        { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool         { return d.Compare(other) > 0 }
func (d Date) BeforeOrEqual(other Date) bool { return d.Compare(other) <= 0 }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// =============================================================================
// VALUE - Nullable float cell
// =============================================================================

// Value is a nullable float64. The zero Value is null.
type Value struct {
	Float64 float64
	Valid   bool
}

// Null is the null Value.
var Null = Value{}

// Float returns a non-null Value.
func Float(f float64) Value { return Value{Float64: f, Valid: true} }

func (v Value) String() string {
	if !v.Valid {
		return "null"
	}
	return strconv.FormatFloat(v.Float64, 'g', -1, 64)
}

// Scan implements sql.Scanner. Drivers hand back float64, int64, text or NULL.
func (v *Value) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		*v = Null
	case float64:
		*v = Float(s)
	case float32:
		*v = Float(float64(s))
	case int64:
		*v = Float(float64(s))
	case []byte:
		return v.scanString(string(s))
	case string:
		return v.scanString(s)
	default:
		return fmt.Errorf("cannot scan %T into factor.Value", src)
	}
	return nil
}

func (v *Value) scanString(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("cannot scan %q into factor.Value: %w", s, err)
	}
	*v = Float(f)
	return nil
}

// Value implements driver.Valuer. NaN and ±Inf are stored as NULL.
func (v Value) Value() (driver.Value, error) {
	if !v.IsFinite() {
		return nil, nil
	}
	return v.Float64, nil
}

// IsFinite reports whether v holds a number other than NaN or ±Inf.
func (v Value) IsFinite() bool {
	return v.Valid && !math.IsNaN(v.Float64) && !math.IsInf(v.Float64, 0)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsFinite() {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float64)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Null
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Float(f)
	return nil
}

// =============================================================================
// MODE - Save behavior
// =============================================================================

type Mode string

const (
	ModeAppend  Mode = "APPEND"
	ModeReplace Mode = "REPLACE"
)

func (m Mode) Valid() bool { return m == ModeAppend || m == ModeReplace }

// ParseMode accepts the mode names case-sensitively, like the stored tables do.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q (expected APPEND or REPLACE)", ErrInvalidMode, s)
	}
	return m, nil
}
