/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the factor.Table layout from the external API contract.

FACTOR TABLE JSON:
  {
    "index":        ["2020-01-01", "2020-01-02"],
    "column_order": ["AAPL", "MSFT"],
    "columns": {
      "AAPL": [1.25, null],
      "MSFT": ["0.1", 0.2]
    }
  }

  Request values decode as decimal.NullDecimal: JSON null is a null cell and
  numbers may be sent bare or quoted. column_order is optional on requests;
  without it columns are taken in name order.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/yearone/factor-pool/factor"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// FactorTableRequest is the body of a save or plan request.
type FactorTableRequest struct {
	Index       []string                         `json:"index"`
	ColumnOrder []string                         `json:"column_order,omitempty"`
	Columns     map[string][]decimal.NullDecimal `json:"columns"`
}

// FactorTableDTO represents a factor table in API responses.
type FactorTableDTO struct {
	Table       string                    `json:"table"`
	Index       []string                  `json:"index"`
	ColumnOrder []string                  `json:"column_order"`
	Columns     map[string][]factor.Value `json:"columns"`
}

// SaveResponse acknowledges a save. Submitted counts the rows in the request;
// an APPEND writes only those at new keys (see the plan endpoint).
type SaveResponse struct {
	Table     string `json:"table"`
	Mode      string `json:"mode"`
	Submitted int    `json:"submitted"`
}

// PlanDTO describes the outcome of a dry run.
type PlanDTO struct {
	Table      string   `json:"table"`
	Mode       string   `json:"mode"`
	Action     string   `json:"action"`
	Common     []string `json:"common"`
	Added      []string `json:"added"`
	Dropped    []string `json:"dropped"`
	Inserted   int      `json:"inserted"`
	Collisions int      `json:"collisions"`
}

// ColumnsDTO lists the persisted columns of a factor table.
type ColumnsDTO struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
}

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// toTable converts a request body to a factor.Table.
func (r FactorTableRequest) toTable() (*factor.Table, error) {
	order := r.ColumnOrder
	if len(order) == 0 {
		order = make([]string, 0, len(r.Columns))
		for c := range r.Columns {
			order = append(order, c)
		}
		sort.Strings(order)
	} else if len(order) != len(r.Columns) {
		return nil, fmt.Errorf("%w: column_order lists %d columns, body has %d", factor.ErrInvalidTable, len(order), len(r.Columns))
	}

	t := factor.NewTable()
	t.Index = make([]factor.Date, len(r.Index))
	for i, s := range r.Index {
		d, err := factor.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", factor.ErrInvalidTable, err)
		}
		t.Index[i] = d
	}

	for _, c := range order {
		raw, ok := r.Columns[c]
		if !ok {
			return nil, fmt.Errorf("%w: column_order names missing column %q", factor.ErrInvalidTable, c)
		}
		vals := make([]factor.Value, len(raw))
		for i, d := range raw {
			if d.Valid {
				f, _ := d.Decimal.Float64()
				if math.IsInf(f, 0) {
					return nil, fmt.Errorf("%w: column %q value %s at %s is out of float64 range", factor.ErrInvalidTable, c, d.Decimal, r.Index[i])
				}
				vals[i] = factor.Float(f)
			}
		}
		t.Columns = append(t.Columns, c)
		t.Data[c] = vals
	}
	return t, t.Validate()
}

func toFactorTableDTO(name string, t *factor.Table) FactorTableDTO {
	dto := FactorTableDTO{
		Table:       name,
		Index:       make([]string, len(t.Index)),
		ColumnOrder: append([]string{}, t.Columns...),
		Columns:     make(map[string][]factor.Value, len(t.Columns)),
	}
	for i, k := range t.Index {
		dto.Index[i] = k.String()
	}
	for _, c := range t.Columns {
		dto.Columns[c] = t.Data[c]
	}
	return dto
}

func toPlanDTO(p *factor.Plan) PlanDTO {
	return PlanDTO{
		Table:      p.Table,
		Mode:       string(p.Mode),
		Action:     string(p.Action),
		Common:     nonNil(p.Common),
		Added:      nonNil(p.Added),
		Dropped:    nonNil(p.Dropped),
		Inserted:   p.Inserted,
		Collisions: p.Collisions,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
