package domain

import (
	"math"
	"strings"
)

// WeightEntry is a single row of the weight table.
type WeightEntry struct {
	SKU    string  `json:"sku"`
	Weight float64 `json:"weight"`
}

// WeightTable maps SKU to a correction factor. Build it with NewWeightTable;
// it is not modified afterwards.
type WeightTable struct {
	weights map[string]float64
}

// NewWeightTable validates entries (unique SKU, finite non-negative weight)
// and builds the lookup.
func NewWeightTable(entries []WeightEntry) (*WeightTable, error) {
	weights := make(map[string]float64, len(entries))
	for i, e := range entries {
		sku := strings.TrimSpace(e.SKU)
		if sku == "" {
			return nil, NewValidationError("sku", "empty sku at weight row %d", i+1)
		}
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) || e.Weight < 0 {
			return nil, NewValidationError("weight", "weight %v for sku %q must be a non-negative number", e.Weight, sku)
		}
		if _, dup := weights[sku]; dup {
			return nil, NewValidationError("sku", "duplicate sku %q in weight table", sku)
		}
		weights[sku] = e.Weight
	}
	return &WeightTable{weights: weights}, nil
}

// Lookup returns the weight for sku and whether an entry exists.
func (t *WeightTable) Lookup(sku string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	w, ok := t.weights[strings.TrimSpace(sku)]
	return w, ok
}

func (t *WeightTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.weights)
}

// SalesRow is one product's history. Quantities align with the matrix's
// DateLabels.
type SalesRow struct {
	SKU        string
	Name       string
	Quantities []float64
}

// SalesMatrix is the parsed sales table: id column, name column and an
// ordered run of date columns, oldest first.
type SalesMatrix struct {
	IDColumn   string
	NameColumn string
	DateLabels []string
	Rows       []SalesRow
}

// ColumnCount is the number of columns of the source table.
func (m *SalesMatrix) ColumnCount() int {
	if m == nil {
		return 0
	}
	return 2 + len(m.DateLabels)
}

// Validate checks the table contract: at least id, name and one date column,
// at least one row, and every row covering every date column with a finite
// quantity.
func (m *SalesMatrix) Validate() error {
	if m == nil {
		return NewValidationError("sales", "sales table not loaded")
	}
	if m.ColumnCount() < 3 {
		return NewValidationError("sales", "table must have at least 3 columns (SKU, name, dates), got %d", m.ColumnCount())
	}
	if len(m.Rows) == 0 {
		return NewValidationError("sales", "table has no rows")
	}
	for i, r := range m.Rows {
		if len(r.Quantities) != len(m.DateLabels) {
			return NewValidationError("sales", "row %d has %d quantities, expected %d", i+1, len(r.Quantities), len(m.DateLabels))
		}
		for j, q := range r.Quantities {
			if math.IsNaN(q) || math.IsInf(q, 0) {
				return NewValidationError(m.DateLabels[j], "row %d has non-finite quantity %v", i+1, q)
			}
		}
	}
	return nil
}

// Recommendation is one ledger row.
type Recommendation struct {
	Position int     `json:"position"`
	Key      string  `json:"key"`
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// Level classifies the current quantity.
func (r Recommendation) Level() Level {
	return Classify(r.Quantity)
}
