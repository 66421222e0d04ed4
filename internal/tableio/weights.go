package tableio

import (
	"github.com/andresuchdata/autoorder/internal/domain"
)

// Canonical weight table headers.
const (
	WeightSKUColumn    = "SKU"
	WeightWeightColumn = "Вес"
)

var (
	weightSKUAliases    = []string{WeightSKUColumn, "артикул", "product_id", "product id", "id"}
	weightWeightAliases = []string{WeightWeightColumn, "weight", "коэффициент", "factor"}
)

// ParseWeights reads the weight table. Columns are located by header name;
// when neither header is recognized the first two columns are taken as SKU
// and weight. Rows with a blank weight carry no entry.
func ParseWeights(t *Table) (*domain.WeightTable, error) {
	if t == nil || len(t.Header) < 2 {
		return nil, domain.NewValidationError("weights", "weight table must contain '%s' and '%s' columns", WeightSKUColumn, WeightWeightColumn)
	}

	idxSKU := t.ColumnIndex(weightSKUAliases...)
	idxWeight := t.ColumnIndex(weightWeightAliases...)
	switch {
	case idxSKU == -1 && idxWeight == -1:
		idxSKU, idxWeight = 0, 1
	case idxSKU == -1 || idxWeight == -1:
		return nil, domain.NewValidationError("weights", "weight table must contain '%s' and '%s' columns", WeightSKUColumn, WeightWeightColumn)
	}

	if len(t.Rows) == 0 {
		return nil, domain.NewValidationError("weights", "weight table is empty")
	}

	entries := make([]domain.WeightEntry, 0, len(t.Rows))
	for r := range t.Rows {
		sku := t.Cell(r, idxSKU)
		weight, blank, err := parseNumber(t.Cell(r, idxWeight))
		if err != nil {
			return nil, domain.NewValidationError(t.Header[idxWeight], "row %d: %v", r+2, err)
		}
		if blank {
			continue
		}
		if sku == "" {
			return nil, domain.NewValidationError(t.Header[idxSKU], "row %d has a weight but no SKU", r+2)
		}
		entries = append(entries, domain.WeightEntry{SKU: sku, Weight: weight})
	}

	return domain.NewWeightTable(entries)
}
