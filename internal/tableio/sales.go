package tableio

import (
	"github.com/andresuchdata/autoorder/internal/domain"
)

// ParseSales reads a sales table: the first column is the SKU, the second the
// product name and every further column one day of sales, oldest first.
// Header text of the first two columns is not interpreted. Blank quantity
// cells count as 0; any other non-numeric cell rejects the table.
func ParseSales(t *Table) (*domain.SalesMatrix, error) {
	if t == nil || len(t.Header) < 3 {
		n := 0
		if t != nil {
			n = len(t.Header)
		}
		return nil, domain.NewValidationError("sales", "file must contain at least 3 columns: SKU, name and sales dates (got %d)", n)
	}
	if len(t.Rows) == 0 {
		return nil, domain.NewValidationError("sales", "file is empty")
	}

	m := &domain.SalesMatrix{
		IDColumn:   t.Header[0],
		NameColumn: t.Header[1],
		DateLabels: append([]string(nil), t.Header[2:]...),
		Rows:       make([]domain.SalesRow, 0, len(t.Rows)),
	}

	for r := range t.Rows {
		sku := t.Cell(r, 0)
		if sku == "" {
			return nil, domain.NewValidationError(m.IDColumn, "row %d has no SKU", r+2)
		}
		row := domain.SalesRow{
			SKU:        sku,
			Name:       t.Cell(r, 1),
			Quantities: make([]float64, len(m.DateLabels)),
		}
		for c := range m.DateLabels {
			qty, _, err := parseNumber(t.Cell(r, c+2))
			if err != nil {
				return nil, domain.NewValidationError(m.DateLabels[c], "row %d: %v", r+2, err)
			}
			row.Quantities[c] = qty
		}
		m.Rows = append(m.Rows, row)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
