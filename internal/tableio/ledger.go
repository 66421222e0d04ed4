package tableio

import (
	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/ledger"
	"github.com/andresuchdata/autoorder/internal/schedule"
)

// Output column headers shared by the snapshot and export files.
const (
	ColumnSKU         = "SKU"
	ColumnName        = "Наименование"
	ColumnRecommended = "Рекоменд. заказ"
)

// LedgerTable mirrors the ledger as SKU, name, recommended quantity.
func LedgerTable(l *ledger.Ledger) *Table {
	rows := l.Rows()
	t := &Table{
		Header: []string{ColumnSKU, ColumnName, ColumnRecommended},
		Rows:   make([][]any, len(rows)),
	}
	for i, r := range rows {
		t.Rows[i] = []any{r.SKU, r.Name, r.Quantity}
	}
	return t
}

// ParseLedger reads a table written by LedgerTable back into rows.
func ParseLedger(t *Table) ([]domain.Recommendation, error) {
	if t == nil || len(t.Header) < 3 {
		return nil, domain.NewValidationError("ledger", "snapshot must contain SKU, name and quantity columns")
	}
	rows := make([]domain.Recommendation, 0, len(t.Rows))
	for r := range t.Rows {
		qty, _, err := parseNumber(t.Cell(r, 2))
		if err != nil {
			return nil, domain.NewValidationError(t.Header[2], "row %d: %v", r+2, err)
		}
		rows = append(rows, domain.Recommendation{
			Position: r,
			SKU:      t.Cell(r, 0),
			Name:     t.Cell(r, 1),
			Quantity: domain.Round2(qty),
		})
	}
	return rows, nil
}

// ProjectionTable lays the schedule out as SKU, name and one column per day.
func ProjectionTable(p *schedule.Projection) *Table {
	header := make([]string, 0, 2+len(p.Dates))
	header = append(header, ColumnSKU, ColumnName)
	header = append(header, p.Dates...)

	t := &Table{Header: header, Rows: make([][]any, len(p.Rows))}
	for i, r := range p.Rows {
		row := make([]any, 0, len(header))
		row = append(row, r.SKU, r.Name)
		for _, q := range r.Quantities {
			row = append(row, q)
		}
		t.Rows[i] = row
	}
	return t
}
