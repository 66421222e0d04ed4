package schedule

import (
	"fmt"
	"time"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/ledger"
)

// HorizonDays is the length of an exported order schedule.
const HorizonDays = 14

// ProjectionRow repeats one ledger quantity across the horizon.
type ProjectionRow struct {
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	Quantities []float64 `json:"quantities"`
}

// Projection is a dated order plan derived from a ledger. It is never stored.
type Projection struct {
	Start time.Time       `json:"-"`
	Dates []string        `json:"dates"`
	Rows  []ProjectionRow `json:"rows"`
}

// Project expands every ledger row into HorizonDays consecutive days starting
// at start. Each day carries the row's current quantity unchanged.
func Project(l *ledger.Ledger, start time.Time) *Projection {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	dates := make([]string, HorizonDays)
	for i := range dates {
		dates[i] = domain.FormatDate(start.AddDate(0, 0, i))
	}

	rows := l.Rows()
	out := make([]ProjectionRow, len(rows))
	for i, r := range rows {
		qty := make([]float64, HorizonDays)
		for d := range qty {
			qty[d] = r.Quantity
		}
		out[i] = ProjectionRow{SKU: r.SKU, Name: r.Name, Quantities: qty}
	}

	return &Projection{Start: start, Dates: dates, Rows: out}
}

// ProjectLiteral parses a DD.MM.YYYY start date and projects the ledger.
func ProjectLiteral(l *ledger.Ledger, startDate string) (*Projection, error) {
	start, err := domain.ParseDate(startDate)
	if err != nil {
		return nil, err
	}
	return Project(l, start), nil
}

// FileName is the export file name for a schedule starting at start.
func FileName(start time.Time) string {
	return fmt.Sprintf("order_%d_days_%s.xlsx", HorizonDays, domain.FormatDate(start))
}
