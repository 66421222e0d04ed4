package recommend

import (
	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/ledger"
)

// StandardPeriods are the analysis windows offered to planners. Any period
// between 1 and the number of date columns is accepted by Compute.
var StandardPeriods = []int{7, 14, 30}

const DefaultPeriod = 14

// Compute turns a sales history and weight table into a ledger of recommended
// order quantities:
//
//  1. keep the last period date columns
//  2. scale each kept quantity by the SKU's weight when the weight is below 1
//  3. average the kept quantities
//  4. round to two decimals
//
// SKUs without a weight entry are left uncorrected and listed in the ledger's
// MissingWeights.
func Compute(sales *domain.SalesMatrix, weights *domain.WeightTable, period int) (*ledger.Ledger, error) {
	if err := sales.Validate(); err != nil {
		return nil, err
	}
	if period < 1 {
		return nil, domain.NewValidationError("period", "period must be positive, got %d", period)
	}
	if period > len(sales.DateLabels) {
		return nil, domain.NewValidationError("period", "period %d exceeds the %d available date columns", period, len(sales.DateLabels))
	}

	start := len(sales.DateLabels) - period
	rows := make([]domain.Recommendation, len(sales.Rows))
	var missing []string
	seen := make(map[string]struct{})

	for i, row := range sales.Rows {
		weight, ok := weights.Lookup(row.SKU)
		if !ok {
			if _, dup := seen[row.SKU]; !dup {
				seen[row.SKU] = struct{}{}
				missing = append(missing, row.SKU)
			}
			weight = 1
		}

		window := CorrectedWindow(row.Quantities[start:], weight)
		rows[i] = domain.Recommendation{
			Position: i,
			SKU:      row.SKU,
			Name:     row.Name,
			Quantity: domain.Round2(mean(window)),
		}
	}

	return ledger.New(period, rows, missing), nil
}

// CorrectedWindow applies the weight correction to a window of quantities.
// Weights of 1 or more never inflate sales, so the window is returned as is.
func CorrectedWindow(window []float64, weight float64) []float64 {
	out := make([]float64, len(window))
	for j, q := range window {
		if weight < 1 {
			out[j] = q * weight
		} else {
			out[j] = q
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
