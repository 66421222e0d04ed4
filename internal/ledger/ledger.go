package ledger

import (
	"iter"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/google/uuid"
)

// Ledger holds the recommendations of one engine run. Rows keep the order of
// the sales table; only quantities change after creation.
type Ledger struct {
	id             string
	period         int
	computedAt     time.Time
	rows           []domain.Recommendation
	byKey          map[string]int
	bySKU          map[string][]int
	overrides      int
	missingWeights []string
}

// Snapshot is the serializable state of a ledger.
type Snapshot struct {
	ID             string                  `json:"id" db:"id"`
	Period         int                     `json:"period" db:"period"`
	ComputedAt     time.Time               `json:"computed_at" db:"computed_at"`
	Overrides      int                     `json:"overrides" db:"overrides"`
	MissingWeights []string                `json:"missing_weights"`
	Rows           []domain.Recommendation `json:"rows"`
}

// New builds a ledger from rows in order. Positions are reassigned to the
// slice index and rows without a key receive a generated one.
func New(period int, rows []domain.Recommendation, missingWeights []string) *Ledger {
	l := &Ledger{
		id:             uuid.NewString(),
		period:         period,
		computedAt:     time.Now().UTC(),
		rows:           make([]domain.Recommendation, len(rows)),
		missingWeights: slices.Clone(missingWeights),
	}
	copy(l.rows, rows)
	l.reindex()
	return l
}

// FromSnapshot restores a ledger previously captured with Snapshot.
func FromSnapshot(s Snapshot) *Ledger {
	l := New(s.Period, s.Rows, s.MissingWeights)
	if s.ID != "" {
		l.id = s.ID
	}
	if !s.ComputedAt.IsZero() {
		l.computedAt = s.ComputedAt
	}
	l.overrides = s.Overrides
	return l
}

func (l *Ledger) reindex() {
	l.byKey = make(map[string]int, len(l.rows))
	l.bySKU = make(map[string][]int, len(l.rows))
	for i := range l.rows {
		l.rows[i].Position = i
		if l.rows[i].Key == "" {
			l.rows[i].Key = uuid.NewString()
		}
		l.byKey[l.rows[i].Key] = i
		sku := strings.TrimSpace(l.rows[i].SKU)
		l.bySKU[sku] = append(l.bySKU[sku], i)
	}
}

func (l *Ledger) ID() string            { return l.id }
func (l *Ledger) Period() int           { return l.period }
func (l *Ledger) ComputedAt() time.Time { return l.computedAt }
func (l *Ledger) Overrides() int        { return l.overrides }

// MissingWeights lists SKUs that had no weight entry when the ledger was computed.
func (l *Ledger) MissingWeights() []string {
	return slices.Clone(l.missingWeights)
}

func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.rows)
}

// Rows returns a copy of the rows in ledger order.
func (l *Ledger) Rows() []domain.Recommendation {
	if l == nil {
		return nil
	}
	return slices.Clone(l.rows)
}

// Get returns the row at position.
func (l *Ledger) Get(position int) (domain.Recommendation, error) {
	if position < 0 || position >= l.Len() {
		return domain.Recommendation{}, &domain.OutOfRangeError{Position: position, Len: l.Len()}
	}
	return l.rows[position], nil
}

// Override replaces the quantity of the row at position with qty rounded to
// two decimals.
func (l *Ledger) Override(position int, qty float64) (domain.Recommendation, error) {
	if position < 0 || position >= l.Len() {
		return domain.Recommendation{}, &domain.OutOfRangeError{Position: position, Len: l.Len()}
	}
	return l.set(position, qty)
}

// OverrideKey addresses the row by its stable key.
func (l *Ledger) OverrideKey(key string, qty float64) (domain.Recommendation, error) {
	pos, ok := l.byKey[key]
	if !ok {
		return domain.Recommendation{}, &domain.OutOfRangeError{Position: -1, Key: key, Len: l.Len()}
	}
	return l.set(pos, qty)
}

// OverrideSKU addresses the row by product SKU. A SKU present on several
// rows is ambiguous and rejected.
func (l *Ledger) OverrideSKU(sku string, qty float64) (domain.Recommendation, error) {
	positions := l.bySKU[strings.TrimSpace(sku)]
	switch len(positions) {
	case 0:
		return domain.Recommendation{}, &domain.OutOfRangeError{Position: -1, Key: sku, Len: l.Len()}
	case 1:
		return l.set(positions[0], qty)
	default:
		return domain.Recommendation{}, domain.NewValidationError("sku", "sku %q appears on %d rows, override by position or key", sku, len(positions))
	}
}

func (l *Ledger) set(position int, qty float64) (domain.Recommendation, error) {
	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty < 0 {
		return domain.Recommendation{}, domain.NewValidationError("quantity", "quantity %v must be a non-negative number", qty)
	}
	l.rows[position].Quantity = domain.Round2(qty)
	l.overrides++
	return l.rows[position], nil
}

// Find yields rows whose SKU or name contains query, case-insensitively, in
// ledger order. An empty query yields every row. The sequence can be ranged
// over any number of times.
func (l *Ledger) Find(query string) iter.Seq2[int, domain.Recommendation] {
	needle := strings.ToLower(strings.TrimSpace(query))
	return func(yield func(int, domain.Recommendation) bool) {
		if l == nil {
			return
		}
		for i, r := range l.rows {
			if needle != "" &&
				!strings.Contains(strings.ToLower(r.SKU), needle) &&
				!strings.Contains(strings.ToLower(r.Name), needle) {
				continue
			}
			if !yield(i, r) {
				return
			}
		}
	}
}

// Equal reports whether both ledgers carry the same rows and quantities,
// ignoring identity metadata such as IDs and row keys.
func (l *Ledger) Equal(other *Ledger) bool {
	if l == nil || other == nil {
		return l == other
	}
	if l.Len() != other.Len() {
		return false
	}
	for i := range l.rows {
		a, b := l.rows[i], other.rows[i]
		if a.Position != b.Position || a.SKU != b.SKU || a.Name != b.Name || a.Quantity != b.Quantity {
			return false
		}
	}
	return true
}

// Snapshot captures the current state for persistence.
func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{
		ID:             l.id,
		Period:         l.period,
		ComputedAt:     l.computedAt,
		Overrides:      l.overrides,
		MissingWeights: l.MissingWeights(),
		Rows:           l.Rows(),
	}
}
