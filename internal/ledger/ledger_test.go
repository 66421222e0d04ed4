package ledger

import (
	"math"
	"testing"
	"time"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLedger() *Ledger {
	return New(14, []domain.Recommendation{
		{SKU: "A-1", Name: "Blue Widget", Quantity: 20},
		{SKU: "B-2", Name: "Red Gadget", Quantity: 5},
		{SKU: "C-3", Name: "blue gizmo", Quantity: 300},
	}, []string{"C-3"})
}

func TestNew_AssignsPositionsAndKeys(t *testing.T) {
	l := New(7, []domain.Recommendation{
		{Position: 9, SKU: "A"},
		{Position: 9, SKU: "B", Key: "fixed"},
	}, nil)

	rows := l.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Position)
	assert.Equal(t, 1, rows[1].Position)
	assert.NotEmpty(t, rows[0].Key)
	assert.Equal(t, "fixed", rows[1].Key)
	assert.NotEmpty(t, l.ID())
	assert.Equal(t, 7, l.Period())
	assert.False(t, l.ComputedAt().IsZero())
}

func TestRows_ReturnsCopy(t *testing.T) {
	l := sampleLedger()
	rows := l.Rows()
	rows[0].Quantity = 1000

	row, err := l.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 20.0, row.Quantity)
}

func TestOverride(t *testing.T) {
	l := sampleLedger()

	row, err := l.Override(0, 99.999)
	require.NoError(t, err)
	assert.Equal(t, 100.0, row.Quantity)

	got, err := l.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Quantity)
	assert.Equal(t, 1, l.Overrides())

	row, err = l.Override(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, row.Quantity)
	assert.Equal(t, 2, l.Overrides())
}

func TestOverride_OutOfRangeLeavesLedgerUnchanged(t *testing.T) {
	l := sampleLedger()
	before := l.Rows()

	for _, pos := range []int{3, 5, -1} {
		_, err := l.Override(pos, 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrOutOfRange)

		var oor *domain.OutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, pos, oor.Position)
		assert.Equal(t, 3, oor.Len)
	}

	assert.Equal(t, before, l.Rows())
	assert.Equal(t, 0, l.Overrides())
}

func TestOverride_RejectsBadQuantities(t *testing.T) {
	l := sampleLedger()
	for _, qty := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := l.Override(0, qty)
		assert.ErrorIs(t, err, domain.ErrValidation, "%v", qty)
	}
	row, _ := l.Get(0)
	assert.Equal(t, 20.0, row.Quantity)
}

func TestOverrideKey(t *testing.T) {
	l := sampleLedger()
	key := l.Rows()[2].Key

	row, err := l.OverrideKey(key, 12.345)
	require.NoError(t, err)
	assert.Equal(t, 2, row.Position)
	assert.Equal(t, 12.35, row.Quantity)

	_, err = l.OverrideKey("missing", 1)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)
}

func TestOverrideSKU(t *testing.T) {
	l := sampleLedger()

	row, err := l.OverrideSKU(" B-2 ", 8)
	require.NoError(t, err)
	assert.Equal(t, 1, row.Position)
	assert.Equal(t, 8.0, row.Quantity)

	_, err = l.OverrideSKU("Z-9", 1)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)

	dup := New(14, []domain.Recommendation{{SKU: "A"}, {SKU: "A"}}, nil)
	_, err = dup.OverrideSKU("A", 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFind(t *testing.T) {
	l := sampleLedger()

	collect := func(q string) []string {
		var skus []string
		for _, r := range l.Find(q) {
			skus = append(skus, r.SKU)
		}
		return skus
	}

	assert.Equal(t, []string{"A-1", "B-2", "C-3"}, collect(""))
	assert.Equal(t, []string{"A-1", "C-3"}, collect("BLUE"))
	assert.Equal(t, []string{"B-2"}, collect("b-2"))
	assert.Empty(t, collect("nothing"))

	seq := l.Find("blue")
	var first, second []int
	for i := range seq {
		first = append(first, i)
	}
	for i := range seq {
		second = append(second, i)
	}
	assert.Equal(t, []int{0, 2}, first)
	assert.Equal(t, first, second)

	var stopped []int
	for i := range l.Find("") {
		stopped = append(stopped, i)
		break
	}
	assert.Equal(t, []int{0}, stopped)
}

func TestFind_SeesOverrides(t *testing.T) {
	l := sampleLedger()
	seq := l.Find("gadget")

	_, err := l.OverrideSKU("B-2", 42)
	require.NoError(t, err)

	for _, r := range seq {
		assert.Equal(t, 42.0, r.Quantity)
	}
}

func TestEqual(t *testing.T) {
	a := sampleLedger()
	b := sampleLedger()
	assert.True(t, a.Equal(b))

	_, err := b.Override(0, 21)
	require.NoError(t, err)
	assert.False(t, a.Equal(b))

	assert.False(t, a.Equal(New(14, nil, nil)))

	var none *Ledger
	assert.True(t, none.Equal(nil))
	assert.False(t, none.Equal(a))
	assert.False(t, a.Equal(none))
}

func TestSnapshotRoundTrip(t *testing.T) {
	l := sampleLedger()
	_, err := l.Override(1, 7)
	require.NoError(t, err)

	snap := l.Snapshot()
	restored := FromSnapshot(snap)

	assert.Equal(t, l.ID(), restored.ID())
	assert.Equal(t, l.Period(), restored.Period())
	assert.Equal(t, l.ComputedAt(), restored.ComputedAt())
	assert.Equal(t, 1, restored.Overrides())
	assert.Equal(t, []string{"C-3"}, restored.MissingWeights())
	assert.Equal(t, l.Rows(), restored.Rows())

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := FromSnapshot(Snapshot{Period: 7, ComputedAt: at})
	assert.NotEmpty(t, fresh.ID())
	assert.Equal(t, at, fresh.ComputedAt())
	assert.Equal(t, 0, fresh.Len())
}

func TestNilLedger(t *testing.T) {
	var l *Ledger
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, l.Rows())
	for range l.Find("") {
		t.Fatal("nil ledger yielded a row")
	}
}
