package schedule

import (
	"testing"
	"time"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectLiteral_RepeatsQuantity(t *testing.T) {
	l := ledger.New(14, []domain.Recommendation{{SKU: "A", Name: "Widget", Quantity: 42.5}}, nil)

	p, err := ProjectLiteral(l, "01.01.2025")
	require.NoError(t, err)

	require.Len(t, p.Dates, HorizonDays)
	assert.Equal(t, "01.01.2025", p.Dates[0])
	assert.Equal(t, "14.01.2025", p.Dates[13])

	require.Len(t, p.Rows, 1)
	assert.Equal(t, "A", p.Rows[0].SKU)
	assert.Equal(t, "Widget", p.Rows[0].Name)
	require.Len(t, p.Rows[0].Quantities, HorizonDays)
	for _, q := range p.Rows[0].Quantities {
		assert.Equal(t, 42.5, q)
	}
}

func TestProject_ConsecutiveDates(t *testing.T) {
	tests := []struct {
		start string
		last  string
	}{
		{"25.12.2024", "07.01.2025"},
		{"20.02.2024", "04.03.2024"},
		{"20.02.2023", "05.03.2023"},
		{"30.03.2025", "12.04.2025"},
	}
	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			p, err := ProjectLiteral(ledger.New(14, nil, nil), tt.start)
			require.NoError(t, err)
			require.Len(t, p.Dates, HorizonDays)
			assert.Equal(t, tt.start, p.Dates[0])
			assert.Equal(t, tt.last, p.Dates[HorizonDays-1])

			prev, err := domain.ParseDate(p.Dates[0])
			require.NoError(t, err)
			for _, d := range p.Dates[1:] {
				cur, err := domain.ParseDate(d)
				require.NoError(t, err)
				assert.Equal(t, prev.AddDate(0, 0, 1), cur)
				prev = cur
			}
		})
	}
}

func TestProject_EmptyLedger(t *testing.T) {
	p := Project(ledger.New(14, nil, nil), time.Date(2025, 1, 1, 15, 30, 0, 0, time.UTC))
	assert.Len(t, p.Dates, HorizonDays)
	assert.Empty(t, p.Rows)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p.Start)
}

func TestProjectLiteral_BadDate(t *testing.T) {
	l := ledger.New(14, []domain.Recommendation{{SKU: "A", Quantity: 1}}, nil)
	for _, bad := range []string{"2025-01-01", "31.02.2025", "", "tomorrow"} {
		p, err := ProjectLiteral(l, bad)
		assert.Nil(t, p)
		assert.ErrorIs(t, err, domain.ErrFormat, bad)
	}
}

func TestProject_ReflectsOverride(t *testing.T) {
	l := ledger.New(14, []domain.Recommendation{
		{SKU: "A", Quantity: 10},
		{SKU: "B", Quantity: 20},
	}, nil)

	_, err := l.Override(1, 7.777)
	require.NoError(t, err)

	p, err := ProjectLiteral(l, "01.03.2025")
	require.NoError(t, err)
	require.Len(t, p.Rows, 2)
	assert.Equal(t, "A", p.Rows[0].SKU)
	assert.Equal(t, 10.0, p.Rows[0].Quantities[0])
	for _, q := range p.Rows[1].Quantities {
		assert.Equal(t, 7.78, q)
	}
}

func TestFileName(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "order_14_days_01.01.2025.xlsx", FileName(start))
}
