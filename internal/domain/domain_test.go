package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{20, 20},
		{99.999, 100},
		{2.675, 2.68},
		{1.005, 1.01},
		{0.333333, 0.33},
		{-1.555, -1.56},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}

	assert.True(t, math.IsNaN(Round2(math.NaN())))
	assert.True(t, math.IsInf(Round2(math.Inf(1)), 1))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		qty  float64
		want Level
	}{
		{0, LevelLow},
		{9.99, LevelLow},
		{10, LevelNormal},
		{250, LevelNormal},
		{250.01, LevelHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.qty), "Classify(%v)", tt.qty)
	}
}

func TestLevelLabels(t *testing.T) {
	assert.Equal(t, "Low", LevelLow.Label())
	assert.Equal(t, "High", LevelHigh.Label())
	assert.Equal(t, "Normal", LevelNormal.Label())
	assert.Equal(t, "Normal", Level("unknown").Label())

	lvl, ok := ParseLevel(" HIGH ")
	require.True(t, ok)
	assert.Equal(t, LevelHigh, lvl)

	_, ok = ParseLevel("critical")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 01.01.2025 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "01.01.2025", FormatDate(d))

	for _, bad := range []string{"", "2025-01-01", "32.01.2025", "1/1/2025"} {
		_, err := ParseDate(bad)
		require.Error(t, err, bad)
		var fe *FormatError
		require.True(t, errors.As(err, &fe), bad)
		assert.Equal(t, bad, fe.Value)
		assert.ErrorIs(t, err, ErrFormat)
	}
}

func TestErrorSentinels(t *testing.T) {
	assert.ErrorIs(t, NewValidationError("period", "bad"), ErrValidation)
	assert.ErrorIs(t, &LookupError{SKU: "A"}, ErrLookup)
	assert.ErrorIs(t, &OutOfRangeError{Position: 5, Len: 3}, ErrOutOfRange)
	assert.NotErrorIs(t, &OutOfRangeError{Position: 5, Len: 3}, ErrValidation)

	assert.Equal(t, "validation: period: bad", NewValidationError("period", "bad").Error())
	assert.Equal(t, "row position 5 out of range [0,3)", (&OutOfRangeError{Position: 5, Len: 3}).Error())
	assert.Contains(t, (&OutOfRangeError{Key: "X", Len: 3}).Error(), `"X"`)
}

func TestLookupErrors(t *testing.T) {
	assert.NoError(t, LookupErrors(nil))

	err := LookupErrors([]string{"A", "B"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLookup)

	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "A", le.SKU)
	assert.Contains(t, err.Error(), `"B"`)
}

func TestNewWeightTable(t *testing.T) {
	wt, err := NewWeightTable([]WeightEntry{{SKU: " A ", Weight: 0.5}, {SKU: "B", Weight: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, wt.Len())

	w, ok := wt.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, 0.5, w)

	_, ok = wt.Lookup("C")
	assert.False(t, ok)

	var nilTable *WeightTable
	assert.Equal(t, 0, nilTable.Len())
	_, ok = nilTable.Lookup("A")
	assert.False(t, ok)

	bad := [][]WeightEntry{
		{{SKU: "", Weight: 1}},
		{{SKU: "A", Weight: -0.1}},
		{{SKU: "A", Weight: math.NaN()}},
		{{SKU: "A", Weight: 1}, {SKU: "A", Weight: 2}},
	}
	for _, entries := range bad {
		_, err := NewWeightTable(entries)
		assert.ErrorIs(t, err, ErrValidation, "%v", entries)
	}
}

func TestSalesMatrixValidate(t *testing.T) {
	ok := &SalesMatrix{
		DateLabels: []string{"d1", "d2"},
		Rows:       []SalesRow{{SKU: "A", Quantities: []float64{1, 2}}},
	}
	require.NoError(t, ok.Validate())
	assert.Equal(t, 4, ok.ColumnCount())

	tests := map[string]*SalesMatrix{
		"nil":       nil,
		"no dates":  {Rows: []SalesRow{{SKU: "A"}}},
		"no rows":   {DateLabels: []string{"d1"}},
		"short row": {DateLabels: []string{"d1", "d2"}, Rows: []SalesRow{{SKU: "A", Quantities: []float64{1}}}},
		"nan":       {DateLabels: []string{"d1"}, Rows: []SalesRow{{SKU: "A", Quantities: []float64{math.NaN()}}}},
		"inf":       {DateLabels: []string{"d1"}, Rows: []SalesRow{{SKU: "A", Quantities: []float64{math.Inf(-1)}}}},
	}
	for name, m := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, m.Validate(), ErrValidation)
		})
	}
}
