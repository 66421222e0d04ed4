package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/ledger"
	"github.com/andresuchdata/autoorder/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestParseOverride(t *testing.T) {
	tests := []struct {
		raw  string
		want override
	}{
		{"A-1=12", override{SKU: "A-1", Quantity: 12}},
		{" B = 7,5 ", override{SKU: "B", Quantity: 7.5}},
		{"X=Y=3.25", override{SKU: "X=Y", Quantity: 3.25}},
		{"C=1.234,5", override{SKU: "C", Quantity: 1234.5}},
		{"D=1 000", override{SKU: "D", Quantity: 1000}},
	}
	for _, tt := range tests {
		got, err := parseOverride(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	for _, bad := range []string{"", "A", "=3", "A=", "A= ", "A=many", "A=Inf", "A=NaN", "A=0x10"} {
		_, err := parseOverride(bad)
		assert.ErrorIs(t, err, domain.ErrValidation, bad)
	}
}

func TestPrintLedger(t *testing.T) {
	l := ledger.New(14, []domain.Recommendation{
		{SKU: "A", Name: "Widget", Quantity: 2},
		{SKU: "B", Name: "Gadget", Quantity: 300},
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, printLedger(&buf, l.Snapshot()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "QUANTITY")
	assert.Contains(t, lines[1], "2.00")
	assert.True(t, strings.HasSuffix(lines[1], "low"))
	assert.True(t, strings.HasSuffix(lines[2], "high"))
}

func TestSnapshotWarning(t *testing.T) {
	log := zerolog.Nop()
	assert.NoError(t, snapshotWarning(log, nil))
	assert.NoError(t, snapshotWarning(log, errors.Join(session.ErrSnapshot, errors.New("disk full"))))

	other := domain.NewValidationError("period", "too long")
	assert.Equal(t, other, snapshotWarning(log, other))
}

func runPlanApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, env := range []string{"DATABASE_URL", "PLAN_DEFAULT_PERIOD", "APP_DATA_DIR", "APP_SNAPSHOT_FILE"} {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}

	var buf bytes.Buffer
	app := &cli.App{
		Name:     "orderplan",
		Writer:   &buf,
		Commands: []*cli.Command{planCommand()},
	}
	err := app.Run(append([]string{"orderplan", "plan"}, args...))
	return buf.String(), err
}

func writeInputs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	sales := filepath.Join(dir, "sales.csv")
	weights := filepath.Join(dir, "weights.csv")
	require.NoError(t, os.WriteFile(sales, []byte("SKU;Name;d1;d2;d3\nA;Widget;10;20;30\nB;Gadget;1;1;1\n"), 0644))
	require.NoError(t, os.WriteFile(weights, []byte("SKU,Вес\nA,1\n"), 0644))
	return sales, weights
}

func TestRunPlan(t *testing.T) {
	sales, weights := writeInputs(t)
	out := t.TempDir()

	stdout, err := runPlanApp(t,
		"--sales", sales, "--weights", weights,
		"--period", "3", "--start", "01.01.2025",
		"--override", "B=1.234,5", "--out", out)
	require.NoError(t, err)

	assert.Contains(t, stdout, "20.00")
	assert.Contains(t, stdout, "1234.50")
	assert.FileExists(t, filepath.Join(out, "temp_result.xlsx"))
	assert.FileExists(t, filepath.Join(out, "order_14_days_01.01.2025.xlsx"))
}

func TestRunPlan_SnapshotFailureIsWarning(t *testing.T) {
	sales, weights := writeInputs(t)
	out := t.TempDir()

	_, err := runPlanApp(t,
		"--sales", sales, "--weights", weights,
		"--period", "3", "--start", "01.01.2025",
		"--override", "A=5", "--out", out, "--snapshot-file", "snapshot.txt", "--quiet")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "order_14_days_01.01.2025.xlsx"))
	assert.NoFileExists(t, filepath.Join(out, "snapshot.txt"))
}

func TestRunPlan_Errors(t *testing.T) {
	sales, weights := writeInputs(t)

	tests := map[string][]string{
		"bad period":   {"--period", "zero"},
		"long period":  {"--period", "30"},
		"bad start":    {"--start", "2025-01-01"},
		"bad override": {"--override", "A=lots"},
		"unknown sku":  {"--override", "Z=1"},
	}
	for name, extra := range tests {
		t.Run(name, func(t *testing.T) {
			args := append([]string{"--sales", sales, "--weights", weights, "--period", "3", "--out", t.TempDir(), "--quiet"}, extra...)
			_, err := runPlanApp(t, args...)
			assert.Error(t, err)
		})
	}
}
