package session

import (
	"context"

	"github.com/andresuchdata/autoorder/internal/ledger"
	"github.com/andresuchdata/autoorder/internal/tableio"
)

// FileSink rewrites a spreadsheet mirroring the ledger.
type FileSink struct {
	Path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

func (s *FileSink) SaveLedger(_ context.Context, l *ledger.Ledger) error {
	return tableio.WriteFile(s.Path, tableio.LedgerTable(l))
}

// LoadLedger restores rows from a snapshot file written by SaveLedger.
func (s *FileSink) LoadLedger(period int) (*ledger.Ledger, error) {
	t, err := tableio.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	rows, err := tableio.ParseLedger(t)
	if err != nil {
		return nil, err
	}
	return ledger.New(period, rows, nil), nil
}

var _ SnapshotSink = (*FileSink)(nil)
