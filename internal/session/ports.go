package session

import (
	"context"
	"errors"

	"github.com/andresuchdata/autoorder/internal/ledger"
)

var (
	ErrSalesNotLoaded   = errors.New("sales file must be loaded first")
	ErrWeightsNotLoaded = errors.New("weight table must be loaded first")
	ErrNoLedger         = errors.New("recommendations must be computed first")
	// ErrSnapshot wraps sink failures. The in-memory ledger change that
	// triggered the snapshot still stands.
	ErrSnapshot = errors.New("ledger snapshot failed")
)

// SnapshotSink persists the ledger after every compute and override.
type SnapshotSink interface {
	SaveLedger(ctx context.Context, l *ledger.Ledger) error
}

// Publisher uploads a finished export file and returns where it can be found.
type Publisher interface {
	Publish(ctx context.Context, name string, data []byte) (string, error)
}

// Locker serializes ledger writers across processes.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }
