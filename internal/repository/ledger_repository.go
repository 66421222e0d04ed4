// internal/repository/ledger_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/ledger"
	"github.com/andresuchdata/autoorder/internal/repository/postgres"
	"github.com/lib/pq"
)

const ledgerSchema = `
	CREATE TABLE IF NOT EXISTS ledger_snapshots (
		id              UUID PRIMARY KEY,
		period          INT NOT NULL,
		computed_at     TIMESTAMPTZ NOT NULL,
		overrides       INT NOT NULL DEFAULT 0,
		missing_weights TEXT[] NOT NULL DEFAULT '{}',
		row_count       INT NOT NULL DEFAULT 0,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS ledger_rows (
		ledger_id UUID NOT NULL REFERENCES ledger_snapshots(id) ON DELETE CASCADE,
		position  INT NOT NULL,
		row_key   TEXT NOT NULL,
		sku       TEXT NOT NULL,
		name      TEXT NOT NULL,
		quantity  NUMERIC(14, 2) NOT NULL,
		PRIMARY KEY (ledger_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_snapshots_updated_at ON ledger_snapshots (updated_at DESC);
`

// ErrNoSnapshot is returned when no ledger has been persisted yet.
var ErrNoSnapshot = errors.New("no ledger snapshot stored")

// SnapshotSummary is one stored ledger without its rows.
type SnapshotSummary struct {
	ID         string    `db:"id" json:"id"`
	Period     int       `db:"period" json:"period"`
	ComputedAt time.Time `db:"computed_at" json:"computed_at"`
	Overrides  int       `db:"overrides" json:"overrides"`
	RowCount   int       `db:"row_count" json:"row_count"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// LedgerRepository stores ledger snapshots in Postgres. Every save replaces
// the rows of that ledger, so the table always mirrors the latest state.
type LedgerRepository struct {
	db *postgres.DB
}

func NewLedgerRepository(db *postgres.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// EnsureSchema creates the snapshot tables when missing.
func (r *LedgerRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, ledgerSchema); err != nil {
		return fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return nil
}

func (r *LedgerRepository) SaveLedger(ctx context.Context, l *ledger.Ledger) error {
	snap := l.Snapshot()
	missing := snap.MissingWeights
	if missing == nil {
		missing = []string{}
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_snapshots (id, period, computed_at, overrides, missing_weights, row_count, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (id)
			DO UPDATE SET overrides = EXCLUDED.overrides, row_count = EXCLUDED.row_count, updated_at = NOW()
		`, snap.ID, snap.Period, snap.ComputedAt, snap.Overrides, pq.Array(missing), len(snap.Rows))
		if err != nil {
			return fmt.Errorf("failed to upsert ledger snapshot: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_rows WHERE ledger_id = $1`, snap.ID); err != nil {
			return fmt.Errorf("failed to clear ledger rows: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO ledger_rows (ledger_id, position, row_key, sku, name, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare ledger row insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range snap.Rows {
			if _, err := stmt.ExecContext(ctx, snap.ID, row.Position, row.Key, row.SKU, row.Name, row.Quantity); err != nil {
				return fmt.Errorf("failed to insert ledger row %d: %w", row.Position, err)
			}
		}
		return nil
	})
}

// ListSnapshots returns the most recently updated ledgers first.
func (r *LedgerRepository) ListSnapshots(ctx context.Context, limit int) ([]SnapshotSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	var out []SnapshotSummary
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, period, computed_at, overrides, row_count, updated_at
		FROM ledger_snapshots
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing ledger snapshots: %w", err)
	}
	return out, nil
}

// LoadLatest restores the most recently updated ledger.
func (r *LedgerRepository) LoadLatest(ctx context.Context) (*ledger.Ledger, error) {
	var head struct {
		SnapshotSummary
		MissingWeights pq.StringArray `db:"missing_weights"`
	}
	err := r.db.GetContext(ctx, &head, `
		SELECT id, period, computed_at, overrides, row_count, updated_at, missing_weights
		FROM ledger_snapshots
		ORDER BY updated_at DESC
		LIMIT 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("error loading latest ledger snapshot: %w", err)
	}

	var rows []struct {
		Position int     `db:"position"`
		Key      string  `db:"row_key"`
		SKU      string  `db:"sku"`
		Name     string  `db:"name"`
		Quantity float64 `db:"quantity"`
	}
	err = r.db.SelectContext(ctx, &rows, `
		SELECT position, row_key, sku, name, quantity
		FROM ledger_rows
		WHERE ledger_id = $1
		ORDER BY position
	`, head.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading ledger rows: %w", err)
	}

	recs := make([]domain.Recommendation, len(rows))
	for i, row := range rows {
		recs[i] = domain.Recommendation{
			Position: row.Position,
			Key:      row.Key,
			SKU:      row.SKU,
			Name:     row.Name,
			Quantity: row.Quantity,
		}
	}

	return ledger.FromSnapshot(ledger.Snapshot{
		ID:             head.ID,
		Period:         head.Period,
		ComputedAt:     head.ComputedAt,
		Overrides:      head.Overrides,
		MissingWeights: head.MissingWeights,
		Rows:           recs,
	}), nil
}
