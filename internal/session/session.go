package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/ledger"
	"github.com/andresuchdata/autoorder/internal/recommend"
	"github.com/andresuchdata/autoorder/internal/schedule"
	"github.com/andresuchdata/autoorder/internal/tableio"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const ledgerLockKey = "autoorder:ledger"

// Options wires a Session to its collaborators. Zero values disable the
// corresponding feature.
type Options struct {
	ExportDir string
	Sinks     []SnapshotSink
	Publisher Publisher
	Locker    Locker
	Logger    *zerolog.Logger
}

// Session owns the loaded inputs and the current ledger for one planner.
// Inputs are replaced wholesale on reload; the ledger is replaced on every
// compute and mutated by overrides.
type Session struct {
	mu      sync.Mutex
	sales   *domain.SalesMatrix
	weights *domain.WeightTable
	ledger  *ledger.Ledger

	exportDir string
	sinks     []SnapshotSink
	publisher Publisher
	locker    Locker
	log       zerolog.Logger
}

// ExportResult describes a written export file.
type ExportResult struct {
	Name       string               `json:"name"`
	Path       string               `json:"path"`
	URL        string               `json:"url,omitempty"`
	Projection *schedule.Projection `json:"projection"`
}

// Status summarizes what the session currently holds.
type Status struct {
	SalesRows      int      `json:"sales_rows"`
	DateColumns    int      `json:"date_columns"`
	Weights        int      `json:"weights"`
	LedgerID       string   `json:"ledger_id,omitempty"`
	LedgerRows     int      `json:"ledger_rows"`
	Period         int      `json:"period,omitempty"`
	Overrides      int      `json:"overrides"`
	MissingWeights []string `json:"missing_weights,omitempty"`
}

func New(opts Options) *Session {
	s := &Session{
		exportDir: opts.ExportDir,
		sinks:     opts.Sinks,
		publisher: opts.Publisher,
		locker:    opts.Locker,
		log:       zerolog.Nop(),
	}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("component", "session").Logger()
	}
	if s.locker == nil {
		s.locker = noopLocker{}
	}
	if s.exportDir == "" {
		s.exportDir = "."
	}
	return s
}

// LoadSales parses and installs a sales table.
func (s *Session) LoadSales(t *tableio.Table) error {
	sales, err := tableio.ParseSales(t)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sales = sales
	s.mu.Unlock()

	s.log.Info().Int("rows", len(sales.Rows)).Int("date_columns", len(sales.DateLabels)).Msg("sales loaded")
	return nil
}

// LoadWeights parses and installs a weight table.
func (s *Session) LoadWeights(t *tableio.Table) error {
	weights, err := tableio.ParseWeights(t)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.weights = weights
	s.mu.Unlock()

	s.log.Info().Int("entries", weights.Len()).Msg("weights loaded")
	return nil
}

// LoadInputFiles reads both spreadsheets concurrently and installs them
// together. Nothing is installed when either file fails.
func (s *Session) LoadInputFiles(salesPath, weightsPath string) error {
	var (
		sales   *domain.SalesMatrix
		weights *domain.WeightTable
		g       errgroup.Group
	)
	g.Go(func() error {
		t, err := tableio.ReadFile(salesPath)
		if err != nil {
			return err
		}
		sales, err = tableio.ParseSales(t)
		return err
	})
	g.Go(func() error {
		t, err := tableio.ReadFile(weightsPath)
		if err != nil {
			return err
		}
		weights, err = tableio.ParseWeights(t)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.SetInputs(sales, weights)
	s.log.Info().Int("rows", len(sales.Rows)).Int("date_columns", len(sales.DateLabels)).Int("entries", weights.Len()).Msg("inputs loaded")
	return nil
}

// SetInputs installs already parsed inputs.
func (s *Session) SetInputs(sales *domain.SalesMatrix, weights *domain.WeightTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = sales
	s.weights = weights
}

// Restore installs a previously persisted ledger without recomputing.
func (s *Session) Restore(l *ledger.Ledger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = l
}

// Compute runs the engine over the loaded inputs, replaces the ledger and
// snapshots it.
func (s *Session) Compute(ctx context.Context, period int) (ledger.Snapshot, error) {
	unlock, err := s.locker.Lock(ctx, ledgerLockKey)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sales == nil {
		return ledger.Snapshot{}, ErrSalesNotLoaded
	}
	if s.weights == nil {
		return ledger.Snapshot{}, ErrWeightsNotLoaded
	}

	l, err := recommend.Compute(s.sales, s.weights, period)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	s.ledger = l

	s.log.Info().Str("ledger_id", l.ID()).Int("rows", l.Len()).Int("period", period).Msg("recommendations computed")
	if err := domain.LookupErrors(l.MissingWeights()); err != nil {
		s.log.Warn().Err(err).Str("ledger_id", l.ID()).Msg("no weight entry, quantities left uncorrected")
	}
	if !recommend.IsStandardPeriod(period) {
		s.log.Warn().Int("period", period).Ints("standard_periods", recommend.StandardPeriods).Msg("non-standard analysis period")
	}

	return l.Snapshot(), s.snapshot(ctx, l)
}

// Override sets the quantity of the row at position.
func (s *Session) Override(ctx context.Context, position int, qty float64) (domain.Recommendation, error) {
	return s.mutate(ctx, func(l *ledger.Ledger) (domain.Recommendation, error) {
		return l.Override(position, qty)
	})
}

// OverrideKey sets the quantity of the row with the given stable key.
func (s *Session) OverrideKey(ctx context.Context, key string, qty float64) (domain.Recommendation, error) {
	return s.mutate(ctx, func(l *ledger.Ledger) (domain.Recommendation, error) {
		return l.OverrideKey(key, qty)
	})
}

// OverrideSKU sets the quantity of the row with the given SKU.
func (s *Session) OverrideSKU(ctx context.Context, sku string, qty float64) (domain.Recommendation, error) {
	return s.mutate(ctx, func(l *ledger.Ledger) (domain.Recommendation, error) {
		return l.OverrideSKU(sku, qty)
	})
}

func (s *Session) mutate(ctx context.Context, fn func(*ledger.Ledger) (domain.Recommendation, error)) (domain.Recommendation, error) {
	unlock, err := s.locker.Lock(ctx, ledgerLockKey)
	if err != nil {
		return domain.Recommendation{}, err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger == nil {
		return domain.Recommendation{}, ErrNoLedger
	}
	row, err := fn(s.ledger)
	if err != nil {
		return domain.Recommendation{}, err
	}

	s.log.Info().Int("position", row.Position).Str("sku", row.SKU).Float64("quantity", row.Quantity).Msg("recommendation overridden")
	return row, s.snapshot(ctx, s.ledger)
}

// snapshot writes l to every sink. Callers hold s.mu.
func (s *Session) snapshot(ctx context.Context, l *ledger.Ledger) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.SaveLedger(ctx, l); err != nil {
			s.log.Warn().Err(err).Str("ledger_id", l.ID()).Msgf("snapshot sink %T failed", sink)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSnapshot, errors.Join(errs...))
	}
	return nil
}

// Find returns ledger rows matching query in ledger order.
func (s *Session) Find(query string) ([]domain.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger == nil {
		return nil, ErrNoLedger
	}
	rows := make([]domain.Recommendation, 0, s.ledger.Len())
	for _, r := range s.ledger.Find(query) {
		rows = append(rows, r)
	}
	return rows, nil
}

// Current returns a copy of the current ledger state.
func (s *Session) Current() (ledger.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger == nil {
		return ledger.Snapshot{}, ErrNoLedger
	}
	return s.ledger.Snapshot(), nil
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Weights: s.weights.Len()}
	if s.sales != nil {
		st.SalesRows = len(s.sales.Rows)
		st.DateColumns = len(s.sales.DateLabels)
	}
	if s.ledger != nil {
		st.LedgerID = s.ledger.ID()
		st.LedgerRows = s.ledger.Len()
		st.Period = s.ledger.Period()
		st.Overrides = s.ledger.Overrides()
		st.MissingWeights = s.ledger.MissingWeights()
	}
	return st
}

// Project builds the schedule for startDate (DD.MM.YYYY) from the current
// ledger without writing anything.
func (s *Session) Project(startDate string) (*schedule.Projection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger == nil {
		return nil, ErrNoLedger
	}
	return schedule.ProjectLiteral(s.ledger, startDate)
}

// Export writes the schedule for startDate to the export directory and
// publishes it when a publisher is configured. A bad date writes nothing.
func (s *Session) Export(ctx context.Context, startDate string) (*ExportResult, error) {
	p, err := s.Project(startDate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tableio.Write(&buf, tableio.ProjectionTable(p), tableio.FormatXLSX); err != nil {
		return nil, err
	}

	name := schedule.FileName(p.Start)
	path := filepath.Join(s.exportDir, name)
	if err := os.MkdirAll(s.exportDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export dir %s: %w", s.exportDir, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write export %s: %w", path, err)
	}

	result := &ExportResult{Name: name, Path: path, Projection: p}
	if s.publisher != nil {
		url, err := s.publisher.Publish(ctx, name, buf.Bytes())
		if err != nil {
			return result, fmt.Errorf("export written to %s but upload failed: %w", path, err)
		}
		result.URL = url
	}

	s.log.Info().Str("file", path).Int("rows", len(p.Rows)).Str("start", p.Dates[0]).Msg("order schedule exported")
	return result, nil
}

// WriteExport streams the schedule for startDate as xlsx to w and returns
// the file name it should be saved under.
func (s *Session) WriteExport(w io.Writer, startDate string) (string, error) {
	p, err := s.Project(startDate)
	if err != nil {
		return "", err
	}
	if err := tableio.Write(w, tableio.ProjectionTable(p), tableio.FormatXLSX); err != nil {
		return "", err
	}
	return schedule.FileName(p.Start), nil
}
