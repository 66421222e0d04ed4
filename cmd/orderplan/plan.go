package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/ledger"
	"github.com/andresuchdata/autoorder/internal/recommend"
	"github.com/andresuchdata/autoorder/internal/repository"
	"github.com/andresuchdata/autoorder/internal/repository/postgres"
	"github.com/andresuchdata/autoorder/internal/session"
	"github.com/andresuchdata/autoorder/internal/tableio"
	"github.com/andresuchdata/autoorder/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// override is one --override SKU=qty flag.
type override struct {
	SKU      string
	Quantity float64
}

// parseOverride accepts SKU=qty. The quantity follows spreadsheet number
// rules, so a decimal comma and grouping separators are allowed.
func parseOverride(raw string) (override, error) {
	i := strings.LastIndex(raw, "=")
	if i <= 0 || i == len(raw)-1 {
		return override{}, domain.NewValidationError("override", "%q must look like SKU=quantity", raw)
	}
	sku := strings.TrimSpace(raw[:i])
	qty, err := tableio.ParseQuantity(raw[i+1:])
	if sku == "" || err != nil {
		return override{}, domain.NewValidationError("override", "%q must look like SKU=quantity", raw)
	}
	return override{SKU: sku, Quantity: qty}, nil
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Load sales and weights, compute recommendations, apply overrides and export the order plan",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "sales",
				Usage:    "Sales history spreadsheet (xlsx or csv)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "weights",
				Usage:    "Weight table spreadsheet (xlsx or csv)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "period",
				Usage:   "Number of trailing days to average (7, 14 or 30 are standard)",
				Value:   strconv.Itoa(recommend.DefaultPeriod),
				EnvVars: []string{"PLAN_DEFAULT_PERIOD"},
			},
			&cli.StringFlag{
				Name:  "start",
				Usage: "First day of the order plan (DD.MM.YYYY), defaults to today",
			},
			&cli.StringSliceFlag{
				Name:  "override",
				Usage: "Replace a recommendation, SKU=quantity (repeatable)",
			},
			&cli.StringFlag{
				Name:    "out",
				Usage:   "Directory receiving the snapshot and export files",
				Value:   "./data",
				EnvVars: []string{"APP_DATA_DIR"},
			},
			&cli.StringFlag{
				Name:    "snapshot-file",
				Value:   "temp_result.xlsx",
				EnvVars: []string{"APP_SNAPSHOT_FILE"},
			},
			newDBURLFlag(false),
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Do not print the ledger",
			},
		},
		Action: runPlan,
	}
}

func runPlan(c *cli.Context) error {
	ctx := c.Context
	log := logger.Component("plan")

	overrides := make([]override, 0, len(c.StringSlice("override")))
	for _, raw := range c.StringSlice("override") {
		o, err := parseOverride(raw)
		if err != nil {
			return err
		}
		overrides = append(overrides, o)
	}

	period, err := recommend.ParsePeriod(c.String("period"), recommend.DefaultPeriod)
	if err != nil {
		return err
	}

	startDate := c.String("start")
	if startDate == "" {
		startDate = domain.FormatDate(time.Now())
	}
	if _, err := domain.ParseDate(startDate); err != nil {
		return err
	}

	outDir := c.String("out")
	sessionLog := logger.Component("session")
	opts := session.Options{
		ExportDir: outDir,
		Sinks:     []session.SnapshotSink{session.NewFileSink(filepath.Join(outDir, c.String("snapshot-file")))},
		Logger:    &sessionLog,
	}

	if dbURL := c.String("db-url"); dbURL != "" {
		repo, closeDB, err := openRepository(ctx, dbURL)
		if err != nil {
			return err
		}
		defer closeDB()
		opts.Sinks = append(opts.Sinks, repo)
	}

	sess := session.New(opts)
	if err := sess.LoadInputFiles(c.String("sales"), c.String("weights")); err != nil {
		return err
	}

	snap, err := sess.Compute(ctx, period)
	if err := snapshotWarning(log, err); err != nil {
		return err
	}
	if err := domain.LookupErrors(snap.MissingWeights); err != nil {
		log.Warn().Err(err).Msg("no weight found, weight 1 used")
	}

	for _, o := range overrides {
		_, err := sess.OverrideSKU(ctx, o.SKU, o.Quantity)
		if err := snapshotWarning(log, err); err != nil {
			return fmt.Errorf("override %s: %w", o.SKU, err)
		}
	}

	result, err := sess.Export(ctx, startDate)
	if err != nil {
		return err
	}

	if !c.Bool("quiet") {
		current, err := sess.Current()
		if err != nil {
			return err
		}
		if err := printLedger(c.App.Writer, current); err != nil {
			return err
		}
	}

	log.Info().Str("file", result.Path).Int("rows", len(snap.Rows)).Msg("order plan written")
	return nil
}

// snapshotWarning logs a failed snapshot write and swallows it. Any other
// error is returned.
func snapshotWarning(log zerolog.Logger, err error) error {
	if errors.Is(err, session.ErrSnapshot) {
		log.Warn().Err(err).Msg("ledger snapshot not saved")
		return nil
	}
	return err
}

func openRepository(ctx context.Context, dbURL string) (*repository.LedgerRepository, func(), error) {
	db, err := postgres.Connect("pgx", dbURL)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewLedgerRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, func() { db.Close() }, nil
}

func printLedger(w io.Writer, snap ledger.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSKU\tNAME\tQUANTITY\tLEVEL")
	for _, r := range snap.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\n", r.Position, r.SKU, r.Name, r.Quantity, strings.ToLower(r.Level().Label()))
	}
	return tw.Flush()
}
