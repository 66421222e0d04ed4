package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/repository"
	"github.com/andresuchdata/autoorder/internal/repository/postgres"
	"github.com/urfave/cli/v2"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent ledger snapshots stored in Postgres",
		Flags: []cli.Flag{
			newDBURLFlag(true),
			&cli.IntFlag{
				Name:  "limit",
				Value: 20,
			},
		},
		Action: runHistory,
	}
}

func runHistory(c *cli.Context) error {
	db, err := postgres.Connect("pgx", c.String("db-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	snapshots, err := repository.NewLedgerRepository(db).ListSnapshots(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPUTED\tPERIOD\tROWS\tOVERRIDES\tUPDATED")
	for _, s := range snapshots {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			s.ID,
			domain.FormatDate(s.ComputedAt),
			s.Period,
			s.RowCount,
			s.Overrides,
			s.UpdatedAt.Format("02.01.2006 15:04"),
		)
	}
	return tw.Flush()
}
