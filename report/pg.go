package report

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const createReportTable = `CREATE TABLE IF NOT EXISTS plagiarism_report (
	contest TEXT NOT NULL,
	hacker TEXT NOT NULL,
	max_percent INTEGER NOT NULL,
	moss_url TEXT NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
)`

// PGExporter copies report rows into a Postgres table.
type PGExporter struct {
	config *pgx.ConnConfig
}

func NewPGExporter(dsn string) (*PGExporter, error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parse postgres dsn")
	}
	config.RuntimeParams["timezone"] = "UTC"
	return &PGExporter{config: config}, nil
}

// Export appends rows for contest, all stamped with the same generation time.
func (e *PGExporter) Export(ctx context.Context, contest string, rows []Row) error {
	conn, err := pgx.ConnectConfig(ctx, e.config)
	if err != nil {
		return errors.Wrap(err, "connect to postgres")
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, createReportTable); err != nil {
		return errors.Wrap(err, "create report table")
	}

	now := time.Now().UTC()
	n, err := conn.CopyFrom(ctx,
		pgx.Identifier{"plagiarism_report"},
		[]string{"contest", "hacker", "max_percent", "moss_url", "generated_at"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return []any{contest, rows[i].Hacker, rows[i].MaxPercent, rows[i].URL, now}, nil
		}),
	)
	if err != nil {
		return errors.Wrap(err, "copy report rows")
	}
	zap.S().Infof("Exported %d report rows to postgres", n)
	return nil
}
