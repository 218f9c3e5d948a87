// Package report joins the top of the contest leaderboard with the highest
// similarity found for each contestant.
package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"vasiluta.ro/plism/similarity"
)

// Header is the first line of every report.
var Header = []string{"Hacker", "Max %", "Corresp. Moss URL"}

type Row struct {
	Hacker     string
	MaxPercent int
	URL        string
}

// Build returns one row per hacker, in the given order. Hackers without any
// similarity data get 0 and an empty URL.
func Build(top []string, agg *similarity.Aggregator) []Row {
	rows := make([]Row, 0, len(top))
	for _, hacker := range top {
		m := agg.Get(hacker)
		rows = append(rows, Row{Hacker: hacker, MaxPercent: m.Percent, URL: m.Link})
	}
	return rows
}

// WriteCSV replaces the file at path with the header and rows.
func WriteCSV(path string, rows []Row) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create report")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "close report")
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return errors.Wrap(err, "write report")
	}
	for _, row := range rows {
		if err := w.Write([]string{row.Hacker, strconv.Itoa(row.MaxPercent), row.URL}); err != nil {
			return errors.Wrap(err, "write report")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "write report")
}
