package normalize

import (
	"strconv"
	"strings"

	"github.com/insightdelivered/bnp-ledger/internal/models"
	"github.com/insightdelivered/bnp-ledger/internal/parser"
)

const (
	december = "12"
	january  = "01"
)

// Reconcile appends the year to every row date using the strategy of the
// format the rows were parsed from.
func Reconcile(res *parser.Result) []models.RawRow {
	if res.Format == models.FormatMarkdown {
		return ReconcileByPeriod(res.Rows, res.Period, res.StartYear)
	}
	return ReconcileByPresence(res.Rows, res.StartYear)
}

// ReconcileByPresence dates fixed-width rows. When the ledger holds both
// December and January operations the statement spans New Year and January
// rows belong to the following year.
func ReconcileByPresence(rows []models.RawRow, startYear int) []models.RawRow {
	var hasDecember, hasJanuary bool
	for _, row := range rows {
		switch month(row.Date) {
		case december:
			hasDecember = true
		case january:
			hasJanuary = true
		}
	}
	straddles := hasDecember && hasJanuary

	yearOf := func(date string) int {
		if straddles && month(date) == january {
			return startYear + 1
		}
		return startYear
	}

	out := make([]models.RawRow, len(rows))
	for i, row := range rows {
		row.Date = withYear(row.Date, yearOf(row.Date))
		row.OperationDate = withYear(row.OperationDate, yearOf(row.OperationDate))
		out[i] = row
	}
	return out
}

// ReconcileByPeriod dates markdown rows from the statement period. Each date
// of a period spanning New Year is placed on its own side of the boundary.
func ReconcileByPeriod(rows []models.RawRow, period models.StatementPeriod, startYear int) []models.RawRow {
	year := startYear
	if !period.Start.IsZero() {
		year = period.Start.Year()
	}

	yearOf := func(date string) int {
		if period.Straddles() && month(date) == january {
			return period.End.Year()
		}
		return year
	}

	out := make([]models.RawRow, len(rows))
	for i, row := range rows {
		row.Date = withYear(row.Date, yearOf(row.Date))
		row.OperationDate = withYear(row.OperationDate, yearOf(row.OperationDate))
		out[i] = row
	}
	return out
}

// month returns the two-digit month of a dd.mm date, or "" when the date is
// malformed. Malformed dates are reported by ParseDate.
func month(date string) string {
	parts := strings.Split(strings.TrimSpace(date), ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func withYear(date string, year int) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return ""
	}
	return date + "." + strconv.Itoa(year)
}
