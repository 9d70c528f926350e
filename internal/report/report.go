// Package report renders statement ledgers as Excel workbooks or CSV files.
package report

import (
	"fmt"
	"strconv"

	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// Sheet is everything a report needs about one statement.
type Sheet struct {
	Source       string
	Month        int
	Year         int
	Period       models.StatementPeriod
	Transactions []models.Transaction
	// Budget is nil when no budget was set.
	Budget     *models.Budget
	Stats      models.Stats
	Categories []models.Category
}

var frenchMonths = [...]string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
	"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

// MonthName returns the French name of month m, or "" when m is out of range.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return frenchMonths[m-1]
}

// Name returns the worksheet name, e.g. "Mars_2024".
func (s Sheet) Name() string {
	if name := MonthName(s.Month); name != "" {
		return fmt.Sprintf("%s_%d", name, s.Year)
	}
	return "Releve"
}

// Title returns the heading printed on top of the worksheet.
func (s Sheet) Title() string {
	title := fmt.Sprintf("Comptes pour le mois de %s %d", MonthName(s.Month), s.Year)
	if !s.Period.IsZero() {
		title += fmt.Sprintf(" (du %s au %s)", s.Period.Start.Format(displayDate), s.Period.End.Format(displayDate))
	}
	return title
}

const displayDate = "02/01/2006"

var header = []string{"Date", "Description", "Operation Date", "Debit (€)", "Credit (€)", "Category"}

func formatAmount(amount float64) string {
	if amount == 0 {
		return ""
	}
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
