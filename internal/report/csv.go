package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// CSVWriter writes the ledger of a sheet as CSV.
type CSVWriter struct {
	// IncludeHeader adds "# key,value" lines describing the statement.
	IncludeHeader bool
}

type csvRow struct {
	Date          string `csv:"Date"`
	Description   string `csv:"Description"`
	OperationDate string `csv:"Operation Date"`
	Debit         string `csv:"Debit (€)"`
	Credit        string `csv:"Credit (€)"`
	Category      string `csv:"Category"`
}

// WriteToFile writes the sheet to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, sheet Sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, sheet); err != nil {
		return err
	}
	return f.Close()
}

// Write writes the sheet in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, sheet Sheet) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		meta := [][]string{{"# Source", sheet.Source}}
		if sheet.Month != 0 {
			meta = append(meta, []string{"# Month", fmt.Sprintf("%s %d", MonthName(sheet.Month), sheet.Year)})
		}
		if !sheet.Period.IsZero() {
			meta = append(meta, []string{"# Statement Period",
				sheet.Period.Start.Format(displayDate) + " to " + sheet.Period.End.Format(displayDate)})
		}
		if sheet.Budget != nil {
			meta = append(meta,
				[]string{"# Budget", formatAmount(sheet.Budget.Amount)},
				[]string{"# Remaining Budget", formatAmount(sheet.Budget.Remaining)})
		}
		if err := writer.WriteAll(meta); err != nil {
			return fmt.Errorf("failed to write CSV metadata: %w", err)
		}
	}

	rows := make([]csvRow, len(sheet.Transactions))
	for i, tx := range sheet.Transactions {
		rows[i] = csvRow{
			Date:          tx.Date.Format(displayDate),
			Description:   tx.Description,
			OperationDate: tx.OperationDate.Format(displayDate),
			Debit:         formatAmount(tx.Debit),
			Credit:        formatAmount(tx.Credit),
			Category:      tx.Category.String(),
		}
	}
	if len(rows) == 0 {
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		writer.Flush()
		return writer.Error()
	}
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(writer)); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	writer.Flush()
	return writer.Error()
}
