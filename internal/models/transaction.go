package models

import "time"

// Format is the page-text flavour requested from the extraction service.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps a user-supplied mode onto a Format.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatText, FormatMarkdown:
		return Format(s), true
	case "md":
		return FormatMarkdown, true
	case "txt", "":
		return FormatText, true
	}
	return "", false
}

// Page is the text of one statement page as returned by the extractor.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// RawRow is a transaction row as sliced from the page text, before any
// amount or date conversion. Dates carry only day and month until the
// year has been reconciled.
type RawRow struct {
	Date          string `json:"date"`
	Description   string `json:"description"`
	OperationDate string `json:"operationDate"`
	Debit         string `json:"debit"`
	Credit        string `json:"credit"`
	Page          int    `json:"page"`
}

// Transaction represents a single normalized statement operation.
type Transaction struct {
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
	OperationDate time.Time `json:"operationDate"`
	Debit         float64   `json:"debit"`
	Credit        float64   `json:"credit"`
	Category      Category  `json:"category"`
}

// IsDebit reports whether the operation takes money out of the account.
func (t Transaction) IsDebit() bool {
	return t.Debit != 0
}

// StatementPeriod is the [Start, End) range covered by a statement.
type StatementPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether either bound is unknown.
func (p StatementPeriod) IsZero() bool {
	return p.Start.IsZero() || p.End.IsZero()
}

// Days returns the number of whole days in the period.
func (p StatementPeriod) Days() int {
	if p.IsZero() {
		return 0
	}
	return int(p.End.Sub(p.Start).Hours() / 24)
}

// Straddles reports whether the period crosses a calendar year boundary.
func (p StatementPeriod) Straddles() bool {
	return !p.IsZero() && p.Start.Year() != p.End.Year()
}

// Budget holds the monthly spending allowance and what is left of it.
type Budget struct {
	Amount    float64 `json:"amount"`
	Remaining float64 `json:"remaining"`
}

// Stats summarizes a ledger.
type Stats struct {
	TotalDebit   float64 `json:"totalDebit"`
	TotalCredit  float64 `json:"totalCredit"`
	TotalBalance float64 `json:"totalBalance"`
	SavingRate   float64 `json:"savingRate"`
}
