package ledger

import (
	"strings"

	"github.com/insightdelivered/bnp-ledger/internal/models"
	"github.com/insightdelivered/bnp-ledger/internal/normalize"
)

// Ledger column names, as shown in reports.
const (
	ColumnDate          = "Date"
	ColumnDescription   = "Description"
	ColumnOperationDate = "Operation Date"
	ColumnDebit         = "Debit (€)"
	ColumnCredit        = "Credit (€)"
	ColumnCategory      = "Category"
)

// Columns lists the ledger columns in report order.
func Columns() []string {
	return []string{ColumnDate, ColumnDescription, ColumnOperationDate, ColumnDebit, ColumnCredit, ColumnCategory}
}

// Reason explains why an edit or a computation was not applied.
type Reason string

const (
	ReasonEmptyLedger     Reason = "empty ledger"
	ReasonIndexOutOfRange Reason = "index out of range"
	ReasonUnknownColumn   Reason = "unknown column"
	ReasonInvalidValue    Reason = "invalid value"
)

// Outcome reports whether an operation took effect.
type Outcome struct {
	Applied bool
	Reason  Reason
}

// ModifyOperation sets one cell of the ledger. It never fails hard: a
// rejected edit is logged as a warning and described by the Outcome.
// Dates use the dd.mm.yyyy form, amounts the statement's decimal comma.
func (s *Summary) ModifyOperation(index int, column, value string) Outcome {
	out := s.modify(index, column, value)
	if !out.Applied {
		s.opts.Log.Warn("operation not modified", "index", index, "column", column, "value", value, "reason", out.Reason)
		return out
	}
	if s.budget != nil {
		s.budget.Remaining = s.remaining()
	}
	return out
}

func (s *Summary) modify(index int, column, value string) Outcome {
	if len(s.ledger) == 0 {
		return Outcome{Reason: ReasonEmptyLedger}
	}
	if index < 0 || index >= len(s.ledger) {
		return Outcome{Reason: ReasonIndexOutOfRange}
	}
	tx := &s.ledger[index]

	switch column {
	case ColumnDate, ColumnOperationDate:
		t, err := normalize.ParseDate(value)
		if err != nil {
			return Outcome{Reason: ReasonInvalidValue}
		}
		if column == ColumnDate {
			tx.Date = t
		} else {
			tx.OperationDate = t
		}
	case ColumnDescription:
		tx.Description = strings.TrimSpace(value)
	case ColumnDebit, ColumnCredit:
		v, err := normalize.ParseAmount(value)
		if err != nil || v < 0 {
			return Outcome{Reason: ReasonInvalidValue}
		}
		if column == ColumnDebit {
			tx.Debit = v
		} else {
			tx.Credit = v
		}
	case ColumnCategory:
		c, ok := models.ParseCategory(value)
		if !ok {
			return Outcome{Reason: ReasonInvalidValue}
		}
		tx.Category = c
	default:
		return Outcome{Reason: ReasonUnknownColumn}
	}
	return Outcome{Applied: true}
}
