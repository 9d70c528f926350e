// Package normalize turns raw statement rows into typed transactions: it
// completes day.month dates with their year and converts French formatted
// amounts.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bnp-ledger/internal/logging"
	"github.com/insightdelivered/bnp-ledger/internal/metrics"
	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// DateLayout is the format of reconciled row dates.
const DateLayout = "02.01.2006"

var amountNoise = strings.NewReplacer(
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	"€", "",
)

// ParseAmount converts an amount such as "1 234,56" to 1234.56. An empty
// amount is zero.
func ParseAmount(s string) (float64, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// ParseDecimal is ParseAmount without the float conversion.
func ParseDecimal(s string) (decimal.Decimal, error) {
	cleaned := amountNoise.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, nil
	}
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &models.FieldError{Kind: models.ErrAmountFormat, Field: "amount", Value: s, Err: err}
	}
	return d, nil
}

// ParseDate parses a reconciled dd.mm.yyyy date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &models.FieldError{Kind: models.ErrDateFormat, Field: "date", Value: s, Err: err}
	}
	return t, nil
}

// Normalizer converts reconciled rows under the pipeline's error regime.
type Normalizer struct {
	Guard logging.Guard
}

// Normalize converts rows to transactions. Rows that fail conversion, or
// whose debit and credit are both set or both empty, are reported through
// the guard and left out.
func (n Normalizer) Normalize(rows []models.RawRow) ([]models.Transaction, error) {
	txs := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		tx, err := convert(row)
		if err == nil {
			err = checkSingleSided(tx, row)
		}
		if err != nil {
			if fe, ok := err.(*models.FieldError); ok {
				fe.Row = i + 1
			}
			metrics.RowsRejected.WithLabelValues("normalize").Inc()
			if herr := n.Guard.Handle(err, "row dropped", "row", i+1, "page", row.Page, "description", row.Description); herr != nil {
				return nil, herr
			}
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func convert(row models.RawRow) (models.Transaction, error) {
	date, err := ParseDate(row.Date)
	if err != nil {
		return models.Transaction{}, withField(err, "date")
	}
	opDate, err := ParseDate(row.OperationDate)
	if err != nil {
		return models.Transaction{}, withField(err, "operation date")
	}
	debit, err := ParseAmount(row.Debit)
	if err != nil {
		return models.Transaction{}, withField(err, "debit")
	}
	credit, err := ParseAmount(row.Credit)
	if err != nil {
		return models.Transaction{}, withField(err, "credit")
	}

	return models.Transaction{
		Date:          date,
		Description:   strings.TrimSpace(row.Description),
		OperationDate: opDate,
		Debit:         debit,
		Credit:        credit,
		Category:      models.Autre,
	}, nil
}

func checkSingleSided(tx models.Transaction, row models.RawRow) error {
	if (tx.Debit == 0) != (tx.Credit == 0) {
		return nil
	}
	return &models.FieldError{
		Kind:  models.ErrLayoutParse,
		Field: "amount",
		Value: fmt.Sprintf("debit=%q credit=%q", row.Debit, row.Credit),
		Err:   fmt.Errorf("expected exactly one of debit and credit"),
	}
}

func withField(err error, field string) error {
	if fe, ok := err.(*models.FieldError); ok {
		fe.Field = field
	}
	return err
}
