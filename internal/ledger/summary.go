// Package ledger drives the statement pipeline for one PDF and owns the
// resulting categorized ledger: statistics, budget and point edits.
package ledger

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bnp-ledger/internal/extractor"
	"github.com/insightdelivered/bnp-ledger/internal/logging"
	"github.com/insightdelivered/bnp-ledger/internal/metrics"
	"github.com/insightdelivered/bnp-ledger/internal/models"
	"github.com/insightdelivered/bnp-ledger/internal/normalize"
	"github.com/insightdelivered/bnp-ledger/internal/parser"
	"github.com/insightdelivered/bnp-ledger/internal/report"
	"github.com/insightdelivered/bnp-ledger/internal/rules"
)

// Auto budget: a base amount plus a daily allowance over the period.
const (
	BaseBudget  = 150
	DailyBudget = 5
)

// Options configure a Summary.
type Options struct {
	Format models.Format
	// Strict propagates the first pipeline failure instead of logging it.
	Strict         bool
	IncludeSavings bool
	Log            *logging.Logger
}

// Summary holds the ledger of one statement.
type Summary struct {
	input     string
	opts      Options
	guard     logging.Guard
	extractor extractor.Extractor
	parser    parser.Parser
	engine    *rules.Engine

	ledger []models.Transaction
	period models.StatementPeriod
	month  int
	year   int
	budget *models.Budget
}

// New prepares a summary for the statement at input. A nil engine
// classifies everything as Autre.
func New(input string, ex extractor.Extractor, engine *rules.Engine, opts Options) (*Summary, error) {
	if opts.Format == "" {
		opts.Format = models.FormatText
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	opts.Log = opts.Log.With("input", filepath.Base(input))
	guard := logging.Guard{Log: opts.Log, Strict: opts.Strict}

	p, err := parser.New(opts.Format, parser.Options{Guard: guard})
	if err != nil {
		return nil, err
	}
	if engine == nil {
		engine = rules.NewEngine(nil, rules.WithLogger(opts.Log))
	}
	return &Summary{
		input:     input,
		opts:      opts,
		guard:     guard,
		extractor: ex,
		parser:    p,
		engine:    engine,
	}, nil
}

// AddOperations runs extraction, parsing, date reconciliation,
// normalization and classification, then replaces the ledger. In tolerant
// mode a failed stage is logged and leaves the ledger as it was.
func (s *Summary) AddOperations(ctx context.Context) (err error) {
	format := string(s.opts.Format)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.StatementsProcessed.WithLabelValues(format, outcome).Inc()
	}()

	pages, err := s.extractor.Extract(ctx, s.input, s.opts.Format)
	if err != nil {
		return s.guard.Handle(err, "extraction failed")
	}

	res, err := s.parser.Parse(pages)
	if err != nil {
		return s.guard.Handle(err, "statement layout not recognized")
	}
	metrics.RowsParsed.WithLabelValues(format).Add(float64(len(res.Rows)))
	s.opts.Log.Debug("rows parsed", "rows", len(res.Rows), "start_year", res.StartYear)

	txs, err := normalize.Normalizer{Guard: s.guard}.Normalize(normalize.Reconcile(res))
	if err != nil {
		return err
	}
	if err := s.engine.CategorizeAll(ctx, txs, s.guard); err != nil {
		return err
	}

	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.Before(txs[j].Date) })
	s.ledger = txs
	s.period = res.Period
	if len(txs) > 0 {
		s.month = int(txs[0].Date.Month())
		s.year = txs[0].Date.Year()
	}
	if s.budget != nil {
		s.budget.Remaining = s.remaining()
	}
	s.opts.Log.Info("ledger updated", "operations", len(txs), "month", s.month, "year", s.year)
	return nil
}

// Transactions returns a copy of the ledger.
func (s *Summary) Transactions() []models.Transaction {
	return append([]models.Transaction(nil), s.ledger...)
}

// Len returns the number of operations.
func (s *Summary) Len() int { return len(s.ledger) }

// Period returns the statement period read by the parser.
func (s *Summary) Period() models.StatementPeriod { return s.period }

// Month returns the month of the first operation, 0 before AddOperations.
func (s *Summary) Month() int { return s.month }

// Year returns the year of the first operation.
func (s *Summary) Year() int { return s.year }

// Budget returns the current budget, nil when none was set.
func (s *Summary) Budget() *models.Budget {
	if s.budget == nil {
		return nil
	}
	b := *s.budget
	return &b
}

// Stats totals the ledger. Savings debits are left out of TotalDebit unless
// includeSavings is set.
func (s *Summary) Stats(includeSavings bool) (models.Stats, Outcome) {
	if len(s.ledger) == 0 {
		s.opts.Log.Warn("no statistics for an empty ledger")
		return models.Stats{}, Outcome{Reason: ReasonEmptyLedger}
	}

	var debit, credit, savings decimal.Decimal
	for _, tx := range s.ledger {
		credit = credit.Add(decimal.NewFromFloat(tx.Credit))
		d := decimal.NewFromFloat(tx.Debit)
		if tx.Category == models.Epargne {
			savings = savings.Add(d)
			if !includeSavings {
				continue
			}
		}
		debit = debit.Add(d)
	}
	balance := credit.Sub(debit)

	stats := models.Stats{
		TotalDebit:   debit.InexactFloat64(),
		TotalCredit:  credit.InexactFloat64(),
		TotalBalance: balance.InexactFloat64(),
	}
	if !credit.IsZero() {
		stats.SavingRate = savings.Add(balance).Div(credit).InexactFloat64()
	}
	return stats, Outcome{Applied: true}
}

// AddMonthlyBudget sets the budget. A nil amount means BaseBudget plus
// DailyBudget per day of the statement period, which must then be known.
func (s *Summary) AddMonthlyBudget(amount *float64) (models.Budget, error) {
	var value float64
	if amount != nil {
		value = *amount
	} else {
		if s.period.IsZero() {
			return models.Budget{}, fmt.Errorf("%w: automatic budget needs the statement period", models.ErrBudgetPrecondition)
		}
		value = BaseBudget + DailyBudget*float64(s.period.Days())
	}
	s.budget = &models.Budget{Amount: value}
	s.budget.Remaining = s.remaining()
	s.opts.Log.Info("budget set", "amount", value, "remaining", s.budget.Remaining)
	return *s.budget, nil
}

// ComputeRemainingBudget returns the budget minus the debits, savings
// excluded, and stores it on the budget.
func (s *Summary) ComputeRemainingBudget() (float64, error) {
	if s.budget == nil {
		return 0, fmt.Errorf("%w: no budget set", models.ErrBudgetPrecondition)
	}
	s.budget.Remaining = s.remaining()
	return s.budget.Remaining, nil
}

func (s *Summary) remaining() float64 {
	remaining := decimal.NewFromFloat(s.budget.Amount)
	for _, tx := range s.ledger {
		if tx.Category == models.Epargne {
			continue
		}
		remaining = remaining.Sub(decimal.NewFromFloat(tx.Debit))
	}
	return remaining.InexactFloat64()
}

// Report assembles the worksheet input for the report writers.
func (s *Summary) Report() report.Sheet {
	stats, _ := s.Stats(s.opts.IncludeSavings)
	return report.Sheet{
		Source:       filepath.Base(s.input),
		Month:        s.month,
		Year:         s.year,
		Period:       s.period,
		Transactions: s.Transactions(),
		Budget:       s.Budget(),
		Stats:        stats,
		Categories:   models.Categories(),
	}
}

func euros(v float64) string {
	return money.NewFromFloat(v, money.EUR).Display()
}

// String renders a console summary.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d operations", filepath.Base(s.input), len(s.ledger))
	if s.month != 0 {
		fmt.Fprintf(&b, " for %02d/%d", s.month, s.year)
	}
	if !s.period.IsZero() {
		fmt.Fprintf(&b, " (%s to %s)", s.period.Start.Format("02/01/2006"), s.period.End.Format("02/01/2006"))
	}
	b.WriteString("\n")

	if stats, out := s.Stats(s.opts.IncludeSavings); out.Applied {
		fmt.Fprintf(&b, "  debit    %s\n", euros(stats.TotalDebit))
		fmt.Fprintf(&b, "  credit   %s\n", euros(stats.TotalCredit))
		fmt.Fprintf(&b, "  balance  %s\n", euros(stats.TotalBalance))
		fmt.Fprintf(&b, "  saving rate %.1f%%\n", stats.SavingRate*100)
	}
	if s.budget != nil {
		fmt.Fprintf(&b, "  budget   %s, remaining %s\n", euros(s.budget.Amount), euros(s.budget.Remaining))
	}
	return b.String()
}
