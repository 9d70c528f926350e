package parser

import (
	"fmt"

	"github.com/insightdelivered/bnp-ledger/internal/logging"
	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// Parser turns extracted page text into raw statement rows.
type Parser interface {
	// Parse takes the text of every statement page, in order, and returns
	// the operations table along with the statement period.
	Parse(pages []models.Page) (*Result, error)
	// Format returns the page-text format the parser understands.
	Format() models.Format
}

// Result is the output of a parse pass.
type Result struct {
	Rows      []models.RawRow
	Period    models.StatementPeriod
	StartYear int
	Format    models.Format
}

// Options are shared by both parsing strategies.
type Options struct {
	Layout Layout
	Guard  logging.Guard
}

// New returns the parser for the given extraction format.
func New(format models.Format, opts Options) (Parser, error) {
	if opts.Layout.StatementHeader == "" {
		opts.Layout = DefaultLayout()
	}
	if opts.Guard.Log == nil {
		opts.Guard.Log = logging.Nop()
	}

	switch format {
	case models.FormatText:
		return &TextParser{opts: opts}, nil
	case models.FormatMarkdown:
		return &MarkdownParser{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unsupported page format: %q", format)
	}
}

// readStartYear applies the error regime to start-year extraction, falling
// back to DefaultStartYear when tolerated.
func readStartYear(opts Options, page models.Page) (int, error) {
	year, err := opts.Layout.StartYear(page.Text)
	if err == nil {
		return year, nil
	}
	err = &models.PageError{Page: page.Number, Err: err}
	if herr := opts.Guard.Handle(err, "could not read the start year", "page", page.Number, "default", DefaultStartYear); herr != nil {
		return 0, herr
	}
	return DefaultStartYear, nil
}
