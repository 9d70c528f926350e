package parser

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// trailerRows is the number of summary rows closing the markdown table that
// are not operations.
const trailerRows = 2

// MarkdownParser reads statements extracted as markdown, where the
// operations table is pipe-delimited.
type MarkdownParser struct {
	opts Options
}

func (p *MarkdownParser) Format() models.Format { return models.FormatMarkdown }

// Parse implements Parser.
func (p *MarkdownParser) Parse(pages []models.Page) (*Result, error) {
	res := &Result{Format: models.FormatMarkdown, StartYear: DefaultStartYear}
	if len(pages) == 0 {
		return res, nil
	}
	l := p.opts.Layout
	log := p.opts.Guard.Log

	year, err := readStartYear(p.opts, pages[0])
	if err != nil {
		return nil, err
	}
	res.StartYear = year

	var rows []models.RawRow
	for i, page := range pages {
		date, found, err := l.firstBalance(strings.Split(page.Text, "\n"))
		if err != nil {
			if herr := p.opts.Guard.Handle(&models.PageError{Page: page.Number, Err: err}, "page skipped", "page", page.Number); herr != nil {
				return nil, herr
			}
			continue
		}
		if found {
			if i == 0 {
				res.Period.Start = date
				res.Period.End = date.AddDate(0, 1, 0)
			} else {
				res.Period.End = date
			}
		}

		pageRows, err := p.parseTable(page)
		if err != nil {
			if herr := p.opts.Guard.Handle(err, "page skipped", "page", page.Number); herr != nil {
				return nil, herr
			}
			continue
		}
		log.Info("page parsed", "page", page.Number, "operations", len(pageRows))
		rows = append(rows, pageRows...)
	}

	if len(rows) > trailerRows {
		rows = rows[:len(rows)-trailerRows]
	} else {
		rows = nil
	}
	if len(rows) > 0 && l.isBalanceLine(rows[0].Description) {
		rows = rows[1:]
	}

	res.Rows = rows
	log.Info("document parsed", "mode", models.FormatMarkdown, "operations", len(rows))
	return res, nil
}

// parseTable reads the operations following the last table separator of a
// page, up to the first blank line.
func (p *MarkdownParser) parseTable(page models.Page) ([]models.RawRow, error) {
	sep := p.opts.Layout.TableSeparator
	idx := strings.LastIndex(page.Text, sep)
	if idx < 0 {
		return nil, &models.PageError{Page: page.Number, Err: fmt.Errorf("%w: table separator not found", models.ErrLayoutParse)}
	}
	block, _, _ := strings.Cut(page.Text[idx+len(sep):], "\n\n")

	var rows []models.RawRow
	for _, line := range strings.Split(block, "\n") {
		fields := strings.Split(strings.TrimRight(line, "\r"), "|")
		if len(fields) < 6 {
			continue
		}
		cells := fields[1:6]
		for j := range cells {
			cells[j] = strings.TrimSpace(cells[j])
		}
		if cells[0] == "" {
			continue
		}
		rows = append(rows, models.RawRow{
			Date:          cells[0],
			Description:   cells[1],
			OperationDate: cells[2],
			Debit:         cells[3],
			Credit:        cells[4],
			Page:          page.Number,
		})
	}
	return rows, nil
}
