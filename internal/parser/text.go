package parser

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// TextParser reads statements extracted as fixed-width text, where columns
// are only recoverable from character offsets.
type TextParser struct {
	opts Options
}

func (p *TextParser) Format() models.Format { return models.FormatText }

// Parse implements Parser.
func (p *TextParser) Parse(pages []models.Page) (*Result, error) {
	res := &Result{Format: models.FormatText, StartYear: DefaultStartYear}
	if len(pages) == 0 {
		return res, nil
	}
	log := p.opts.Guard.Log

	// The period header is read from the first page even when it carries no
	// operations table.
	year, err := readStartYear(p.opts, pages[0])
	if err != nil {
		return nil, err
	}
	res.StartYear = year

	for i, page := range pages {
		if !p.opts.Layout.hasOperations(page.Text) {
			log.Info("no operations on page", "page", page.Number)
			continue
		}

		var (
			lines []string
			err   error
		)
		if i == 0 {
			lines, err = p.stripFirstPage(page, res)
		} else {
			lines, err = p.stripContinuationPage(page, res)
		}
		if err != nil {
			if herr := p.opts.Guard.Handle(err, "page skipped", "page", page.Number); herr != nil {
				return nil, herr
			}
			continue
		}

		rows, err := p.parseTable(page.Number, lines)
		if err != nil {
			return nil, err
		}
		log.Info("page parsed", "page", page.Number, "operations", len(rows))
		res.Rows = append(res.Rows, rows...)
	}

	log.Info("document parsed", "mode", models.FormatText, "operations", len(res.Rows))
	return res, nil
}

// stripFirstPage reads the opening balance date from the first page and
// returns the lines of its operations table, header line first.
func (p *TextParser) stripFirstPage(page models.Page, res *Result) ([]string, error) {
	l := p.opts.Layout
	text := page.Text

	start, found, err := l.firstBalance(strings.Split(text, "\n"))
	if !found {
		err = fmt.Errorf("%w: opening balance not found", models.ErrLayoutParse)
	}
	if err != nil {
		if herr := p.opts.Guard.Handle(&models.PageError{Page: page.Number, Err: err}, "could not read the start date"); herr != nil {
			return nil, herr
		}
	} else {
		res.Period.Start = start
	}

	if text, err = p.cutAtClosingTotal(page, res); err != nil {
		return nil, err
	}
	if !strings.Contains(page.Text, l.ClosingTotal) {
		text, _, _ = strings.Cut(text, l.Footer)
	}

	_, table, ok := strings.Cut(text, l.Currency)
	if !ok {
		return nil, &models.PageError{Page: page.Number, Err: fmt.Errorf("%w: currency declaration %q not found", models.ErrLayoutParse, l.Currency)}
	}
	return nonEmptyLines(table), nil
}

// stripContinuationPage returns the operations table of any page after the
// first one.
func (p *TextParser) stripContinuationPage(page models.Page, res *Result) ([]string, error) {
	l := p.opts.Layout

	var text string
	if strings.Contains(page.Text, l.ClosingTotal) {
		var err error
		if text, err = p.cutAtClosingTotal(page, res); err != nil {
			return nil, err
		}
	} else {
		blocks := strings.Split(page.Text, "\n\n")
		if len(blocks) < 2 {
			return nil, &models.PageError{Page: page.Number, Err: fmt.Errorf("%w: operations block not found", models.ErrLayoutParse)}
		}
		text = blocks[len(blocks)-2]
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if l.isRoutingLine(line) {
			lines = lines[i+1:]
			break
		}
	}
	return nonEmptyLines(strings.Join(lines, "\n")), nil
}

// cutAtClosingTotal reads the closing balance when the page ends the
// statement and returns the text above the closing-total marker. Pages
// without the marker are returned unchanged.
func (p *TextParser) cutAtClosingTotal(page models.Page, res *Result) (string, error) {
	l := p.opts.Layout
	before, _, found := strings.Cut(page.Text, l.ClosingTotal)
	if !found {
		return page.Text, nil
	}

	end, ok, err := l.lastBalance(strings.Split(page.Text, "\n"))
	if !ok {
		err = fmt.Errorf("%w: closing balance not found", models.ErrLayoutParse)
	}
	if err != nil {
		if herr := p.opts.Guard.Handle(&models.PageError{Page: page.Number, Err: err}, "could not read the end date"); herr != nil {
			return "", herr
		}
	} else {
		res.Period.End = end
	}
	return before, nil
}

// parseTable slices the operation lines of one page. The first line is the
// column header the schema is resolved from.
func (p *TextParser) parseTable(pageNum int, lines []string) ([]models.RawRow, error) {
	if len(lines) == 0 {
		err := &models.PageError{Page: pageNum, Err: fmt.Errorf("%w: empty operations table", models.ErrLayoutParse)}
		return nil, p.opts.Guard.Handle(err, "page skipped", "page", pageNum)
	}

	schema, err := ResolveSchema(lines[0], p.opts.Layout)
	if err != nil {
		err = &models.PageError{Page: pageNum, Err: err}
		return nil, p.opts.Guard.Handle(err, "page skipped", "page", pageNum)
	}

	var rows []models.RawRow
	for n, line := range lines[1:] {
		if p.opts.Layout.isBalanceLine(line) {
			continue
		}

		if schema.IsContinuation(line) {
			if len(rows) == 0 {
				err := &models.PageError{Page: pageNum, Err: fmt.Errorf("%w: line %d continues no operation: %q",
					models.ErrLayoutParse, n+2, strings.TrimSpace(line))}
				if herr := p.opts.Guard.Handle(err, "line skipped", "page", pageNum); herr != nil {
					return nil, herr
				}
				continue
			}
			last := &rows[len(rows)-1]
			last.Description = strings.TrimSpace(last.Description + " " + strings.TrimSpace(line))
			continue
		}

		runes := []rune(line)
		row := models.RawRow{
			Date:          schema.Slice(runes, schema.Date),
			Description:   schema.Slice(runes, schema.Description),
			OperationDate: schema.Slice(runes, schema.ValueDate),
			Page:          pageNum,
		}
		amount := strings.ReplaceAll(schema.Slice(runes, schema.Amount), " ", "")
		if schema.IsDebit(line) {
			row.Debit = amount
		} else {
			row.Credit = amount
		}
		rows = append(rows, row)
	}
	return rows, nil
}
