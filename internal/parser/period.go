package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// DefaultStartYear is used when the statement header cannot be read and
// errors are tolerated.
const DefaultStartYear = 2000

const balanceDateLayout = "02.01.2006"

var (
	// "du 05 mars au 05 avril 2024", "du 01.03.2024 au 01.04.2024"
	periodRange = regexp.MustCompile(`\bdu\s+(.+?)\s+au\s+(.+)$`)
	trailingYear = regexp.MustCompile(`(\d{4})\s*$`)
	anyYear      = regexp.MustCompile(`\b(\d{4})\b`)
	numericMonth = regexp.MustCompile(`\d{1,2}[./](\d{1,2})`)
	balanceDate  = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
)

// headerLine returns the statement period line of a page.
func (l Layout) headerLine(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, l.StatementHeader) {
			return line, true
		}
	}
	return "", false
}

// StartYear reads the year the statement period starts in from the
// statement header of the first page. When the start of the range carries no
// year, the year of the range end is used, minus one if the range wraps
// around New Year.
func (l Layout) StartYear(text string) (int, error) {
	line, ok := l.headerLine(text)
	if !ok {
		return 0, fmt.Errorf("%w: statement header %q not found", models.ErrLayoutParse, l.StatementHeader)
	}

	m := periodRange.FindStringSubmatch(line)
	if m == nil {
		if y := anyYear.FindAllString(line, -1); len(y) > 0 {
			return strconv.Atoi(y[len(y)-1])
		}
		return 0, fmt.Errorf("%w: no period in header %q", models.ErrLayoutParse, strings.TrimSpace(line))
	}

	from, to := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	if y := trailingYear.FindStringSubmatch(from); y != nil {
		return strconv.Atoi(y[1])
	}

	years := anyYear.FindAllString(to, -1)
	if len(years) == 0 {
		return 0, fmt.Errorf("%w: no year in header %q", models.ErrLayoutParse, strings.TrimSpace(line))
	}
	year, err := strconv.Atoi(years[len(years)-1])
	if err != nil {
		return 0, err
	}

	startMonth, okFrom := l.month(from)
	endMonth, okTo := l.month(to)
	if okFrom && okTo && startMonth > endMonth {
		year--
	}
	return year, nil
}

// month finds a month, spelled out or numeric, in a date fragment.
func (l Layout) month(fragment string) (time.Month, bool) {
	for _, word := range strings.Fields(strings.ToLower(fragment)) {
		if m, ok := l.Months[strings.Trim(word, ".,")]; ok {
			return m, true
		}
	}
	if m := numericMonth.FindStringSubmatch(fragment); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= 12 {
			return time.Month(n), true
		}
	}
	return 0, false
}

// BalanceDate reads the dd.mm.yyyy date of an opening or closing balance line.
func (l Layout) BalanceDate(line string) (time.Time, error) {
	rest := line
	for _, marker := range l.BalanceMarkers {
		if i := strings.Index(line, marker); i >= 0 {
			rest = line[i+len(marker):]
			break
		}
	}
	raw := balanceDate.FindString(rest)
	if raw == "" {
		return time.Time{}, &models.FieldError{Kind: models.ErrDateFormat, Field: "balance date", Value: strings.TrimSpace(line)}
	}
	t, err := time.Parse(balanceDateLayout, raw)
	if err != nil {
		return time.Time{}, &models.FieldError{Kind: models.ErrDateFormat, Field: "balance date", Value: raw, Err: err}
	}
	return t, nil
}

// firstBalance returns the date of the first balance line of lines.
func (l Layout) firstBalance(lines []string) (time.Time, bool, error) {
	for _, line := range lines {
		if l.isBalanceLine(line) {
			t, err := l.BalanceDate(line)
			return t, true, err
		}
	}
	return time.Time{}, false, nil
}

// lastBalance scans lines from the bottom for the closing balance.
func (l Layout) lastBalance(lines []string) (time.Time, bool, error) {
	for i := len(lines) - 1; i >= 0; i-- {
		if l.isBalanceLine(lines[i]) {
			t, err := l.BalanceDate(lines[i])
			return t, true, err
		}
	}
	return time.Time{}, false, nil
}
