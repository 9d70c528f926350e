package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// Column is a half-open rune range [Start, End) of a fixed-width line. An End
// of -1 extends to the end of the line.
type Column struct {
	Start int
	End   int
}

// ColumnSchema slices fixed-width operation lines. It is resolved from the
// header line of each page since the extractor does not keep offsets stable
// between pages.
type ColumnSchema struct {
	Date          Column
	Description   Column
	ValueDate     Column
	Amount        Column
	// Lines no longer than ContinuationWidth runes continue the previous
	// description.
	ContinuationWidth int
	// Lines shorter than CreditThreshold runes carry a debit, longer ones a
	// credit.
	CreditThreshold int
}

// Header-relative shifts observed on BNP statements: cells start two
// columns left of their header, the value date is ten runes wide and amounts
// are right-aligned so a debit line ends well before the credit header.
const (
	cellShift       = 2
	valueDateWidth  = 10
	creditTolerance = 4
)

// ResolveSchema locates the column headers in header and derives the slicing
// schema from their rune offsets.
func ResolveSchema(header string, l Layout) (ColumnSchema, error) {
	desc := runeIndex(header, l.DescriptionHeader)
	value := runeIndex(header, l.ValueDateHeader)
	debit := runeIndex(header, l.DebitHeader)
	credit := runeIndex(header, l.CreditHeader)

	var missing []string
	for _, h := range []struct {
		name string
		idx  int
	}{
		{l.DescriptionHeader, desc},
		{l.ValueDateHeader, value},
		{l.DebitHeader, debit},
		{l.CreditHeader, credit},
	} {
		if h.idx < 0 {
			missing = append(missing, h.name)
		}
	}
	if len(missing) > 0 {
		return ColumnSchema{}, fmt.Errorf("%w: column header missing %s in %q",
			models.ErrLayoutParse, strings.Join(missing, ", "), strings.TrimSpace(header))
	}
	if desc < cellShift || value <= desc {
		return ColumnSchema{}, fmt.Errorf("%w: unexpected column order in %q",
			models.ErrLayoutParse, strings.TrimSpace(header))
	}

	return ColumnSchema{
		Date:              Column{0, desc - cellShift},
		Description:       Column{desc - cellShift, value - cellShift},
		ValueDate:         Column{value - cellShift, value + valueDateWidth},
		Amount:            Column{value + valueDateWidth, -1},
		ContinuationWidth: value,
		CreditThreshold:   credit - creditTolerance,
	}, nil
}

// Slice returns the trimmed content of column c in line.
func (s ColumnSchema) Slice(line []rune, c Column) string {
	start, end := c.Start, c.End
	if end < 0 || end > len(line) {
		end = len(line)
	}
	if start >= end {
		return ""
	}
	return strings.TrimSpace(string(line[start:end]))
}

// IsContinuation reports whether line wraps the previous description.
func (s ColumnSchema) IsContinuation(line string) bool {
	return utf8.RuneCountInString(line) <= s.ContinuationWidth
}

// IsDebit reports whether the amount of line sits in the debit column.
func (s ColumnSchema) IsDebit(line string) bool {
	return utf8.RuneCountInString(line) < s.CreditThreshold
}

// runeIndex is strings.Index counted in runes.
func runeIndex(s, substr string) int {
	i := strings.Index(s, substr)
	if i < 0 {
		return -1
	}
	return utf8.RuneCountInString(s[:i])
}
