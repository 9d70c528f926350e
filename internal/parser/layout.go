package parser

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Layout holds the text markers of the BNP Paribas monthly statement. The
// defaults match the statements currently issued; a layout variant only
// needs a different Layout value.
type Layout struct {
	// StatementHeader marks the line declaring the statement period.
	StatementHeader string
	// BalanceMarkers prefix the opening and closing balance lines.
	BalanceMarkers []string
	// ClosingTotal marks the end of the operations table on the last page.
	ClosingTotal string
	// Footer is the legal footer printed at the bottom of every page.
	Footer string
	// Currency is the declaration line right above the first table.
	Currency string
	// RoutingCode marks the last boilerplate line of continuation pages.
	RoutingCode string

	DescriptionHeader string
	ValueDateHeader   string
	DebitHeader       string
	CreditHeader      string

	// TableSeparator is the markdown header separator of the operations table.
	TableSeparator string

	Months map[string]time.Month
}

// DefaultLayout returns the markers of BNP Paribas statements.
func DefaultLayout() Layout {
	return Layout{
		StatementHeader:   "RELEVE DE COMPTE",
		BalanceMarkers:    []string{"SOLDE CREDITEUR", "SOLDE DEBITEUR"},
		ClosingTotal:      "TOTAL DES OPERATIONS",
		Footer:            "BNP PARIBAS SA",
		Currency:          "Monnaie du compte : Euro",
		RoutingCode:       "RIB",
		DescriptionHeader: "Nature des opérations",
		ValueDateHeader:   "Valeur",
		DebitHeader:       "Débit",
		CreditHeader:      "Crédit",
		TableSeparator:    "|---|---|---|---|---|",
		Months:            FrenchMonths(),
	}
}

// FrenchMonths maps lower-case French month names, with and without
// accents, to their month.
func FrenchMonths() map[string]time.Month {
	return map[string]time.Month{
		"janvier":   time.January,
		"février":   time.February,
		"fevrier":   time.February,
		"mars":      time.March,
		"avril":     time.April,
		"mai":       time.May,
		"juin":      time.June,
		"juillet":   time.July,
		"août":      time.August,
		"aout":      time.August,
		"septembre": time.September,
		"octobre":   time.October,
		"novembre":  time.November,
		"décembre":  time.December,
		"decembre":  time.December,
	}
}

// hasOperations reports whether a page carries an operations table, i.e.
// both amount column headers are present.
func (l Layout) hasOperations(text string) bool {
	return strings.Contains(text, l.DebitHeader) && strings.Contains(text, l.CreditHeader)
}

// isRoutingLine matches the routing code as a leading token, so bank names
// such as "BNP PARIBAS" do not count.
func (l Layout) isRoutingLine(line string) bool {
	if l.RoutingCode == "" {
		return false
	}
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), l.RoutingCode)
	if !ok {
		return false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return rest == "" || !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func (l Layout) isBalanceLine(line string) bool {
	return containsAny(line, l.BalanceMarkers)
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

// nonEmptyLines splits text into lines and drops the blank ones.
func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
