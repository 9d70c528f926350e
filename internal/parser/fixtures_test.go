package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// Column positions of the fixed-width fixtures, as laid out by the
// extraction service on BNP statements.
const (
	colDate   = 0
	colDesc   = 12
	colValue  = 52
	colDebit  = 68
	colCredit = 84

	debitEnd  = 74
	creditEnd = 90
)

type cell struct {
	at   int
	text string
}

// fixedLine renders cells at exact rune offsets.
func fixedLine(cells ...cell) string {
	var b strings.Builder
	width := 0
	for _, c := range cells {
		for width < c.at {
			b.WriteByte(' ')
			width++
		}
		b.WriteString(c.text)
		width += utf8.RuneCountInString(c.text)
	}
	return b.String()
}

func headerLine() string {
	return fixedLine(
		cell{colDate, "Date"},
		cell{colDesc, "Nature des opérations"},
		cell{colValue, "Valeur"},
		cell{colDebit, "Débit"},
		cell{colCredit, "Crédit"},
	)
}

func debitLine(date, desc, value, amount string) string {
	return fixedLine(cell{colDate, date}, cell{colDesc, desc}, cell{colValue, value},
		cell{debitEnd - utf8.RuneCountInString(amount), amount})
}

func creditLine(date, desc, value, amount string) string {
	return fixedLine(cell{colDate, date}, cell{colDesc, desc}, cell{colValue, value},
		cell{creditEnd - utf8.RuneCountInString(amount), amount})
}

func wrapLine(text string) string {
	return fixedLine(cell{colDesc, text})
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n")
}

// twoPageStatement is a March 2024 statement: three operations on the first
// page, one of them wrapped, and one more on the closing page.
func twoPageStatement() []models.Page {
	first := lines(
		"BNP PARIBAS",
		"M. JEAN DUPONT",
		"RELEVE DE COMPTE CHEQUES du 05 mars au 05 avril 2024",
		"Compte de chèques n° 00012345678",
		"Monnaie du compte : Euro",
		headerLine(),
		fixedLine(cell{colDesc, "SOLDE CREDITEUR AU 05.03.2024"}, cell{colCredit, "1 500,00"}),
		debitLine("06.03", "PRLV SEPA FREE MOBILE", "06.03", "19,99"),
		wrapLine("ECHEANCE 060324"),
		creditLine("08.03", "VIR SEPA RECU SALAIRE", "08.03", "2 500,00"),
		debitLine("10.03", "CB CARREFOUR CITY PARIS", "10.03", "85,40"),
		"",
		"BNP PARIBAS SA au capital de 2.499.597.122 euros",
	)
	second := lines(
		"BNP PARIBAS",
		"RELEVE DE COMPTE CHEQUES du 05 mars au 05 avril 2024",
		"",
		"RIB : 30004 00123 00012345678 42",
		headerLine(),
		debitLine("04.04", "CB SNCF INTERNET", "04.04", "1 042,00"),
		fixedLine(cell{colDesc, "TOTAL DES OPERATIONS"}, cell{colDebit, "1 147,39"}, cell{colCredit, "2 500,00"}),
		fixedLine(cell{colDesc, "SOLDE CREDITEUR AU 05.04.2024"}, cell{colCredit, "2 852,61"}),
		"",
		"BNP PARIBAS SA au capital de 2.499.597.122 euros",
	)
	return []models.Page{{Number: 1, Text: first}, {Number: 2, Text: second}}
}

func markdownStatement() []models.Page {
	first := lines(
		"# BNP PARIBAS",
		"RELEVE DE COMPTE CHEQUES du 05 décembre au 05 janvier 2024",
		"SOLDE CREDITEUR AU 05.12.2023 1 000,00",
		"",
		"|Date|Nature des opérations|Valeur|Débit|Crédit|",
		"|---|---|---|---|---|",
		"|05.12|SOLDE CREDITEUR AU 05.12.2023|||1 000,00|",
		"|06.12|CB SNCF INTERNET|06.12|45,00||",
		"|28.12|PRLV SEPA EDF|28.12|62,10||",
		"",
		"BNP PARIBAS SA",
	)
	second := lines(
		"# Page 2",
		"SOLDE CREDITEUR AU 05.01.2024 2 992,90",
		"",
		"|Date|Nature des opérations|Valeur|Débit|Crédit|",
		"|---|---|---|---|---|",
		"| 02.01 | VIR SEPA RECU SALAIRE | 03.01 | | 2 100,00 |",
		"|TOTAL DES OPERATIONS|||107,10|2 100,00|",
		"|SOLDE CREDITEUR AU 05.01.2024||||2 992,90|",
	)
	return []models.Page{{Number: 1, Text: first}, {Number: 2, Text: second}}
}
