package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/bnp-ledger/internal/models"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func marchSheet() Sheet {
	return Sheet{
		Source: "releve_mars.pdf",
		Month:  3,
		Year:   2024,
		Period: models.StatementPeriod{Start: day(time.March, 5), End: day(time.April, 5)},
		Transactions: []models.Transaction{
			{Date: day(time.March, 6), Description: "PRLV SEPA FREE MOBILE", OperationDate: day(time.March, 6), Debit: 19.99, Category: models.Logement},
			{Date: day(time.March, 8), Description: "VIR SEPA RECU SALAIRE", OperationDate: day(time.March, 8), Credit: 2500, Category: models.Salaire},
			{Date: day(time.March, 10), Description: "VIR LIVRET A", OperationDate: day(time.March, 10), Debit: 300, Category: models.Epargne},
		},
		Budget:     &models.Budget{Amount: 305, Remaining: 285.01},
		Stats:      models.Stats{TotalDebit: 19.99, TotalCredit: 2500, TotalBalance: 2480.01, SavingRate: 1.1120},
		Categories: models.Categories(),
	}
}

func TestSheetNames(t *testing.T) {
	s := marchSheet()
	assert.Equal(t, "Mars_2024", s.Name())
	assert.Equal(t, "Comptes pour le mois de Mars 2024 (du 05/03/2024 au 05/04/2024)", s.Title())

	assert.Equal(t, "Décembre", MonthName(12))
	assert.Equal(t, "", MonthName(0))
	assert.Equal(t, "Releve", Sheet{}.Name())
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true}
	require.NoError(t, w.Write(&buf, marchSheet()))

	output := buf.String()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	// 5 metadata lines + 1 header + 3 transactions
	require.Len(t, lines, 9)
	assert.Equal(t, "# Source,releve_mars.pdf", lines[0])
	assert.Equal(t, "# Month,Mars 2024", lines[1])
	assert.Equal(t, "Date,Description,Operation Date,Debit (€),Credit (€),Category", lines[5])
	assert.Equal(t, "06/03/2024,PRLV SEPA FREE MOBILE,06/03/2024,19.99,,Logement", lines[6])
	assert.Equal(t, "08/03/2024,VIR SEPA RECU SALAIRE,08/03/2024,,2500.00,Salaire", lines[7])
}

func TestCSVWriter_NoMetadata(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&CSVWriter{}).Write(&buf, Sheet{}))
	assert.Equal(t, "Date,Description,Operation Date,Debit (€),Credit (€),Category\n", buf.String())
}

func TestExcelWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comptes.xlsx")
	w := &ExcelWriter{}
	require.NoError(t, w.WriteToFile(path, marchSheet()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Mars_2024"}, f.GetSheetList())
	const sheet = "Mars_2024"

	get := func(ref string) string {
		v, err := f.GetCellValue(sheet, ref)
		require.NoError(t, err)
		return v
	}
	formula := func(ref string) string {
		v, err := f.GetCellFormula(sheet, ref)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Comptes pour le mois de Mars 2024 (du 05/03/2024 au 05/04/2024)", get("A1"))
	assert.Equal(t, "305", get("B2"))
	assert.Equal(t, "Date", get("A5"))
	assert.Equal(t, "Category", get("F5"))
	assert.Equal(t, "06/03/2024", get("A6"))
	assert.Equal(t, "PRLV SEPA FREE MOBILE", get("B6"))
	assert.Equal(t, "Epargne", get("F8"))
	assert.Equal(t, "Total", get("B9"))
	assert.Equal(t, "SUM(D6:D8)", formula("D9"))
	assert.Equal(t, "SUM(E6:E8)", formula("E9"))

	assert.Equal(t, "Débit Transports (€)", get("H2"))
	assert.Equal(t, `SUMIF(F:F,"Transports",D:D)`, formula("I2"))
	// Epargne is the ninth category.
	assert.Equal(t, "0", get("I10"))
	assert.Equal(t, `SUMIF(F:F,"Epargne",D:D)`, formula("J10"))
	assert.Equal(t, "Crédit Salaire (€)", get("H22"))
	assert.Equal(t, `SUMIF(F:F,"Salaire",E:E)`, formula("I22"))
	assert.Equal(t, "Saving rate", get("H27"))

	formats, err := f.GetConditionalFormats(sheet)
	require.NoError(t, err)
	assert.Contains(t, formats, "B3")
}

func TestExcelWriter_ReplacesSameMonth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comptes.xlsx")
	w := &ExcelWriter{}

	feb := marchSheet()
	feb.Month = 2
	require.NoError(t, w.WriteToFile(path, feb, marchSheet()))

	shorter := marchSheet()
	shorter.Transactions = shorter.Transactions[:1]
	require.NoError(t, w.WriteToFile(path, shorter))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Février_2024", "Mars_2024"}, f.GetSheetList())
	v, err := f.GetCellValue("Mars_2024", "B7")
	require.NoError(t, err)
	assert.Equal(t, "Total", v)
	v, err = f.GetCellValue("Février_2024", "B9")
	require.NoError(t, err)
	assert.Equal(t, "Total", v)
}

func TestExcelWriter_Bytes(t *testing.T) {
	data, err := (&ExcelWriter{}).Bytes(marchSheet())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Mars_2024"}, f.GetSheetList())

	_, err = (&ExcelWriter{}).Bytes()
	assert.Error(t, err)
}
