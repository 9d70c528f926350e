package report

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// Worksheet layout.
const (
	headerRow     = 5
	firstDataRow  = 6
	debitBlockRow = 2
	creditBlock   = 15
	savingRateRow = 27
	debitChartAt  = "M2"
	creditChartAt = "M18"
	defaultSheet  = "Sheet1"
)

var columnWidths = []struct {
	col   string
	width float64
}{
	{"A", 17}, {"B", 30}, {"C", 20}, {"D", 15}, {"E", 15}, {"F", 15},
	{"H", 30}, {"I", 15}, {"J", 15},
}

// ExcelWriter renders sheets into an xlsx workbook, one worksheet per
// statement month. A worksheet with the same name is replaced; other
// worksheets of an existing workbook are kept.
type ExcelWriter struct{}

type styles struct {
	title, label, header, date, dateAlt, cell, cellAlt, total, percent int
	negative, positive                                                 int
}

// WriteToFile adds the sheets to the workbook at path, creating it when
// missing.
func (w *ExcelWriter) WriteToFile(path string, sheets ...Sheet) error {
	f, err := excelize.OpenFile(path)
	created := false
	if errors.Is(err, fs.ErrNotExist) {
		f, err = excelize.NewFile(), nil
		created = true
	}
	if err != nil {
		return fmt.Errorf("failed to open workbook %q: %w", path, err)
	}
	defer f.Close()

	if err := w.render(f, created, sheets); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %q: %w", path, err)
	}
	return nil
}

// Bytes renders the sheets into a new workbook.
func (w *ExcelWriter) Bytes(sheets ...Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := w.render(f, true, sheets); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *ExcelWriter) render(f *excelize.File, created bool, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheet to write")
	}
	st, err := newStyles(f)
	if err != nil {
		return err
	}
	for _, s := range sheets {
		if err := writeSheet(f, st, s); err != nil {
			return fmt.Errorf("sheet %s: %w", s.Name(), err)
		}
	}
	if created && sheets[0].Name() != defaultSheet {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return err
		}
	}
	idx, err := f.GetSheetIndex(sheets[len(sheets)-1].Name())
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	thin := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
	}
	dateFmt := "dd/mm/yyyy"

	defs := []struct {
		id    *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 20}}},
		{&st.label, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&st.header, &excelize.Style{
			Font:   &excelize.Font{Bold: true, Size: 16, Color: "FFFFFF"},
			Fill:   fill("000000"),
			Border: thin,
		}},
		{&st.date, &excelize.Style{CustomNumFmt: &dateFmt, Fill: fill("F0F0F0"), Border: thin}},
		{&st.dateAlt, &excelize.Style{CustomNumFmt: &dateFmt, Fill: fill("D3D3D3"), Border: thin}},
		{&st.cell, &excelize.Style{Fill: fill("F0F0F0"), Border: thin}},
		{&st.cellAlt, &excelize.Style{Fill: fill("D3D3D3"), Border: thin}},
		{&st.total, &excelize.Style{Font: &excelize.Font{Bold: true}, Border: thin}},
		{&st.percent, &excelize.Style{NumFmt: 10}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return st, fmt.Errorf("failed to create style: %w", err)
		}
		*d.id = id
	}

	var err error
	if st.negative, err = f.NewConditionalStyle(&excelize.Style{Fill: fill("FF0000")}); err != nil {
		return st, err
	}
	if st.positive, err = f.NewConditionalStyle(&excelize.Style{Fill: fill("00FF00")}); err != nil {
		return st, err
	}
	return st, nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func writeSheet(f *excelize.File, st styles, s Sheet) error {
	name := s.Name()
	// excelize never deletes the last worksheet, so a stale one is renamed
	// first and dropped once its replacement exists.
	stale := ""
	if idx, err := f.GetSheetIndex(name); err == nil && idx >= 0 {
		stale = name + "_old"
		if err := f.SetSheetName(name, stale); err != nil {
			return err
		}
	}
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	if stale != "" {
		if err := f.DeleteSheet(stale); err != nil {
			return err
		}
	}

	// The writes below only fail on invalid cell references, which are
	// all built from constants; the first error is kept.
	var firstErr error
	check := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	set := func(ref string, v interface{}) { check(f.SetCellValue(name, ref, v)) }
	formula := func(ref, expr string) { check(f.SetCellFormula(name, ref, expr)) }
	style := func(from, to string, id int) { check(f.SetCellStyle(name, from, to, id)) }

	set("A1", s.Title())
	style("A1", "A1", st.title)
	check(f.SetRowHeight(name, 1, 30))

	set("A2", "Budget:")
	set("A3", "Remaining budget:")
	style("A2", "A3", st.label)
	if s.Budget != nil {
		set("B2", s.Budget.Amount)
		set("B3", s.Budget.Remaining)
		neg, pos := st.negative, st.positive
		check(f.SetConditionalFormat(name, "B3", []excelize.ConditionalFormatOptions{
			{Type: "cell", Criteria: "<", Format: &neg, Value: "0"},
			{Type: "cell", Criteria: ">=", Format: &pos, Value: "0"},
		}))
	}

	for i, h := range header {
		ref, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		set(ref, h)
	}
	style(cell("A", headerRow), cell("F", headerRow), st.header)

	row := firstDataRow
	for i, tx := range s.Transactions {
		set(cell("A", row), tx.Date)
		set(cell("B", row), tx.Description)
		set(cell("C", row), tx.OperationDate)
		set(cell("D", row), tx.Debit)
		set(cell("E", row), tx.Credit)
		set(cell("F", row), tx.Category.String())

		dateStyle, cellStyle := st.date, st.cell
		if i%2 == 1 {
			dateStyle, cellStyle = st.dateAlt, st.cellAlt
		}
		style(cell("A", row), cell("A", row), dateStyle)
		style(cell("B", row), cell("B", row), cellStyle)
		style(cell("C", row), cell("C", row), dateStyle)
		style(cell("D", row), cell("F", row), cellStyle)
		row++
	}

	set(cell("B", row), "Total")
	if row > firstDataRow {
		formula(cell("D", row), fmt.Sprintf("SUM(D%d:D%d)", firstDataRow, row-1))
		formula(cell("E", row), fmt.Sprintf("SUM(E%d:E%d)", firstDataRow, row-1))
	} else {
		set(cell("D", row), 0)
		set(cell("E", row), 0)
	}
	style(cell("A", row), cell("F", row), st.total)

	for _, w := range columnWidths {
		check(f.SetColWidth(name, w.col, w.col, w.width))
	}

	categories := s.Categories
	if len(categories) == 0 {
		categories = models.Categories()
	}
	for i, c := range categories {
		r := debitBlockRow + i
		set(cell("H", r), fmt.Sprintf("Débit %s (€)", c))
		sum := fmt.Sprintf(`SUMIF(F:F,"%s",D:D)`, c)
		if c == models.Epargne {
			// Savings stay out of the spending chart.
			set(cell("I", r), 0)
			formula(cell("J", r), sum)
		} else {
			formula(cell("I", r), sum)
		}

		r = creditBlock + i
		set(cell("H", r), fmt.Sprintf("Crédit %s (€)", c))
		formula(cell("I", r), fmt.Sprintf(`SUMIF(F:F,"%s",E:E)`, c))
	}

	set(cell("H", savingRateRow), "Saving rate")
	style(cell("H", savingRateRow), cell("H", savingRateRow), st.label)
	set(cell("I", savingRateRow), s.Stats.SavingRate)
	style(cell("I", savingRateRow), cell("I", savingRateRow), st.percent)

	last := len(categories) - 1
	check(addPie(f, name, debitChartAt, "Débits par catégorie", debitBlockRow, debitBlockRow+last))
	check(addPie(f, name, creditChartAt, "Crédits par catégorie", creditBlock, creditBlock+last))

	return firstErr
}

func addPie(f *excelize.File, sheet, at, title string, from, to int) error {
	ref := func(col string) string {
		return fmt.Sprintf("'%s'!$%s$%d:$%s$%d", sheet, col, from, col, to)
	}
	return f.AddChart(sheet, at, &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       title,
			Categories: ref("H"),
			Values:     ref("I"),
		}},
		Title:    []excelize.RichTextRun{{Text: title}},
		Legend:   excelize.ChartLegend{Position: "right"},
		PlotArea: excelize.ChartPlotArea{ShowPercent: true},
		Format:   excelize.GraphicOptions{OffsetX: 15, OffsetY: 10},
	})
}
