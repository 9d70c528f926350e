package extractor

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/bnp-ledger/internal/logging"
	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// PDFExtractor reads the text layer of a PDF and lays every page out as
// fixed-width text, each glyph placed on a character grid from its X
// coordinate. When the library cannot decode the file it falls back to the
// external pdftotext command (poppler-utils) in layout mode.
type PDFExtractor struct {
	Log *logging.Logger
	// DisablePdftotext turns the poppler fallback off.
	DisablePdftotext bool
}

// Extract implements Extractor. Only the text format can be produced
// locally; markdown tables need the remote service.
func (e *PDFExtractor) Extract(ctx context.Context, path string, format models.Format) ([]models.Page, error) {
	if format != models.FormatText {
		return nil, extractionError(path, fmt.Errorf("local extraction cannot produce %q pages", format))
	}
	log := e.Log
	if log == nil {
		log = logging.Nop()
	}

	pages, libErr := extractLayout(path)
	if libErr == nil && isReadableText(pages) {
		log.Debug("text layer extracted", "path", path, "pages", len(pages))
		return pagesFromText(pages), nil
	}
	if e.DisablePdftotext {
		if libErr == nil {
			libErr = fmt.Errorf("no readable text layer")
		}
		return nil, extractionError(path, libErr)
	}
	log.Warn("text layer unreadable, trying pdftotext", "path", path, "err", libErr)

	popplerPages, popplerErr := extractWithPdftotext(ctx, path)
	if popplerErr == nil && isReadableText(popplerPages) {
		return pagesFromText(popplerPages), nil
	}

	if libErr != nil {
		return nil, extractionError(path, libErr)
	}
	if popplerErr != nil {
		return nil, extractionError(path, popplerErr)
	}
	return nil, extractionError(path, fmt.Errorf("no readable text; the file may be a scan"))
}

// extractLayout uses the ledongthuc/pdf library.
func extractLayout(filePath string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			// Keep page numbering aligned with the document.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, layoutPage(page.Content().Text))
	}
	return pages, nil
}

type glyph struct {
	x, y, w float64
	s       string
}

// blankLineRatio is the vertical gap, in line heights, above which an empty
// line separates two rows, like pdftotext -layout does between blocks.
const blankLineRatio = 1.8

// layoutPage rebuilds the rows of a page from positioned glyphs. Rows are
// glyphs sharing a rounded baseline; columns are X offsets divided by the
// median glyph advance.
func layoutPage(texts []pdf.Text) string {
	var glyphs []glyph
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		glyphs = append(glyphs, glyph{x: t.X, y: t.Y, w: t.W, s: t.S})
	}
	if len(glyphs) == 0 {
		return ""
	}

	charWidth := medianAdvance(glyphs)
	minX := glyphs[0].x
	rowMap := make(map[int][]glyph)
	for _, g := range glyphs {
		if g.x < minX {
			minX = g.x
		}
		yKey := int(math.Round(g.y))
		rowMap[yKey] = append(rowMap[yKey], g)
	}

	// PDF Y grows upwards.
	yKeys := make([]int, 0, len(rowMap))
	for y := range rowMap {
		yKeys = append(yKeys, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))
	lineHeight := medianGap(yKeys)

	var lines []string
	for i, y := range yKeys {
		if i > 0 && lineHeight > 0 && float64(yKeys[i-1]-y) > blankLineRatio*lineHeight {
			lines = append(lines, "")
		}

		items := rowMap[y]
		sort.Slice(items, func(a, b int) bool { return items[a].x < items[b].x })

		var row []rune
		for _, g := range items {
			col := int(math.Round((g.x - minX) / charWidth))
			for len(row) < col {
				row = append(row, ' ')
			}
			row = append(row, []rune(g.s)...)
		}
		lines = append(lines, strings.TrimRight(string(row), " "))
	}
	return strings.Join(lines, "\n")
}

// medianAdvance estimates the width of one character cell.
func medianAdvance(glyphs []glyph) float64 {
	var widths []float64
	for _, g := range glyphs {
		if n := len([]rune(g.s)); n > 0 && g.w > 0 {
			widths = append(widths, g.w/float64(n))
		}
	}
	if len(widths) == 0 {
		return 5
	}
	sort.Float64s(widths)
	return widths[len(widths)/2]
}

// medianGap returns the usual distance between consecutive rows.
func medianGap(yKeys []int) float64 {
	if len(yKeys) < 2 {
		return 0
	}
	gaps := make([]int, 0, len(yKeys)-1)
	for i := 1; i < len(yKeys); i++ {
		gaps = append(gaps, yKeys[i-1]-yKeys[i])
	}
	sort.Ints(gaps)
	return float64(gaps[len(gaps)/2])
}

// extractWithPdftotext uses the external pdftotext command from poppler-utils
// as a fallback for PDFs that the Go library cannot handle.
func extractWithPdftotext(ctx context.Context, filePath string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	numPages := 1
	if out, err := exec.CommandContext(ctx, "pdfinfo", filePath).Output(); err == nil {
		for _, line := range strings.Split(string(out), "\n") {
			if strings.HasPrefix(line, "Pages:") {
				n, parseErr := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
				if parseErr == nil && n > 0 {
					numPages = n
				}
			}
		}
	}

	// One call per page preserves page boundaries.
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pageStr := strconv.Itoa(i)
		out, err := exec.CommandContext(ctx, "pdftotext", "-layout", "-f", pageStr, "-l", pageStr, filePath, "-").Output()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimRight(string(out), "\f\n "))
	}
	if totalTextLen(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

// statementWords appear on every French bank statement. Text without any of
// them is most likely undecoded font garbage.
var statementWords = []string{
	"relevé", "releve", "compte", "solde", "opérations", "operations",
	"débit", "crédit", "debit", "credit", "virement", "total", "date",
}

// textQuality returns the share of characters that are letters, digits,
// whitespace or usual statement punctuation, in 0..1.
func textQuality(pages []string) float64 {
	total, readable := 0, 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if r < unicode.MaxLatin1 && (unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r)) ||
				strings.ContainsRune(".,-/:;()'\"€%&@#!?+=*|°", r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// isReadableText requires some text, mostly readable characters and at least
// one statement word.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 || textQuality(pages) <= 0.6 {
		return false
	}
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
