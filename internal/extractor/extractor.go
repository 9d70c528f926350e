// Package extractor turns statement PDFs into per-page text, either locally
// from the PDF text layer or through a remote document parsing service, and
// caches the results.
package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/insightdelivered/bnp-ledger/internal/metrics"
	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// Extractor returns the text of every page of a PDF in the requested format.
type Extractor interface {
	Extract(ctx context.Context, path string, format models.Format) ([]models.Page, error)
}

// Func adapts a function to the Extractor interface.
type Func func(ctx context.Context, path string, format models.Format) ([]models.Page, error)

func (f Func) Extract(ctx context.Context, path string, format models.Format) ([]models.Page, error) {
	return f(ctx, path, format)
}

// Timed records the duration of every call to next under name.
func Timed(name string, next Extractor) Extractor {
	return Func(func(ctx context.Context, path string, format models.Format) ([]models.Page, error) {
		start := time.Now()
		pages, err := next.Extract(ctx, path, format)
		metrics.ExtractionSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
		return pages, err
	})
}

// pagesFromText numbers page texts from 1.
func pagesFromText(texts []string) []models.Page {
	pages := make([]models.Page, len(texts))
	for i, t := range texts {
		pages[i] = models.Page{Number: i + 1, Text: t}
	}
	return pages
}

func extractionError(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrExtraction, path, err)
}
