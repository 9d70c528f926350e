package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/bnp-ledger/internal/logging"
	"github.com/insightdelivered/bnp-ledger/internal/metrics"
	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// Cache persists successful extractions as JSON so a statement is sent to
// the upstream extractor once per format. Entries never expire.
type Cache struct {
	Next Extractor
	// Dir holds the entries. Empty means next to the input file.
	Dir string
	Log *logging.Logger
}

type cacheEntry struct {
	Source string        `json:"source"`
	Format models.Format `json:"format"`
	Pages  []models.Page `json:"pages"`
}

// Path returns the entry location for an input and format.
func (c *Cache) Path(input string, format models.Format) string {
	dir := c.Dir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", base, format))
}

// Extract implements Extractor.
func (c *Cache) Extract(ctx context.Context, path string, format models.Format) ([]models.Page, error) {
	log := c.Log
	if log == nil {
		log = logging.Nop()
	}
	entry := c.Path(path, format)

	pages, err := readEntry(entry)
	switch {
	case err == nil:
		metrics.CacheEvents.WithLabelValues("hit").Inc()
		log.Debug("extraction cache hit", "entry", entry)
		return pages, nil
	case errors.Is(err, fs.ErrNotExist):
		metrics.CacheEvents.WithLabelValues("miss").Inc()
	default:
		metrics.CacheEvents.WithLabelValues("corrupt").Inc()
		log.Warn("corrupt cache entry removed", "entry", entry, "err", err)
		if rmErr := os.Remove(entry); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return nil, extractionError(path, rmErr)
		}
	}

	pages, err = c.Next.Extract(ctx, path, format)
	if err != nil {
		return nil, err
	}
	if err := writeEntry(entry, cacheEntry{Source: filepath.Base(path), Format: format, Pages: pages}); err != nil {
		// The extraction itself succeeded.
		log.Warn("cache entry not written", "entry", entry, "err", err)
	}
	return pages, nil
}

func readEntry(path string) ([]models.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e cacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(e.Pages) == 0 {
		return nil, fmt.Errorf("decode %s: no pages", path)
	}
	return e.Pages, nil
}

// writeEntry writes through a temp file so readers never see partial JSON.
func writeEntry(path string, e cacheEntry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
