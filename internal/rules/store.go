package rules

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// Rule assigns Category to every description containing Label.
type Rule struct {
	Label    string
	Category models.Category
}

func (r Rule) String() string {
	return r.Label + ":" + r.Category.String()
}

// Store persists the ordered rule set.
type Store interface {
	// Load returns the rules in file order. A partially readable store
	// returns the readable rules along with an ErrCategoryStore error.
	Load() ([]Rule, error)
	// Append durably adds r at the end of the store.
	Append(r Rule) error
}

// FileStore keeps rules in a text file, one "label:category" per line.
type FileStore struct {
	Path string
}

// DefaultPath is the rules file used for an account when none is given.
func DefaultPath(accountID string) string {
	if accountID == "" {
		return "rules.txt"
	}
	return accountID + "_rules.txt"
}

// Load implements Store. Unknown categories are read as Autre; the file is
// not rewritten.
func (s FileStore) Load() ([]Rule, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCategoryStore, err)
	}
	defer f.Close()
	return parseRules(f, s.Path)
}

func parseRules(r io.Reader, name string) ([]Rule, error) {
	var (
		rules []Rule
		bad   []string
	)
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		i := strings.LastIndex(line, ":")
		if i < 0 {
			bad = append(bad, fmt.Sprintf("line %d: missing category", n))
			continue
		}
		label := line[:i]
		if strings.TrimSpace(label) == "" {
			bad = append(bad, fmt.Sprintf("line %d: empty label", n))
			continue
		}
		rules = append(rules, Rule{Label: label, Category: models.CoerceCategory(line[i+1:])})
	}
	if err := scanner.Err(); err != nil {
		return rules, fmt.Errorf("%w: read %s: %v", models.ErrCategoryStore, name, err)
	}
	if len(bad) > 0 {
		return rules, fmt.Errorf("%w: %s: %s", models.ErrCategoryStore, name, strings.Join(bad, "; "))
	}
	return rules, nil
}

// Append implements Store. The rule is synced to disk before returning.
func (s FileStore) Append(r Rule) error {
	if strings.ContainsAny(r.Label, "\n\r") || strings.TrimSpace(r.Label) == "" {
		return fmt.Errorf("%w: invalid label %q", models.ErrCategoryStore, r.Label)
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", models.ErrCategoryStore, err)
		}
	}

	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrCategoryStore, err)
	}
	defer f.Close()

	prefix, err := newlineNeeded(f)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrCategoryStore, err)
	}
	if _, err := f.WriteString(prefix + r.String() + "\n"); err != nil {
		return fmt.Errorf("%w: %v", models.ErrCategoryStore, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrCategoryStore, err)
	}
	return nil
}

// newlineNeeded returns "\n" when a non-empty file does not end with one.
func newlineNeeded(f *os.File) (string, error) {
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.Size() == 0 {
		return "", nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if last[0] == '\n' {
		return "", nil
	}
	return "\n", nil
}

// MemoryStore is a Store that keeps rules in memory.
type MemoryStore struct {
	Rules []Rule
}

func (s *MemoryStore) Load() ([]Rule, error) {
	return append([]Rule(nil), s.Rules...), nil
}

func (s *MemoryStore) Append(r Rule) error {
	s.Rules = append(s.Rules, r)
	return nil
}
