// Package rules categorizes transactions from ordered substring rules and
// learns new rules from the operator.
package rules

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cloudflare/ahocorasick"

	"github.com/insightdelivered/bnp-ledger/internal/logging"
	"github.com/insightdelivered/bnp-ledger/internal/metrics"
	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// Engine classifies descriptions with an Aho-Corasick automaton over every
// rule label, so a description is scanned once whatever the number of rules.
// When several labels occur in a description the rule loaded first wins.
type Engine struct {
	mu       sync.RWMutex
	rules    []Rule
	matcher  *ahocorasick.Matcher
	patterns []string // unique labels in matcher order
	owner    []int    // index in rules of the first rule for each pattern

	store   Store
	learner Learner
	log     *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore persists learned rules to s.
func WithStore(s Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithLearner asks l for the category of unmatched transactions.
func WithLearner(l Learner) Option {
	return func(e *Engine) { e.learner = l }
}

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine builds an engine over rules, in priority order.
func NewEngine(rules []Rule, opts ...Option) *Engine {
	e := &Engine{log: logging.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	e.build(append([]Rule(nil), rules...))
	return e
}

// Load reads the rules of store and builds an engine that persists learned
// rules back to it. A partially readable store yields an engine over the
// readable rules together with the store error.
func Load(store Store, opts ...Option) (*Engine, error) {
	rules, err := store.Load()
	e := NewEngine(rules, append([]Option{WithStore(store)}, opts...)...)
	if err != nil {
		return e, err
	}
	e.log.Info("rules loaded", "count", len(rules))
	return e, nil
}

// build must be called with mu held or before the engine is shared.
func (e *Engine) build(rules []Rule) {
	e.rules = rules

	index := make(map[string]int, len(rules))
	patterns := make([]string, 0, len(rules))
	owner := make([]int, 0, len(rules))
	for i, r := range rules {
		if r.Label == "" {
			continue
		}
		if _, seen := index[r.Label]; seen {
			continue
		}
		index[r.Label] = len(patterns)
		patterns = append(patterns, r.Label)
		owner = append(owner, i)
	}

	e.patterns = patterns
	e.owner = owner
	if len(patterns) == 0 {
		e.matcher = nil
		return
	}
	dict := make([][]byte, len(patterns))
	for i, p := range patterns {
		dict[i] = []byte(p)
	}
	e.matcher = ahocorasick.NewMatcher(dict)
}

// Rules returns a copy of the rules in priority order.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Rule(nil), e.rules...)
}

// Match returns the first rule, in load order, whose label occurs in
// description. Matching is exact and case-sensitive.
func (e *Engine) Match(description string) (Rule, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil {
		return Rule{}, false
	}
	best := -1
	for _, hit := range e.matcher.Match([]byte(description)) {
		if hit < 0 || hit >= len(e.owner) {
			continue
		}
		if idx := e.owner[hit]; best < 0 || idx < best {
			best = idx
		}
	}
	if best < 0 {
		return Rule{}, false
	}
	return e.rules[best], true
}

// Classify returns the category of tx. Unmatched transactions are Autre
// unless a learner is configured, in which case the operator is asked.
func (e *Engine) Classify(ctx context.Context, tx models.Transaction) (models.Category, error) {
	if r, ok := e.Match(tx.Description); ok {
		return r.Category, nil
	}
	e.mu.RLock()
	learner := e.learner
	e.mu.RUnlock()
	if learner == nil {
		return models.Autre, nil
	}

	ans, err := learner.Ask(ctx, tx, models.Categories(), e.Rules())
	if err != nil {
		return models.Autre, fmt.Errorf("ask category for %q: %w", tx.Description, err)
	}
	return e.Learn(ans)
}

// Learn records the operator's answer. An unknown category yields Autre
// and no rule. Otherwise a non-empty label becomes a new rule, written to
// the store before it is added to the engine.
func (e *Engine) Learn(ans Answer) (models.Category, error) {
	cat, ok := models.ParseCategory(ans.Category)
	if !ok {
		e.log.Warn("unknown category, using Autre", "category", ans.Category)
		return models.Autre, nil
	}
	if ans.Label == "" {
		return cat, nil
	}

	r := Rule{Label: ans.Label, Category: cat}
	if e.store != nil {
		if err := e.store.Append(r); err != nil {
			return cat, fmt.Errorf("save rule %s: %w", r, err)
		}
	}

	e.mu.Lock()
	e.build(append(e.rules, r))
	e.mu.Unlock()

	metrics.RulesLearned.Inc()
	e.log.Info("rule learned", "label", r.Label, "category", r.Category)
	return cat, nil
}

// CategorizeAll sets the category of every transaction in place. A failed
// classification leaves the transaction in Autre and goes through guard.
func (e *Engine) CategorizeAll(ctx context.Context, txs []models.Transaction, guard logging.Guard) error {
	for i := range txs {
		if err := ctx.Err(); err != nil {
			return err
		}
		cat, err := e.Classify(ctx, txs[i])
		txs[i].Category = cat
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			e.log.Warn("operator input closed, interactive learning disabled")
			e.mu.Lock()
			e.learner = nil
			e.mu.Unlock()
			continue
		}
		if herr := guard.Handle(err, "categorization failed", "description", txs[i].Description); herr != nil {
			return herr
		}
	}
	return nil
}
