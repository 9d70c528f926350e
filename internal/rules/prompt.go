package rules

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/insightdelivered/bnp-ledger/internal/models"
)

// Answer is the operator's reply for an unmatched transaction.
type Answer struct {
	// Category is the raw category label typed by the operator.
	Category string
	// Label is the substring that should recognize similar operations.
	// Empty means no rule is saved.
	Label string
}

// Learner asks for the category of a transaction no rule matched.
type Learner interface {
	Ask(ctx context.Context, tx models.Transaction, categories []models.Category, known []Rule) (Answer, error)
}

const (
	maxSuggestions = 3
	minSuggestWord = 4
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	amountStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Prompter is a terminal Learner. It prints the transaction, the allowed
// categories and the known rules whose labels resemble the description.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask implements Learner. Categories may be typed by label or by their
// number in the printed list.
func (p *Prompter) Ask(ctx context.Context, tx models.Transaction, categories []models.Category, known []Rule) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}

	fmt.Fprintf(p.out, "\n%s %s  %s %s\n",
		promptStyle.Render("Label:"), labelStyle.Render(tx.Description),
		promptStyle.Render(amountLabel(tx)), amountStyle.Render(fmt.Sprintf("%.2f €", tx.Debit+tx.Credit)))

	if hints := suggest(tx.Description, known); len(hints) > 0 {
		fmt.Fprintln(p.out, hintStyle.Render("Similar rules:"))
		for _, h := range hints {
			fmt.Fprintln(p.out, hintStyle.Render("  "+h.String()))
		}
	}

	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = fmt.Sprintf("%d) %s", i+1, c)
	}
	fmt.Fprintln(p.out, hintStyle.Render(strings.Join(names, "  ")))

	cat, err := p.readLine(promptStyle.Render("Category") + ": ")
	if err != nil {
		return Answer{}, err
	}
	cat = resolveChoice(cat, categories)

	label, err := p.readLine(promptStyle.Render("Label to recognize it (empty to skip)") + ": ")
	if err != nil {
		return Answer{}, err
	}
	return Answer{Category: cat, Label: label}, nil
}

func (p *Prompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func amountLabel(tx models.Transaction) string {
	if tx.IsDebit() {
		return "Debit:"
	}
	return "Credit:"
}

// resolveChoice turns a list number into the category label.
func resolveChoice(input string, categories []models.Category) string {
	var n int
	if _, err := fmt.Sscanf(input, "%d", &n); err == nil && fmt.Sprint(n) == input {
		if n >= 1 && n <= len(categories) {
			return categories[n-1].String()
		}
	}
	return input
}

// suggest returns the known rules whose label is closest to a word of the
// description.
func suggest(description string, known []Rule) []Rule {
	if len(known) == 0 {
		return nil
	}
	labels := make([]string, len(known))
	for i, r := range known {
		labels[i] = r.Label
	}

	best := make(map[int]int)
	for _, word := range strings.Fields(description) {
		if len([]rune(word)) < minSuggestWord {
			continue
		}
		for _, rank := range fuzzy.RankFindNormalizedFold(word, labels) {
			if d, ok := best[rank.OriginalIndex]; !ok || rank.Distance < d {
				best[rank.OriginalIndex] = rank.Distance
			}
		}
	}

	idx := make([]int, 0, len(best))
	for i := range best {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool {
		if best[idx[a]] != best[idx[b]] {
			return best[idx[a]] < best[idx[b]]
		}
		return idx[a] < idx[b]
	})
	if len(idx) > maxSuggestions {
		idx = idx[:maxSuggestions]
	}

	out := make([]Rule, len(idx))
	for i, j := range idx {
		out[i] = known[j]
	}
	return out
}
