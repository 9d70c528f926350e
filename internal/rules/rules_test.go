package rules

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/bnp-ledger/internal/logging"
	"github.com/insightdelivered/bnp-ledger/internal/models"
)

func TestEngine_FirstMatchWins(t *testing.T) {
	e := NewEngine([]Rule{
		{Label: "CARREFOUR", Category: models.VieQuotidienne},
		{Label: "CARREFOUR CITY", Category: models.Transports},
	})

	cat, err := e.Classify(context.Background(), models.Transaction{Description: "CARREFOUR CITY PARIS"})
	require.NoError(t, err)
	assert.Equal(t, models.VieQuotidienne, cat)
}

func TestEngine_LaterRuleMatchingEarlierInText(t *testing.T) {
	e := NewEngine([]Rule{
		{Label: "PARIS", Category: models.Loisirs},
		{Label: "CB", Category: models.Banque},
	})

	r, ok := e.Match("CB CARREFOUR PARIS")
	require.True(t, ok)
	assert.Equal(t, "PARIS", r.Label)
}

func TestEngine_Match(t *testing.T) {
	e := NewEngine([]Rule{
		{Label: "SNCF", Category: models.Transports},
		{Label: "LOYER", Category: models.Logement},
		{Label: "SNCF", Category: models.Loisirs},
		{Label: "DGFIP", Category: models.Impots},
	})

	tests := []struct {
		description string
		want        models.Category
		ok          bool
	}{
		{"CB SNCF INTERNET", models.Transports, true},
		{"PRLV SEPA DGFIP IMPOT", models.Impots, true},
		{"VIR LOYER MARS", models.Logement, true},
		{"cb sncf internet", 0, false},
		{"CB BOULANGERIE", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			r, ok := e.Match(tt.description)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, r.Category)
			}
		})
	}
}

func TestEngine_UnmatchedIsAutre(t *testing.T) {
	e := NewEngine(nil)
	cat, err := e.Classify(context.Background(), models.Transaction{Description: "CB BOULANGERIE"})
	require.NoError(t, err)
	assert.Equal(t, models.Autre, cat)
}

type scriptedLearner struct {
	answers []Answer
	asked   int
	err     error
}

func (l *scriptedLearner) Ask(_ context.Context, _ models.Transaction, _ []models.Category, _ []Rule) (Answer, error) {
	if l.err != nil {
		return Answer{}, l.err
	}
	ans := l.answers[l.asked]
	l.asked++
	return ans, nil
}

// failingStore refuses every append so the engine must not learn in memory.
type failingStore struct{ MemoryStore }

func (s *failingStore) Append(Rule) error {
	return errors.New("disk full")
}

func TestEngine_Learn(t *testing.T) {
	ctx := context.Background()

	t.Run("valid answer is saved then used", func(t *testing.T) {
		store := &MemoryStore{}
		learner := &scriptedLearner{answers: []Answer{{Category: "Loisirs", Label: "CINEMA"}}}
		e := NewEngine(nil, WithStore(store), WithLearner(learner))

		cat, err := e.Classify(ctx, models.Transaction{Description: "CB CINEMA GAUMONT"})
		require.NoError(t, err)
		assert.Equal(t, models.Loisirs, cat)
		assert.Equal(t, []Rule{{Label: "CINEMA", Category: models.Loisirs}}, store.Rules)

		cat, err = e.Classify(ctx, models.Transaction{Description: "CB CINEMA PATHE"})
		require.NoError(t, err)
		assert.Equal(t, models.Loisirs, cat)
		assert.Equal(t, 1, learner.asked)
	})

	t.Run("unknown category becomes Autre without rule", func(t *testing.T) {
		store := &MemoryStore{}
		learner := &scriptedLearner{answers: []Answer{{Category: "Courses", Label: "LIDL"}}}
		e := NewEngine(nil, WithStore(store), WithLearner(learner))

		cat, err := e.Classify(ctx, models.Transaction{Description: "CB LIDL"})
		require.NoError(t, err)
		assert.Equal(t, models.Autre, cat)
		assert.Empty(t, store.Rules)
		assert.Empty(t, e.Rules())
	})

	t.Run("empty label keeps category without rule", func(t *testing.T) {
		store := &MemoryStore{}
		learner := &scriptedLearner{answers: []Answer{{Category: "Santé"}}}
		e := NewEngine(nil, WithStore(store), WithLearner(learner))

		cat, err := e.Classify(ctx, models.Transaction{Description: "CB PHARMACIE"})
		require.NoError(t, err)
		assert.Equal(t, models.Sante, cat)
		assert.Empty(t, store.Rules)
	})

	t.Run("store failure leaves memory untouched", func(t *testing.T) {
		learner := &scriptedLearner{answers: []Answer{{Category: "Loisirs", Label: "CINEMA"}}}
		e := NewEngine(nil, WithStore(&failingStore{}), WithLearner(learner))

		_, err := e.Classify(ctx, models.Transaction{Description: "CB CINEMA"})
		require.Error(t, err)
		assert.Empty(t, e.Rules())
	})
}

func TestEngine_CategorizeAll(t *testing.T) {
	e := NewEngine([]Rule{{Label: "SALAIRE", Category: models.Salaire}}, WithLearner(&scriptedLearner{err: io.EOF}))

	txs := []models.Transaction{
		{Description: "VIR SEPA RECU SALAIRE"},
		{Description: "CB BOULANGERIE"},
		{Description: "CB FLEURISTE"},
	}
	err := e.CategorizeAll(context.Background(), txs, logging.Guard{Log: logging.Nop(), Strict: true})
	require.NoError(t, err)
	assert.Equal(t, models.Salaire, txs[0].Category)
	assert.Equal(t, models.Autre, txs[1].Category)
	assert.Equal(t, models.Autre, txs[2].Category)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.txt")
	content := strings.Join([]string{
		"CARREFOUR:Vie quotidienne",
		"",
		"SNCF:Transports",
		"http://ticket:Loisirs",
		"AMAZON:Shopping",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store := FileStore{Path: path}
	rules, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []Rule{
		{Label: "CARREFOUR", Category: models.VieQuotidienne},
		{Label: "SNCF", Category: models.Transports},
		{Label: "http://ticket", Category: models.Loisirs},
		{Label: "AMAZON", Category: models.Autre},
	}, rules)

	// The file has no trailing newline; the appended rule must land on its own line.
	require.NoError(t, store.Append(Rule{Label: "MUTUELLE", Category: models.Sante}))
	rules, err = store.Load()
	require.NoError(t, err)
	require.Len(t, rules, 5)
	assert.Equal(t, Rule{Label: "MUTUELLE", Category: models.Sante}, rules[4])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "AMAZON:Shopping\nMUTUELLE:Santé\n"))
}

func TestFileStore_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := FileStore{Path: filepath.Join(dir, "missing.txt")}.Load()
	assert.ErrorIs(t, err, models.ErrCategoryStore)

	path := filepath.Join(dir, "broken.txt")
	require.NoError(t, os.WriteFile(path, []byte("SNCF:Transports\nno category here\n:Loisirs\n"), 0o644))
	rules, err := FileStore{Path: path}.Load()
	assert.ErrorIs(t, err, models.ErrCategoryStore)
	assert.Equal(t, []Rule{{Label: "SNCF", Category: models.Transports}}, rules)

	err = FileStore{Path: path}.Append(Rule{Label: "A\nB", Category: models.Autre})
	assert.ErrorIs(t, err, models.ErrCategoryStore)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acct_rules.txt")
	require.NoError(t, os.WriteFile(path, []byte("EDF:Logement\n"), 0o644))

	e, err := Load(FileStore{Path: path}, WithLearner(&scriptedLearner{answers: []Answer{{Category: "Banque", Label: "COTIS"}}}))
	require.NoError(t, err)

	cat, err := e.Classify(context.Background(), models.Transaction{Description: "COTIS CARTE VISA"})
	require.NoError(t, err)
	assert.Equal(t, models.Banque, cat)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "EDF:Logement\nCOTIS:Banque\n", string(data))
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "12345_rules.txt", DefaultPath("12345"))
	assert.Equal(t, "rules.txt", DefaultPath(""))
}
