package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input string
		want  Category
		ok    bool
	}{
		{"Transports", Transports, true},
		{"Vie quotidienne", VieQuotidienne, true},
		{" Santé ", Sante, true},
		{"Impôts", Impots, true},
		{"Epargne", Epargne, true},
		{"sante", 0, false},
		{"Other", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseCategory(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseCategory(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCoerceCategory(t *testing.T) {
	if got := CoerceCategory("Courses"); got != Autre {
		t.Errorf("got %q, want %q", got, Autre)
	}
	if got := CoerceCategory("Logement"); got != Logement {
		t.Errorf("got %q, want %q", got, Logement)
	}
}

func TestCategoriesOrder(t *testing.T) {
	cats := Categories()
	if len(cats) != 10 {
		t.Fatalf("expected 10 categories, got %d", len(cats))
	}
	if cats[0] != Transports || cats[len(cats)-1] != Autre {
		t.Errorf("unexpected order: %v", cats)
	}
	for _, c := range cats {
		if !c.Valid() || c.String() == "" {
			t.Errorf("category %d has no label", c)
		}
	}
}

func TestCategoryJSON(t *testing.T) {
	tx := Transaction{Description: "LOYER", Category: Logement}
	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Transaction
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Category != Logement {
		t.Errorf("got %q, want %q", back.Category, Logement)
	}
}

func TestStatementPeriod(t *testing.T) {
	p := StatementPeriod{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	if p.Days() != 31 {
		t.Errorf("Days() = %d, want 31", p.Days())
	}
	if p.Straddles() {
		t.Error("March period should not straddle a year")
	}

	winter := StatementPeriod{
		Start: time.Date(2023, 12, 5, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	if !winter.Straddles() {
		t.Error("December period should straddle a year")
	}

	var unknown StatementPeriod
	if !unknown.IsZero() || unknown.Days() != 0 {
		t.Error("zero period should report no days")
	}
}

func TestFieldErrorKind(t *testing.T) {
	err := &FieldError{Kind: ErrAmountFormat, Field: "debit", Value: "12,x", Row: 3}
	if !errors.Is(err, ErrAmountFormat) {
		t.Error("expected errors.Is to match the kind")
	}
	if errors.Is(err, ErrDateFormat) {
		t.Error("unexpected match on another kind")
	}
	wrapped := &PageError{Page: 2, Err: err}
	if !errors.Is(wrapped, ErrAmountFormat) {
		t.Error("expected page error to unwrap to the kind")
	}
}
