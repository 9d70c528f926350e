package models

import (
	"fmt"
	"strings"
)

// Category is the closed set of spending categories a transaction can carry.
type Category uint8

const (
	Transports Category = iota + 1
	VieQuotidienne
	Logement
	Loisirs
	Sante
	Impots
	Banque
	Salaire
	Epargne
	Autre
)

var categoryNames = map[Category]string{
	Transports:     "Transports",
	VieQuotidienne: "Vie quotidienne",
	Logement:       "Logement",
	Loisirs:        "Loisirs",
	Sante:          "Santé",
	Impots:         "Impôts",
	Banque:         "Banque",
	Salaire:        "Salaire",
	Epargne:        "Epargne",
	Autre:          "Autre",
}

// Categories returns every category in declaration order.
func Categories() []Category {
	return []Category{Transports, VieQuotidienne, Logement, Loisirs, Sante, Impots, Banque, Salaire, Epargne, Autre}
}

// String returns the label used in rule files and reports.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return ""
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// ParseCategory looks up a category by its label. Surrounding whitespace is
// ignored; the comparison itself is exact.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for c, name := range categoryNames {
		if name == s {
			return c, true
		}
	}
	return 0, false
}

// CoerceCategory parses s and falls back to Autre for unknown labels.
func CoerceCategory(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return Autre
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, ok := ParseCategory(string(text))
	if !ok {
		return fmt.Errorf("unknown category %q", string(text))
	}
	*c = parsed
	return nil
}
