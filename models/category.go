package models

import (
	"fmt"
	"strings"
)

// Category is a data type with its own source, schema and fill policy
type Category string

const (
	Demand     Category = "demand"
	Generation Category = "generation"
	Storage    Category = "storage"
	Price      Category = "price"
)

var categoryAliases = map[string]Category{
	"demand":         Demand,
	"demanda":        Demand,
	"generation":     Generation,
	"generacion":     Generation,
	"generación":     Generation,
	"storage":        Storage,
	"almacenamiento": Storage,
	"price":          Price,
	"precio":         Price,
	"precios":        Price,
}

// ParseCategory resolves a category name (English or Spanish)
func ParseCategory(s string) (Category, error) {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Subset selects a named group of value columns
type Subset string

const (
	SubsetAll          Subset = "all"
	SubsetRenewable    Subset = "renewable"
	SubsetNonRenewable Subset = "non_renewable"
)

var subsetAliases = map[string]Subset{
	"":              SubsetAll,
	"all":           SubsetAll,
	"todos":         SubsetAll,
	"renewable":     SubsetRenewable,
	"renovables":    SubsetRenewable,
	"non_renewable": SubsetNonRenewable,
	"no_renovables": SubsetNonRenewable,
}

// ParseSubset resolves a column subset name; empty means all
func ParseSubset(s string) (Subset, error) {
	if sub, ok := subsetAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return sub, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSubset, s)
}

// FillPolicy decides what a missing numeric cell becomes
type FillPolicy string

const (
	FillNull FillPolicy = "null"
	FillZero FillPolicy = "zero"
)

// Missing returns the value a missing cell takes under the policy
func (p FillPolicy) Missing() *float64 {
	if p == FillZero {
		zero := 0.0
		return &zero
	}
	return nil
}

// SourceKind tells how a category is fetched
type SourceKind string

const (
	SourceRendered SourceKind = "rendered"
	SourceFeed     SourceKind = "feed"
)

// CategorySpec is one entry of the category catalog
type CategorySpec struct {
	Name         Category            `yaml:"name"`
	Label        string              `yaml:"label"`
	Source       SourceKind          `yaml:"source"`
	URLType      int                 `yaml:"url_type"`
	TableID      string              `yaml:"table_id"`
	TimeColumn   string              `yaml:"time_column"`
	Fill         FillPolicy          `yaml:"fill"`
	Columns      []string            `yaml:"columns"`
	Subsets      map[Subset][]string `yaml:"subsets"`
	Delimiter    string              `yaml:"delimiter"`
	ExportPrefix string              `yaml:"export_prefix"`
}

// DelimiterRune returns the export delimiter, defaulting to a comma
func (s CategorySpec) DelimiterRune() rune {
	if s.Delimiter == "" {
		return ','
	}
	return []rune(s.Delimiter)[0]
}

// ExportFilename builds the download name for a dataset covering r
func (s CategorySpec) ExportFilename(r DateRange) string {
	prefix := s.ExportPrefix
	if prefix == "" {
		prefix = s.Label
	}
	return fmt.Sprintf("%s-%s_%s.csv", prefix, r.StartString(), r.EndString())
}
