package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"energy-scraper/models"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is the single source of truth for per-category table ids, column sets and fill policies
type Catalog struct {
	Categories []models.CategorySpec `yaml:"categories"`
}

// LoadCatalog decodes the embedded catalog
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog decodes and validates a catalog document
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if len(c.Categories) == 0 {
		return nil, fmt.Errorf("catalog defines no categories")
	}

	seen := make(map[models.Category]bool)
	for i := range c.Categories {
		spec := &c.Categories[i]
		if _, err := models.ParseCategory(string(spec.Name)); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("catalog entry %d: duplicate category %q", i, spec.Name)
		}
		seen[spec.Name] = true

		switch spec.Source {
		case models.SourceRendered:
			if spec.TableID == "" || spec.URLType == 0 {
				return nil, fmt.Errorf("category %q: rendered source needs table_id and url_type", spec.Name)
			}
			if spec.TimeColumn == "" {
				spec.TimeColumn = models.ColHora
			}
		case models.SourceFeed:
		default:
			return nil, fmt.Errorf("category %q: unknown source %q", spec.Name, spec.Source)
		}

		switch spec.Fill {
		case "":
			spec.Fill = models.FillNull
		case models.FillNull, models.FillZero:
		default:
			return nil, fmt.Errorf("category %q: unknown fill policy %q", spec.Name, spec.Fill)
		}
	}
	return &c, nil
}

// Lookup returns the spec of a category
func (c *Catalog) Lookup(cat models.Category) (models.CategorySpec, error) {
	for _, spec := range c.Categories {
		if spec.Name == cat {
			return spec, nil
		}
	}
	return models.CategorySpec{}, fmt.Errorf("%w: %q", models.ErrUnknownCategory, cat)
}
