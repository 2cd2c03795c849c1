package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"energy-scraper/config"
	"energy-scraper/models"
	"energy-scraper/scraper/omie"
	"energy-scraper/scraper/ree"
	"energy-scraper/services"
	"energy-scraper/utils"
)

// Selection names a category and the column subset wanted from it
type Selection struct {
	Category models.Category
	Subset   models.Subset
}

// ParseSelection resolves user-supplied category and subset names
func ParseSelection(category, subset string) (Selection, error) {
	cat, err := models.ParseCategory(category)
	if err != nil {
		return Selection{}, err
	}
	sub, err := models.ParseSubset(subset)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Category: cat, Subset: sub}, nil
}

// Pipeline wires the catalog, the day sources and the range aggregator together
type Pipeline struct {
	cfg      *config.Config
	catalog  *config.Catalog
	renderer ree.Renderer
	client   *http.Client
	agg      *services.RangeAggregator
	logger   *utils.Logger
}

// New creates a pipeline. renderer serves rendered categories, client the price feed.
func New(cfg *config.Config, catalog *config.Catalog, renderer ree.Renderer, client *http.Client, logger *utils.Logger) *Pipeline {
	if client == nil {
		client = &http.Client{Timeout: cfg.FeedTimeout}
	}
	return &Pipeline{
		cfg:      cfg,
		catalog:  catalog,
		renderer: renderer,
		client:   client,
		agg:      services.NewRangeAggregator(cfg.MaxConcurrency, cfg.RateLimitDelay, logger),
		logger:   logger,
	}
}

// Spec returns the catalog entry of a category
func (p *Pipeline) Spec(cat models.Category) (models.CategorySpec, error) {
	return p.catalog.Lookup(cat)
}

// Source builds the day source for a category
func (p *Pipeline) Source(spec models.CategorySpec) (services.DaySource, error) {
	switch spec.Source {
	case models.SourceRendered:
		if p.renderer == nil {
			return nil, fmt.Errorf("no page renderer configured for %s", spec.Name)
		}
		return ree.NewDailyFetcher(p.renderer, spec, p.cfg.TableURLTemplate, p.logger)
	case models.SourceFeed:
		return omie.NewFeedFetcher(p.client, p.cfg.FeedURLTemplate, p.cfg.MaxRetries, p.cfg.RetryBackoff, p.logger), nil
	default:
		return nil, fmt.Errorf("category %q: unknown source %q", spec.Name, spec.Source)
	}
}

// Fetch aggregates a category over r and narrows it to the selected subset
func (p *Pipeline) Fetch(ctx context.Context, sel Selection, r models.DateRange) (models.Dataset, error) {
	spec, err := p.catalog.Lookup(sel.Category)
	if err != nil {
		return models.Dataset{}, err
	}
	if _, err := services.SelectColumns(models.Dataset{}, spec, sel.Subset); err != nil {
		return models.Dataset{}, err
	}

	src, err := p.Source(spec)
	if err != nil {
		return models.Dataset{}, err
	}

	ds, err := p.agg.FetchRange(ctx, src, r)
	if err != nil {
		return models.Dataset{}, err
	}
	return services.SelectColumns(ds, spec, sel.Subset)
}

// Compare fetches two selections over the same range and merges them on Fecha+Hora
func (p *Pipeline) Compare(ctx context.Context, a, b Selection, r models.DateRange) (models.Dataset, error) {
	left, err := p.Fetch(ctx, a, r)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("fetching %s: %w", a.Category, err)
	}
	right, err := p.Fetch(ctx, b, r)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("fetching %s: %w", b.Category, err)
	}

	merged := services.Merge(left, right)
	merged.Skipped = append(append([]models.DayFailure(nil), left.Skipped...), right.Skipped...)
	p.logger.Info("Merged %s (%d rows) with %s (%d rows): %d rows",
		a.Category, left.Len(), b.Category, right.Len(), merged.Len())
	return merged, nil
}
