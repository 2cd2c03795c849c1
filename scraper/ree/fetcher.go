package ree

import (
	"context"
	"fmt"
	"time"

	"energy-scraper/models"
	"energy-scraper/services"
	"energy-scraper/utils"
)

// DailyFetcher turns one rendered table page into one day of normalized records
type DailyFetcher struct {
	renderer    Renderer
	spec        models.CategorySpec
	urlTemplate string
	logger      *utils.Logger
}

// NewDailyFetcher creates a fetcher for a rendered category
func NewDailyFetcher(renderer Renderer, spec models.CategorySpec, urlTemplate string, logger *utils.Logger) (*DailyFetcher, error) {
	if spec.Source != models.SourceRendered {
		return nil, fmt.Errorf("category %q is not a rendered table", spec.Name)
	}
	return &DailyFetcher{
		renderer:    renderer,
		spec:        spec,
		urlTemplate: urlTemplate,
		logger:      logger,
	}, nil
}

// Category implements services.DaySource
func (f *DailyFetcher) Category() models.Category {
	return f.spec.Name
}

// URL builds the table page address for a day
func (f *DailyFetcher) URL(day time.Time) string {
	return BuildTableURL(f.urlTemplate, day, f.spec.URLType)
}

// BuildTableURL fills a template whose verbs are the ISO day and the category url type
func BuildTableURL(template string, day time.Time, urlType int) string {
	return fmt.Sprintf(template, day.Format(models.ISODate), urlType)
}

// FetchDay renders, extracts and normalizes the table for one day.
// A table with no usable rows yields an empty dataset, not an error.
func (f *DailyFetcher) FetchDay(ctx context.Context, day time.Time) (models.Dataset, error) {
	url := f.URL(day)

	html, err := f.renderer.Render(ctx, url, "#"+f.spec.TableID)
	if err != nil {
		return models.Dataset{}, err
	}

	extraction, err := ExtractTable(html, f.spec.TableID)
	if err != nil {
		return models.Dataset{}, err
	}
	if extraction.Mismatched > 0 {
		f.logger.Debug("%s %s: dropped %d rows with unexpected cell count",
			f.spec.Label, day.Format(models.ISODate), extraction.Mismatched)
	}

	res, err := services.NormalizeTable(extraction.Table, f.spec, day)
	if err != nil {
		return models.Dataset{}, err
	}
	if res.DroppedRows > 0 {
		f.logger.Debug("%s %s: dropped %d rows without a usable time",
			f.spec.Label, day.Format(models.ISODate), res.DroppedRows)
	}

	f.logger.Debug("%s %s: %d rows", f.spec.Label, day.Format(models.ISODate), res.Dataset.Len())
	return res.Dataset, nil
}
