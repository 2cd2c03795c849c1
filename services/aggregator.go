package services

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"energy-scraper/models"
	"energy-scraper/utils"
)

// DaySource produces one day of normalized records for a category
type DaySource interface {
	Category() models.Category
	FetchDay(ctx context.Context, day time.Time) (models.Dataset, error)
}

// RangeAggregator fetches a date range day by day, isolating per-day failures
type RangeAggregator struct {
	logger      *utils.Logger
	rateLimiter *utils.RateLimiter
	concurrency int
}

// NewRangeAggregator creates an aggregator running at most concurrency days at once
func NewRangeAggregator(concurrency, rateLimitDelayMs int, logger *utils.Logger) *RangeAggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &RangeAggregator{
		logger:      logger,
		rateLimiter: utils.NewRateLimiter(rateLimitDelayMs),
		concurrency: concurrency,
	}
}

type dayResult struct {
	data models.Dataset
	err  error
}

// FetchRange fetches every day of r from src. A failing day is logged and skipped;
// the result is clipped to r and sorted chronologically. No data is an empty dataset.
func (a *RangeAggregator) FetchRange(ctx context.Context, src DaySource, r models.DateRange) (models.Dataset, error) {
	days := r.Days()
	results := make([]dayResult, len(days))

	a.logger.Info("Fetching %s from %s to %s (%d days)", src.Category(), r.StartString(), r.EndString(), len(days))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, day := range days {
		i, day := i, day
		g.Go(func() error {
			if err := a.rateLimiter.Wait(gctx); err != nil {
				return err
			}
			data, err := src.FetchDay(gctx, day)
			results[i] = dayResult{data: data, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Dataset{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Dataset{}, err
	}

	var merged *models.Dataset
	var skipped []models.DayFailure
	for i, res := range results {
		date := days[i].Format(models.ISODate)
		if res.err != nil {
			a.logger.Warn("Skipping %s %s: %v", src.Category(), date, res.err)
			skipped = append(skipped, models.DayFailure{Date: date, Cause: res.err.Error()})
			continue
		}
		if res.data.Empty() {
			a.logger.Debug("%s %s: no rows", src.Category(), date)
		}
		if merged == nil {
			d := res.data
			d.Records = append([]models.Record(nil), res.data.Records...)
			d.Columns = append([]string(nil), res.data.Columns...)
			merged = &d
			continue
		}
		appendDay(merged, res.data)
	}

	if merged == nil {
		a.logger.Warn("No day of %s succeeded between %s and %s", src.Category(), r.StartString(), r.EndString())
		return models.Dataset{Category: src.Category(), Columns: []string{models.ColFecha, models.ColHora}, Skipped: skipped}, nil
	}

	out := ClipAndSort(*merged, r)
	out.Category = src.Category()
	out.Skipped = skipped
	a.logger.Info("Fetched %d %s rows (%d days skipped)", out.Len(), src.Category(), len(skipped))
	return out, nil
}

// appendDay concatenates day into acc, widening the column set in first-seen order
func appendDay(acc *models.Dataset, day models.Dataset) {
	for _, col := range day.Columns {
		if !acc.HasColumn(col) {
			acc.Columns = append(acc.Columns, col)
		}
	}
	acc.Records = append(acc.Records, day.Records...)
}

type stamped struct {
	rec models.Record
	ts  time.Time
}

// ClipAndSort re-derives each row's timestamp, drops rows outside r or without a usable
// time, fills columns a row lacks per the dataset policy and sorts ascending (stable).
func ClipAndSort(ds models.Dataset, r models.DateRange) models.Dataset {
	valueCols := ds.ValueColumns()
	rows := make([]stamped, 0, len(ds.Records))
	for _, rec := range ds.Records {
		ts, err := rec.Timestamp()
		if err != nil || !r.Contains(ts) {
			continue
		}
		if missingColumn(rec, valueCols) {
			rec = rec.Clone()
			for _, col := range valueCols {
				if _, ok := rec.Values[col]; !ok {
					rec.Values[col] = ds.Fill.Missing()
				}
			}
		}
		rows = append(rows, stamped{rec: rec, ts: ts})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ts.Before(rows[j].ts)
	})

	out := ds
	out.Columns = keyColumnsFirst(ds.Columns)
	out.Records = make([]models.Record, len(rows))
	for i, row := range rows {
		out.Records[i] = row.rec
	}
	return out
}

func missingColumn(rec models.Record, cols []string) bool {
	for _, col := range cols {
		if _, ok := rec.Values[col]; !ok {
			return true
		}
	}
	return false
}

// keyColumnsFirst returns cols with Fecha and Hora moved (or added) to the front
func keyColumnsFirst(cols []string) []string {
	out := []string{models.ColFecha, models.ColHora}
	for _, c := range cols {
		if c != models.ColFecha && c != models.ColHora {
			out = append(out, c)
		}
	}
	return out
}
