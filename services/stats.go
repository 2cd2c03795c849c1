package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"energy-scraper/models"
)

// ColumnStats summarizes one value column of a dataset
type ColumnStats struct {
	Column  string  `json:"column"`
	Count   int     `json:"count"`
	Max     float64 `json:"max_val"`
	MaxAt   string  `json:"hora_max"`
	Min     float64 `json:"min_val"`
	MinAt   string  `json:"hora_min"`
	Mean    float64 `json:"mean_val"`
	Skipped int     `json:"null_count"`
}

// ComputeStats computes max, min (with the first Fecha/Hora where they occur) and mean of a column,
// rounded to two decimals. Null cells are ignored.
func ComputeStats(ds models.Dataset, column string) (ColumnStats, error) {
	if column == models.ColFecha || column == models.ColHora || !ds.HasColumn(column) {
		return ColumnStats{}, fmt.Errorf("%w: %q", models.ErrUnknownColumn, column)
	}

	stats := ColumnStats{Column: column}
	sum := decimal.Zero
	var max, min decimal.Decimal

	for _, rec := range ds.Records {
		v, ok := rec.Value(column)
		if !ok {
			stats.Skipped++
			continue
		}
		d := decimal.NewFromFloat(v)
		at := rec.Fecha + " " + rec.Hora
		if stats.Count == 0 || d.GreaterThan(max) {
			max, stats.MaxAt = d, at
		}
		if stats.Count == 0 || d.LessThan(min) {
			min, stats.MinAt = d, at
		}
		sum = sum.Add(d)
		stats.Count++
	}

	if stats.Count == 0 {
		return ColumnStats{}, fmt.Errorf("%w: column %q has no numeric values", models.ErrNoValues, column)
	}

	stats.Max = max.Round(2).InexactFloat64()
	stats.Min = min.Round(2).InexactFloat64()
	stats.Mean = sum.Div(decimal.NewFromInt(int64(stats.Count))).Round(2).InexactFloat64()
	return stats, nil
}
