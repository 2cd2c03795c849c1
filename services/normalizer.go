package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"energy-scraper/models"
)

// Layouts tried for time cells carrying a full date
var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04Z07:00",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02-01-2006 15:04",
}

// Layouts tried for bare time-of-day cells
var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04",
}

// ParseLocaleNumber converts "1.234,56" style text: '.' is a thousands separator, ',' the decimal point.
// Blank or unparseable text reports false.
func ParseLocaleNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return parseDecimal(s)
}

// ParsePlainNumber converts feed numbers where '.' is the decimal point (',' accepted as well)
func ParsePlainNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	return parseDecimal(strings.ReplaceAll(s, ",", "."))
}

func parseDecimal(s string) (float64, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// ParseTimestamp parses a time cell. Full date-times keep their own date and wall clock;
// a bare HH:MM label is placed on day.
func ParseTimestamp(raw string, day time.Time) (time.Time, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return wallClock(t), true
		}
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// wallClock drops the zone, keeping the local reading the source published
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// FormatFecha renders dd/mm/yyyy
func FormatFecha(t time.Time) string {
	return t.Format(models.FechaLayout)
}

// FormatHora renders HH:MM (24h, zero padded)
func FormatHora(t time.Time) string {
	return t.Format(models.HoraLayout)
}

// NormalizeResult is the outcome of normalizing one raw table
type NormalizeResult struct {
	Dataset     models.Dataset
	DroppedRows int // rows with no usable time
}

// NormalizeTable converts a raw table into typed records following the category's column and fill policy
func NormalizeTable(raw models.RawTable, spec models.CategorySpec, day time.Time) (NormalizeResult, error) {
	timeCol := spec.TimeColumn
	if timeCol == "" {
		timeCol = models.ColHora
	}
	timeIdx := raw.Column(timeCol)
	if timeIdx < 0 {
		return NormalizeResult{}, fmt.Errorf("%w: %q not in headers %v", models.ErrMissingTimeColumn, timeCol, raw.Headers)
	}

	valueCols := valueColumns(raw, spec, timeCol)
	index := make(map[string]int, len(valueCols))
	for _, col := range valueCols {
		index[col] = raw.Column(col)
	}

	res := NormalizeResult{Dataset: models.NewDataset(spec.Name, spec.Fill, valueCols)}
	for _, row := range raw.Rows {
		if timeIdx >= len(row) {
			res.DroppedRows++
			continue
		}
		ts, ok := ParseTimestamp(row[timeIdx], day)
		if !ok {
			res.DroppedRows++
			continue
		}

		rec := models.Record{
			Fecha:  FormatFecha(ts),
			Hora:   FormatHora(ts),
			Values: make(map[string]*float64, len(valueCols)),
		}
		for _, col := range valueCols {
			idx := index[col]
			if idx >= 0 && idx < len(row) {
				if v, ok := ParseLocaleNumber(row[idx]); ok {
					rec.Values[col] = &v
					continue
				}
			}
			rec.Values[col] = spec.Fill.Missing()
		}
		res.Dataset.Records = append(res.Dataset.Records, rec)
	}
	return res, nil
}

// valueColumns picks the numeric columns: the fixed list when the category defines one,
// otherwise every non-time header in table order
func valueColumns(raw models.RawTable, spec models.CategorySpec, timeCol string) []string {
	if len(spec.Columns) > 0 {
		return append([]string(nil), spec.Columns...)
	}
	seen := make(map[string]bool)
	var cols []string
	for _, h := range raw.Headers {
		if h == "" || h == timeCol || h == models.ColFecha || seen[h] {
			continue
		}
		seen[h] = true
		cols = append(cols, h)
	}
	return cols
}
