package omie

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"energy-scraper/models"
	"energy-scraper/services"
	"energy-scraper/utils"
)

const (
	// PriceColumn is the single value column of the price dataset
	PriceColumn = "Price"

	sentinelPrefix = "MARGINALPDBC"
	minColumns     = 6
	maxBodyBytes   = 1 << 20
)

// FeedFetcher downloads and parses the daily marginal price file
type FeedFetcher struct {
	client      *http.Client
	urlTemplate string
	maxRetries  int
	backoff     time.Duration
	logger      *utils.Logger
}

// NewFeedFetcher creates a fetcher. urlTemplate takes the day as yyyymmdd.
func NewFeedFetcher(client *http.Client, urlTemplate string, maxRetries int, backoff time.Duration, logger *utils.Logger) *FeedFetcher {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &FeedFetcher{
		client:      client,
		urlTemplate: urlTemplate,
		maxRetries:  maxRetries,
		backoff:     backoff,
		logger:      logger,
	}
}

// Category implements services.DaySource
func (f *FeedFetcher) Category() models.Category {
	return models.Price
}

// URL builds the feed address for a day
func (f *FeedFetcher) URL(day time.Time) string {
	return fmt.Sprintf(f.urlTemplate, day.Format("20060102"))
}

// FetchDay downloads and parses one day's file
func (f *FeedFetcher) FetchDay(ctx context.Context, day time.Time) (models.Dataset, error) {
	url := f.URL(day)

	var body []byte
	err := utils.RetryWithBackoff(ctx, f.maxRetries, f.backoff, func() error {
		var err error
		body, err = f.download(ctx, url)
		return err
	}, f.logger)
	if err != nil {
		return models.Dataset{}, err
	}

	ds, err := ParseFeed(bytes.NewReader(body))
	if err != nil {
		return models.Dataset{}, fmt.Errorf("%s: %w", url, err)
	}
	f.logger.Debug("Price %s: %d rows", day.Format(models.ISODate), ds.Len())
	return ds, nil
}

func (f *FeedFetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, utils.Permanent(fmt.Errorf("%w: %v", models.ErrFeedDownload, err))
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, utils.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", models.ErrFeedDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%w: %s returned %s", models.ErrFeedDownload, url, resp.Status)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, utils.Permanent(err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", models.ErrFeedDownload, err)
	}
	return body, nil
}

// ParseFeed parses a semicolon-delimited marginal price file.
//
// Layout after dropping the sentinel header and fully empty columns:
//
//	Year;Month;Day;Period;PriceZoneB;PriceZoneA
//	2024;01;01;1;63.33;63.33;
func ParseFeed(r io.Reader) (models.Dataset, error) {
	lines, err := readFields(r)
	if err != nil {
		return models.Dataset{}, err
	}

	keep := nonEmptyColumns(lines)
	if len(keep) < minColumns {
		return models.Dataset{}, fmt.Errorf("%w: expected at least %d columns, got %d", models.ErrFeedParse, minColumns, len(keep))
	}

	type feedRow struct {
		year, month, day, period, zoneB, zoneA string
	}
	rows := make([]feedRow, 0, len(lines))
	maxPeriod := 0
	for _, fields := range lines {
		row := feedRow{
			year:   cell(fields, keep[0]),
			month:  cell(fields, keep[1]),
			day:    cell(fields, keep[2]),
			period: cell(fields, keep[3]),
			zoneB:  cell(fields, keep[4]),
			zoneA:  cell(fields, keep[5]),
		}
		if p, err := strconv.Atoi(row.period); err == nil && p > maxPeriod {
			maxPeriod = p
		}
		rows = append(rows, row)
	}
	slot := periodLength(maxPeriod)

	ds := models.NewDataset(models.Price, models.FillNull, []string{PriceColumn})
	for _, row := range rows {
		date, ok := parseDate(row.year, row.month, row.day)
		if !ok {
			continue
		}
		period, err := strconv.Atoi(row.period)
		if err != nil || period < 1 {
			continue
		}
		offset := time.Duration(period-1) * slot
		if offset >= 24*time.Hour {
			continue
		}
		ts := date.Add(offset)

		price, ok := services.ParsePlainNumber(row.zoneA)
		if !ok {
			price, ok = services.ParsePlainNumber(row.zoneB)
		}
		values := map[string]*float64{PriceColumn: nil}
		if ok {
			values[PriceColumn] = &price
		}

		ds.Records = append(ds.Records, models.Record{
			Fecha:  services.FormatFecha(ts),
			Hora:   services.FormatHora(ts),
			Values: values,
		})
	}
	return ds, nil
}

// periodLength infers the slot length from the highest period index: hourly files
// carry 23-25 periods, half-hourly up to 50, quarter-hourly up to 100.
func periodLength(maxPeriod int) time.Duration {
	switch {
	case maxPeriod > 50:
		return 15 * time.Minute
	case maxPeriod > 25:
		return 30 * time.Minute
	default:
		return time.Hour
	}
}

func readFields(r io.Reader) ([][]string, error) {
	scanner := bufio.NewScanner(r)
	var lines [][]string
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimSuffix(scanner.Text(), "\r"))
		if line == "" || line == "*" {
			continue
		}
		if first {
			first = false
			if strings.HasPrefix(strings.ToUpper(line), sentinelPrefix) {
				continue
			}
		}
		fields := strings.Split(line, ";")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		lines = append(lines, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFeedParse, err)
	}
	return lines, nil
}

// nonEmptyColumns returns the indexes of columns with at least one non-blank cell
func nonEmptyColumns(lines [][]string) []int {
	width := 0
	for _, l := range lines {
		if len(l) > width {
			width = len(l)
		}
	}
	var keep []int
	for col := 0; col < width; col++ {
		for _, l := range lines {
			if col < len(l) && l[col] != "" {
				keep = append(keep, col)
				break
			}
		}
	}
	return keep
}

func cell(fields []string, idx int) string {
	if idx < len(fields) {
		return fields[idx]
	}
	return ""
}

func parseDate(year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}
