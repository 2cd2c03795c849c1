package omie

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-scraper/models"
	"energy-scraper/utils"
)

const hourlyFeed = "MARGINALPDBC;\r\n" +
	"2024;01;15;1;63.33;63.33;\r\n" +
	"2024;01;15;2;60.10;;\r\n" +
	"2024;01;15;3;;;\r\n" +
	"2024;01;15;24;58.00;58.50;\r\n" +
	"*\r\n"

func TestParseFeedHourly(t *testing.T) {
	ds, err := ParseFeed(strings.NewReader(hourlyFeed))
	require.NoError(t, err)

	assert.Equal(t, models.Price, ds.Category)
	assert.Equal(t, []string{"Fecha", "Hora", PriceColumn}, ds.Columns)
	require.Equal(t, 4, ds.Len())

	assert.Equal(t, "15/01/2024", ds.Records[0].Fecha)
	assert.Equal(t, "00:00", ds.Records[0].Hora)
	assert.Equal(t, 63.33, *ds.Records[0].Values[PriceColumn])

	// zone A blank falls back to zone B
	assert.Equal(t, "01:00", ds.Records[1].Hora)
	assert.Equal(t, 60.10, *ds.Records[1].Values[PriceColumn])

	// both blank is null
	assert.Nil(t, ds.Records[2].Values[PriceColumn])

	assert.Equal(t, "23:00", ds.Records[3].Hora)
	assert.Equal(t, 58.50, *ds.Records[3].Values[PriceColumn])
}

func TestParseFeedQuarterHourly(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("MARGINALPDBC;\n")
	for p := 1; p <= 96; p++ {
		fmt.Fprintf(&sb, "2025;10;01;%d;%d.5;%d.5;\n", p, p, p)
	}
	ds, err := ParseFeed(strings.NewReader(sb.String()))
	require.NoError(t, err)
	require.Equal(t, 96, ds.Len())
	assert.Equal(t, "00:15", ds.Records[1].Hora)
	assert.Equal(t, "23:45", ds.Records[95].Hora)
}

func TestParseFeedLongDSTDay(t *testing.T) {
	var sb strings.Builder
	for p := 1; p <= 25; p++ {
		fmt.Fprintf(&sb, "2024;10;27;%d;50;50;\n", p)
	}
	ds, err := ParseFeed(strings.NewReader(sb.String()))
	require.NoError(t, err)
	// period 25 would land on the next day
	assert.Equal(t, 24, ds.Len())
	assert.Equal(t, "23:00", ds.Records[23].Hora)
}

func TestParseFeedTooFewColumns(t *testing.T) {
	_, err := ParseFeed(strings.NewReader("MARGINALPDBC;\n2024;01;15;1;63.33;\n"))
	assert.ErrorIs(t, err, models.ErrFeedParse)
}

func TestParseFeedSkipsBadRows(t *testing.T) {
	ds, err := ParseFeed(strings.NewReader("2024;01;15;1;1;1;\n2024;02;30;1;2;2;\n2024;01;15;x;3;3;\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}

func newFetcher(srv *httptest.Server) *FeedFetcher {
	return NewFeedFetcher(srv.Client(), srv.URL+"/marginalpdbc_%s.1", 3, time.Millisecond, utils.Discard())
}

func TestFetchDay(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(hourlyFeed))
	}))
	defer srv.Close()

	ds, err := newFetcher(srv).FetchDay(context.Background(), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "/marginalpdbc_20240115.1", path)
	assert.Equal(t, 4, ds.Len())
}

func TestFetchDayNotFoundIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newFetcher(srv).FetchDay(context.Background(), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, models.ErrFeedDownload)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchDayRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(hourlyFeed))
	}))
	defer srv.Close()

	ds, err := newFetcher(srv).FetchDay(context.Background(), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchDayParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	_, err := newFetcher(srv).FetchDay(context.Background(), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, models.ErrFeedParse)
}
