package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-scraper/config"
	"energy-scraper/models"
	"energy-scraper/utils"
)

// pageRenderer serves a generation table whose rows belong to the requested day
type pageRenderer struct {
	failDay string
}

func (r *pageRenderer) Render(_ context.Context, url, _ string) (string, error) {
	parts := strings.Split(url, "/")
	day := parts[len(parts)-2]
	if day == r.failDay {
		return "", fmt.Errorf("%w: %s", models.ErrRenderTimeout, url)
	}
	return fmt.Sprintf(`<table id="tabla_generacion">
<tr><th colspan="4">Estructura de la generación</th></tr>
<tr><th>Hora</th><th>Eólica</th><th>Nuclear</th><th>Hidráulica</th></tr>
<tr><td>%[1]s 00:00</td><td>9.000</td><td>7.100</td><td>1.500</td></tr>
<tr><td>%[1]s 01:00</td><td>8.500</td><td></td><td>1.400</td></tr>
</table>`, day), nil
}

func newPipeline(t *testing.T, renderer *pageRenderer, feedURL string) *Pipeline {
	t.Helper()
	catalog, err := config.LoadCatalog()
	require.NoError(t, err)
	cfg := &config.Config{
		TableURLTemplate: "https://example.test/tablas/%s/%d",
		FeedURLTemplate:  feedURL,
		FeedTimeout:      5 * time.Second,
		MaxConcurrency:   2,
		MaxRetries:       1,
		RetryBackoff:     time.Millisecond,
	}
	return New(cfg, catalog, renderer, nil, utils.Discard())
}

func TestParseSelection(t *testing.T) {
	sel, err := ParseSelection("generacion", "renovables")
	require.NoError(t, err)
	assert.Equal(t, Selection{Category: models.Generation, Subset: models.SubsetRenewable}, sel)

	_, err = ParseSelection("viento", "")
	assert.ErrorIs(t, err, models.ErrUnknownCategory)

	_, err = ParseSelection("demand", "solar")
	assert.ErrorIs(t, err, models.ErrUnknownSubset)
}

func TestFetchRenderedWithSubset(t *testing.T) {
	p := newPipeline(t, &pageRenderer{failDay: "2024-05-02"}, "")
	r, err := models.ParseDateRange("2024-05-01", "2024-05-03")
	require.NoError(t, err)

	ds, err := p.Fetch(context.Background(), Selection{Category: models.Generation, Subset: models.SubsetRenewable}, r)
	require.NoError(t, err)

	assert.Equal(t, []string{"Fecha", "Hora", "Eólica", "Hidráulica"}, ds.Columns)
	assert.Equal(t, 4, ds.Len())
	require.Len(t, ds.Skipped, 1)
	assert.Equal(t, "2024-05-02", ds.Skipped[0].Date)
	assert.Equal(t, "01/05/2024", ds.Records[0].Fecha)
	assert.Equal(t, 9000.0, *ds.Records[0].Values["Eólica"])
}

func TestFetchGenerationZeroFill(t *testing.T) {
	p := newPipeline(t, &pageRenderer{}, "")
	r, err := models.ParseDateRange("2024-05-01", "2024-05-01")
	require.NoError(t, err)

	ds, err := p.Fetch(context.Background(), Selection{Category: models.Generation, Subset: models.SubsetNonRenewable}, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fecha", "Hora", "Nuclear"}, ds.Columns)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, 0.0, *ds.Records[1].Values["Nuclear"])
}

func TestFetchUndefinedSubsetFailsBeforeScraping(t *testing.T) {
	p := newPipeline(t, &pageRenderer{}, "")
	r, err := models.ParseDateRange("2024-05-01", "2024-05-01")
	require.NoError(t, err)

	_, err = p.Fetch(context.Background(), Selection{Category: models.Demand, Subset: models.SubsetRenewable}, r)
	assert.ErrorIs(t, err, models.ErrUnknownSubset)
}

func TestCompareGenerationWithPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		day := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/marginalpdbc_"), ".1")
		fmt.Fprintf(w, "MARGINALPDBC;\n%s;%s;%s;1;40.00;41.00;\n%s;%s;%s;2;42.00;43.00;\n*\n",
			day[:4], day[4:6], day[6:], day[:4], day[4:6], day[6:])
	}))
	defer srv.Close()

	p := newPipeline(t, &pageRenderer{}, srv.URL+"/marginalpdbc_%s.1")
	r, err := models.ParseDateRange("2024-05-01", "2024-05-02")
	require.NoError(t, err)

	merged, err := p.Compare(context.Background(),
		Selection{Category: models.Generation, Subset: models.SubsetRenewable},
		Selection{Category: models.Price},
		r)
	require.NoError(t, err)

	assert.Equal(t, []string{"Fecha", "Hora", "Eólica", "Hidráulica", "Price"}, merged.Columns)
	require.Equal(t, 4, merged.Len())
	assert.Equal(t, "01:00", merged.Records[1].Hora)
	assert.Equal(t, 43.0, *merged.Records[1].Values["Price"])
	assert.Equal(t, 8500.0, *merged.Records[1].Values["Eólica"])
}
