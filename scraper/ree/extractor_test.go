package ree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-scraper/models"
)

const demandPage = `<html><body>
<table id="tabla_evolucion">
  <tr><th colspan="4">Evolución de la demanda</th></tr>
  <tr><th>Hora</th><th>Real</th><th>Prevista</th><th>Programada</th></tr>
  <tr><td>2024-03-10 00:00</td><td>27.815</td><td>27.900</td><td>28.100</td></tr>
  <tr><td>2024-03-10 00:10</td><td>  27.640 </td><td>27.750</td><td>28.000</td></tr>
  <tr><td>2024-03-10 00:20</td><td>27.500</td></tr>
  <tr></tr>
</table>
<table id="other"><tr><td>x</td></tr></table>
</body></html>`

func TestExtractTable(t *testing.T) {
	ex, err := ExtractTable(demandPage, "tabla_evolucion")
	require.NoError(t, err)

	assert.Equal(t, []string{"Hora", "Real", "Prevista", "Programada"}, ex.Table.Headers)
	require.Len(t, ex.Table.Rows, 2)
	assert.Equal(t, []string{"2024-03-10 00:10", "27.640", "27.750", "28.000"}, ex.Table.Rows[1])
	assert.Equal(t, 1, ex.Mismatched)
}

func TestExtractTableNotFound(t *testing.T) {
	_, err := ExtractTable(demandPage, "tabla_generacion")
	assert.ErrorIs(t, err, models.ErrTableNotFound)
}

func TestExtractTableWithoutHeaderRow(t *testing.T) {
	_, err := ExtractTable(demandPage, "other")
	assert.ErrorIs(t, err, models.ErrMalformedTable)
}

func TestExtractTableHeaderOnly(t *testing.T) {
	html := `<table id="t"><tr><th>group</th></tr><tr><th>Hora</th><th>Real</th></tr></table>`
	ex, err := ExtractTable(html, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hora", "Real"}, ex.Table.Headers)
	assert.Empty(t, ex.Table.Rows)
}
