package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-scraper/models"
	"energy-scraper/utils"
)

func f64(v float64) *float64 { return &v }

func sampleDataset() models.Dataset {
	ds := models.NewDataset(models.Price, models.FillNull, []string{"Price"})
	ds.Records = []models.Record{
		{Fecha: "15/01/2024", Hora: "00:00", Values: map[string]*float64{"Price": f64(63.33)}},
		{Fecha: "15/01/2024", Hora: "01:00", Values: map[string]*float64{"Price": nil}},
	}
	return ds
}

func TestWriteDataset(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDataset(&buf, sampleDataset(), ';'))

	assert.Equal(t, "Fecha;Hora;Price\n15/01/2024;00:00;63.33\n15/01/2024;01:00;\n", buf.String())
}

func TestWriteDatasetQuotesDelimiter(t *testing.T) {
	ds := models.NewDataset(models.Generation, models.FillZero, []string{"Ciclo, combinado"})
	var buf bytes.Buffer
	require.NoError(t, WriteDataset(&buf, ds, ','))
	assert.Equal(t, "Fecha,Hora,\"Ciclo, combinado\"\n", buf.String())
}

func TestCSVWriterWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewCSVWriter(dir, utils.Discard())

	path, err := w.WriteFile("Precios-2024-01-15_2024-01-15.csv", sampleDataset(), ';')
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Precios-2024-01-15_2024-01-15.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "15/01/2024;00:00;63.33")
}
