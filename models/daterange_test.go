package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr bool
	}{
		{"single day", "2024-03-10", "2024-03-10", false},
		{"week", "2024-03-10", "2024-03-16", false},
		{"missing start", "", "2024-03-16", true},
		{"missing end", "2024-03-10", " ", true},
		{"bad format", "10/03/2024", "2024-03-16", true},
		{"end before start", "2024-03-16", "2024-03-10", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDateRange(tt.start, tt.end)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRange)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDateRangeDays(t *testing.T) {
	r, err := ParseDateRange("2024-02-27", "2024-03-02")
	require.NoError(t, err)

	days := r.Days()
	require.Len(t, days, 5)
	assert.Equal(t, "2024-02-29", days[2].Format(ISODate))
	assert.Equal(t, "2024-03-02", days[4].Format(ISODate))
}

func TestDateRangeContains(t *testing.T) {
	r, err := ParseDateRange("2024-03-10", "2024-03-11")
	require.NoError(t, err)

	assert.True(t, r.Contains(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2024, 3, 11, 23, 59, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 3, 9, 23, 45, 0, 0, time.UTC)))
}

func TestRecordTimestampAndClone(t *testing.T) {
	v := 12.5
	rec := Record{Fecha: "31/12/2023", Hora: "23:50", Values: map[string]*float64{"Real": &v, "Prevista": nil}}

	ts, err := rec.Timestamp()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 12, 31, 23, 50, 0, 0, time.UTC), ts)

	clone := rec.Clone()
	*clone.Values["Real"] = 99
	clone.Values["Programada"] = nil
	assert.Equal(t, 12.5, *rec.Values["Real"])
	assert.Len(t, rec.Values, 2)

	_, err = Record{Fecha: "31/12/2023", Hora: "25:00"}.Timestamp()
	assert.Error(t, err)
}

func TestParseCategoryAndSubset(t *testing.T) {
	c, err := ParseCategory("Demanda")
	require.NoError(t, err)
	assert.Equal(t, Demand, c)

	c, err = ParseCategory("generación")
	require.NoError(t, err)
	assert.Equal(t, Generation, c)

	_, err = ParseCategory("weather")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	s, err := ParseSubset("")
	require.NoError(t, err)
	assert.Equal(t, SubsetAll, s)

	s, err = ParseSubset("renovables")
	require.NoError(t, err)
	assert.Equal(t, SubsetRenewable, s)

	_, err = ParseSubset("fossil")
	assert.ErrorIs(t, err, ErrUnknownSubset)
}

func TestDatasetHelpers(t *testing.T) {
	ds := NewDataset(Demand, FillNull, []string{"Real"})
	assert.Equal(t, []string{ColFecha, ColHora, "Real"}, ds.Columns)
	assert.True(t, ds.Empty())
	assert.Equal(t, []string{"Real"}, ds.ValueColumns())

	v := 1.0
	for i := 0; i < 3; i++ {
		ds.Records = append(ds.Records, Record{Fecha: "01/01/2024", Hora: "00:00", Values: map[string]*float64{"Real": &v}})
	}
	ds.Records[2].Values = map[string]*float64{"Real": nil}

	assert.Equal(t, 2, ds.Head(2).Len())
	assert.Equal(t, 3, ds.Head(10).Len())
	assert.Equal(t, map[string]any{ColFecha: "01/01/2024", ColHora: "00:00", "Real": 1.0}, ds.Row(0))
	assert.Nil(t, ds.Row(2)["Real"])
}

func TestExportFilename(t *testing.T) {
	r, err := ParseDateRange("2024-01-01", "2024-01-07")
	require.NoError(t, err)

	spec := CategorySpec{Name: Price, Label: "Precio", ExportPrefix: "Precios", Delimiter: ";"}
	assert.Equal(t, "Precios-2024-01-01_2024-01-07.csv", spec.ExportFilename(r))
	assert.Equal(t, ';', spec.DelimiterRune())
	assert.Equal(t, ',', CategorySpec{}.DelimiterRune())
}
