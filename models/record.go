package models

import (
	"fmt"
	"time"
)

const (
	// ColFecha and ColHora are the key columns present in every dataset, always first.
	ColFecha = "Fecha"
	ColHora  = "Hora"

	FechaLayout = "02/01/2006"
	HoraLayout  = "15:04"
	ISODate     = "2006-01-02"
)

// RawTable is the unprocessed content of one scraped HTML table (one category, one day)
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// Column returns the index of a header label, or -1
func (t RawTable) Column(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Record is one normalized row keyed by Fecha+Hora. A nil value is a null cell.
type Record struct {
	Fecha  string
	Hora   string
	Values map[string]*float64
}

// Timestamp re-derives the wall-clock instant from Fecha and Hora
func (r Record) Timestamp() (time.Time, error) {
	ts, err := time.Parse(FechaLayout+" "+HoraLayout, r.Fecha+" "+r.Hora)
	if err != nil {
		return time.Time{}, fmt.Errorf("record %s %s: %w", r.Fecha, r.Hora, err)
	}
	return ts, nil
}

// Key is the join key used to align datasets
func (r Record) Key() string {
	return r.Fecha + " " + r.Hora
}

// Value returns the value of a column and whether it is non-null
func (r Record) Value(col string) (float64, bool) {
	v, ok := r.Values[col]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Clone returns a copy that does not share the values map
func (r Record) Clone() Record {
	values := make(map[string]*float64, len(r.Values))
	for k, v := range r.Values {
		if v != nil {
			val := *v
			values[k] = &val
		} else {
			values[k] = nil
		}
	}
	return Record{Fecha: r.Fecha, Hora: r.Hora, Values: values}
}

// DayFailure records a day that was skipped during a range fetch
type DayFailure struct {
	Date  string `json:"date"`
	Cause string `json:"cause"`
}

// Dataset is an ordered table of records. Columns always starts with Fecha, Hora.
type Dataset struct {
	Category Category
	Columns  []string
	Records  []Record
	Fill     FillPolicy
	Skipped  []DayFailure
}

// NewDataset creates an empty dataset with the key columns followed by valueCols
func NewDataset(category Category, fill FillPolicy, valueCols []string) Dataset {
	cols := make([]string, 0, len(valueCols)+2)
	cols = append(cols, ColFecha, ColHora)
	cols = append(cols, valueCols...)
	return Dataset{Category: category, Columns: cols, Fill: fill}
}

// Empty reports whether the dataset holds no rows ("no data in range", not a failure)
func (d Dataset) Empty() bool {
	return len(d.Records) == 0
}

// Len returns the number of rows
func (d Dataset) Len() int {
	return len(d.Records)
}

// ValueColumns returns every column except Fecha and Hora
func (d Dataset) ValueColumns() []string {
	out := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		if c == ColFecha || c == ColHora {
			continue
		}
		out = append(out, c)
	}
	return out
}

// HasColumn reports whether col is part of the dataset
func (d Dataset) HasColumn(col string) bool {
	for _, c := range d.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Row renders one record as a column-name → value map (string for keys, float64 or nil for values)
func (d Dataset) Row(i int) map[string]any {
	r := d.Records[i]
	row := make(map[string]any, len(d.Columns))
	for _, c := range d.Columns {
		switch c {
		case ColFecha:
			row[c] = r.Fecha
		case ColHora:
			row[c] = r.Hora
		default:
			if v, ok := r.Value(c); ok {
				row[c] = v
			} else {
				row[c] = nil
			}
		}
	}
	return row
}

// Head returns a copy holding at most n leading rows
func (d Dataset) Head(n int) Dataset {
	out := d
	if n < len(d.Records) {
		out.Records = d.Records[:n]
	}
	return out
}
