package services

import (
	"strconv"

	"energy-scraper/models"
)

// Merge aligns two datasets on Fecha+Hora for side-by-side comparison.
//
// Both empty gives an empty result; exactly one empty gives a copy of the other.
// Otherwise only keys present on both sides survive, duplicate keys produce their
// cross product, and a's row order is kept. Value columns of b that clash with a's
// are suffixed with b's category.
func Merge(a, b models.Dataset) models.Dataset {
	switch {
	case a.Empty() && b.Empty():
		return models.NewDataset("", models.FillNull, nil)
	case b.Empty():
		return copyDataset(a)
	case a.Empty():
		return copyDataset(b)
	}

	aCols := a.ValueColumns()
	bCols := b.ValueColumns()
	rename := make(map[string]string, len(bCols))
	taken := make(map[string]bool, len(aCols)+len(bCols))
	for _, c := range aCols {
		taken[c] = true
	}
	outCols := append([]string(nil), aCols...)
	for _, c := range bCols {
		name := c
		if taken[name] {
			name = c + "_" + string(b.Category)
		}
		for n := 2; taken[name]; n++ {
			name = c + "_" + string(b.Category) + "_" + strconv.Itoa(n)
		}
		taken[name] = true
		rename[c] = name
		outCols = append(outCols, name)
	}

	byKey := make(map[string][]int, len(b.Records))
	for i, rec := range b.Records {
		byKey[rec.Key()] = append(byKey[rec.Key()], i)
	}

	out := models.NewDataset(a.Category, a.Fill, outCols)
	for _, ra := range a.Records {
		for _, j := range byKey[ra.Key()] {
			rb := b.Records[j]
			values := make(map[string]*float64, len(outCols))
			for _, c := range aCols {
				values[c] = copyValue(ra.Values[c])
			}
			for _, c := range bCols {
				values[rename[c]] = copyValue(rb.Values[c])
			}
			out.Records = append(out.Records, models.Record{Fecha: ra.Fecha, Hora: ra.Hora, Values: values})
		}
	}
	return out
}

func copyDataset(d models.Dataset) models.Dataset {
	out := d
	out.Columns = append([]string(nil), d.Columns...)
	out.Records = make([]models.Record, len(d.Records))
	for i, r := range d.Records {
		out.Records[i] = r.Clone()
	}
	return out
}

func copyValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	val := *v
	return &val
}
