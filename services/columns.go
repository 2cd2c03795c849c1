package services

import (
	"fmt"

	"energy-scraper/models"
)

// SelectColumns narrows a dataset to a named column subset of its category.
// The result holds Fecha, Hora and the subset columns the dataset actually has, in subset order.
func SelectColumns(ds models.Dataset, spec models.CategorySpec, subset models.Subset) (models.Dataset, error) {
	if subset == "" || subset == models.SubsetAll {
		return ds, nil
	}
	wanted, ok := spec.Subsets[subset]
	if !ok {
		return models.Dataset{}, fmt.Errorf("%w: %q is not defined for %s", models.ErrUnknownSubset, subset, spec.Name)
	}

	cols := make([]string, 0, len(wanted))
	for _, c := range wanted {
		if ds.HasColumn(c) {
			cols = append(cols, c)
		}
	}

	out := models.NewDataset(ds.Category, ds.Fill, cols)
	out.Skipped = ds.Skipped
	out.Records = make([]models.Record, len(ds.Records))
	for i, rec := range ds.Records {
		values := make(map[string]*float64, len(cols))
		for _, c := range cols {
			values[c] = copyValue(rec.Values[c])
		}
		out.Records[i] = models.Record{Fecha: rec.Fecha, Hora: rec.Hora, Values: values}
	}
	return out, nil
}
