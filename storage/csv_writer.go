package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"energy-scraper/models"
	"energy-scraper/services"
	"energy-scraper/utils"
)

// CSVWriter exports datasets as delimited text
type CSVWriter struct {
	outputDir string
	logger    *utils.Logger
}

// NewCSVWriter creates a new CSVWriter rooted at outputDir
func NewCSVWriter(outputDir string, logger *utils.Logger) *CSVWriter {
	return &CSVWriter{outputDir: outputDir, logger: logger}
}

// WriteDataset writes ds to w: a header row with the column names, then one row per record.
// Null cells are written empty.
func WriteDataset(w io.Writer, ds models.Dataset, delimiter rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delimiter

	if err := writer.Write(ds.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, len(ds.Columns))
	for _, rec := range ds.Records {
		for i, c := range ds.Columns {
			switch c {
			case models.ColFecha:
				row[i] = rec.Fecha
			case models.ColHora:
				row[i] = rec.Hora
			default:
				row[i] = services.FormatValue(rec.Values[c])
			}
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %s: %w", rec.Key(), err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes ds under the output directory and returns the full path
func (w *CSVWriter) WriteFile(name string, ds models.Dataset, delimiter rune) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.outputDir, name)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	if err := WriteDataset(file, ds, delimiter); err != nil {
		return "", err
	}

	w.logger.Info("Dataset written to: %s (%d rows)", path, ds.Len())
	return path, nil
}
