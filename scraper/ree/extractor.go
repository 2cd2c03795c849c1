package ree

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"energy-scraper/models"
)

// Extraction is a raw table plus the number of data rows dropped for a cell-count mismatch
type Extraction struct {
	Table      models.RawTable
	Mismatched int
}

// ExtractTable finds the table with the given id in rendered HTML.
// The first row is a decorative group header; the second row holds the column labels.
func ExtractTable(html, tableID string) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extraction{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	table := doc.Find(fmt.Sprintf(`table[id=%q]`, tableID)).First()
	if table.Length() == 0 {
		return Extraction{}, fmt.Errorf("%w: #%s", models.ErrTableNotFound, tableID)
	}

	rows := table.Find("tr")
	if rows.Length() < 2 {
		return Extraction{}, fmt.Errorf("%w: #%s has %d rows, need a header row", models.ErrMalformedTable, tableID, rows.Length())
	}

	var out Extraction
	out.Table.Headers = cellTexts(rows.Eq(1))

	rows.Slice(2, rows.Length()).Each(func(_ int, tr *goquery.Selection) {
		cells := cellTexts(tr)
		if len(cells) == 0 {
			return
		}
		if len(cells) != len(out.Table.Headers) {
			out.Mismatched++
			return
		}
		out.Table.Rows = append(out.Table.Rows, cells)
	})
	return out, nil
}

func cellTexts(tr *goquery.Selection) []string {
	var cells []string
	tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, strings.Join(strings.Fields(cell.Text()), " "))
	})
	return cells
}
