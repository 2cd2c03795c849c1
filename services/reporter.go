package services

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"energy-scraper/models"
)

// PrintPreview writes the first n rows of a dataset as an aligned table
func PrintPreview(w io.Writer, ds models.Dataset, title string, n int) {
	border := strings.Repeat("═", 55)

	fmt.Fprintf(w, "\n╔%s╗\n", border)
	fmt.Fprintf(w, "║%s║\n", center(strings.ToUpper(title), 55))
	fmt.Fprintf(w, "╚%s╝\n", border)

	if ds.Empty() {
		fmt.Fprintf(w, "\n  No data in the selected range.\n")
		printSkipped(w, ds)
		fmt.Fprintln(w)
		return
	}

	head := ds.Head(n)
	table := make([][]string, 0, head.Len()+1)
	table = append(table, head.Columns)
	for _, rec := range head.Records {
		row := make([]string, len(head.Columns))
		for i, c := range head.Columns {
			switch c {
			case models.ColFecha:
				row[i] = rec.Fecha
			case models.ColHora:
				row[i] = rec.Hora
			default:
				row[i] = FormatValue(rec.Values[c])
			}
		}
		table = append(table, row)
	}

	widths := make([]int, len(head.Columns))
	for _, row := range table {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	fmt.Fprintln(w)
	for r, row := range table {
		var sb strings.Builder
		sb.WriteString(" ")
		for i, cell := range row {
			sb.WriteString(" ")
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString(" │")
		}
		fmt.Fprintln(w, strings.TrimSuffix(sb.String(), "│"))
		if r == 0 {
			var sep strings.Builder
			sep.WriteString(" ")
			for i := range row {
				sep.WriteString(strings.Repeat("─", widths[i]+2))
				if i < len(row)-1 {
					sep.WriteString("┼")
				}
			}
			fmt.Fprintln(w, sep.String())
		}
	}

	fmt.Fprintf(w, "\n  Showing %d of %d rows\n", head.Len(), ds.Len())
	printSkipped(w, ds)
	fmt.Fprintln(w)
}

// PrintStats writes a statistics block
func PrintStats(w io.Writer, stats ColumnStats) {
	thin := strings.Repeat("─", 55)
	fmt.Fprintf(w, "\n STATISTICS: %s\n%s\n", stats.Column, thin)
	fmt.Fprintf(w, "  Maximum : %10.2f  at %s\n", stats.Max, stats.MaxAt)
	fmt.Fprintf(w, "  Minimum : %10.2f  at %s\n", stats.Min, stats.MinAt)
	fmt.Fprintf(w, "  Mean    : %10.2f  over %d values\n", stats.Mean, stats.Count)
	if stats.Skipped > 0 {
		fmt.Fprintf(w, "  Nulls   : %d\n", stats.Skipped)
	}
	fmt.Fprintln(w)
}

func printSkipped(w io.Writer, ds models.Dataset) {
	for _, s := range ds.Skipped {
		fmt.Fprintf(w, "  ! %s skipped: %s\n", s.Date, truncate(s.Cause, 70))
	}
}

// FormatValue renders a cell for display and export; null is empty
func FormatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func center(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	pad := (width - w) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-w-pad)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
