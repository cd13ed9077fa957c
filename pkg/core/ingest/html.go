package ingest

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ReadHTMLTables extracts every table with at least a header and one data
// row from an HTML statement page.
func ReadHTMLTables(r io.Reader) ([]Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &DocumentError{Format: "html", Err: err}
	}

	var tables []Table
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		title := tableTitle(table)

		var grid [][]string
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if len(cells) == 0 {
				return
			}
			// a lone cell spanning the first row is the caption
			if len(grid) == 0 && len(cells) == 1 && title == "" {
				title = cells[0]
				return
			}
			grid = append(grid, cells)
		})

		if t, ok := NewTable("html", 0, grid); ok {
			t.Title = title
			tables = append(tables, t)
		}
	})
	return tables, nil
}

// tableTitle looks for a caption or a heading right before the table.
func tableTitle(table *goquery.Selection) string {
	if c := strings.TrimSpace(table.Find("caption").First().Text()); c != "" {
		return c
	}
	if prev := table.Prev(); prev.Length() > 0 && prev.Is("h1, h2, h3, h4, h5, h6, p") {
		text := strings.TrimSpace(prev.Text())
		if len([]rune(text)) <= 40 {
			return text
		}
	}
	return ""
}
