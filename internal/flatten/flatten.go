// Package flatten converts SEC filing HTML into plain text suitable for
// chunking. Financial tables dominate a 10-K, so they are rendered
// row-by-row with a stable cell delimiter instead of being discarded with
// the rest of the markup.
package flatten

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// CellSeparator joins table cells within a row.
const CellSeparator = " | "

// HTML flattens a filing document. Each table row becomes one line with
// cells joined by CellSeparator; block-level prose outside tables follows
// the table rows. Script and style content is always dropped. A document
// with no tables and no block elements falls back to its visible body text.
func HTML(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", eris.Wrap(err, "flatten: parse HTML")
	}

	doc.Find("script, style").Remove()

	var lines []string

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, collapse(cell.Text()))
			})
			if line := strings.TrimSpace(strings.Join(cells, CellSeparator)); line != "" {
				lines = append(lines, line)
			}
		})
	})

	doc.Find("p, h1, h2, h3, h4, h5, h6, li").Each(func(_ int, sel *goquery.Selection) {
		// Table cell text already appears in the row lines above.
		if sel.Closest("table").Length() > 0 {
			return
		}
		if text := collapse(sel.Text()); text != "" {
			lines = append(lines, text)
		}
	})

	if len(lines) == 0 {
		if text := collapse(doc.Find("body").Text()); text != "" {
			lines = append(lines, text)
		}
	}

	return strings.Join(lines, "\n"), nil
}

// collapse squeezes all runs of whitespace to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
