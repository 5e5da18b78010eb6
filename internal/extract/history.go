package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dartwatch/dartwatch/internal/models"
)

// History extracts the scan/activity table as ordered entries, page order
// preserved. The table is located by the literal "Status and Scans" caption
// first, then by header shape (exactly 4 columns including date and time).
// A page without a recognizable scan table yields no entries.
func (d *Document) History() []models.ScanEntry {
	table := d.findScanTable()
	if table == nil {
		return nil
	}

	rows := table.Find("tr")
	if rows.Length() < 2 {
		return nil
	}

	var entries []models.ScanEntry
	rows.Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		cols := rowColumns(row)
		if len(cols) != 4 {
			return
		}
		entries = append(entries, models.ScanEntry{
			Location: cols[0],
			Details:  cols[1],
			Date:     cols[2],
			Time:     cols[3],
		})
	})
	return entries
}

func (d *Document) findScanTable() *goquery.Selection {
	var table *goquery.Selection
	d.doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if strings.Contains(t.Text(), "Status and Scans") {
			table = t
			return false
		}
		return true
	})
	if table != nil {
		return table
	}

	d.doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		headers := t.Find("th")
		if headers.Length() != 4 {
			return true
		}
		hasDate, hasTime := false, false
		headers.Each(func(_ int, h *goquery.Selection) {
			switch strings.ToLower(collapse(h.Text())) {
			case "date":
				hasDate = true
			case "time":
				hasTime = true
			}
		})
		if hasDate && hasTime {
			table = t
			return false
		}
		return true
	})
	return table
}

// rowColumns returns the collapsed text of a row's td cells. Header rows
// built from th cells come back empty, which skips them naturally.
func rowColumns(row *goquery.Selection) []string {
	cells := row.Find("td")
	cols := make([]string, 0, cells.Length())
	cells.Each(func(_ int, cell *goquery.Selection) {
		cols = append(cols, collapse(cell.Text()))
	})
	return cols
}
