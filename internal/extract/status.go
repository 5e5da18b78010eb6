package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dartwatch/dartwatch/internal/models"
)

var scanTableKeywords = []string{"status and scans", "scan", "activity", "tracking history"}

// LatestStatus resolves the current shipment status. Status gets its own,
// higher-recall cascade because delivery detection hangs off it:
//
//  1. the generic field cascade for "Status",
//  2. a table row whose first cell is exactly "Status",
//  3. the newest row of the scan/activity table,
//  4. a status-looking line of the plain-text rendering,
//  5. the "Status not available" sentinel.
func (d *Document) LatestStatus() string {
	if v := d.Detail("Status", "Current Status", "Shipment Status"); v != models.ValueNotFound {
		return v
	}

	if v := d.statusRow(); v != "" {
		return v
	}

	if v := d.statusFromScans(); v != "" {
		return v
	}

	if v := d.statusLine(); v != "" {
		return v
	}

	return models.StatusNotAvailable
}

func (d *Document) statusRow() string {
	found := ""
	d.doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return true
		}
		first := collapse(cells.Eq(0).Text())
		if !strings.EqualFold(first, "Status") {
			return true
		}
		second := collapse(cells.Eq(1).Text())
		if len(second) > 2 {
			found = second
			return false
		}
		return true
	})
	return found
}

// statusFromScans reads the details column of the first data row of the scan
// table. Rows are assumed newest-first as the page renders them; this is a
// page convention, not a carrier guarantee.
func (d *Document) statusFromScans() string {
	table := d.findTableByKeywords()
	if table == nil {
		return ""
	}

	// Slice panics on out-of-range bounds, and a keyword match does not
	// guarantee the table has any rows.
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return ""
	}

	found := ""
	rows.Slice(1, goquery.ToEnd).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cols := rowColumns(row)
		if len(cols) != 4 {
			return true
		}
		details := cols[1]
		if len(details) > 3 {
			found = details
			return false
		}
		return true
	})
	return found
}

func (d *Document) findTableByKeywords() *goquery.Selection {
	var table *goquery.Selection
	d.doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		text := strings.ToLower(t.Text())
		for _, kw := range scanTableKeywords {
			if strings.Contains(text, kw) {
				table = t
				return false
			}
		}
		return true
	})
	return table
}

// statusLine scans the plain-text rendering for a line that plausibly carries
// a status: mentions "status", is neither a fragment nor a paragraph, and is
// free of page machinery.
func (d *Document) statusLine() string {
	for _, line := range strings.Split(d.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !containsFold(line, "status") {
			continue
		}
		if len(line) <= 10 || len(line) >= 100 {
			continue
		}
		clean := collapse(line)
		if hasNoise(clean, sanitizeNoise) {
			continue
		}
		return clean
	}
	return ""
}
