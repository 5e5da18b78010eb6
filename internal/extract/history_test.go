package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dartwatch/dartwatch/internal/models"
)

func TestHistory_ByCaptionPhrase(t *testing.T) {
	doc := mustNormalize(t, `<html><body>
		<table>
			<tr><th colspan="4">Status and Scans</th></tr>
			<tr><th>Location</th><th>Details</th><th>Date</th><th>Time</th></tr>
			<tr><td>HYDERABAD</td><td>Out For Delivery</td><td>14 Mar 2024</td><td>09:12</td></tr>
			<tr><td>MUMBAI</td><td>Shipment Picked Up</td><td>12 Mar 2024</td><td>18:40</td></tr>
		</table>
	</body></html>`)

	entries := doc.History()
	require.Equal(t, []models.ScanEntry{
		{Location: "HYDERABAD", Details: "Out For Delivery", Date: "14 Mar 2024", Time: "09:12"},
		{Location: "MUMBAI", Details: "Shipment Picked Up", Date: "12 Mar 2024", Time: "18:40"},
	}, entries)
}

func TestHistory_FallbackByHeaderShape(t *testing.T) {
	// No "Status and Scans" phrase anywhere; the 4-header date/time table
	// should still be recognized.
	doc := mustNormalize(t, `<html><body>
		<table><tr><td>Pickup Date</td><td>12 Mar 2024</td></tr></table>
		<table>
			<tr><th>Location</th><th>Details</th><th>Date</th><th>Time</th></tr>
			<tr><td>MUMBAI</td><td>Bag Received At Facility</td><td>13 Mar 2024</td><td>07:03</td></tr>
		</table>
	</body></html>`)

	entries := doc.History()
	require.Len(t, entries, 1)
	require.Equal(t, "Bag Received At Facility", entries[0].Details)
	require.Equal(t, "MUMBAI", entries[0].Location)
}

func TestHistory_SkipsMalformedRows(t *testing.T) {
	doc := mustNormalize(t, `<html><body>
		<table>
			<tr><th colspan="4">Status and Scans</th></tr>
			<tr><th>Location</th><th>Details</th><th>Date</th><th>Time</th></tr>
			<tr><td>only</td><td>three</td><td>cells</td></tr>
			<tr><td>DELHI</td><td>In Transit</td><td>11 Mar 2024</td><td>22:51</td></tr>
		</table>
	</body></html>`)

	entries := doc.History()
	require.Len(t, entries, 1)
	require.Equal(t, "DELHI", entries[0].Location)
}

func TestHistory_RowlessScanTable(t *testing.T) {
	// A caption is enough to match the table, but there is nothing to slice.
	doc := mustNormalize(t, `<html><body>
		<table><caption>Status and Scans</caption></table>
	</body></html>`)

	var entries []models.ScanEntry
	require.NotPanics(t, func() { entries = doc.History() })
	require.Empty(t, entries)
}

func TestHistory_NoScanTable(t *testing.T) {
	doc := mustNormalize(t, `<html><body>
		<table><tr><td>Origin</td><td>MUMBAI</td></tr></table>
	</body></html>`)

	require.Empty(t, doc.History())
}
