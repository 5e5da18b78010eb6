package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dartwatch/dartwatch/internal/models"
)

func TestLatestStatus_FromDetailsTable(t *testing.T) {
	doc := mustNormalize(t, `<html><body><table>
		<tr><td>Current Status</td><td>Shipment Picked Up</td></tr>
	</table></body></html>`)

	require.Equal(t, "Shipment Picked Up", doc.LatestStatus())
}

func TestLatestStatus_FromStatusRow(t *testing.T) {
	doc := mustNormalize(t, `<html><body><table>
		<tr><th>Status</th><td>In Transit</td></tr>
	</table></body></html>`)

	require.Equal(t, "In Transit", doc.LatestStatus())
}

func TestLatestStatus_FromScanTable(t *testing.T) {
	doc := mustNormalize(t, `<html><body>
		<table>
			<tr><th colspan="4">Status and Scans</th></tr>
			<tr><th>Location</th><th>Details</th><th>Date</th><th>Time</th></tr>
			<tr><td>HYDERABAD</td><td>Out For Delivery</td><td>14 Mar 2024</td><td>09:12</td></tr>
			<tr><td>MUMBAI</td><td>Shipment Picked Up</td><td>12 Mar 2024</td><td>18:40</td></tr>
		</table>
	</body></html>`)

	require.Equal(t, "Out For Delivery", doc.LatestStatus())
}

func TestLatestStatus_FromPlainTextLine(t *testing.T) {
	// No status-bearing table anywhere: the cascade must fall through to the
	// plain-text scan and pick up this line verbatim.
	doc := mustNormalize(t, `<html><body>
		<p>Order Status: In Transit For Further Info</p>
	</body></html>`)

	require.Equal(t, "Order Status: In Transit For Further Info", doc.LatestStatus())
}

func TestLatestStatus_PlainTextSkipsNoiseAndLength(t *testing.T) {
	doc := mustNormalize(t, `<html><body>
		<div><p>status</p></div>
		<div><p>Order Status: window analytics line that should be rejected</p></div>
		<div><p>Delivery Status: Arrived At Facility</p></div>
	</body></html>`)

	require.Equal(t, "Delivery Status: Arrived At Facility", doc.LatestStatus())
}

func TestLatestStatus_RowlessScanTable(t *testing.T) {
	// The keyword match alone must not be trusted to mean the table has rows.
	doc := mustNormalize(t, `<html><body>
		<table><caption>Scan</caption></table>
	</body></html>`)

	status := ""
	require.NotPanics(t, func() { status = doc.LatestStatus() })
	require.Equal(t, models.StatusNotAvailable, status)
}

func TestLatestStatus_Sentinel(t *testing.T) {
	doc := mustNormalize(t, `<html><body><p>no shipment data here</p></body></html>`)
	require.Equal(t, models.StatusNotAvailable, doc.LatestStatus())
}
