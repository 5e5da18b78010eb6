package models

import "strings"

// Sentinel field values. Extraction never yields an empty string: a field is
// either real page content or one of these.
const (
	ValueNotFound    = "N/A"
	ValueUnavailable = "Information unavailable"

	// StatusNotAvailable marks a true status-extraction failure. It is
	// deliberately distinct from ValueNotFound: status drives delivery
	// detection and must never degrade silently.
	StatusNotAvailable = "Status not available"
)

// ShipmentRecord is the structured result of one extraction pass over the
// carrier tracking page. Records are rebuilt on every fetch and never mutated.
//
// Delivery is non-nil if and only if Delivered is true; ExpectedDelivery is
// populated only for shipments still in transit.
type ShipmentRecord struct {
	WaybillID   string `json:"waybillId"`
	Status      string `json:"status"`
	PickupDate  string `json:"pickupDate"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	ReferenceNo string `json:"referenceNo"`

	Delivered bool `json:"delivered"`

	Delivery         *DeliveryDetails `json:"delivery,omitempty"`
	ExpectedDelivery string           `json:"expectedDelivery,omitempty"`
}

type DeliveryDetails struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Recipient string `json:"recipient"`
}

// ScanEntry is one row of the page's scan/activity table, in page order
// (newest first as the carrier renders it).
type ScanEntry struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Details  string `json:"details"`
}

// IsDeliveredStatus reports whether a raw status string means the shipment
// has reached its terminal state.
func IsDeliveredStatus(status string) bool {
	return strings.Contains(strings.ToLower(status), "delivered")
}
