package extract

import "github.com/dartwatch/dartwatch/internal/models"

// Record assembles the shipment record for a waybill from the normalized
// page. The field set branches on delivery: delivered shipments carry
// delivery date/time/recipient, in-transit ones carry the expected delivery
// date. Every free-text field passes through sanitize, so the result never
// contains an empty string.
func (d *Document) Record(waybillID string) models.ShipmentRecord {
	status := d.LatestStatus()
	delivered := models.IsDeliveredStatus(status)

	rec := models.ShipmentRecord{
		WaybillID:   sanitize(waybillID),
		Status:      sanitize(status),
		PickupDate:  sanitize(d.Detail("Pickup Date", "Pickup", "Pick Up Date", "Booking Date")),
		Origin:      sanitize(d.Detail("From", "Origin", "Source", "Consignor")),
		Destination: sanitize(d.Detail("To", "Destination", "Consignee", "Delivery To")),
		ReferenceNo: sanitize(d.Detail("Reference No", "Reference", "Ref No", "Customer Reference")),
		Delivered:   delivered,
	}

	if delivered {
		rec.Delivery = &models.DeliveryDetails{
			Date:      sanitize(d.Detail("Date of Delivery", "Delivery Date", "Delivered Date")),
			Time:      sanitize(d.Detail("Time of Delivery", "Delivery Time", "Delivered Time")),
			Recipient: sanitize(d.Detail("Recipient", "Received By", "Delivered To")),
		}
	} else {
		rec.ExpectedDelivery = sanitize(d.Detail("Expected Date of Delivery", "Expected Delivery", "Delivery Date", "EDD"))
	}

	return rec
}
