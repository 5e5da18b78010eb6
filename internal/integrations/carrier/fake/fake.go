// Package fake is a deterministic stand-in carrier for demos and wiring
// tests: no network, status derived from the waybill id.
package fake

import (
	"context"
	"hash/fnv"

	"github.com/dartwatch/dartwatch/internal/integrations/carrier"
	"github.com/dartwatch/dartwatch/internal/models"
)

type Client struct{}

func New() *Client { return &Client{} }

func (c *Client) GetShipment(ctx context.Context, waybillID string) (carrier.Result, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(waybillID))
	v := h.Sum32()

	// one in five waybills is delivered
	if v%5 == 0 {
		return carrier.Result{
			Record: models.ShipmentRecord{
				WaybillID:   waybillID,
				Status:      "Shipment Delivered",
				PickupDate:  "12 Mar 2024",
				Origin:      "MUMBAI",
				Destination: "HYDERABAD",
				ReferenceNo: models.ValueNotFound,
				Delivered:   true,
				Delivery: &models.DeliveryDetails{
					Date:      "15 Mar 2024",
					Time:      "13:37",
					Recipient: "R SHARMA",
				},
			},
			History: []models.ScanEntry{
				{Date: "15 Mar 2024", Time: "13:37", Location: "HYDERABAD", Details: "Shipment Delivered"},
				{Date: "12 Mar 2024", Time: "18:40", Location: "MUMBAI", Details: "Shipment Picked Up"},
			},
		}, nil
	}

	return carrier.Result{
		Record: models.ShipmentRecord{
			WaybillID:        waybillID,
			Status:           "In Transit",
			PickupDate:       "12 Mar 2024",
			Origin:           "MUMBAI",
			Destination:      "HYDERABAD",
			ReferenceNo:      models.ValueNotFound,
			ExpectedDelivery: "16 Mar 2024",
		},
		History: []models.ScanEntry{
			{Date: "12 Mar 2024", Time: "18:40", Location: "MUMBAI", Details: "Shipment Picked Up"},
		},
	}, nil
}
