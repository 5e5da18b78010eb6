package messages

import "time"

const (
	KindStatusChanged = "status_changed"
	KindDelivered     = "delivered"
)

// Notification is the payload published for the chat gateway whenever a
// tracked shipment changes state. Delivered notifications additionally carry
// the delivery details; plain status changes carry only the new status.
type Notification struct {
	Kind         string    `json:"kind"`
	SubscriberID int64     `json:"subscriber_id"`
	WaybillID    string    `json:"waybill_id"`
	Status       string    `json:"status"`
	CheckedAt    time.Time `json:"checked_at"`

	Delivery *DeliveryInfo `json:"delivery,omitempty"`
}

type DeliveryInfo struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Recipient string `json:"recipient"`
}
