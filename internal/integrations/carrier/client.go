package carrier

import (
	"context"

	"github.com/dartwatch/dartwatch/internal/models"
)

// Result is one successful extraction pass: the structured record plus the
// scan history in page order. Both are recomputed on every call and never
// cached.
type Result struct {
	Record  models.ShipmentRecord
	History []models.ScanEntry
}

// Client fetches and extracts tracking data for a waybill. A fetch or parse
// failure is returned as an error and means "no record": callers treat it as
// an unknown waybill, never as a state transition.
type Client interface {
	GetShipment(ctx context.Context, waybillID string) (Result, error)
}
