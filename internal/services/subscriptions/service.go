// Package subscriptions implements the command-surface operations over the
// subscription store: subscribe, unsubscribe, list, clear, one-shot track and
// history. All store mutations are serialized by the store itself; this
// service adds the carrier lookups and the lifecycle rules around them.
package subscriptions

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/dartwatch/dartwatch/internal/integrations/carrier"
	"github.com/dartwatch/dartwatch/internal/models"
)

var (
	// ErrNotFound: extraction produced no record (fetch or parse failure).
	ErrNotFound = errors.New("no tracking record found")
	// ErrAlreadyTracked: subscribe on a waybill the subscriber already
	// tracks; the stored status is left untouched.
	ErrAlreadyTracked = errors.New("waybill already tracked")
	// ErrAlreadyDelivered: the waybill reached its terminal state and is not
	// admitted into tracking. Callers still get the record to render.
	ErrAlreadyDelivered = errors.New("shipment already delivered")
	// ErrNotTracked: unsubscribe miss.
	ErrNotTracked = errors.New("waybill not tracked")
)

// Repository is the slice of the subscription store the service needs.
type Repository interface {
	Get(subscriber int64, waybill string) (string, bool)
	Put(subscriber int64, waybill, status string)
	Delete(subscriber int64, waybill string) bool
	Clear(subscriber int64) int
	List(subscriber int64) map[string]string
	Save() error
}

type Service struct {
	repo    Repository
	carrier carrier.Client
}

func New(repo Repository, c carrier.Client) *Service {
	return &Service{repo: repo, carrier: c}
}

// Subscribe starts tracking a waybill for a subscriber. It is idempotent:
// an already-tracked waybill returns ErrAlreadyTracked without rewriting the
// stored status. Delivered shipments are never admitted; any stale entry for
// them is evicted as a side effect.
func (s *Service) Subscribe(ctx context.Context, subscriber int64, waybill string) (carrier.Result, error) {
	if waybill == "" {
		return carrier.Result{}, errors.New("waybill is required")
	}

	if _, ok := s.repo.Get(subscriber, waybill); ok {
		return carrier.Result{}, ErrAlreadyTracked
	}

	res, err := s.carrier.GetShipment(ctx, waybill)
	if err != nil {
		slog.WarnContext(ctx, "subscribe lookup failed", "waybill", waybill, "error", err.Error())
		return carrier.Result{}, ErrNotFound
	}

	if res.Record.Delivered {
		if s.repo.Delete(subscriber, waybill) {
			s.persist(ctx)
		}
		return res, ErrAlreadyDelivered
	}

	s.repo.Put(subscriber, waybill, res.Record.Status)
	s.persist(ctx)
	return res, nil
}

// Unsubscribe stops tracking one waybill.
func (s *Service) Unsubscribe(ctx context.Context, subscriber int64, waybill string) error {
	if !s.repo.Delete(subscriber, waybill) {
		return ErrNotTracked
	}
	s.persist(ctx)
	return nil
}

// List returns the subscriber's waybill -> last seen status mapping.
func (s *Service) List(subscriber int64) map[string]string {
	return s.repo.List(subscriber)
}

// Clear drops every waybill of a subscriber and returns how many.
func (s *Service) Clear(ctx context.Context, subscriber int64) int {
	n := s.repo.Clear(subscriber)
	if n > 0 {
		s.persist(ctx)
	}
	return n
}

// Track is the one-shot lookup: it never subscribes, but if the waybill is
// being tracked and turns out delivered it is evicted, same as the poll
// cycle would. The second return reports that eviction.
func (s *Service) Track(ctx context.Context, subscriber int64, waybill string) (carrier.Result, bool, error) {
	res, err := s.carrier.GetShipment(ctx, waybill)
	if err != nil {
		slog.WarnContext(ctx, "track lookup failed", "waybill", waybill, "error", err.Error())
		return carrier.Result{}, false, ErrNotFound
	}

	evicted := false
	if res.Record.Delivered {
		if s.repo.Delete(subscriber, waybill) {
			evicted = true
			s.persist(ctx)
		}
	}
	return res, evicted, nil
}

// History returns the scan history for a waybill, newest first as the page
// renders it.
func (s *Service) History(ctx context.Context, waybill string) ([]models.ScanEntry, error) {
	res, err := s.carrier.GetShipment(ctx, waybill)
	if err != nil {
		slog.WarnContext(ctx, "history lookup failed", "waybill", waybill, "error", err.Error())
		return nil, ErrNotFound
	}
	return res.History, nil
}

// persist flushes the store. Persistence failures are logged, never raised:
// the in-memory store stays authoritative until the next successful flush.
func (s *Service) persist(ctx context.Context) {
	if err := s.repo.Save(); err != nil {
		slog.ErrorContext(ctx, "persist subscription store", "error", err.Error())
	}
}
