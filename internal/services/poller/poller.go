// Package poller drives the periodic re-check of every tracked waybill and
// turns status transitions into notifications for the chat gateway.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/dartwatch/dartwatch/internal/broker/messages"
	"github.com/dartwatch/dartwatch/internal/cache/rediscache"
	"github.com/dartwatch/dartwatch/internal/integrations/carrier"
	"github.com/dartwatch/dartwatch/internal/models"
	"github.com/dartwatch/dartwatch/internal/storage/jsonstore"
)

// Store is the slice of the subscription store the poller needs. Cycles
// iterate over a snapshot while mutations land on the live store.
type Store interface {
	Snapshot() []jsonstore.Entry
	Get(subscriber int64, waybill string) (string, bool)
	Put(subscriber int64, waybill, status string)
	Delete(subscriber int64, waybill string) bool
	Save() error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type Poller struct {
	store    Store
	carrier  carrier.Client
	producer Producer
	rl       RateLimiter

	topic string

	pollInterval       time.Duration
	flushInterval      time.Duration
	concurrency        int
	rateLimitPerMinute int64

	triggerCh chan struct{}

	startedAtUnixNano int64
	lastCycleUnixNano atomic.Int64
	lastFlushUnixNano atomic.Int64
	totalChecked      atomic.Int64
	totalChanged      atomic.Int64
	totalDelivered    atomic.Int64
	totalErrors       atomic.Int64
	inFlight          atomic.Int64
	lastErrorMu       sync.Mutex
	lastError         string
}

func New(store Store, carrier carrier.Client, producer Producer, rl RateLimiter, topic string) *Poller {
	return &Poller{
		store: store, carrier: carrier, producer: producer, rl: rl, topic: topic,
		pollInterval:       5 * time.Minute,
		flushInterval:      30 * time.Minute,
		concurrency:        4,
		rateLimitPerMinute: 120,
		triggerCh:          make(chan struct{}, 1),
		startedAtUnixNano:  time.Now().UTC().UnixNano(),
	}
}

func (p *Poller) WithSettings(pollInterval, flushInterval time.Duration, concurrency int, rlPerMin int64) *Poller {
	if pollInterval > 0 {
		p.pollInterval = pollInterval
	}
	if flushInterval > 0 {
		p.flushInterval = flushInterval
	}
	if concurrency > 0 {
		p.concurrency = concurrency
	}
	if rlPerMin > 0 {
		p.rateLimitPerMinute = rlPerMin
	}
	return p
}

// Trigger forces an immediate poll cycle (best-effort, non-blocking).
func (p *Poller) Trigger() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastCycleAt    *time.Time `json:"lastCycleAt,omitempty"`
	LastFlushAt    *time.Time `json:"lastFlushAt,omitempty"`
	TotalChecked   int64      `json:"totalChecked"`
	TotalChanged   int64      `json:"totalChanged"`
	TotalDelivered int64      `json:"totalDelivered"`
	TotalErrors    int64      `json:"totalErrors"`
	InFlight       int64      `json:"inFlight"`
	LastError      string     `json:"lastError,omitempty"`
}

func (p *Poller) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, p.startedAtUnixNano).UTC(),
		TotalChecked:   p.totalChecked.Load(),
		TotalChanged:   p.totalChanged.Load(),
		TotalDelivered: p.totalDelivered.Load(),
		TotalErrors:    p.totalErrors.Load(),
		InFlight:       p.inFlight.Load(),
	}
	if n := p.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := p.lastFlushUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastFlushAt = &t
	}
	p.lastErrorMu.Lock()
	st.LastError = p.lastError
	p.lastErrorMu.Unlock()
	return st
}

// Run drives poll cycles and periodic flushes from a single select loop, so
// a cycle never overlaps a flush or another cycle.
func (p *Poller) Run(ctx context.Context) error {
	poll := time.NewTicker(p.pollInterval)
	defer poll.Stop()
	flush := time.NewTicker(p.flushInterval)
	defer flush.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
			p.runCycle(ctx)
		case <-p.triggerCh:
			p.runCycle(ctx)
		case <-flush.C:
			p.flush(ctx)
		}
	}
}

func (p *Poller) runCycle(ctx context.Context) {
	p.lastCycleUnixNano.Store(time.Now().UTC().UnixNano())

	entries := p.store.Snapshot()
	if len(entries) == 0 {
		return
	}
	slog.Info("poll cycle", "entries", len(entries))

	var dirty atomic.Bool
	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup
	for _, e := range entries {
		sem <- struct{}{}
		wg.Add(1)
		entry := e
		p.inFlight.Add(1)
		go func() {
			defer func() {
				p.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()
			changed, err := p.processOne(ctx, entry)
			if err != nil {
				p.totalErrors.Add(1)
				p.lastErrorMu.Lock()
				p.lastError = err.Error()
				p.lastErrorMu.Unlock()
				slog.Error("process waybill", "subscriber", entry.Subscriber, "waybill", entry.Waybill, "error", err.Error())
			}
			if changed {
				dirty.Store(true)
			}
			p.totalChecked.Add(1)
		}()
	}
	wg.Wait()

	if dirty.Load() {
		p.flush(ctx)
	}
}

// processOne re-checks one tracked waybill. It reports whether the store was
// mutated. A fetch failure leaves the stored status untouched so the
// transition is caught on a later cycle.
func (p *Poller) processOne(ctx context.Context, entry jsonstore.Entry) (bool, error) {
	now := time.Now().UTC()

	if p.rl != nil && p.rateLimitPerMinute > 0 {
		allowed, n, err := p.rl.Allow(ctx, rediscache.FetchMinuteKey(now), p.rateLimitPerMinute, 70*time.Second)
		if err != nil {
			return false, err
		}
		if !allowed {
			slog.Warn("rate limit exceeded", "count", n)
			time.Sleep(500 * time.Millisecond)
		}
	}

	res, err := p.carrier.GetShipment(ctx, entry.Waybill)
	if err != nil {
		return false, errors.Wrapf(err, "fetch waybill %s", entry.Waybill)
	}

	newStatus := res.Record.Status
	if newStatus == entry.Status {
		return false, nil
	}

	// The entry may have been unsubscribed or evicted since the snapshot was
	// taken; a stale entry must not be resurrected or notified twice.
	if res.Record.Delivered {
		if !p.store.Delete(entry.Subscriber, entry.Waybill) {
			return false, nil
		}
		p.totalChanged.Add(1)
		p.totalDelivered.Add(1)
		return true, p.publish(ctx, deliveredNotification(entry, res.Record.Status, res.Record.Delivery, now))
	}

	if _, ok := p.store.Get(entry.Subscriber, entry.Waybill); !ok {
		return false, nil
	}
	p.store.Put(entry.Subscriber, entry.Waybill, newStatus)
	p.totalChanged.Add(1)
	return true, p.publish(ctx, messages.Notification{
		Kind:         messages.KindStatusChanged,
		SubscriberID: entry.Subscriber,
		WaybillID:    entry.Waybill,
		Status:       newStatus,
		CheckedAt:    now,
	})
}

func (p *Poller) publish(ctx context.Context, msg messages.Notification) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}
	key := []byte(strconv.FormatInt(msg.SubscriberID, 10))
	if err := p.producer.Publish(ctx, p.topic, key, b); err != nil {
		return errors.Wrapf(err, "publish %s notification", msg.Kind)
	}
	return nil
}

func deliveredNotification(entry jsonstore.Entry, status string, d *models.DeliveryDetails, now time.Time) messages.Notification {
	msg := messages.Notification{
		Kind:         messages.KindDelivered,
		SubscriberID: entry.Subscriber,
		WaybillID:    entry.Waybill,
		Status:       status,
		CheckedAt:    now,
	}
	if d != nil {
		msg.Delivery = &messages.DeliveryInfo{Date: d.Date, Time: d.Time, Recipient: d.Recipient}
	}
	return msg
}

// flush writes the store to disk. Failures are logged, never raised: the
// in-memory state stays authoritative until the next successful flush.
func (p *Poller) flush(ctx context.Context) {
	p.lastFlushUnixNano.Store(time.Now().UTC().UnixNano())
	if err := p.store.Save(); err != nil {
		p.lastErrorMu.Lock()
		p.lastError = fmt.Sprintf("flush: %s", err.Error())
		p.lastErrorMu.Unlock()
		slog.Error("flush subscription store", "error", err.Error())
	}
}
