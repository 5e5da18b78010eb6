package bluedart

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/dartwatch/dartwatch/internal/extract"
	"github.com/dartwatch/dartwatch/internal/integrations/carrier"
)

const (
	defaultBaseURL = "https://www.bluedart.com"

	// The tracking endpoint serves a different (unparseable) page to
	// non-browser clients, so a fixed desktop UA is required.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	defaultTimeout = 10 * time.Second
)

// PageCache holds recently fetched tracking pages so repeated one-shot
// lookups within the TTL do not re-hit the carrier.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Client scrapes the BlueDart third-party tracking page.
type Client struct {
	http *resty.Client

	cache    PageCache
	cacheTTL time.Duration
}

func New(baseURL string, timeout time.Duration, userAgent string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent),
	}
}

func (c *Client) WithPageCache(cache PageCache, ttl time.Duration) *Client {
	if cache != nil && ttl > 0 {
		c.cache = cache
		c.cacheTTL = ttl
	}
	return c
}

func (c *Client) GetShipment(ctx context.Context, waybillID string) (carrier.Result, error) {
	body, err := c.fetchPage(ctx, waybillID)
	if err != nil {
		return carrier.Result{}, err
	}

	doc, err := extract.Normalize(bytes.NewReader(body))
	if err != nil {
		return carrier.Result{}, errors.Wrap(err, "normalize tracking page")
	}

	return carrier.Result{
		Record:  doc.Record(waybillID),
		History: doc.History(),
	}, nil
}

// fetchPage returns the raw tracking page, from cache when possible. Cache
// failures degrade to a plain fetch.
func (c *Client) fetchPage(ctx context.Context, waybillID string) ([]byte, error) {
	key := "page:" + waybillID
	if c.cache != nil {
		b, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "page cache get", "waybill", waybillID, "error", err.Error())
		} else if ok {
			return b, nil
		}
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("trackFor", "0").
		SetQueryParam("trackNo", waybillID).
		Get("/trackdartresultthirdparty")
	if err != nil {
		return nil, errors.Wrap(err, "fetch tracking page")
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("tracking page http %d", res.StatusCode())
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, res.Body(), c.cacheTTL); err != nil {
			slog.WarnContext(ctx, "page cache set", "waybill", waybillID, "error", err.Error())
		}
	}
	return res.Body(), nil
}
