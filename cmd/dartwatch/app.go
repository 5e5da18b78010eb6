package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/dartwatch/dartwatch/config"
	"github.com/dartwatch/dartwatch/internal/broker/kafka"
	"github.com/dartwatch/dartwatch/internal/broker/logsink"
	"github.com/dartwatch/dartwatch/internal/cache/rediscache"
	"github.com/dartwatch/dartwatch/internal/integrations/carrier"
	"github.com/dartwatch/dartwatch/internal/integrations/carrier/bluedart"
	"github.com/dartwatch/dartwatch/internal/integrations/carrier/fake"
	"github.com/dartwatch/dartwatch/internal/services/poller"
	"github.com/dartwatch/dartwatch/internal/services/subscriptions"
	"github.com/dartwatch/dartwatch/internal/storage/jsonstore"
)

type appFactories struct {
	newStore       func(cfg *config.Config) (*jsonstore.Store, error)
	newCarrier     func(cfg *config.Config) carrier.Client
	newProducer    func(cfg *config.Config) (producer poller.Producer, closeFn func())
	newRateLimiter func(cfg *config.Config) poller.RateLimiter
}

func defaultAppFactories() appFactories {
	return appFactories{
		newStore: func(cfg *config.Config) (*jsonstore.Store, error) {
			path := cfg.DartWatch.DataFile
			if path == "" {
				path = "tracking_data.json"
			}
			st := jsonstore.New(path)
			if err := st.Load(); err != nil {
				return nil, errors.Wrap(err, "load subscription store")
			}
			return st, nil
		},
		newCarrier: func(cfg *config.Config) carrier.Client {
			if cfg.DartWatch.CarrierMode == "fake" {
				return fake.New()
			}
			c := bluedart.New(
				cfg.BlueDart.BaseURL,
				time.Duration(cfg.BlueDart.FetchTimeoutSeconds)*time.Second,
				cfg.BlueDart.UserAgent,
			)
			if cfg.Redis.Host != "" && cfg.BlueDart.PageCacheTTLSeconds > 0 {
				redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
				ttl := time.Duration(cfg.BlueDart.PageCacheTTLSeconds) * time.Second
				c = c.WithPageCache(rediscache.New(redisAddr), ttl)
			}
			return c
		},
		newProducer: func(cfg *config.Config) (poller.Producer, func()) {
			if cfg.Kafka.Host == "" {
				return logsink.New(), nil
			}
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			p := kafka.NewProducer(brokers)
			return p, func() { _ = p.Close() }
		},
		newRateLimiter: func(cfg *config.Config) poller.RateLimiter {
			if cfg.Redis.Host == "" {
				return nil
			}
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.NewRateLimiter(redisAddr)
		},
	}
}

func RunDartwatch(ctx context.Context, cfg *config.Config, f appFactories) error {
	topic := cfg.Kafka.NotificationsTopicName
	if topic == "" {
		topic = "shipment.notifications"
	}

	pollInterval := time.Duration(cfg.DartWatch.PollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Minute
	}
	flushInterval := time.Duration(cfg.DartWatch.FlushIntervalSeconds) * time.Second
	if flushInterval <= 0 {
		flushInterval = 30 * time.Minute
	}
	concurrency := cfg.DartWatch.CycleConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	rlPerMin := int64(cfg.DartWatch.FetchRateLimitPerMinute)
	if rlPerMin <= 0 {
		rlPerMin = 120
	}

	store, err := f.newStore(cfg)
	if err != nil {
		return err
	}
	subscribers, waybills := store.Counts()
	slog.Info("subscription store loaded", "subscribers", subscribers, "waybills", waybills)

	carrierClient := f.newCarrier(cfg)
	producer, closeProducer := f.newProducer(cfg)
	if closeProducer != nil {
		defer closeProducer()
	}
	rl := f.newRateLimiter(cfg)

	svc := subscriptions.New(store, carrierClient)
	p := poller.New(store, carrierClient, producer, rl, topic).
		WithSettings(pollInterval, flushInterval, concurrency, rlPerMin)

	go func() {
		err := runHTTPServer(ctx, httpOpts{
			httpAddr:    cfg.DartWatch.HTTPAddr,
			swaggerPath: cfg.DartWatch.SwaggerPath,
			poller:      p,
			cfg:         cfg,
			svc:         svc,
		})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server", "error", err.Error())
		}
	}()

	runErr := p.Run(ctx)

	// Final flush so a clean shutdown never loses subscription state.
	if err := store.Save(); err != nil {
		slog.Error("final save", "error", err.Error())
	}
	return runErr
}
