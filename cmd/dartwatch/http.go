package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/dartwatch/dartwatch/config"
	"github.com/dartwatch/dartwatch/internal/api/botapi"
	"github.com/dartwatch/dartwatch/internal/services/poller"
	"github.com/dartwatch/dartwatch/internal/services/subscriptions"
)

type httpOpts struct {
	httpAddr    string
	swaggerPath string
	onListen    func(httpAddr string)

	poller *poller.Poller
	cfg    *config.Config
	svc    *subscriptions.Service
}

func runHTTPServer(ctx context.Context, opts httpOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	r := chi.NewRouter()

	if opts.svc != nil {
		r.Mount("/v1", botapi.New(opts.svc).Routes())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.poller == nil {
			_, _ = w.Write([]byte(`{"error":"poller not wired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(opts.poller.Stats())
	})

	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.cfg == nil {
			_, _ = w.Write([]byte(`{"error":"config not wired"}`))
			return
		}
		// Operational settings only, never connection details.
		out := map[string]any{
			"carrierMode":             opts.cfg.DartWatch.CarrierMode,
			"pollIntervalSeconds":     opts.cfg.DartWatch.PollIntervalSeconds,
			"flushIntervalSeconds":    opts.cfg.DartWatch.FlushIntervalSeconds,
			"cycleConcurrency":        opts.cfg.DartWatch.CycleConcurrency,
			"fetchRateLimitPerMinute": opts.cfg.DartWatch.FetchRateLimitPerMinute,
			"fetchTimeoutSeconds":     opts.cfg.BlueDart.FetchTimeoutSeconds,
			"pageCacheTTLSeconds":     opts.cfg.BlueDart.PageCacheTTLSeconds,
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	r.Post("/trigger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.poller == nil {
			_, _ = w.Write([]byte(`{"error":"poller not wired"}`))
			return
		}
		opts.poller.Trigger()
		_, _ = w.Write([]byte(`{"triggered":true}`))
	})

	// Swagger docs are served only when a spec file is configured.
	if opts.swaggerPath != "" {
		r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			http.ServeFile(w, r, opts.swaggerPath)
		})

		swaggerURL := "/swagger.json"
		if fi, err := os.Stat(opts.swaggerPath); err == nil {
			swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
		}
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
	}

	srv := &http.Server{Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	return srv.Serve(lis)
}
