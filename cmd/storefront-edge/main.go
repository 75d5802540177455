package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/directory"
	"storefront/internal/edge"
	"storefront/pkg/config"
	"storefront/pkg/db"
	"storefront/pkg/logger"
	"storefront/pkg/routing"
	"storefront/pkg/vendors"
)

func main() {
	// 1. Load configuration & initialize structured logger.
	cfg, err := config.Load()
	if err != nil {
		logger.New("dev").Fatalw("config", "err", err)
	}
	appLog := logger.New(cfg.Env)
	defer func() { _ = appLog.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := routing.NewMetrics(reg)

	// 2. Directory source. A local store is mounted for other consumers
	//    and read by the router in-process, never through the Host header.
	var dir vendors.Directory
	var fetcher routing.Fetcher
	if cfg.DirectorySource == config.SourceLocal {
		dir, err = directory.NewStore(context.Background(), cfg, db.MustConnect(cfg, appLog), db.MustRedis(cfg, appLog), appLog)
		if err != nil {
			appLog.Fatalw("vendor store", "err", err)
		}
		fetcher = routing.NewLocalFetcher(dir)
	} else {
		fetcher = routing.NewHTTPFetcher(routing.FetcherOptions{
			Path:    cfg.VendorConfigPath,
			URL:     cfg.VendorConfigURL,
			Timeout: cfg.FetchTimeout,
			Breaker: cfg.FetchBreaker,
		})
	}

	// 3. Vendor routing: snapshot cache, classifier, owned hosts.
	cache := routing.NewCache(fetcher, routing.CacheOptions{
		TTL:      cfg.ConfigTTL,
		Policy:   routing.ParseFailurePolicy(cfg.FailurePolicy),
		MaxStale: cfg.MaxStale,
		Dedup:    cfg.FetchDedup,
		Log:      appLog,
		Metrics:  metrics,
	})
	router := routing.NewRouter(routing.NewClassifier(cfg.Rules, cfg.VendorConfigPath), cache, appLog, metrics).
		TrustHosts(cfg.TrustedHosts...)

	proxy, err := edge.NewProxy(cfg.UpstreamURL, appLog)
	if err != nil {
		appLog.Fatalw("upstream", "err", err)
	}

	// 4. Build HTTP handler.
	handler := edge.NewHandler(edge.Options{
		Service:       "storefront-edge",
		Router:        router,
		Upstream:      proxy,
		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Directory:     dir,
		DirectoryPath: cfg.VendorConfigPath,
		Log:           appLog,
	})

	// 5. Configure and start HTTP server asynchronously.
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		appLog.Infow("storefront-edge listening", "addr", cfg.HTTPAddr, "upstream", cfg.UpstreamURL,
			"directory", cfg.DirectorySource, "ttl", cfg.ConfigTTL, "policy", cfg.FailurePolicy)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatalw("ListenAndServe", "err", err)
		}
	}()

	// 6. Wait for termination signal (SIGINT/SIGTERM) to begin graceful shutdown.
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	<-stopCh

	// 7. Graceful shutdown with timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	appLog.Infow("storefront-edge stopped")
}
