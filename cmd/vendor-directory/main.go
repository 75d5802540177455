package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/directory"
	"storefront/pkg/config"
	"storefront/pkg/db"
	"storefront/pkg/logger"
	"storefront/pkg/middleware"
)

func main() {
	// 1. Load configuration & initialize structured logger.
	cfg, err := config.Load()
	if err != nil {
		logger.New("dev").Fatalw("config", "err", err)
	}
	appLog := logger.New(cfg.Env)
	defer func() { _ = appLog.Sync() }()

	// 2. Vendor store: Postgres if configured, in-memory otherwise, Redis in front if configured.
	dir, err := directory.NewStore(context.Background(), cfg, db.MustConnect(cfg, appLog), db.MustRedis(cfg, appLog), appLog)
	if err != nil {
		appLog.Fatalw("vendor store", "err", err)
	}

	// 3. Build HTTP router and register middlewares.
	router := chi.NewRouter()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recover(appLog))
	router.Use(middleware.DebugWriteHeader(appLog))
	router.Use(middleware.Tracing("vendor-directory", appLog))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	router.Get("/metrics", promhttp.Handler().ServeHTTP)
	router.Get("/openapi.json", directory.APIDoc(cfg.VendorConfigPath).ServeHandler("vendor-directory", "1.0.0"))
	directory.RegisterRoutes(router, cfg.VendorConfigPath, dir, appLog)

	// 4. Configure and start HTTP server asynchronously.
	httpServer := &http.Server{Addr: cfg.DirectoryAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		appLog.Infow("vendor-directory listening", "addr", cfg.DirectoryAddr, "path", cfg.VendorConfigPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatalw("ListenAndServe", "err", err)
		}
	}()

	// 5. Wait for termination signal (SIGINT/SIGTERM) to begin graceful shutdown.
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	<-stopCh

	// 6. Graceful shutdown with timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	appLog.Infow("vendor-directory stopped")
}
