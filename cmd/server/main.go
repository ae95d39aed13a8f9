// cmd/server/main.go
// Entry point for the scorecard API server. cmd/ holds the executables and internal/
// holds the packages they are assembled from.
//
// The server subscribes to the tournament store once, keeps the latest normalized
// snapshot for the HTTP handlers, and fans every snapshot out to websocket clients.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	// fiber is the HTTP framework; cors and recover are its stock middleware and adaptor
	// mounts net/http handlers such as the Prometheus exporter.
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/trentd187/golf-scorecard/internal/config"
	"github.com/trentd187/golf-scorecard/internal/docstore"
	"github.com/trentd187/golf-scorecard/internal/gateway"
	"github.com/trentd187/golf-scorecard/internal/handlers"
	"github.com/trentd187/golf-scorecard/internal/lifecycle"
	"github.com/trentd187/golf-scorecard/internal/logger"
	"github.com/trentd187/golf-scorecard/internal/metrics"
	"github.com/trentd187/golf-scorecard/internal/middleware"
	"github.com/trentd187/golf-scorecard/internal/session"
	"github.com/trentd187/golf-scorecard/internal/websocket"
)

func main() {
	os.Exit(start())
}

// start returns the process exit code so deferred cleanup, including the final log
// flush, runs before os.Exit.
func start() int {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; the config error is all there is to say.
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		return 1
	}

	log, err := logger.New(cfg.Debug)
	if err != nil {
		_, _ = os.Stderr.WriteString("build logger: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg *config.Config, log *zap.Logger) error {
	// ctx ends on SIGINT/SIGTERM and drives the graceful shutdown below.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := docstore.Open(ctx, docstore.Settings{
		Backend:        cfg.StoreBackend,
		SQLitePath:     cfg.SQLitePath,
		DatabaseURL:    cfg.DatabaseURL,
		MigrationsPath: cfg.MigrationsPath,
		Debug:          cfg.Debug,
	}, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	gw := gateway.New(store,
		gateway.WithLogger(log.Named("gateway")),
		gateway.WithObserver(rec),
		gateway.WithRetryPolicy(gateway.RetryPolicy{
			MaxRetries:      cfg.WriteRetries,
			Timeout:         cfg.WriteTimeout,
			InitialInterval: gateway.DefaultRetryPolicy().InitialInterval,
		}),
	)
	defer gw.Close()

	// The Hub fans snapshots out to live viewers from its own goroutine.
	hub := websocket.NewHub(log.Named("ws"), rec)
	go hub.Run(ctx)

	latest := &gateway.Latest{}
	cancelSub, err := gw.Subscribe(ctx, func(snap gateway.Snapshot) {
		latest.Apply(snap)
		hub.Publish(snap)
	})
	if err != nil {
		return err
	}
	defer cancelSub()

	// The server is shared by every scorer, so its "remembered selection" lives only in
	// memory; per-user selections belong to the clients.
	lc := lifecycle.New(gw, session.NewMemory(), log.Named("lifecycle"))

	app := handlers.NewApp()

	// --- Global middleware ---
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log.Named("http")))
	// Any origin in development; lock this down to the scoreboard's domain in production.
	app.Use(cors.New())

	// --- Public routes ---
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	app.Use("/ws", websocket.Upgrade())
	app.Get("/ws", hub.Handler())
	handlers.Mount(app, handlers.Deps{Snapshots: latest, Lifecycle: lc, Writer: gw})

	errc := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreBackend))
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("shutdown", zap.Error(err))
	}
	return nil
}
