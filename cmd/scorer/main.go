// cmd/scorer/main.go
// Entry point for the terminal scorer. It talks to the same store backend as the server,
// keeps its selection in a small YAML file between runs, and runs one subcommand per
// invocation:
//
//	scorer create --course Pebble --date 2024-05-01 --team A --team B
//	scorer select --team A
//	scorer score --hole 1 --value 5
//	scorer board
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/trentd187/golf-scorecard/internal/config"
	"github.com/trentd187/golf-scorecard/internal/docstore"
	"github.com/trentd187/golf-scorecard/internal/gateway"
	"github.com/trentd187/golf-scorecard/internal/lifecycle"
	"github.com/trentd187/golf-scorecard/internal/logger"
	"github.com/trentd187/golf-scorecard/internal/session"
	"github.com/trentd187/golf-scorecard/internal/view"
)

// syncTimeout bounds the wait for the first snapshot.
const syncTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log, err := logger.NewCLI(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build logger:", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

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
		log.Error("open store", zap.Error(err))
		return 1
	}
	defer func() { _ = store.Close() }()

	prefs, err := session.OpenFile(cfg.PrefsPath)
	if err != nil {
		log.Error("open preferences", zap.Error(err))
		return 1
	}

	gw := gateway.New(store,
		gateway.WithLogger(log),
		gateway.WithRetryPolicy(gateway.RetryPolicy{
			MaxRetries:      cfg.WriteRetries,
			Timeout:         cfg.WriteTimeout,
			InitialInterval: gateway.DefaultRetryPolicy().InitialInterval,
		}),
	)
	defer gw.Close()

	c, err := newCLI(ctx, os.Stdout, gw, prefs, log)
	if err != nil {
		log.Error("subscribe", zap.Error(err))
		return 1
	}
	defer c.close()

	if err := c.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprint(os.Stderr, usage)
			return 2
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// wire builds the view and lifecycle manager over gw and subscribes the view.
func wire(ctx context.Context, gw *gateway.Gateway, prefs session.Preferences, log *zap.Logger) (*view.Scorecard, *lifecycle.Manager, <-chan struct{}, func(), error) {
	sc := view.New(gw, prefs, log)
	synced := make(chan struct{})
	first := true
	cancel, err := gw.Subscribe(ctx, func(snap gateway.Snapshot) {
		sc.Apply(snap)
		// Deliveries to one subscriber are serialized, so first needs no lock.
		if first {
			first = false
			close(synced)
		}
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return sc, lifecycle.New(gw, prefs, log), synced, cancel, nil
}
