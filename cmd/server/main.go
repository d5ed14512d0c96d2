package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signalsfoundry/stellar-activity-simulator/internal/api"
	"github.com/signalsfoundry/stellar-activity-simulator/internal/logging"
	"github.com/signalsfoundry/stellar-activity-simulator/internal/observability"
	"github.com/signalsfoundry/stellar-activity-simulator/kb"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "init tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	metrics, err := observability.NewSimCollector(nil)
	if err != nil {
		log.Error(ctx, "init metrics", logging.String("error", err.Error()))
		os.Exit(1)
	}

	store := kb.NewRunStore()
	store.Subscribe(func(ev kb.Event) {
		log.Debug(ctx, "run stored", logging.String("run_id", ev.RunID))
	})

	server := api.NewServer(*addr, store, metrics, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	log.Info(ctx, "server listening", logging.String("addr", *addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
	case sig := <-sigCh:
		log.Info(ctx, "shutting down", logging.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := server.HTTPServer().Shutdown(shutdownCtx); err != nil {
			log.Warn(ctx, "shutdown failed", logging.String("error", err.Error()))
		}
	}
}
