package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"passport/internal/app"
	"passport/internal/events/relay"
	"passport/internal/platform/config"
	"passport/internal/platform/httpserver"
	"passport/internal/platform/kafka"
	"passport/internal/platform/logger"
	"passport/internal/platform/postgres"
	"passport/internal/platform/redis"
	httptransport "passport/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// main loads configuration, opens the optional backends, and runs the HTTP
// server next to the outbox relay until a signal arrives.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	health := map[string]httptransport.HealthCheck{}
	opts := app.Options{
		Config:     cfg,
		Logger:     log,
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
		Health:     health,
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		opts.DB = db
		health["postgres"] = db.PingContext
		log.Info("using postgres stores")
	} else {
		log.Info("using in-memory stores")
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		opts.Redis = rdb
		health["redis"] = rdb.Health
		log.Info("fact cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	producer, err := kafka.New(cfg.Kafka)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			return err
		}
		health["kafka"] = producer.Health
	}

	a, err := app.New(opts)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.Addr, a.Handler)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting passport server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if producer != nil {
		worker := relay.NewWorker(a.Outbox, producer,
			relay.WithLogger(log),
			relay.WithInterval(cfg.Kafka.RelayInterval),
			relay.WithRunner(a.Runner),
		)
		g.Go(func() error {
			log.Info("starting outbox relay", "topic", cfg.Kafka.Topic)
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}
