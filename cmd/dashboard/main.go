package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	feedadapter "github.com/valetops/traffic-engine/internal/adapter/feed"
	httpadapter "github.com/valetops/traffic-engine/internal/adapter/http"
	kafkaadapter "github.com/valetops/traffic-engine/internal/adapter/kafka"
	"github.com/valetops/traffic-engine/internal/config"
	"github.com/valetops/traffic-engine/internal/observability"
	"github.com/valetops/traffic-engine/internal/pipeline"
	"github.com/valetops/traffic-engine/internal/ticker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	feed := feedadapter.NewClient(cfg.FeedBaseURL, cfg.FeedTimeout, cfg.FeedCacheSize, logger)

	// Tick reports go to Kafka only when the sink is enabled (KAFKA_ENABLED).
	var publisher ticker.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	scorer := ticker.New(clock, cfg.TickInterval, publisher, logger, metrics)
	p := pipeline.New(feed, scorer, clock, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, scorer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the refresh pipeline.
	go func() {
		if err := p.Run(ctx, cfg.RefreshInterval); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	// Wall-clock heartbeat for the uptime gauge.
	go func() {
		heartbeat := time.NewTicker(time.Second)
		defer heartbeat.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-heartbeat.C:
				metrics.ClockSeconds.Set(float64(now.Unix()))
			}
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	scorer.Stop()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
