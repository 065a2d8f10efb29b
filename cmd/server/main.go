package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ravndata/ingestgate/internal/admission"
	"github.com/ravndata/ingestgate/internal/config"
	"github.com/ravndata/ingestgate/internal/logger"
	"github.com/ravndata/ingestgate/internal/metrics"
	"github.com/ravndata/ingestgate/internal/pipeline"
	"github.com/ravndata/ingestgate/internal/sink/reliability"
	"github.com/ravndata/ingestgate/internal/sinkfactory"
	"github.com/ravndata/ingestgate/internal/startup"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.NewJSON(cfg.Server.LoggingLevel)
	log.Info("starting ingestion gateway",
		"version", Version,
		"commit", Commit,
		"port", cfg.Server.Port,
	)

	config.PrintConfig(log, cfg)

	ctx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	startup.ValidateSinksAtStartup(ctx, cfg, log)
	cancelStartup()

	primary, primaryCloser, err := sinkfactory.New(context.Background(), "sink.primary", cfg.Sink.Primary, log)
	if err != nil {
		log.Error("failed to build primary sink", "error", err)
		os.Exit(1)
	}
	defer primaryCloser.Close()

	dlqSink, dlqCloser, err := sinkfactory.New(context.Background(), "sink.dlq", cfg.Sink.DLQ, log)
	if err != nil {
		log.Error("failed to build dlq sink", "error", err)
		os.Exit(1)
	}
	defer dlqCloser.Close()

	recorder := metrics.New(true)

	retry := pipeline.NewRetryPolicy(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay).WithRecorder(recorder)
	if cfg.Breaker.ConsecutiveFailures > 0 {
		breaker := reliability.New("primary-sink", uint32(cfg.Breaker.ConsecutiveFailures), cfg.Breaker.OpenDuration)
		retry = retry.WithBreaker(breaker)
	}

	gw := pipeline.New(pipeline.Config{
		Queue:         pipeline.NewQueue(cfg.Queue.Capacity),
		BatchSize:     cfg.Batch.Size,
		FlushInterval: cfg.Batch.FlushInterval,
		Primary:       primary,
		DLQ:           dlqSink,
		Retry:         retry,
		Logger:        log,
		Recorder:      recorder,
	})
	gw.Start(context.Background())

	mux := http.NewServeMux()
	mux.Handle("/ingest", &admission.Handler{
		Pipeline:     gw,
		Logger:       log,
		MaxBodyBytes: int64(cfg.Server.MaxBodySizeMB) << 20,
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","queue_depth":%d,"worker_state":%q}`, gw.QueueDepth(), gw.WorkerState())
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server forced to shutdown", "error", err)
	}

	if err := gw.Shutdown(shutdownCtx); err != nil {
		log.Error("pipeline shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("shutdown complete")
}
