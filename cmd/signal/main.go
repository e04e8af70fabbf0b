package main

import (
	"context"
	"log"
	"net/http"
	osignal "os/signal"
	"syscall"

	"github.com/google/uuid"

	"pairlink/internal/core/services"
	handlers "pairlink/internal/handlers/http"
	"pairlink/internal/infrastructure/monitoring"
	"pairlink/internal/infrastructure/repositories/memory"
	"pairlink/internal/infrastructure/signal"
	"pairlink/pkg/config"
	"pairlink/pkg/logger"
	"pairlink/pkg/tracing"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/pairlink/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zl := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zl.Sync()
	sugar := zl.Sugar()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		sugar.Fatalw("failed to initialize tracing", "error", err)
	}
	defer tp.Shutdown(context.Background())

	instanceID := uuid.NewString()

	collector := monitoring.NewPrometheusCollector()
	registry := memory.NewMemoryRoomRegistry(collector)
	relay := services.NewRelayService(registry, collector, sugar)
	wsServer := signal.NewWebSocketServer(relay, collector, cfg, sugar)
	janitor := services.NewJanitor(registry, collector, sugar)

	ctx, stop := osignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go janitor.Run(ctx)

	health := monitoring.NewHealth(instanceID, wsServer.ConnectionCount, registry.Count)
	router := handlers.NewRouter(cfg, wsServer, health, sugar)

	srv := &http.Server{
		Addr:    cfg.Signal.Address,
		Handler: router,
	}

	go func() {
		sugar.Infow("starting pairlink signaling server",
			"address", cfg.Signal.Address,
			"instance_id", instanceID,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	sugar.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Signal.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
}
