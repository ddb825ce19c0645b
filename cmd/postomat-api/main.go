// Postomat admin API — HTTP-сервер для оператора: пользователи, каналы,
// посты. Аутентификации нет, сервис закрывается на уровне деплоя.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Postomat/internal/access"
	"github.com/shaiso/Postomat/internal/api"
	"github.com/shaiso/Postomat/internal/config"
	"github.com/shaiso/Postomat/internal/platform"
	"github.com/shaiso/Postomat/internal/registry"
	"github.com/shaiso/Postomat/internal/repo"
	"github.com/shaiso/Postomat/internal/telemetry"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postomat_api_http_requests_total",
		Help: "Total HTTP requests handled by postomat_api",
	})
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting postomat-api")

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	userRepo := repo.NewUserRepo(pool)
	channelRepo := repo.NewChannelRepo(pool)
	postRepo := repo.NewPostRepo(pool)

	accessSvc := access.New(access.Config{
		Users:            userRepo,
		QueueCap:         cfg.RegistrationQueueCap,
		DefaultOffsetMin: cfg.DefaultOffsetMin(),
		Logger:           logger,
	})

	registryCfg := registry.Config{
		Channels: channelRepo,
		Logger:   logger,
	}
	if cfg.VKToken != "" {
		registryCfg.VK = platform.NewVK(cfg.VKToken, cfg.VKGroupID, logger)
	}
	registrySvc := registry.New(registryCfg)

	handler := api.NewHandler(api.Config{
		Access:   accessSvc,
		Registry: registrySvc,
		Posts:    postRepo,
		Logger:   logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
