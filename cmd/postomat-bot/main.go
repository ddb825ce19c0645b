// Postomat bot — основной процесс: Telegram-бот плюс цикл доставки
// отложенных постов. Несколько реплик согласуются через advisory-lock
// в Postgres, доставкой занимается только лидер.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Postomat/internal/access"
	"github.com/shaiso/Postomat/internal/bot"
	"github.com/shaiso/Postomat/internal/config"
	"github.com/shaiso/Postomat/internal/dispatcher"
	"github.com/shaiso/Postomat/internal/mq"
	"github.com/shaiso/Postomat/internal/platform"
	"github.com/shaiso/Postomat/internal/registry"
	"github.com/shaiso/Postomat/internal/repo"
	"github.com/shaiso/Postomat/internal/telemetry"
)

var startTime = time.Now()

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting postomat-bot")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных и накатываем миграции
	pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := repo.RunMigrations(ctx, pool); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	userRepo := repo.NewUserRepo(pool)
	channelRepo := repo.NewChannelRepo(pool)
	postRepo := repo.NewPostRepo(pool)

	// Telegram. Таймаут HTTP-клиента должен превышать длительность
	// long poll (30s), иначе GetUpdates будет рваться на каждом цикле.
	tgClient := &http.Client{Timeout: 50 * time.Second}
	tgBot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, tgClient)
	if err != nil {
		logger.Error("telegram auth failed", "error", err)
		os.Exit(1)
	}
	logger.Info("telegram authorized", "username", tgBot.Self.UserName)

	telegram := platform.NewTelegram(tgBot, logger)

	// VK опционален: без токена бот работает только с Telegram-каналами
	var vk *platform.VK
	if cfg.VKToken != "" {
		vk = platform.NewVK(cfg.VKToken, cfg.VKGroupID, logger)
		logger.Info("vk enabled", "group_id", cfg.VKGroupID)
	}

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
	if vk != nil {
		registryCfg.VK = vk
	}
	registrySvc := registry.New(registryCfg)

	// RabbitMQ опционален: без брокера события доставки не публикуются
	var publisher *mq.Publisher
	if cfg.AMQPURL != "" {
		conn, err := mq.NewConnection(cfg.AMQPURL, logger)
		if err != nil {
			logger.Error("rabbitmq connect failed", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		if err := mq.SetupTopology(conn); err != nil {
			logger.Error("rabbitmq topology failed", "error", err)
			os.Exit(1)
		}
		publisher = mq.NewPublisher(conn, logger)
		logger.Info("rabbitmq connected")
	}

	router := bot.NewRouter(bot.Config{
		Bot:          tgBot,
		Access:       accessSvc,
		Registry:     registrySvc,
		Posts:        postRepo,
		Logger:       logger,
		HistoryLimit: cfg.HistoryLimit,
		VKEnabled:    vk != nil,
	})

	dispCfg := dispatcher.Config{
		Posts:    postRepo,
		Locker:   postRepo,
		Telegram: telegram,
		Logger:   logger,
		Interval: cfg.DispatchInterval(),
		Timeout:  cfg.DispatchTimeout(),
	}
	if vk != nil {
		dispCfg.VK = vk
	}
	if publisher != nil {
		dispCfg.Publisher = publisher
	}
	disp := dispatcher.New(dispCfg)

	go router.Run(ctx)
	go disp.Run(ctx)

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
