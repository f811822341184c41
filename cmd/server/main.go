package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/api"
	"github.com/Freeeeeet/lesson_slots/internal/app"
	"github.com/Freeeeeet/lesson_slots/internal/config"
	"github.com/Freeeeeet/lesson_slots/internal/controller"
	"github.com/Freeeeeet/lesson_slots/internal/controller/handlers"
	"github.com/Freeeeeet/lesson_slots/internal/metrics"
	"github.com/Freeeeeet/lesson_slots/internal/notify"
	"github.com/Freeeeeet/lesson_slots/internal/service"
	"github.com/Freeeeeet/lesson_slots/internal/storage"
	"github.com/go-telegram/bot"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	openSlotsInterval = time.Minute
	shutdownTimeout   = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting lesson slots",
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.StoreDriver),
		zap.String("notify", cfg.Notify.Mode),
		zap.String("display_tz", cfg.DisplayTZ.String()),
	)

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	var workers []app.Worker

	dispatcher, dispatcherWorkers, closeDispatcher, err := initDispatcher(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDispatcher()
	workers = append(workers, dispatcherWorkers...)

	limiter, limiterWorker, closeLimiter := initLimiter(ctx, cfg, logger)
	defer closeLimiter()
	if limiterWorker != nil {
		workers = append(workers, limiterWorker)
	}

	gate := service.NewEligibilityGate(st.Clients, logger)
	svc := api.Services{
		Booking:   service.NewBookingCoordinator(st.Slots, gate, logger),
		Publisher: service.NewSlotPublisher(st.Slots, st.Clients, st.Coaches, dispatcher, cfg.PublicBaseURL, cfg.DisplayTZ, logger),
		Clients:   service.NewClientService(st.Clients, st.Coaches, logger),
		Coaches:   service.NewCoachService(st.Coaches, logger),
	}

	if cfg.TelegramToken != "" {
		botController, err := initBot(cfg, svc, logger)
		if err != nil {
			return err
		}
		workers = append(workers, botController)
	} else {
		logger.Info("TELEGRAM_TOKEN not set, bot console disabled")
	}

	scheduler := app.NewScheduler(st.Slots, openSlotsInterval, logger, workers...)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := api.NewServer(svc, cfg.JWTSecret, limiter, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("🛑 Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server stopped", zap.Error(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("✅ Stopped")
	return nil
}

// initDispatcher выбирает способ доставки писем. В режиме queue письма отправляет consumer в фоне.
func initDispatcher(cfg *config.Config, logger *zap.Logger) (notify.Dispatcher, []app.Worker, func(), error) {
	n := cfg.Notify
	switch n.Mode {
	case config.NotifyModeSMTP:
		sender := notify.NewSMTPSender(n.SMTPAddr, n.SMTPUser, n.SMTPPass, n.From)
		return notify.NewEmailDispatcher(sender, n.Timeout, n.Concurrency, logger), nil, func() {}, nil

	case config.NotifyModeQueue:
		dispatcher, err := notify.DialQueueDispatcher(n.AMQPURL, n.Timeout, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect notification queue: %w", err)
		}
		sender := notify.NewSMTPSender(n.SMTPAddr, n.SMTPUser, n.SMTPPass, n.From)
		consumer := notify.NewConsumer(n.AMQPURL, sender, n.Timeout, logger)
		return dispatcher, []app.Worker{consumer}, func() { _ = dispatcher.Close() }, nil

	default:
		return notify.NewLogDispatcher(logger), nil, func() {}, nil
	}
}

// initLimiter общий лимит через Redis, если он доступен, иначе лимит в памяти процесса
func initLimiter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (api.Limiter, app.Worker, func()) {
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis connection failed, using in-process rate limiter", zap.Error(err))
			_ = client.Close()
		} else {
			logger.Info("✅ Redis connected", zap.String("addr", cfg.Redis.Addr))
			return api.NewRedisLimiter(client, "lesson_slots:rl:", cfg.Limit.RPS, cfg.Limit.Burst), nil, func() { _ = client.Close() }
		}
	}

	local := api.NewLocalLimiter(cfg.Limit.RPS, cfg.Limit.Burst)
	return local, local, func() {}
}

func initBot(cfg *config.Config, svc api.Services, logger *zap.Logger) (*controller.BotController, error) {
	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	h := handlers.NewHandlers(svc.Booking, svc.Publisher, svc.Clients, svc.Coaches, logger)
	return controller.NewBotController(b, h, logger), nil
}
