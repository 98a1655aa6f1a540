package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"

	"github.com/pptbot/pptbot/internal/bot"
	bothandlers "github.com/pptbot/pptbot/internal/bot/handlers"
	"github.com/pptbot/pptbot/internal/channel"
	"github.com/pptbot/pptbot/internal/correlation"
	"github.com/pptbot/pptbot/internal/database"
	"github.com/pptbot/pptbot/internal/generation"
	"github.com/pptbot/pptbot/internal/health"
	"github.com/pptbot/pptbot/internal/idempotency"
	"github.com/pptbot/pptbot/internal/jobs"
	jobhandlers "github.com/pptbot/pptbot/internal/jobs/handlers"
	"github.com/pptbot/pptbot/internal/lifecycle"
	"github.com/pptbot/pptbot/internal/middleware"
	"github.com/pptbot/pptbot/internal/ratelimit"
	"github.com/pptbot/pptbot/internal/repository"
	"github.com/pptbot/pptbot/internal/state"
	"github.com/pptbot/pptbot/internal/user"
	"github.com/pptbot/pptbot/internal/usercache"
	"github.com/pptbot/pptbot/internal/voice"
	"github.com/pptbot/pptbot/internal/webhook"
	"github.com/pptbot/pptbot/pkg/config"
	"github.com/pptbot/pptbot/pkg/graceful"
	"github.com/pptbot/pptbot/pkg/logger"
	"github.com/pptbot/pptbot/pkg/metrics"
	pkgredis "github.com/pptbot/pptbot/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.AppEnv}); err != nil {
			slog.Error("failed to init sentry", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	log := logger.New(*cfg)
	log.Info("starting funnel bot", slog.String("env", cfg.AppEnv), slog.String("http_port", cfg.Server.Port))

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		os.Exit(1)
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, "migrations"); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(ctx, pkgredis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		PoolTimeout:  cfg.Redis.PoolTimeout,
		IdleTimeout:  cfg.Redis.IdleTimeout,
	})
	if err != nil {
		log.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()

	// Funnel state transitions are exported as Prometheus counters.
	state.RegisterTransitionRecorder(metrics.RecordStateTransition)

	userRepo := repository.NewUserRepository(db, log)
	cachedUsers := user.NewService(userRepo, usercache.NewCache(pkgredis.NewMetricsClient(redisClient)), log)
	promptRepo := repository.NewPromptRepository(db, log)
	requestRepo := repository.NewRequestRepository(db, log)

	fsm := state.NewStateMachine(repository.NewStateStorage(cachedUsers), log, redisClient.Client)

	store := correlation.NewStore(log)
	gateway := generation.NewGateway(cfg.Generation, store, log)
	config.Watch(v, log, func(next *config.Config) {
		gateway.Reconfigure(next.Generation)
	})

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	jobManager := jobs.NewManager(redisOpt, log)
	defer jobManager.Close()

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	scheduler := jobs.NewReminderScheduler(jobManager, inspector, [jobs.ReminderSequence]time.Duration{
		cfg.Reminders.First,
		cfg.Reminders.Second,
		cfg.Reminders.Third,
	}, log)

	tb, err := bot.NewTelebot(*cfg)
	if err != nil {
		log.Error("failed to create telegram bot", slog.Any("error", err))
		os.Exit(1)
	}

	transcriber := voice.NewWhisperTranscriber(cfg.OpenAI.APIKey, log)
	channels := channel.NewService(tb, log)

	funnel := bothandlers.NewFunnel(
		cachedUsers,
		promptRepo,
		requestRepo,
		fsm,
		gateway,
		scheduler,
		transcriber,
		channels,
		cfg.Media,
		log,
	)

	idemManager := idempotency.NewManager(idempotency.NewRedisStore(redisClient.Client, log), log)

	var rateLimitMw *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewAdaptiveLimiter(
			ratelimit.NewRedisLimiter(redisClient.Client, log),
			ratelimit.NewMemoryLimiter(log),
			log,
		)
		rateLimitMw = middleware.NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg.RateLimit), log)
	}

	b, err := bot.New(*cfg, log, tb, fsm, funnel, idemManager, rateLimitMw)
	if err != nil {
		log.Error("failed to assemble bot", slog.Any("error", err))
		os.Exit(1)
	}

	checker := health.NewChecker(log)
	checker.AddCheck("database", health.NewDBChecker(db))
	checker.AddCheck("redis", health.NewRedisChecker(redisClient.Client))
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))
	probes := lifecycle.NewProbes(checker, log)

	worker := jobs.NewWorker(redisOpt, map[string]int{jobs.QueueReminders: 1}, log)
	notifier := bot.NewReminderNotifier(b.Telebot())
	worker.RegisterHandler(jobs.TaskTypeReminder, jobhandlers.NewReminderHandler(fsm, notifier, log))

	go func() {
		if err := worker.Run(); err != nil {
			log.Error("jobs worker stopped", slog.Any("error", err))
			stop()
		}
	}()

	receiver := webhook.NewServer(store, checker, probes, log)
	httpServer := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: middleware.New(log)(receiver.Router()),
	}
	srv := graceful.NewServer(log, httpServer, cfg.Server.ShutdownTimeout)

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Error("http server stopped", slog.Any("error", err))
		}
	}()

	idemCleaner := idempotency.NewCleaner(redisClient.Client, log, time.Hour)
	go idemCleaner.Run(ctx)

	rateCleaner := ratelimit.NewCleaner(redisClient.Client, log, 10*time.Minute)
	go rateCleaner.Run(ctx)

	go b.Start()

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram-bot", func(context.Context) error {
		b.Stop()
		return nil
	})
	shutdown.Register("jobs-worker", func(context.Context) error {
		worker.Shutdown()
		return nil
	})

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	log.Info("funnel bot stopped")
}
