package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Spok95/pressops/internal/config"
	"github.com/Spok95/pressops/internal/infra/db"
	httpx "github.com/Spok95/pressops/internal/infra/http"
	"github.com/Spok95/pressops/internal/infra/logger"
	"github.com/Spok95/pressops/internal/infra/metrics"
	"github.com/Spok95/pressops/internal/infra/notify"
	"github.com/Spok95/pressops/internal/infra/tracing"
	"github.com/Spok95/pressops/internal/store"
	"github.com/Spok95/pressops/internal/usecase"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func sinks(cfg config.Config, log *slog.Logger) (out []notify.Sink, closers []func() error) {
	out = append(out, notify.NewLogSink(log))

	if cfg.Telegram.Token != "" && cfg.Telegram.AdminChatID != 0 {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Error("telegram init failed", "err", err)
		} else {
			out = append(out, notify.NewTelegramSink(api, cfg.Telegram.AdminChatID))
			log.Info("telegram sink enabled", "bot", api.Self.UserName)
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := notify.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Error("kafka producer failed", "err", err)
		} else {
			out = append(out, notify.NewKafkaSink(producer, cfg.Kafka.Topic))
			closers = append(closers, producer.Close)
			log.Info("kafka sink enabled", "topic", cfg.Kafka.Topic)
		}
	}

	if cfg.SendGrid.APIKey != "" {
		out = append(out, notify.NewEmailSink(cfg.SendGrid.APIKey, cfg.SendGrid.From, cfg.SendGrid.To))
		log.Info("email sink enabled", "to", cfg.SendGrid.To)
	}
	return out, closers
}

func main() {
	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	tp, err := tracing.Init("pressops", cfg.Tracing.Endpoint, cfg.Tracing.Enabled, log)
	if err != nil {
		log.Error("tracing init failed", "err", err)
		return
	}

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, log)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	m := metrics.New(prometheus.DefaultRegisterer)

	out, closers := sinks(cfg, log)
	dispatcher := notify.NewDispatcher(log, m, out...)

	svc := usecase.New(
		db.NewTransactor(pool, log),
		func(q db.DBTX) usecase.Store { return store.New(q) },
		dispatcher,
		m,
		log,
		usecase.Options{
			ReturnStockOnDelete: cfg.Ledger.ReturnStockOnDelete,
			FuzzyMatch:          cfg.Ledger.FuzzyMaterialMatch,
			MinEditReason:       cfg.Ledger.MinEditReason,
		},
	)

	deps := httpx.Deps{
		Ledger:        svc,
		Log:           log,
		Metrics:       m,
		KeyTTL:        cfg.Redis.IdempotencyTTL,
		ExposeMetrics: cfg.Metrics.Enabled,
		VerifyUsers:   cfg.HTTP.VerifyUsers,
	}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis ping failed, idempotency keys disabled", "err", err)
			_ = rdb.Close()
		} else {
			defer func() { _ = rdb.Close() }()
			deps.Keys = httpx.NewRedisKeys(rdb)
			log.Info("idempotency keys enabled", "addr", cfg.Redis.Addr)
		}
	}

	srv := httpx.New(cfg.HTTP.Addr, httpx.NewRouter(deps))
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	dispatcher.Wait()
	for _, c := range closers {
		_ = c()
	}
	if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
		log.Warn("tracer shutdown failed", "err", err)
	}
	log.Info("graceful shutdown complete")
}
