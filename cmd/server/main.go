package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Owujuah/Finatera/internal/accounts"
	"github.com/Owujuah/Finatera/internal/api"
	"github.com/Owujuah/Finatera/internal/config"
	"github.com/Owujuah/Finatera/internal/events/kafka"
	"github.com/Owujuah/Finatera/internal/events/rabbitmq"
	"github.com/Owujuah/Finatera/internal/interfaces"
	"github.com/Owujuah/Finatera/internal/ledger"
	"github.com/Owujuah/Finatera/internal/logging"
	"github.com/Owujuah/Finatera/internal/ratelimit"
	"github.com/Owujuah/Finatera/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		logrus.WithError(err).Fatal("failed to configure logger")
	}

	statusMode, err := ledger.ParseStatusMode(cfg.StatusMode)
	if err != nil {
		logger.WithError(err).Fatal("invalid STATUS_MODE")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open store")
	}
	defer store.Close()

	ledgerOpts := []ledger.Option{
		ledger.WithCommitTimeout(cfg.CommitTimeout),
		ledger.WithStatusMode(statusMode),
		ledger.WithLocation(cfg.Location),
	}
	if publisher, topic := newPublisher(cfg, logger); publisher != nil {
		defer publisher.Close()
		ledgerOpts = append(ledgerOpts, ledger.WithPublisher(publisher, topic))
	}
	ledgerService := ledger.NewLedger(store, logger, ledgerOpts...)
	accountService := accounts.NewService(store, logger, cfg.InitialBalance, cfg.CommitTimeout)

	handler := api.NewHandler(accountService, ledgerService, api.NewTokenIssuer(cfg.JWTSecret, cfg.TokenExpiry), logger)
	if limiter := newLoginLimiter(cfg, logger); limiter != nil {
		handler.WithLoginLimit(limiter, cfg.LoginRateLimitPerMinute)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.ServerPort).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	logger.Info("server exited")
}

// newPublisher returns a nil publisher when events are disabled or the broker is
// unreachable. The topic is empty when the ledger default applies.
func newPublisher(cfg config.Config, logger *logrus.Logger) (interfaces.EventPublisher, string) {
	switch cfg.EventsBroker {
	case config.BrokerKafka:
		logger.WithField("brokers", cfg.KafkaBrokers).Info("publishing transfer events to kafka")
		return kafka.NewPublisher(cfg.KafkaBrokers), cfg.KafkaTopic
	case config.BrokerRabbitMQ:
		p, err := rabbitmq.Dial(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable, transfer events disabled")
			return nil, ""
		}
		logger.WithField("exchange", cfg.RabbitMQExchange).Info("publishing transfer events to rabbitmq")
		return p, ""
	}
	return nil, ""
}

func newLoginLimiter(cfg config.Config, logger *logrus.Logger) *ratelimit.RedisLimiter {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, login attempts are not rate limited")
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.WithError(err).Fatal("invalid REDIS_URL")
	}
	return ratelimit.NewRedisLimiter(redis.NewClient(opts), ratelimit.DefaultPrefix)
}
