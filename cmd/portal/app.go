package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	mongodb "github.com/carelink/healthcare-portal/internal/infrastructure/db/mongo"
	redisdb "github.com/carelink/healthcare-portal/internal/infrastructure/db/redis"
	"github.com/carelink/healthcare-portal/internal/infrastructure/mail"
	"github.com/carelink/healthcare-portal/internal/infrastructure/ratelimit"
	"github.com/carelink/healthcare-portal/internal/pkg/config"
	"github.com/carelink/healthcare-portal/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// app carries what every subcommand needs plus the cleanup it registered.
type app struct {
	service string
	cfg     *config.Config
	log     zerolog.Logger
	closers []func(context.Context) error
}

func newApp(ctx context.Context, service string) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: service,
	})
	return &app{service: service, cfg: cfg, log: log}, nil
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// close runs the registered cleanups in reverse order.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn().Err(err).Msg("shutdown step failed")
		}
	}
}

func (a *app) connectMongo(ctx context.Context, database string) (*mongo.Database, error) {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: a.cfg.Mongo.URI, Database: database})
	if err != nil {
		return nil, err
	}
	a.onClose(client.Disconnect)
	a.log.Info().Str("database", database).Msg("connected to mongodb")
	return db, nil
}

// connectRedis returns nil when no address is configured.
func (a *app) connectRedis(ctx context.Context) (*goredis.Client, error) {
	if a.cfg.Redis.Addr == "" {
		a.log.Info().Msg("redis not configured, using in-process rate limits and job locks")
		return nil, nil
	}
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:       a.cfg.Redis.Addr,
		Password:   a.cfg.Redis.Password,
		DB:         a.cfg.Redis.DB,
		PoolSize:   a.cfg.Redis.PoolSize,
		ClientName: a.service,
	})
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return rdb.Close() })
	return rdb, nil
}

func (a *app) limiter(rdb *goredis.Client, p ratelimit.Policy) ratelimit.Limiter {
	if rdb == nil {
		return ratelimit.NewMemoryLimiter(p)
	}
	return ratelimit.NewRedisLimiter(rdb, p)
}

func (a *app) generalLimiter(rdb *goredis.Client) ratelimit.Limiter {
	return a.limiter(rdb, ratelimit.Policy{
		Name:   "general",
		Window: a.cfg.RateLimit.GeneralWindow,
		Max:    a.cfg.RateLimit.GeneralMax,
	})
}

func (a *app) authLimiter(rdb *goredis.Client) ratelimit.Limiter {
	return a.limiter(rdb, ratelimit.Policy{
		Name:   "auth",
		Window: a.cfg.RateLimit.AuthWindow,
		Max:    a.cfg.RateLimit.AuthMax,
	})
}

func (a *app) smtpConfig() mail.SMTPConfig {
	m := a.cfg.Mail
	from := m.From
	if from == "" {
		from = m.User
	}
	return mail.SMTPConfig{
		Host:        m.Host,
		Port:        m.Port,
		Username:    m.User,
		Password:    m.Password,
		From:        from,
		FromName:    m.PortalName,
		ImplicitTLS: m.ImplicitTLS,
	}
}

func (a *app) kafkaConfig() mail.KafkaConfig {
	k := a.cfg.Kafka
	return mail.KafkaConfig{
		Brokers:  k.Brokers,
		Topic:    k.Topic,
		GroupID:  k.GroupID,
		Username: k.Username,
		Password: k.Password,
	}
}

// notifier builds the mail notifier on the configured transport.
func (a *app) notifier() (*mail.Notifier, error) {
	var transport mail.Transport
	switch a.cfg.Mail.Transport {
	case "smtp":
		t, err := mail.NewSMTPTransport(a.smtpConfig())
		if err != nil {
			return nil, err
		}
		transport = t
	case "kafka":
		t := mail.NewKafkaTransport(a.kafkaConfig())
		a.onClose(func(context.Context) error { return t.Close() })
		transport = t
	default:
		transport = mail.NewLogTransport(a.log)
	}
	return mail.NewNotifier(transport, a.cfg.Mail.PortalName)
}

// serve runs e until ctx is cancelled, then shuts it down gracefully.
func (a *app) serve(ctx context.Context, e *echo.Echo, port string) error {
	addr := ":" + port
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
