package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prperemyshlev/auth-core/internal/config"
	"github.com/prperemyshlev/auth-core/internal/domain"
	"github.com/prperemyshlev/auth-core/internal/notify"
	"github.com/prperemyshlev/auth-core/internal/oauth"
	"github.com/prperemyshlev/auth-core/pkg/database"
	"github.com/prperemyshlev/auth-core/pkg/observability"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const serviceName = "auth-core"

type Infrastructure interface {
	Postgres() *database.Postgres
	Redis() *database.Redis
	Logger() *zap.Logger
	MetricsHandler() http.Handler
	MeterProvider() *metric.MeterProvider
	Notifier() notify.Notifier
	OAuthProviders() *oauth.Registry

	Shutdown(ctx context.Context) error
}

type infrastructure struct {
	postgres       *database.Postgres
	redis          *database.Redis
	logger         *zap.Logger
	metricsHandler http.Handler
	meterProvider  *metric.MeterProvider
	notifier       notify.Notifier
	providers      *oauth.Registry
}

var _ Infrastructure = &infrastructure{}

func NewInfrastructure(ctx context.Context, cfg config.Config) (*infrastructure, error) {
	i := &infrastructure{}

	logger, err := observability.InitLogger(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	i.logger = logger

	postgres, err := database.NewPostgres(cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	i.postgres = postgres

	if cfg.Postgres.RunMigrations {
		if err := postgres.Migrate(); err != nil {
			_ = i.postgres.Close()
			return nil, fmt.Errorf("failed to migrate PostgreSQL: %w", err)
		}
		logger.Info("Database migrations applied")
	}

	redis, err := database.NewRedis(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		_ = i.postgres.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	i.redis = redis

	meterProvider, metricsHandler, err := observability.InitTelemetry(serviceName)
	if err != nil {
		_ = i.postgres.Close()
		_ = i.redis.Close()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	i.meterProvider = meterProvider
	i.metricsHandler = metricsHandler

	i.notifier = newNotifier(cfg, logger)
	i.providers = newOAuthProviders(ctx, cfg, logger)

	return i, nil
}

func newNotifier(cfg config.Config, logger *zap.Logger) notify.Notifier {
	var sender notify.Sender
	if cfg.Mail.ResendAPIKey != "" {
		sender = notify.NewResendSender(cfg.Mail.ResendAPIKey, cfg.Mail.FromAddress)
	} else {
		logger.Warn("RESEND_API_KEY is not set, emails will only be logged")
		sender = notify.NewLogSender(logger)
	}

	return notify.NewEmailNotifier(sender, cfg.AppURL, cfg.Mail.SendTimeout.Duration)
}

// newOAuthProviders registers every provider with credentials. A provider
// that fails to initialize is skipped so local sign-in keeps working.
func newOAuthProviders(ctx context.Context, cfg config.Config, logger *zap.Logger) *oauth.Registry {
	var providers []oauth.Provider

	if c := cfg.OAuth.Google; c.Enabled() {
		p, err := oauth.NewGoogle(ctx, c.ClientID, c.ClientSecret, cfg.OAuth.CallbackURL(string(domain.ProviderGoogle)))
		if err != nil {
			logger.Error("Google sign-in disabled", zap.Error(err))
		} else {
			providers = append(providers, p)
		}
	}

	if c := cfg.OAuth.GitHub; c.Enabled() {
		p, err := oauth.NewGitHub(c.ClientID, c.ClientSecret, cfg.OAuth.CallbackURL(string(domain.ProviderGitHub)))
		if err != nil {
			logger.Error("GitHub sign-in disabled", zap.Error(err))
		} else {
			providers = append(providers, p)
		}
	}

	registry := oauth.NewRegistry(providers...)
	logger.Info("OAuth providers configured", zap.Strings("providers", registry.Names()))
	return registry
}

func (i *infrastructure) Postgres() *database.Postgres {
	return i.postgres
}

func (i *infrastructure) Redis() *database.Redis {
	return i.redis
}

func (i *infrastructure) Logger() *zap.Logger {
	return i.logger
}

func (i *infrastructure) MetricsHandler() http.Handler {
	return i.metricsHandler
}

func (i *infrastructure) MeterProvider() *metric.MeterProvider {
	return i.meterProvider
}

func (i *infrastructure) Notifier() notify.Notifier {
	return i.notifier
}

func (i *infrastructure) OAuthProviders() *oauth.Registry {
	return i.providers
}

func (i *infrastructure) Shutdown(ctx context.Context) error {
	errs := make(chan error, 3)

	go func() { errs <- i.postgres.Close() }()
	go func() { errs <- i.redis.Close() }()
	go func() { errs <- observability.Shutdown(ctx, i.meterProvider, i.logger) }()

	return errors.Join(<-errs, <-errs, <-errs)
}
