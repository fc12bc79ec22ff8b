package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/prperemyshlev/auth-core/internal/app"
	"github.com/prperemyshlev/auth-core/internal/config"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	infra, err := app.NewInfrastructure(ctx, *cfg)
	if err != nil {
		log.Fatalf("Failed to initialize infrastructure: %v", err)
	}

	logger := infra.Logger()
	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("app_url", cfg.AppURL),
		zap.Bool("email_delivery", cfg.Mail.ResendAPIKey != ""),
		zap.Strings("oauth_providers", infra.OAuthProviders().Names()),
		zap.Strings("trusted_proxies", cfg.Server.TrustedProxies),
	)

	if err := app.NewApp(infra, cfg).Run(ctx); err != nil {
		logger.Fatal("Application failed", zap.Error(err))
	}
}
