package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/auth-core/internal/config"
	"github.com/prperemyshlev/auth-core/internal/handler"
	"github.com/prperemyshlev/auth-core/internal/repository"
	"github.com/prperemyshlev/auth-core/internal/service"
	"github.com/prperemyshlev/auth-core/internal/utils"
	"github.com/prperemyshlev/auth-core/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

type handlers struct {
	auth        *handler.AuthHandler
	oauth       *handler.OAuthHandler
	authService service.AuthService
	rateLimiter *service.RateLimiter
	health      *HealthChecker
	cookie      handler.SessionCookie
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	logger := infra.Logger()
	repos := repository.NewRepositories(infra.Postgres())

	var meter metric.Meter
	if mp := infra.MeterProvider(); mp != nil {
		meter = mp.Meter(serviceName)
	}

	authService := service.NewAuthService(service.Dependencies{
		Store:    repos,
		Hasher:   utils.NewBcryptHasher(cfg.Security.BCryptCost),
		Issuer:   utils.NewRandomTokenIssuer(),
		Notifier: infra.Notifier(),
		Sessions: utils.NewSessionManager(cfg.JWT.Secret, cfg.JWT.SessionExpiry.Duration),
		Logger:   logger,
		Meter:    meter,
	})

	cookie := handler.SessionCookie{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
	}

	h := handlers{
		auth: handler.NewAuthHandler(authService, cookie),
		oauth: handler.NewOAuthHandler(
			authService,
			infra.OAuthProviders(),
			service.NewOAuthStateStore(infra.Redis(), cfg.OAuth.StateTTL.Duration),
			cookie,
			cfg.Session.HomePath,
			cfg.Session.LoginPath,
			logger,
		),
		authService: authService,
		rateLimiter: service.NewRateLimiter(infra.Redis()),
		health: NewHealthChecker(map[string]Pinger{
			"postgres": infra.Postgres(),
			"redis":    infra.Redis(),
		}),
		cookie: cookie,
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Error("Invalid trusted proxies, forwarding headers ignored", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, h, logger, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	h handlers,
	logger *zap.Logger,
	metricsHandler http.Handler,
) {
	limited := handler.RateLimitMiddleware(
		h.rateLimiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.IPBasedKey,
		logger,
	)

	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", h.health.Handler)

	// Link delivered in the verification email
	router.GET("/verify-email", limited, h.auth.VerifyEmailLink)
	router.GET(cfg.Session.HomePath,
		handler.RedirectMiddleware(h.authService, h.cookie, cfg.Session.LoginPath),
		h.auth.GetMe,
	)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", limited, h.auth.Signup)
			auth.POST("/login", limited, h.auth.Login)
			auth.POST("/verify-email", limited, h.auth.VerifyEmail)
			auth.POST("/resend-verification", limited, h.auth.ResendVerification)
			auth.POST("/forgot-password", limited, h.auth.ForgotPassword)
			auth.POST("/reset-password", limited, h.auth.ResetPassword)
			auth.POST("/logout", h.auth.Logout)
			auth.GET("/me", handler.SessionMiddleware(h.authService, h.cookie), h.auth.GetMe)
		}

		oauth := api.Group("/oauth/:provider")
		{
			oauth.GET("/start", h.oauth.Start)
			oauth.GET("/callback", h.oauth.Callback)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
