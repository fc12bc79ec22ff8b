package config

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	Session  SessionConfig  `env:",prefix=SESSION_"`
	Security SecurityConfig `env:",prefix="`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Mail     MailConfig     `env:",prefix="`
	OAuth    OAuthConfig    `env:",prefix="`
	AppURL   string         `env:"APP_URL,default=http://localhost:3000"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
	// TrustedProxies lists proxy IPs or CIDRs whose forwarding headers are
	// believed. Empty means the TCP peer is the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

type PostgresConfig struct {
	Host          string `env:"HOST,default=localhost"`
	Port          string `env:"PORT,default=5432"`
	User          string `env:"USER,default=auth_core"`
	Password      string `env:"PASSWORD,default=auth_core_password"`
	DBName        string `env:"DB,default=auth_core_db"`
	SSLMode       string `env:"SSLMODE,default=disable"`
	RunMigrations bool   `env:"RUN_MIGRATIONS,default=true"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// JWTConfig configures signing of session tokens.
type JWTConfig struct {
	Secret        string   `env:"SECRET,required"`
	SessionExpiry Duration `env:"SESSION_EXPIRY,default=30d"`
}

type SessionConfig struct {
	CookieName   string `env:"COOKIE_NAME,default=session"`
	CookieSecure bool   `env:"COOKIE_SECURE,default=true"`
	LoginPath    string `env:"LOGIN_PATH,default=/login"`
	HomePath     string `env:"HOME_PATH,default=/home"`
}

type SecurityConfig struct {
	BCryptCost        int      `env:"BCRYPT_COST,default=12"`
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// MailConfig configures the outgoing email transport. An empty API key
// selects the log-only sender.
type MailConfig struct {
	ResendAPIKey string   `env:"RESEND_API_KEY,default="`
	FromAddress  string   `env:"RESEND_FROM_EMAIL,default=onboarding@resend.dev"`
	SendTimeout  Duration `env:"MAIL_SEND_TIMEOUT,default=10s"`
}

type OAuthConfig struct {
	Google          OAuthClientConfig `env:",prefix=GOOGLE_"`
	GitHub          OAuthClientConfig `env:",prefix=GITHUB_"`
	RedirectBaseURL string            `env:"OAUTH_REDIRECT_BASE_URL,default=http://localhost:8080"`
	StateTTL        Duration          `env:"OAUTH_STATE_TTL,default=10m"`
}

type OAuthClientConfig struct {
	ClientID     string `env:"CLIENT_ID,default="`
	ClientSecret string `env:"CLIENT_SECRET,default="`
}

// Enabled reports whether both halves of the client credentials are set.
func (o OAuthClientConfig) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

// CallbackURL returns the redirect URL registered with the provider.
func (o OAuthConfig) CallbackURL(provider string) string {
	return fmt.Sprintf("%s/api/v1/oauth/%s/callback", o.RedirectBaseURL, provider)
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	u, err := url.Parse(config.AppURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("APP_URL must be an absolute URL, got %q", config.AppURL)
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
