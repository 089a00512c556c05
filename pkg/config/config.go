package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Stripe   StripeConfig
	Resend   ResendConfig
	Supabase SupabaseConfig
	Webhook  WebhookConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AGENCYOPS_APP_ENV" required:"true"`
	Port         string `envconfig:"AGENCYOPS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGENCYOPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGENCYOPS_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"AGENCYOPS_AUTO_MIGRATE" default:"false"`

	CORSOrigins []string `envconfig:"AGENCYOPS_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"AGENCYOPS_DB_DSN"`

	LegacyHost     string `envconfig:"AGENCYOPS_DB_HOST"`
	LegacyPort     int    `envconfig:"AGENCYOPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGENCYOPS_DB_USER"`
	LegacyPassword string `envconfig:"AGENCYOPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGENCYOPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGENCYOPS_DB_SSLMODE" default:"require"`

	MaxOpenConns    int           `envconfig:"AGENCYOPS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"AGENCYOPS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"AGENCYOPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGENCYOPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional; without a URL or address the webhook event guard is disabled.
type RedisConfig struct {
	URL          string        `envconfig:"AGENCYOPS_REDIS_URL"`
	Address      string        `envconfig:"AGENCYOPS_REDIS_ADDR"`
	Password     string        `envconfig:"AGENCYOPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGENCYOPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGENCYOPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGENCYOPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGENCYOPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGENCYOPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGENCYOPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type StripeConfig struct {
	APIKey        string `envconfig:"AGENCYOPS_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"AGENCYOPS_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"AGENCYOPS_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type ResendConfig struct {
	APIKey     string `envconfig:"AGENCYOPS_RESEND_API_KEY"`
	FromEmail  string `envconfig:"AGENCYOPS_RESEND_FROM_EMAIL" default:"orders@localhost"`
	AdminEmail string `envconfig:"AGENCYOPS_ADMIN_EMAIL"`
	PortalURL  string `envconfig:"AGENCYOPS_PORTAL_URL" default:"http://localhost:3000/portal"`
}

type SupabaseConfig struct {
	JWTSecret string `envconfig:"AGENCYOPS_SUPABASE_JWT_SECRET"`
	Audience  string `envconfig:"AGENCYOPS_SUPABASE_JWT_AUDIENCE" default:"authenticated"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"AGENCYOPS_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
	InFlightTTL    time.Duration `envconfig:"AGENCYOPS_WEBHOOK_INFLIGHT_TTL" default:"2m"`
	MaxBodyBytes   int64         `envconfig:"AGENCYOPS_WEBHOOK_MAX_BODY_BYTES" default:"1048576"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
