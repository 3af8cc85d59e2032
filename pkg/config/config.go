package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Ledger       LedgerConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Ledger.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DISTRO_APP_ENV" required:"true"`
	Port         string `envconfig:"DISTRO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DISTRO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DISTRO_LOG_WARN_STACK" default:"false"`

	CORSOrigins     []string      `envconfig:"DISTRO_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	WriteRateLimit  int           `envconfig:"DISTRO_WRITE_RATE_LIMIT" default:"60"`
	WriteRateWindow time.Duration `envconfig:"DISTRO_WRITE_RATE_WINDOW" default:"1m"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"DISTRO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"DISTRO_DB_DSN"`
	Driver string `envconfig:"DISTRO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DISTRO_DB_HOST"`
	LegacyPort     int    `envconfig:"DISTRO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DISTRO_DB_USER"`
	LegacyPassword string `envconfig:"DISTRO_DB_PASSWORD"`
	LegacyName     string `envconfig:"DISTRO_DB_NAME"`
	LegacySSLMode  string `envconfig:"DISTRO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DISTRO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DISTRO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DISTRO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DISTRO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	LockTimeout     time.Duration `envconfig:"DISTRO_DB_LOCK_TIMEOUT" default:"5s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DISTRO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DISTRO_REDIS_ADDR"`
	Password     string        `envconfig:"DISTRO_REDIS_PASSWORD"`
	DB           int           `envconfig:"DISTRO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DISTRO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DISTRO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DISTRO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DISTRO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DISTRO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DISTRO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DISTRO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DISTRO_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate     bool `envconfig:"DISTRO_AUTO_MIGRATE" default:"false"`
	IdempotencyKeys bool `envconfig:"DISTRO_FEATURE_IDEMPOTENCY" default:"true"`
	AcceptLock      bool `envconfig:"DISTRO_FEATURE_ACCEPT_LOCK" default:"true"`
}

// LedgerConfig tunes the transfer executor and settlement rules.
type LedgerConfig struct {
	TransferMaxAttempts  int           `envconfig:"DISTRO_LEDGER_TRANSFER_MAX_ATTEMPTS" default:"3"`
	TransferRetryBackoff time.Duration `envconfig:"DISTRO_LEDGER_TRANSFER_RETRY_BACKOFF" default:"25ms"`
	PaymentEpsilon       string        `envconfig:"DISTRO_LEDGER_PAYMENT_EPSILON" default:"0.01"`
	AcceptLockTTL        time.Duration `envconfig:"DISTRO_LEDGER_ACCEPT_LOCK_TTL" default:"10s"`
}

// Epsilon returns the tolerance used when matching counterparty payment splits.
func (l LedgerConfig) Epsilon() decimal.Decimal {
	eps, err := decimal.NewFromString(strings.TrimSpace(l.PaymentEpsilon))
	if err != nil || eps.IsNegative() {
		return decimal.New(1, -2)
	}
	return eps
}

func (l LedgerConfig) validate() error {
	if l.TransferMaxAttempts < 1 {
		return fmt.Errorf("%s must be at least 1", EnvLedgerMaxAttempts)
	}
	if _, err := decimal.NewFromString(strings.TrimSpace(l.PaymentEpsilon)); err != nil {
		return fmt.Errorf("%s: %w", EnvLedgerPaymentEpsilon, err)
	}
	return nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"DISTRO_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"DISTRO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	LedgerTopic string `envconfig:"DISTRO_PUBSUB_LEDGER_TOPIC" default:"distro-ledger-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"DISTRO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"DISTRO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"DISTRO_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
