package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Outbox    OutboxConfig
	Reconcile ReconcileConfig
	PubSub    PubSubConfig
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
	Env          string `envconfig:"KIRANAKART_APP_ENV" required:"true"`
	Port         string `envconfig:"KIRANAKART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KIRANAKART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KIRANAKART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KIRANAKART_DB_DSN"`
	Driver string `envconfig:"KIRANAKART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"KIRANAKART_DB_HOST"`
	Port     int    `envconfig:"KIRANAKART_DB_PORT" default:"5432"`
	User     string `envconfig:"KIRANAKART_DB_USER"`
	Password string `envconfig:"KIRANAKART_DB_PASSWORD"`
	Name     string `envconfig:"KIRANAKART_DB_NAME"`
	SSLMode  string `envconfig:"KIRANAKART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KIRANAKART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KIRANAKART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KIRANAKART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KIRANAKART_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"KIRANAKART_AUTO_MIGRATE" default:"false"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either KIRANAKART_DB_DSN or host/user/name settings are required")
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"KIRANAKART_REDIS_URL" required:"true"`
	Password     string        `envconfig:"KIRANAKART_REDIS_PASSWORD"`
	DB           int           `envconfig:"KIRANAKART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KIRANAKART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KIRANAKART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KIRANAKART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KIRANAKART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KIRANAKART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KIRANAKART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KIRANAKART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KIRANAKART_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"KIRANAKART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"KIRANAKART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"KIRANAKART_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// PollInterval converts the configured poll cadence to a duration.
func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

type ReconcileConfig struct {
	Interval    time.Duration `envconfig:"KIRANAKART_RECONCILE_INTERVAL" default:"5m"`
	BatchSize   int           `envconfig:"KIRANAKART_RECONCILE_BATCH_SIZE" default:"100"`
	Lookback    time.Duration `envconfig:"KIRANAKART_RECONCILE_LOOKBACK" default:"720h"`
	GracePeriod time.Duration `envconfig:"KIRANAKART_RECONCILE_GRACE_PERIOD" default:"2m"`

	// ActorID is the system user recorded as created_by on repaired
	// ledger entries. Required by the reconciler binary only.
	ActorID string `envconfig:"KIRANAKART_RECONCILE_ACTOR_ID"`
}

type PubSubConfig struct {
	ProjectID          string `envconfig:"KIRANAKART_GCP_PROJECT_ID"`
	OrdersTopic        string `envconfig:"KIRANAKART_PUBSUB_ORDERS_TOPIC" default:"kk-order-events"`
	OrdersSubscription string `envconfig:"KIRANAKART_PUBSUB_ORDERS_SUBSCRIPTION" default:"kk-order-events-sub"`
}
