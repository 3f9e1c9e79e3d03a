package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Square       SquareConfig
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
	Env          string `envconfig:"SHOPLINK_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPLINK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPLINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPLINK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPLINK_DB_DSN"`
	Driver string `envconfig:"SHOPLINK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPLINK_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPLINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPLINK_DB_USER"`
	LegacyPassword string `envconfig:"SHOPLINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPLINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPLINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPLINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPLINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPLINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPLINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// StatementTimeout bounds every statement so a settlement transaction
	// blocked on a row lock surfaces a retryable conflict instead of hanging.
	StatementTimeout time.Duration `envconfig:"SHOPLINK_DB_STATEMENT_TIMEOUT" default:"5s"`
	LockTimeout      time.Duration `envconfig:"SHOPLINK_DB_LOCK_TIMEOUT" default:"3s"`
}

type RedisConfig struct {
	URL            string        `envconfig:"SHOPLINK_REDIS_URL" required:"true"`
	PoolSize       int           `envconfig:"SHOPLINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"SHOPLINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"SHOPLINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"SHOPLINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"SHOPLINK_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"SHOPLINK_REDIS_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOPLINK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPLINK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHOPLINK_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPLINK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SHOPLINK_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"SHOPLINK_PUBSUB_DOMAIN_TOPIC" default:"shoplink-domain-events"`
	DomainSubscription string `envconfig:"SHOPLINK_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHOPLINK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHOPLINK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHOPLINK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"SHOPLINK_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"SHOPLINK_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
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
