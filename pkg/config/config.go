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
	Service      ServiceConfig
	DB           DBConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cart         CartConfig
	Cron         CronConfig
	Mail         MailConfig
	Idempotency  IdempotencyConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.Cart.TTL <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvCartTTL)
	}
	if cfg.Cart.KeepAliveThreshold >= cfg.Cart.TTL {
		return nil, fmt.Errorf("%s (%s) must be shorter than %s (%s)", EnvCartKeepAlive, cfg.Cart.KeepAliveThreshold, EnvCartTTL, cfg.Cart.TTL)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FARMCONNECT_APP_ENV" required:"true"`
	Port         string `envconfig:"FARMCONNECT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FARMCONNECT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FARMCONNECT_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list.
	CORSOrigins []string `envconfig:"FARMCONNECT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FARMCONNECT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FARMCONNECT_DB_DSN"`
	Driver string `envconfig:"FARMCONNECT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"FARMCONNECT_DB_HOST"`
	Port     int    `envconfig:"FARMCONNECT_DB_PORT" default:"5432"`
	User     string `envconfig:"FARMCONNECT_DB_USER"`
	Password string `envconfig:"FARMCONNECT_DB_PASSWORD"`
	Name     string `envconfig:"FARMCONNECT_DB_NAME"`
	SSLMode  string `envconfig:"FARMCONNECT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FARMCONNECT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FARMCONNECT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FARMCONNECT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FARMCONNECT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type MongoConfig struct {
	URI            string        `envconfig:"FARMCONNECT_MONGO_URI" required:"true"`
	Database       string        `envconfig:"FARMCONNECT_MONGO_DATABASE" default:"farmconnect"`
	MaxPoolSize    uint64        `envconfig:"FARMCONNECT_MONGO_MAX_POOL_SIZE" default:"100"`
	MinPoolSize    uint64        `envconfig:"FARMCONNECT_MONGO_MIN_POOL_SIZE" default:"10"`
	ConnectTimeout time.Duration `envconfig:"FARMCONNECT_MONGO_CONNECT_TIMEOUT" default:"10s"`
	SelectTimeout  time.Duration `envconfig:"FARMCONNECT_MONGO_SERVER_SELECTION_TIMEOUT" default:"5s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FARMCONNECT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FARMCONNECT_REDIS_ADDR"`
	Password     string        `envconfig:"FARMCONNECT_REDIS_PASSWORD"`
	DB           int           `envconfig:"FARMCONNECT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FARMCONNECT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FARMCONNECT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FARMCONNECT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FARMCONNECT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FARMCONNECT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FARMCONNECT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FARMCONNECT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FARMCONNECT_JWT_EXPIRATION_MINUTES" default:"1440"`
	// CookieName is checked when no Authorization header is sent.
	CookieName string `envconfig:"FARMCONNECT_JWT_COOKIE_NAME" default:"token"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type CartConfig struct {
	TTL                time.Duration `envconfig:"FARMCONNECT_CART_TTL" default:"48h"`
	KeepAliveThreshold time.Duration `envconfig:"FARMCONNECT_CART_KEEP_ALIVE_THRESHOLD" default:"24h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"FARMCONNECT_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"FARMCONNECT_CRON_LOCK_TTL" default:"25h"`
	// NotificationRetentionDays bounds how long in-app notifications are kept.
	NotificationRetentionDays int `envconfig:"FARMCONNECT_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
}

type MailConfig struct {
	Host     string `envconfig:"FARMCONNECT_SMTP_HOST"`
	Port     int    `envconfig:"FARMCONNECT_SMTP_PORT" default:"587"`
	Username string `envconfig:"FARMCONNECT_SMTP_USERNAME"`
	Password string `envconfig:"FARMCONNECT_SMTP_PASSWORD"`
	From     string `envconfig:"FARMCONNECT_SMTP_FROM"`
}

// Enabled reports whether outbound email is configured.
func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.Host) != "" && strings.TrimSpace(m.From) != ""
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"FARMCONNECT_IDEMPOTENCY_TTL" default:"24h"`
}

type RateLimitConfig struct {
	PlaceOrderWindow time.Duration `envconfig:"FARMCONNECT_RATE_LIMIT_PLACE_ORDER_WINDOW" default:"1m"`
	PlaceOrderLimit  int           `envconfig:"FARMCONNECT_RATE_LIMIT_PLACE_ORDER_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FARMCONNECT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
