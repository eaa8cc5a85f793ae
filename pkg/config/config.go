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
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Availability AvailabilityConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CANTINA_APP_ENV" required:"true"`
	Port         string `envconfig:"CANTINA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CANTINA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CANTINA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"CANTINA_DB_DSN"`

	Host     string `envconfig:"CANTINA_DB_HOST"`
	Port     int    `envconfig:"CANTINA_DB_PORT" default:"5432"`
	User     string `envconfig:"CANTINA_DB_USER"`
	Password string `envconfig:"CANTINA_DB_PASSWORD"`
	Name     string `envconfig:"CANTINA_DB_NAME"`
	SSLMode  string `envconfig:"CANTINA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CANTINA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CANTINA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CANTINA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CANTINA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a Postgres DSN from the discrete fields when no DSN was
// provided directly.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either CANTINA_DB_DSN or CANTINA_DB_HOST/USER/NAME must be set")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"CANTINA_REDIS_URL"`
	Address      string        `envconfig:"CANTINA_REDIS_ADDR"`
	Password     string        `envconfig:"CANTINA_REDIS_PASSWORD"`
	DB           int           `envconfig:"CANTINA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CANTINA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CANTINA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CANTINA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CANTINA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CANTINA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type AvailabilityConfig struct {
	// LowStockBuffer is the summary threshold: packages whose max sellable
	// quantity is at or below the buffer (but above zero) classify as low stock.
	LowStockBuffer int `envconfig:"CANTINA_AVAILABILITY_LOW_STOCK_BUFFER" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CANTINA_AUTO_MIGRATE" default:"false"`
}
