package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Config struct {
	HTTPPort string `mapstructure:"HTTP_PORT"`

	DBDriver          string        `mapstructure:"DB_DRIVER"`
	DBURL             string        `mapstructure:"DB_URL"`
	DBSSLCA           string        `mapstructure:"DB_SSL_CA"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	MigrateOnStart    bool          `mapstructure:"MIGRATE_ON_START"`

	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var defaults = map[string]any{
	"HTTP_PORT":            "8000",
	"DB_DRIVER":            DriverPostgres,
	"DB_URL":               "",
	"DB_SSL_CA":            "",
	"DB_MAX_OPEN_CONNS":    20,
	"DB_MAX_IDLE_CONNS":    5,
	"DB_CONN_MAX_LIFETIME": "30m",
	"MIGRATE_ON_START":     true,
	"CORS_ALLOWED_ORIGINS": "http://localhost:3000,http://127.0.0.1:3000",
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"CATALOG_CACHE_TTL":    "30s",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "console",
	"REQUEST_TIMEOUT":      "15s",
	"SHUTDOWN_TIMEOUT":     "10s",
}

// Load reads envFiles (".env" when none are given) into the process
// environment without overriding variables that are already set, then
// resolves the configuration from the environment. Missing files are skipped.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cf.CORSAllowedOrigins = trimAll(cf.CORSAllowedOrigins)

	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

func (c *Config) Validate() error {
	if c.DBURL == "" {
		return errors.New("DB_URL is not set; check your .env file")
	}
	switch c.DBDriver {
	case DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT must not be empty")
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
