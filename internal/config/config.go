package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Supported DB_DRIVER values.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"password"`
	DBName     string `env:"DB_NAME" envDefault:"sessions"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	DBTimezone string `env:"DB_TIMEZONE" envDefault:"UTC"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"./data/sessions.db"`

	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	LogFile  string `env:"LOG_FILE" envDefault:"./logs/app.log"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	OpTimeout   time.Duration `env:"OP_TIMEOUT" envDefault:"5s"`
	SeedSports  []string      `env:"SEED_SPORTS" envSeparator:","`
	CORSOrigins []string      `env:"CORS_ORIGINS" envSeparator:","`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.OpTimeout <= 0 {
		return errors.New("OP_TIMEOUT must be positive")
	}
	for _, origin := range c.CORSOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ORIGINS entry %q must start with http:// or https://", origin)
		}
	}
	return nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return "0.0.0.0:" + c.Port
}

// PostgresDSN builds the key/value data source name for the postgres driver.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimezone,
	)
}
