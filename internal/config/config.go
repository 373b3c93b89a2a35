package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	// ActiveFilterActive lists only active users when the active query parameter is absent.
	ActiveFilterActive = "active"
	// ActiveFilterAll applies no active filter when the active query parameter is absent.
	ActiveFilterAll = "all"
)

type AppConfig struct {
	Name      string `yaml:"name"`
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type PostgresConfig struct {
	URL         string `yaml:"url"`
	MaxConns    int32  `yaml:"max_conns"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type StoreConfig struct {
	Driver         string         `yaml:"driver"`
	ConnectTimeout time.Duration  `yaml:"connect_timeout"`
	Mongo          MongoConfig    `yaml:"mongo"`
	Postgres       PostgresConfig `yaml:"postgres"`
}

type UsersConfig struct {
	DefaultActiveFilter string `yaml:"default_active_filter"`
}

type Config struct {
	App   AppConfig   `yaml:"app"`
	Store StoreConfig `yaml:"store"`
	Users UsersConfig `yaml:"users"`
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:      "catalog-api",
			Port:      "3000",
			LogLevel:  "info",
			LogFormat: "console",
		},
		Store: StoreConfig{
			Driver:         DriverMongo,
			ConnectTimeout: 10 * time.Second,
			Mongo: MongoConfig{
				Database: "catalog",
			},
			Postgres: PostgresConfig{
				MaxConns:    10,
				AutoMigrate: true,
			},
		},
		Users: UsersConfig{
			DefaultActiveFilter: ActiveFilterActive,
		},
	}
}

// NewConfig builds the configuration from defaults, the YAML file named by
// CONFIG_FILE, a local .env file and the process environment, in that order.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	return Load(os.Getenv("CONFIG_FILE"))
}

// Load reads the optional YAML file at path, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.App.Port = getEnvString("PORT", cfg.App.Port)
	cfg.App.LogLevel = getEnvString("LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.LogFormat = getEnvString("LOG_FORMAT", cfg.App.LogFormat)

	cfg.Store.Driver = strings.ToLower(getEnvString("STORE_DRIVER", cfg.Store.Driver))
	cfg.Store.ConnectTimeout = getEnvDuration("STORE_CONNECT_TIMEOUT", cfg.Store.ConnectTimeout)
	cfg.Store.Mongo.URI = getEnvString("MONGODB_URI", cfg.Store.Mongo.URI)
	cfg.Store.Mongo.Database = getEnvString("MONGODB_DATABASE", cfg.Store.Mongo.Database)
	cfg.Store.Postgres.URL = getEnvString("DATABASE_URL", cfg.Store.Postgres.URL)
	cfg.Store.Postgres.MaxConns = int32(getEnvInt("POSTGRES_MAX_CONNS", int(cfg.Store.Postgres.MaxConns)))
	cfg.Store.Postgres.AutoMigrate = getEnvBool("POSTGRES_AUTO_MIGRATE", cfg.Store.Postgres.AutoMigrate)

	cfg.Users.DefaultActiveFilter = strings.ToLower(getEnvString("USERS_DEFAULT_ACTIVE_FILTER", cfg.Users.DefaultActiveFilter))
}

// Validate reports every missing or unsupported setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.App.Port == "" {
		problems = append(problems, "PORT must not be empty")
	}

	if c.Store.ConnectTimeout <= 0 {
		problems = append(problems, "STORE_CONNECT_TIMEOUT must be positive")
	}

	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.Mongo.URI == "" {
			problems = append(problems, "MONGODB_URI is required for the mongo store")
		}
		if c.Store.Mongo.Database == "" {
			problems = append(problems, "MONGODB_DATABASE must not be empty")
		}
	case DriverPostgres:
		if c.Store.Postgres.URL == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres store")
		}
	case DriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("unsupported STORE_DRIVER %q", c.Store.Driver))
	}

	switch c.Users.DefaultActiveFilter {
	case ActiveFilterActive, ActiveFilterAll:
	default:
		problems = append(problems, fmt.Sprintf("unsupported USERS_DEFAULT_ACTIVE_FILTER %q", c.Users.DefaultActiveFilter))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
