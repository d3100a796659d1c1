package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrationsPath  string
}

type RedisConfig struct {
	Addr string
}

// StoreConfig holds the fixed checkout fees applied on top of the line subtotals.
type StoreConfig struct {
	ShippingFee float64
	TaxFee      float64
}

type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Store    StoreConfig
}

// New reads configuration from the environment, loading .env first if present.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.Port = envOrDefault("APP_PORT", "8080")

	var err error
	if cfg.Postgres.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Port, err = requireEnv("DB_PORT"); err != nil {
		return nil, err
	}
	if cfg.Postgres.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Postgres.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}
	cfg.Postgres.SSLMode = envOrDefault("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = envOrDefault("DB_MIGRATIONS_PATH", "migrations")

	maxConns, err := envIntOrDefault("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	cfg.Postgres.MaxConns = int32(maxConns)

	minConns, err := envIntOrDefault("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, err
	}
	cfg.Postgres.MinConns = int32(minConns)

	lifetimeMin, err := envIntOrDefault("DB_MAX_CONN_LIFETIME_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	cfg.Postgres.MaxConnLifetime = time.Duration(lifetimeMin) * time.Minute

	// Redis is optional: without it cart subscriptions only fan out within
	// this process.
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")

	if cfg.Store.ShippingFee, err = envFloatOrDefault("STORE_SHIPPING_FEE", 10); err != nil {
		return nil, err
	}
	if cfg.Store.TaxFee, err = envFloatOrDefault("STORE_TAX_FEE", 3); err != nil {
		return nil, err
	}

	return cfg, nil
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("config: %s is required", key)
	}
	return v, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return n, nil
}

func envFloatOrDefault(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return f, nil
}
