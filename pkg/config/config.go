package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Binning  BinningConfig
	Task     TaskConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

type StoreConfig struct {
	ProjectDriver string
	SessionDriver string
	SessionTTL    time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
}

func (j JWTConfig) Enabled() bool {
	return j.SecretKey != ""
}

type BinningConfig struct {
	PermissiveDrag  bool
	Seed            int64
	JitterAmplitude float64
	Population      int
}

type TaskConfig struct {
	SimulatedLatency time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "2h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	requestTimeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	jwtTTL, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}

	latency, err := time.ParseDuration(getEnv("TASK_SIMULATED_LATENCY", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TASK_SIMULATED_LATENCY: %w", err)
	}

	seed, err := strconv.ParseInt(getEnv("BINNING_SEED", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid BINNING_SEED: %w", err)
	}

	jitter, err := strconv.ParseFloat(getEnv("BINNING_JITTER", "0.01"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid BINNING_JITTER: %w", err)
	}

	population, err := strconv.Atoi(getEnv("BINNING_POPULATION", "10000"))
	if err != nil {
		return nil, fmt.Errorf("invalid BINNING_POPULATION: %w", err)
	}

	permissive, err := strconv.ParseBool(getEnv("BINNING_PERMISSIVE_DRAG", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid BINNING_PERMISSIVE_DRAG: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Strategy Workbench"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: []string{getEnv("CORS_ORIGIN", "http://localhost:3000"), "http://localhost:8080"},
			RequestTimeout: requestTimeout,
		},
		Store: StoreConfig{
			ProjectDriver: getEnv("STORE_DRIVER", StoreMemory),
			SessionDriver: getEnv("SESSION_STORE", StoreMemory),
			SessionTTL:    sessionTTL,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "strategy_workbench"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
			TTL:       jwtTTL,
		},
		Binning: BinningConfig{
			PermissiveDrag:  permissive,
			Seed:            seed,
			JitterAmplitude: jitter,
			Population:      population,
		},
		Task: TaskConfig{
			SimulatedLatency: latency,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.ProjectDriver {
	case StoreMemory:
	case StorePostgres:
		if c.Database.Password == "" {
			return errors.New("missing database password")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.ProjectDriver)
	}

	switch c.Store.SessionDriver {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.Store.SessionDriver)
	}

	if c.Binning.Population <= 0 {
		return errors.New("binning population must be positive")
	}

	if c.Binning.JitterAmplitude < 0 {
		return errors.New("binning jitter must not be negative")
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}
