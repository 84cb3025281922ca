package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"poker-rooms/engine"
	"poker-rooms/internal/db"
	"poker-rooms/internal/middleware"
	"poker-rooms/internal/redis"
	"poker-rooms/models"
)

// Config holds all configuration values for the application
type Config struct {
	// Database configuration
	DBConfig db.Config

	// Redis snapshot cache; optional
	RedisEnabled bool
	RedisConfig  redis.Config

	// Server configuration
	ServerPort  string
	TCPAddr     string
	Environment string
	LogLevel    string

	// Authentication
	JWTSecret string

	// Room defaults
	Table         models.TableConfig
	ActionTimeout time.Duration
	EndedRoomTTL  time.Duration

	RateLimit      middleware.RateLimiterConfig
	AllowedOrigins []string
}

func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	var errs []string
	intVar := func(key string, fallback int) int {
		v, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	floatVar := func(key string, fallback float64) float64 {
		v, err := getEnvFloat(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := Config{
		DBConfig: db.Config{
			Driver:     getEnv("DB_DRIVER", db.DriverSQLite),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "3306"),
			User:       getEnv("DB_USER", "root"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "poker_rooms"),
			SQLitePath: getEnv("SQLITE_PATH", "poker_rooms.db"),
			Debug:      getEnv("DB_DEBUG", "") == "true",
		},
		RedisEnabled: getEnv("REDIS_ENABLED", "false") == "true",
		RedisConfig: redis.Config{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       intVar("REDIS_DB", 0),
		},
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		TCPAddr:     getEnv("TCP_ADDR", ":9090"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		Table: models.TableConfig{
			MinPlayers:     intVar("MIN_PLAYERS", 2),
			MaxPlayers:     intVar("MAX_PLAYERS", 6),
			StartingChips:  intVar("STARTING_CHIPS", models.DefaultStartingChips),
			SmallBlind:     intVar("SMALL_BLIND", 0),
			BigBlind:       intVar("BIG_BLIND", 0),
			SplitRemainder: models.RemainderPolicy(getEnv("SPLIT_REMAINDER", string(models.RemainderEarliest))),
		},
		ActionTimeout: time.Duration(intVar("ACTION_TIMEOUT_SECONDS", 30)) * time.Second,
		EndedRoomTTL:  time.Duration(intVar("ENDED_ROOM_TTL_SECONDS", 600)) * time.Second,
		RateLimit: middleware.RateLimiterConfig{
			RequestsPerSecond: floatVar("RATE_LIMIT_RPS", middleware.DefaultRateLimiterConfig.RequestsPerSecond),
			BurstSize:         intVar("RATE_LIMIT_BURST", middleware.DefaultRateLimiterConfig.BurstSize),
			CleanupInterval:   middleware.DefaultRateLimiterConfig.CleanupInterval,
		},
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
	}

	if table, err := engine.NormalizeConfig(cfg.Table); err != nil {
		errs = append(errs, "room defaults: "+err.Error())
	} else {
		cfg.Table = table
	}

	if cfg.JWTSecret == "" {
		if cfg.Production() {
			errs = append(errs, "JWT_SECRET is required in production")
		} else {
			cfg.JWTSecret = "dev-secret"
		}
	}
	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback, fmt.Errorf("%s=%q is not an integer", key, value)
	}
	return i, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s=%q is not a number", key, value)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
