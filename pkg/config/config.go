package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	Addr            string
	Env             string
	Store           Store
	UpdateRetries   int
	MaxBodyBytes    int64
	CORSMaxAge      int
	ShutdownTimeout time.Duration
}

type Store struct {
	Driver        string
	SQLitePath    string
	PostgresURL   string
	MongoURI      string
	MongoDatabase string
}

// Load reads the configuration from the environment. Variables found in a .env
// file in the working directory are used when not already set.
func Load() Config {
	_ = godotenv.Load()

	addr := envString("BOARD_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}

	return Config{
		Addr: addr,
		Env:  envString("BOARD_ENV", EnvProduction),
		Store: Store{
			Driver:        envString("BOARD_STORE", "memory"),
			SQLitePath:    envString("BOARD_SQLITE_PATH", "postboard.db"),
			PostgresURL:   envString("BOARD_POSTGRES_URL", ""),
			MongoURI:      envString("BOARD_MONGO_URI", ""),
			MongoDatabase: envString("BOARD_MONGO_DATABASE", "postboard"),
		},
		UpdateRetries:   envInt("BOARD_UPDATE_RETRIES", 5),
		MaxBodyBytes:    int64(envInt("BOARD_MAX_BODY_BYTES", 1<<20)),
		CORSMaxAge:      envInt("BOARD_CORS_MAX_AGE", 86400),
		ShutdownTimeout: envDuration("BOARD_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
