package config

import (
	"consult_flow_app_go/logger"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	ServerPort  string
	DBPath      string
	Environment string
	// Remote libSQL database; DBPath is ignored when set
	TursoDatabaseURL string
	TursoAuthToken   string
	AllowedOrigins   []string
	// Timezone used for schedule windows and the sweeper
	Timezone string
	// Background routing of unassigned waiting tickets
	RoutingSweepEnabled bool
	RoutingSweepSpec    string
	RoutingSweepBatch   int
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		logger.Log.Info("No .env file found, using system environment variables")
	}

	return &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		DBPath:              getEnv("DB_PATH", "db/app.db"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		TursoDatabaseURL:    getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:      getEnv("TURSO_AUTH_TOKEN", ""),
		AllowedOrigins:      strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		Timezone:            getEnv("TIMEZONE", "Asia/Jakarta"),
		RoutingSweepEnabled: getEnvBool("ROUTING_SWEEP_ENABLED", true),
		RoutingSweepSpec:    getEnv("ROUTING_SWEEP_SPEC", "*/15 * * * *"),
		RoutingSweepBatch:   getEnvInt("ROUTING_SWEEP_BATCH", 50),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		logger.Log.Debug("Using default config value", zap.String("key", key), zap.String("default", defaultValue))
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		logger.Log.Warn("Invalid integer config value, using default", zap.String("key", key), zap.String("value", value))
		return defaultValue
	}
	return n
}

// Location resolves the configured timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		logger.Log.Warn("Unknown timezone, using UTC", zap.String("timezone", c.Timezone), zap.Error(err))
		return time.UTC
	}
	return loc
}
