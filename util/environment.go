package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var environmentLogger = log.With().Str("logger_name", "util::environment").Logger()

type trackerEnvironment struct {
	DBDriver     string
	SqliteFile   string
	PostgresHost string
	PostgresPort string
	PostgresDB   string
	PostgresUser string
	PostgresPW   string
	PostgresSSL  string
	RedisHost    string
	RedisPort    string
	RedisPW      string
	RedisDB      string
	LogLevel     string
}

// Env is a helper object for accessing environment variables.
var Env = &trackerEnvironment{
	DBDriver:     "DB_DRIVER",
	SqliteFile:   "SQLITE_FILE",
	PostgresHost: "POSTGRES_HOST",
	PostgresPort: "POSTGRES_PORT",
	PostgresDB:   "POSTGRES_DB",
	PostgresUser: "POSTGRES_USER",
	PostgresPW:   "POSTGRES_PASSWORD",
	PostgresSSL:  "POSTGRES_SSL_MODE",
	RedisHost:    "REDIS_HOST",
	RedisPort:    "REDIS_PORT",
	RedisPW:      "REDIS_PW",
	RedisDB:      "REDIS_DB",
	LogLevel:     "LOG_LEVEL",
}

// GetDBDriver returns the sql driver to use, "postgres" or "sqlite".
func (e *trackerEnvironment) GetDBDriver() string {
	v := os.Getenv(e.DBDriver)
	if v == "" {
		return "sqlite"
	}
	return v
}

func (e *trackerEnvironment) GetSqliteFile() string {
	v := os.Getenv(e.SqliteFile)
	if v == "" {
		return "tracker.db"
	}
	return v
}

func (e *trackerEnvironment) GetPostgresConnStr() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		e.getRequired(e.PostgresHost),
		e.getRequiredInt(e.PostgresPort),
		e.getRequired(e.PostgresUser),
		e.getRequired(e.PostgresPW),
		e.getRequired(e.PostgresDB),
		e.getWithDefault(e.PostgresSSL, "disable"),
	)
}

// GetDSN returns the connection string for the configured driver.
func (e *trackerEnvironment) GetDSN() string {
	if e.GetDBDriver() == "postgres" {
		return e.GetPostgresConnStr()
	}
	return e.GetSqliteFile()
}

// GetRedisAddr returns host:port for Redis, or "" when Redis is not
// configured (import notifications are then disabled).
func (e *trackerEnvironment) GetRedisAddr() string {
	host := os.Getenv(e.RedisHost)
	if host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", host, e.getRequiredInt(e.RedisPort))
}

func (e *trackerEnvironment) GetRedisPW() string {
	return os.Getenv(e.RedisPW)
}

func (e *trackerEnvironment) GetRedisDB() int {
	v := os.Getenv(e.RedisDB)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		msg := fmt.Sprintf("Invalid Redis db %s", v)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return n
}

func (e *trackerEnvironment) GetLogLevel() string {
	v := os.Getenv(e.LogLevel)
	if v == "" {
		return "info"
	}
	return v
}

func (e *trackerEnvironment) GetZeroLogLogLevel() zerolog.Level {
	l := e.GetLogLevel()
	switch strings.ToLower(l) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		panic(fmt.Sprintf("Unsupported %s: %s", e.LogLevel, l))
	}
}

func (e *trackerEnvironment) getRequired(key string) string {
	v := os.Getenv(key)
	if v == "" {
		msg := fmt.Sprintf("%s is not defined", key)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return v
}

func (e *trackerEnvironment) getRequiredInt(key string) int {
	v := e.getRequired(key)
	n, err := strconv.Atoi(v)
	if err != nil {
		msg := fmt.Sprintf("Invalid integer [%s] for %s", v, key)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return n
}

func (e *trackerEnvironment) getWithDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
