package main

import (
	"os"
	"strconv"
	"strings"
)

// ---------- Config ----------

type Config struct {
	Port string `json:"port"`

	// Store
	DBDriver               string `json:"db_driver"` // sqlite3 | pgx | duckdb
	DBDSN                  string `json:"-"`
	DBSchema               string `json:"db_schema"` // empty = dialect default
	MaxOpenConns           int    `json:"db_max_open_conns"`
	MaxIdleConns           int    `json:"db_max_idle_conns"`
	ConnMaxLifetimeSeconds int    `json:"db_conn_max_lifetime_seconds"`
	BootstrapSchema        bool   `json:"bootstrap_schema"`

	// Dashboard
	BrokerDefaultBalance float64 `json:"broker_default_balance"`

	// Server timeouts, CORS
	ReadTimeoutSeconds  int    `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `json:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `json:"idle_timeout_seconds"`
	AllowOriginsCSV     string `json:"allow_origins_csv"`
}

func defaultConfig() Config {
	return Config{
		Port: envStr("PORT", "8080"),

		DBDriver:               envStr("DB_DRIVER", "sqlite3"),
		DBDSN:                  envStr("DB_DSN", "./data/miranext.db?_busy_timeout=5000&_journal_mode=WAL&_fk=1"),
		DBSchema:               envStr("DB_SCHEMA", ""),
		MaxOpenConns:           envInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:           envInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetimeSeconds: envInt("DB_CONN_MAX_LIFETIME_SECONDS", 300),
		BootstrapSchema:        envBool("BOOTSTRAP_SCHEMA", true),

		BrokerDefaultBalance: envFloat("BROKER_DEFAULT_BALANCE", 1_000_000),

		ReadTimeoutSeconds:  envInt("READ_TIMEOUT_SECONDS", 10),
		WriteTimeoutSeconds: envInt("WRITE_TIMEOUT_SECONDS", 20),
		IdleTimeoutSeconds:  envInt("IDLE_TIMEOUT_SECONDS", 60),
		AllowOriginsCSV:     envStr("ALLOW_ORIGINS", "*"),
	}
}

// ============ Env helpers ============

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
