package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL    string
	DBMaxOpenConns int

	// Session
	HMACKey string
	// SessionLifetime はトークンの有効期間。既定値は14日で、運用上の上書き用に設定可能とする。
	SessionLifetime time.Duration

	// Password hashing
	HashMaxConcurrent int

	// Rate Limit（1分あたりのリクエスト数）
	RateLimitGeneral    int
	RateLimitCredential int

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.HMACKey = os.Getenv("HMAC_KEY")
	if cfg.HMACKey == "" {
		missing = append(missing, "HMAC_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 50)
	cfg.SessionLifetime = getEnvDuration("SESSION_LIFETIME", 14*24*time.Hour)
	cfg.HashMaxConcurrent = getEnvInt("HASH_MAX_CONCURRENT", runtime.NumCPU())
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitCredential = getEnvInt("RATE_LIMIT_CREDENTIAL", 10)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.SessionLifetime <= 0 {
		return nil, fmt.Errorf("SESSION_LIFETIME must be positive: %s", cfg.SessionLifetime)
	}
	if cfg.RateLimitGeneral <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_GENERAL must be positive: %d", cfg.RateLimitGeneral)
	}
	if cfg.RateLimitCredential <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_CREDENTIAL must be positive: %d", cfg.RateLimitCredential)
	}

	return cfg, nil
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
