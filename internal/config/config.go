// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain       string
	Auth0ClientID     string
	Auth0ClientSecret string

	// OnDemand AIゲートウェイ
	OnDemandAPIKey     string
	OnDemandEndpointID string
	OnDemandBaseURL    string

	// Session
	SessionMaxAge int

	// URLs
	FrontendURL string
	BackendURL  string

	// Rate Limit
	RateLimitGeneral int
	RateLimitReport  int

	// Server
	ServerPort string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigins []string

	// Gateway transport
	GatewayTimeout time.Duration
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

	cfg.Auth0Domain = os.Getenv("AUTH0_DOMAIN")
	if cfg.Auth0Domain == "" {
		missing = append(missing, "AUTH0_DOMAIN")
	}

	cfg.Auth0ClientID = os.Getenv("AUTH0_CLIENT_ID")
	if cfg.Auth0ClientID == "" {
		missing = append(missing, "AUTH0_CLIENT_ID")
	}

	cfg.Auth0ClientSecret = os.Getenv("AUTH0_CLIENT_SECRET")
	if cfg.Auth0ClientSecret == "" {
		missing = append(missing, "AUTH0_CLIENT_SECRET")
	}

	cfg.OnDemandAPIKey = os.Getenv("ONDEMAND_API_KEY")
	if cfg.OnDemandAPIKey == "" {
		missing = append(missing, "ONDEMAND_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.OnDemandEndpointID = getEnvString("ONDEMAND_ENDPOINT_ID", "predefined-openai-gpt4o")
	cfg.OnDemandBaseURL = getEnvString("ONDEMAND_BASE_URL", "https://api.on-demand.io/chat/v1")
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 1800)
	cfg.FrontendURL = getEnvString("FRONTEND_URL", "http://localhost:5173")
	cfg.BackendURL = getEnvString("BACKEND_URL", "http://localhost:5000")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitReport = getEnvInt("RATE_LIMIT_REPORT", 5)
	cfg.ServerPort = getEnvString("SERVER_PORT", "5000")
	cfg.CookieSecure = strings.HasPrefix(cfg.BackendURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigins = splitOrigins(getEnvString("CORS_ALLOWED_ORIGINS", cfg.FrontendURL))
	cfg.GatewayTimeout = getEnvDuration("GATEWAY_TIMEOUT", 60*time.Second)

	return cfg, nil
}

// splitOrigins はカンマ区切りのオリジン一覧をパースする。
func splitOrigins(value string) []string {
	parts := strings.Split(value, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
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
