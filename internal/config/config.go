// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvDevelopment は開発環境を示すAPP_ENVの値。
// この環境でのみSESSION_SECRETの省略を許可する。
const EnvDevelopment = "development"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Environment
	AppEnv string

	// Database
	DatabaseURL string

	// Session
	SessionSecret string // セッションCookieのHMAC署名鍵
	SessionMaxAge int    // セッション有効期間（秒）。デフォルト30日。

	// Object Storage (S3互換)
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	// オブジェクトパス
	PrivateObjectDir        string   // アップロード先のプライベートルート
	PublicObjectSearchPaths []string // 公開オブジェクトの探索パス（カンマ区切り）

	// Rate Limit
	RateLimitGeneral int // API全般（req/min/user）
	RateLimitForms   int // 公開フォーム送信（req/min/IP）

	// Server
	ServerPort  string
	MetricsPort string
	BaseURL     string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// IsDevelopment は開発環境かどうかを返す。
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// SESSION_SECRETはAPP_ENV=development以外では必須（安全でない
// デフォルト値へのフォールバックは行わない）。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.AppEnv = getEnvString("APP_ENV", "production")

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	if cfg.S3Endpoint == "" {
		missing = append(missing, "S3_ENDPOINT")
	}

	cfg.S3Bucket = os.Getenv("S3_BUCKET")
	if cfg.S3Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}

	cfg.PrivateObjectDir = os.Getenv("PRIVATE_OBJECT_DIR")
	if cfg.PrivateObjectDir == "" {
		missing = append(missing, "PRIVATE_OBJECT_DIR")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" && cfg.AppEnv != EnvDevelopment {
		missing = append(missing, "SESSION_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.S3Region = getEnvString("S3_REGION", "us-east-1")
	cfg.S3AccessKey = getEnvString("S3_ACCESS_KEY", "")
	cfg.S3SecretKey = getEnvString("S3_SECRET_KEY", "")
	cfg.PublicObjectSearchPaths = splitPaths(os.Getenv("PUBLIC_OBJECT_SEARCH_PATHS"))
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 30*24*3600)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitForms = getEnvInt("RATE_LIMIT_FORMS", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.MetricsPort = getEnvString("METRICS_PORT", "9090")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// splitPaths はカンマ区切りのパス一覧を分割する。
// 空要素は除外する。未設定の検証はオブジェクトストレージ層が初回利用時に行う。
func splitPaths(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
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
