package config

import (
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string

	// Fetch
	FetchTimeout time.Duration
	FetchMaxSize int64

	// Retry
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration

	// Directory API（未設定の場合はフォールバック名で動作する）
	PodcastIndexAPIKey    string
	PodcastIndexAPISecret string

	// Cache
	RemoteFeedTTL time.Duration

	// Rate Limit
	RateLimitGeneral int

	// CORS
	CORSAllowedOrigin string

	// DefaultFeedURL はurlパラメーター省略時に検査するフィード。
	DefaultFeedURL string
}

// Load は環境変数からConfigを読み込む。
// 全フィールドに既定値があるため、環境変数なしでも起動できる。
// ディレクトリAPIの認証情報は任意で、未設定の場合は
// 静的フォールバック名による解決のみが行われる。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)
	cfg.RetryMaxAttempts = getEnvInt("RETRY_MAX_ATTEMPTS", 3)
	cfg.RetryBaseDelay = getEnvDuration("RETRY_BASE_DELAY", 500*time.Millisecond)
	cfg.PodcastIndexAPIKey = os.Getenv("PODCAST_INDEX_API_KEY")
	cfg.PodcastIndexAPISecret = os.Getenv("PODCAST_INDEX_API_SECRET")
	cfg.RemoteFeedTTL = getEnvDuration("REMOTE_FEED_TTL", 30*time.Minute)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.DefaultFeedURL = getEnvString("DEFAULT_FEED_URL", "https://feed.homegrownhits.xyz/feed.xml")

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

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
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
