package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// GitHub API
	Token  string
	APIURL string

	// Notification query
	ParticipatingOnly bool
	IncludeRead       bool
	PerPage           int
	MaxPages          int

	// Filtering
	IncludeReasons []string
	ExcludeReasons []string
	IncludeRepos   []string
	ExcludeRepos   []string

	// RSS metadata
	RSSTitle           string
	RSSLink            string
	RSSDescription     string
	RSSHTMLDescription bool

	// Cache
	CacheTTL time.Duration

	// Fetch
	FetchTimeout time.Duration
	FetchMaxSize int64

	// Rate Limit
	RateLimitGeneral int

	// Server
	ServerPort string

	// Security
	AllowPrivateAPI bool
}

// Load は環境変数からConfigを読み込む。
// GITHUB_TOKENは必須扱いにしない（未設定の場合は/feedが503を返す）。
// 数値系の設定は安全な範囲にクランプされる。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Token = os.Getenv("GITHUB_TOKEN")
	cfg.APIURL = strings.TrimRight(getEnvString("GITHUB_API_URL", "https://api.github.com"), "/")

	if _, err := url.Parse(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("GITHUB_API_URL のパースに失敗しました: %w", err)
	}

	cfg.ParticipatingOnly = getEnvBool("GITHUB_NOTIF_PARTICIPATING_ONLY", true)
	cfg.IncludeRead = getEnvBool("GITHUB_NOTIF_INCLUDE_READ", false)
	cfg.PerPage = getEnvInt("GITHUB_NOTIF_PER_PAGE", 50)
	cfg.MaxPages = getEnvInt("GITHUB_NOTIF_MAX_PAGES", 3)

	cfg.IncludeReasons = getEnvList("GITHUB_NOTIF_REASONS_INCLUDE")
	cfg.ExcludeReasons = getEnvList("GITHUB_NOTIF_REASONS_EXCLUDE")
	cfg.IncludeRepos = getEnvList("GITHUB_NOTIF_REPOS_INCLUDE")
	cfg.ExcludeRepos = getEnvList("GITHUB_NOTIF_REPOS_EXCLUDE")

	cfg.RSSTitle = getEnvString("RSS_TITLE", "GitHub notifications RSS")
	cfg.RSSLink = getEnvString("RSS_LINK", "https://github.com/notifications")
	cfg.RSSDescription = getEnvString("RSS_DESCRIPTION", "Custom feed built from your GitHub notifications")
	cfg.RSSHTMLDescription = getEnvBool("RSS_HTML_DESCRIPTION", true)

	cfg.CacheTTL = time.Duration(getEnvInt("CACHE_TTL_SECONDS", 60)) * time.Second

	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8000")
	cfg.AllowPrivateAPI = getEnvBool("GITHUB_ALLOW_PRIVATE_API", false)

	// Sanity bounds
	cfg.PerPage = clampInt(cfg.PerPage, 1, 50)
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	if cfg.CacheTTL < 0 {
		cfg.CacheTTL = 0
	}

	return cfg, nil
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
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

// getEnvBool は環境変数を真偽値として解釈する。
// "1", "true", "yes", "y", "on"（大文字小文字無視）を真とする。
func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
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

// getEnvList はカンマ区切りの環境変数をリストとして解釈する。
// 各要素は前後の空白が除去され、空要素は除外される。
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var list []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			list = append(list, part)
		}
	}
	return list
}
