package main

import (
	"crypto/rand"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"neontune/internal/provider"
	"neontune/internal/session"
)

type Config struct {
	Port string

	YouTubeAPIKeys []string
	YouTubeAPIURL  string
	YouTubeTimeout time.Duration

	RedisURL       string
	SearchCacheTTL time.Duration
	DatabaseURL    string

	SessionSecret   []byte
	SessionTokenTTL time.Duration

	StreamRateLimitRPS float64
	StreamRateBurst    int

	CORSAllowedOrigin string
	frontendBaseURL   string
}

func loadConfigFromEnv() (Config, error) {
	cfg := Config{
		Port:               getenv("PORT", "3007"),
		YouTubeAPIURL:      getenv("YOUTUBE_API_URL", provider.DefaultAPIURL),
		YouTubeTimeout:     getenvDuration("YOUTUBE_TIMEOUT", 10*time.Second),
		RedisURL:           getenv("REDIS_URL", ""),
		SearchCacheTTL:     getenvDuration("SEARCH_CACHE_TTL", provider.DefaultCacheTTL),
		DatabaseURL:        getenv("DATABASE_URL", ""),
		SessionSecret:      []byte(getenv("SESSION_SECRET", "")),
		SessionTokenTTL:    getenvDuration("SESSION_TOKEN_TTL", session.DefaultTokenTTL),
		StreamRateLimitRPS: getenvFloat("STREAM_RATE_LIMIT_RPS", 2),
		StreamRateBurst:    getenvInt("STREAM_RATE_BURST", 4),
		CORSAllowedOrigin:  getenv("CORS_ALLOWED_ORIGIN", "*"),
		frontendBaseURL:    getenv("FRONTEND_BASE_URL", ""),
	}

	cfg.YouTubeAPIKeys = getenvList("YOUTUBE_API_KEYS")
	if len(cfg.YouTubeAPIKeys) == 0 {
		cfg.YouTubeAPIKeys = getenvList("YOUTUBE_API_KEY")
	}
	if len(cfg.YouTubeAPIKeys) == 0 {
		log.Printf("neontune: no YouTube API key configured, searches will fail")
	}

	if len(cfg.SessionSecret) == 0 {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return Config{}, err
		}
		cfg.SessionSecret = secret
		log.Printf("neontune: SESSION_SECRET is empty, using a per-process secret")
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	raw := getenv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getenvFloat(key string, def float64) float64 {
	raw := getenv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getenvDuration(key string, def time.Duration) time.Duration {
	raw := getenv(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// getenvList splits a comma-separated variable, dropping empty entries.
func getenvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
