package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	Environment         string
	HTTPPort            string
	BaseURL             string
	DatabaseURL         string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	SlackSigningSecret  string
	SlackBotToken       string
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string
	ConnectStateTTL     time.Duration
	ServiceName         string
	TelemetryEndpoint   string
	TelemetryInsecure   bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:         getEnv("APP_ENV", "development"),
		HTTPPort:            getEnv("HTTP_PORT", "3000"),
		BaseURL:             strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getInt("REDIS_DB", 0),
		SlackSigningSecret:  strings.TrimSpace(os.Getenv("SLACK_SIGNING_SECRET")),
		SlackBotToken:       strings.TrimSpace(os.Getenv("SLACK_BOT_TOKEN")),
		SpotifyClientID:     strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_ID")),
		SpotifyClientSecret: strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_SECRET")),
		SpotifyRedirectURI:  strings.TrimSpace(os.Getenv("SPOTIFY_REDIRECT_URI")),
		ConnectStateTTL:     getDuration("CONNECT_STATE_TTL", 10*time.Minute),
		ServiceName:         getEnv("SERVICE_NAME", "savethebeat"),
		TelemetryEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:   getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.BaseURL == "" {
		return Config{}, fmt.Errorf("BASE_URL is required")
	}
	if cfg.SlackSigningSecret == "" {
		return Config{}, fmt.Errorf("SLACK_SIGNING_SECRET is required")
	}
	if cfg.SlackBotToken == "" {
		return Config{}, fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		return Config{}, fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required")
	}
	if cfg.SpotifyRedirectURI == "" {
		cfg.SpotifyRedirectURI = cfg.BaseURL + "/spotify/callback"
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}
