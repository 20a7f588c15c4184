package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	Port string

	FAQServiceURL     string
	HistoryServiceURL string
	HTTPClientTimeout time.Duration

	QuickReplyCacheTTL time.Duration
	AnalyticsCacheTTL  time.Duration

	QuickReplySingleFlight bool

	FeedbackAsync     bool
	FeedbackWorkers   int
	FeedbackQueueSize int

	GCSBucket          string
	GCSCredentialsFile string

	WSAllowedOrigins []string

	RedisKeyPrefix string
}

// LoadApp reads the application settings from the environment. Only
// FAQ_SERVICE_URL is required.
func LoadApp() (AppConfig, error) {
	cfg := AppConfig{
		Port:               envOr("PORT", "8080"),
		FAQServiceURL:      strings.TrimRight(os.Getenv("FAQ_SERVICE_URL"), "/"),
		HistoryServiceURL:  strings.TrimRight(os.Getenv("HISTORY_SERVICE_URL"), "/"),
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
		RedisKeyPrefix:     os.Getenv("REDIS_KEY_PREFIX"),
	}
	if cfg.FAQServiceURL == "" {
		return cfg, errors.New("FAQ_SERVICE_URL environment variable is not set")
	}
	if cfg.HistoryServiceURL == "" {
		cfg.HistoryServiceURL = cfg.FAQServiceURL
	}

	var err error
	if cfg.HTTPClientTimeout, err = envDuration("HTTP_CLIENT_TIMEOUT", 10*time.Second); err != nil {
		return cfg, err
	}
	if cfg.QuickReplyCacheTTL, err = envDuration("QUICK_REPLY_CACHE_TTL", 10*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.AnalyticsCacheTTL, err = envDuration("ANALYTICS_CACHE_TTL", time.Minute); err != nil {
		return cfg, err
	}
	if cfg.QuickReplySingleFlight, err = envBool("QUICK_REPLY_SINGLE_FLIGHT", false); err != nil {
		return cfg, err
	}
	if cfg.FeedbackAsync, err = envBool("FEEDBACK_ASYNC", false); err != nil {
		return cfg, err
	}
	if cfg.FeedbackWorkers, err = envInt("FEEDBACK_WORKERS", 2); err != nil {
		return cfg, err
	}
	if cfg.FeedbackQueueSize, err = envInt("FEEDBACK_QUEUE_SIZE", 256); err != nil {
		return cfg, err
	}

	for _, o := range strings.Split(os.Getenv("WS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.WSAllowedOrigins = append(cfg.WSAllowedOrigins, o)
		}
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}
