package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultDatasetURL is Ember's monthly long-format electricity release.
const DefaultDatasetURL = "https://storage.googleapis.com/emb-prod-bkt-publicdata/public-downloads/monthly_full_release_long_format.csv"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dataset source. DatasetPath, when set, takes precedence over DatasetURL.
	DatasetURL             string
	DatasetPath            string
	DatasetTimeout         time.Duration
	DatasetRefreshInterval time.Duration

	// Location and weather lookups.
	LookupEnabled    bool
	LookupTimeout    time.Duration
	GeocodeCacheSize int
	GeocodingURL     string
	ForecastURL      string

	// Load notifications. Publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	datasetTimeout, err := parseDuration("DATASET_TIMEOUT", "60s", false)
	if err != nil {
		return nil, err
	}
	refresh, err := parseDuration("DATASET_REFRESH_INTERVAL", "0s", true)
	if err != nil {
		return nil, err
	}
	lookupTimeout, err := parseDuration("LOOKUP_TIMEOUT", "5s", false)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	lookupEnabled := true
	if v := os.Getenv("LOOKUP_ENABLED"); v != "" {
		lookupEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid LOOKUP_ENABLED")
		}
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatasetURL:             sharedcfg.EnvOrDefault("DATASET_URL", DefaultDatasetURL),
		DatasetPath:            os.Getenv("DATASET_PATH"),
		DatasetTimeout:         datasetTimeout,
		DatasetRefreshInterval: refresh,

		LookupEnabled:    lookupEnabled,
		LookupTimeout:    lookupTimeout,
		GeocodeCacheSize: cacheSize,
		GeocodingURL:     sharedcfg.EnvOrDefault("GEOCODING_URL", "https://geocoding-api.open-meteo.com/v1/search"),
		ForecastURL:      sharedcfg.EnvOrDefault("FORECAST_URL", "https://api.open-meteo.com/v1/forecast"),

		KafkaBrokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "dataset-loads"),
	}

	if cfg.DatasetPath == "" && cfg.DatasetURL == "" {
		return nil, errors.New("DATASET_URL or DATASET_PATH is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// PublishEnabled reports whether load notifications should be published.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() (int, error) {
	s := os.Getenv("GEOCODE_CACHE_SIZE")
	if s == "" {
		return 256, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid GEOCODE_CACHE_SIZE")
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
