// Package config gathers the application settings from the environment and
// an optional YAML overlay file.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server and scoring settings.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	PointsPerMinute float64       `yaml:"points_per_minute"`
	GracePeriod     time.Duration `yaml:"grace_period"`
	ConsistencyGap  time.Duration `yaml:"consistency_gap"`
	MultiplierCap   float64       `yaml:"multiplier_cap"`

	DefaultWorkMinutes  int `yaml:"default_work_minutes"`
	DefaultBreakMinutes int `yaml:"default_break_minutes"`

	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
	RateLimitBurst     int `yaml:"rate_limit_burst"`

	ChatEnabled bool `yaml:"feature_chat_enabled"`
	TTSEnabled  bool `yaml:"tts_enabled"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		HTTPAddr:            "0.0.0.0:8431",
		PointsPerMinute:     10,
		GracePeriod:         2 * time.Second,
		ConsistencyGap:      2 * time.Hour,
		DefaultWorkMinutes:  25,
		DefaultBreakMinutes: 5,
		TokenTTL:            24 * time.Hour,
		RateLimitPerMinute:  15,
		RateLimitBurst:      5,
	}
}

// ConfigFromEnv starts from Defaults, applies the YAML file named by
// CONFIG_FILE (if any) and then the individual environment variables.
//
// POINTS_PER_MINUTE that does not parse is kept as NaN so the timer service
// can log it and award nothing, matching how an invalid rate is handled at
// runtime rather than refusing to boot.
func ConfigFromEnv() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.applyEnv(os.Getenv)
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := getenv("POINTS_PER_MINUTE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			f = math.NaN()
		}
		c.PointsPerMinute = f
	}
	if v := getenv("MULTIPLIER_CAP"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MULTIPLIER_CAP: %w", err)
		}
		c.MultiplierCap = f
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"GRACE_PERIOD", &c.GracePeriod},
		{"CONSISTENCY_GAP", &c.ConsistencyGap},
		{"TOKEN_TTL", &c.TokenTTL},
	}
	for _, d := range durations {
		if v := getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"DEFAULT_WORK_MINUTES", &c.DefaultWorkMinutes},
		{"DEFAULT_BREAK_MINUTES", &c.DefaultBreakMinutes},
		{"RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute},
		{"RATE_LIMIT_BURST", &c.RateLimitBurst},
	}
	for _, i := range ints {
		if v := getenv(i.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", i.key, err)
			}
			*i.dst = n
		}
	}
	if v := getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	c.ChatEnabled = envBool(getenv("FEATURE_CHAT_ENABLED"), c.ChatEnabled)
	c.TTSEnabled = envBool(getenv("TTS_ENABLED"), c.TTSEnabled)
	return nil
}

func envBool(v string, fallback bool) bool {
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
