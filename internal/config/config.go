package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken        string           `yaml:"discord_token"`
	DatabasePath        string           `yaml:"database_path"`
	LogLevel            string           `yaml:"log_level"`
	DefaultAlertChannel string           `yaml:"default_alert_channel"`
	RetentionDays       int              `yaml:"retention_days"`
	Health              HealthConfig     `yaml:"health"`
	Sweep               SweepConfig      `yaml:"sweep"`
	Reputation          ReputationConfig `yaml:"reputation"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// SweepConfig drives the scheduled pattern-index eviction.
type SweepConfig struct {
	IntervalMinutes  int `yaml:"interval_minutes"`
	RetentionMinutes int `yaml:"retention_minutes"`
}

// ReputationConfig points at the ecosystem reputation API. Reporting stays
// disabled while BaseURL is empty.
type ReputationConfig struct {
	BaseURL      string `yaml:"base_url"`
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	APIKeyType   string `yaml:"api_key_type"`
}

func DefaultConfig() Config {
	return Config{
		DatabasePath:  "/data/mikros.db",
		LogLevel:      "info",
		RetentionDays: 30,
		Health:        HealthConfig{Enabled: false, Addr: ":8080"},
		Sweep:         SweepConfig{IntervalMinutes: 5, RetentionMinutes: 30},
		Reputation:    ReputationConfig{APIKeyType: "dev"},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.DatabasePath = envString("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.DefaultAlertChannel = envString("DEFAULT_ALERT_CHANNEL", cfg.DefaultAlertChannel)
	cfg.RetentionDays = envInt("RETENTION_DAYS", cfg.RetentionDays)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Sweep.IntervalMinutes = envInt("SWEEP_INTERVAL_MINUTES", cfg.Sweep.IntervalMinutes)
	cfg.Sweep.RetentionMinutes = envInt("SWEEP_RETENTION_MINUTES", cfg.Sweep.RetentionMinutes)
	cfg.Reputation.BaseURL = envString("REPUTATION_BASE_URL", cfg.Reputation.BaseURL)
	cfg.Reputation.TokenURL = envString("REPUTATION_TOKEN_URL", cfg.Reputation.TokenURL)
	cfg.Reputation.ClientID = envString("REPUTATION_CLIENT_ID", cfg.Reputation.ClientID)
	cfg.Reputation.ClientSecret = envString("REPUTATION_CLIENT_SECRET", cfg.Reputation.ClientSecret)
	cfg.Reputation.APIKeyType = envString("REPUTATION_API_KEY_TYPE", cfg.Reputation.APIKeyType)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
