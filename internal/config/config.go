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
	DiscordToken          string   `yaml:"discord_token"`
	GeminiAPIKey          string   `yaml:"gemini_api_key"`
	DatabasePath          string   `yaml:"database_path"`
	LogLevel              string   `yaml:"log_level"`
	TextModel             string   `yaml:"text_model"`
	QOTDCron              string   `yaml:"qotd_cron"`
	DevGuildIDs           []string `yaml:"dev_guild_ids"`
	StatusIntervalMinutes int      `yaml:"status_interval_minutes"`
}

func DefaultConfig() Config {
	return Config{
		DatabasePath:          "guild_settings.db",
		LogLevel:              "info",
		TextModel:             "gemini-2.0-flash",
		QOTDCron:              "0 0 * * *",
		StatusIntervalMinutes: 5,
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
	if cfg.GeminiAPIKey == "" {
		return Config{}, errors.New("GEMINI_API_KEY is required")
	}
	if cfg.StatusIntervalMinutes <= 0 {
		cfg.StatusIntervalMinutes = 5
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.GeminiAPIKey = envString("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.DatabasePath = envString("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.TextModel = envString("TEXT_MODEL", cfg.TextModel)
	cfg.QOTDCron = envString("QOTD_CRON", cfg.QOTDCron)
	cfg.StatusIntervalMinutes = envInt("STATUS_INTERVAL_MINUTES", cfg.StatusIntervalMinutes)
	if value := os.Getenv("DEV_GUILD_IDS"); value != "" {
		cfg.DevGuildIDs = splitList(value)
	}
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

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
