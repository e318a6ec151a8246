package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig carries everything the server needs at startup. Values come from
// an optional YAML file overlaid by environment variables; env wins.
type AppConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	JWTSecret   string `yaml:"jwt_secret"`
	TokenTTLMin int    `yaml:"token_ttl_min"`

	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`

	BotName        string `yaml:"bot_name"`
	BotBudgetMS    int    `yaml:"bot_budget_ms"`
	RetentionMin   int    `yaml:"retention_min"`
	OpenListLimit  int    `yaml:"open_list_limit"`
	LeaderboardTop int    `yaml:"leaderboard_top"`
}

func defaults() *AppConfig {
	return &AppConfig{
		ListenAddr:     ":8080",
		TokenTTLMin:    7 * 24 * 60,
		BotName:        "engine",
		BotBudgetMS:    3000,
		RetentionMin:   30,
		OpenListLimit:  50,
		LeaderboardTop: 20,
	}
}

// Load reads the config file named by CONFIG_FILE (if set and present), then
// applies environment overrides and validates the result.
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("BOT_NAME")); v != "" {
		cfg.BotName = v
	}
	if v := strings.TrimSpace(os.Getenv("TOKEN_TTL_MIN")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TokenTTLMin = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("BOT_BUDGET_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BotBudgetMS = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("RETENTION_MIN")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RetentionMin = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("OPEN_LIST_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.OpenListLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("LEADERBOARD_TOP")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LeaderboardTop = n
		}
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

func (c *AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMin) * time.Minute
}

func (c *AppConfig) BotBudget() time.Duration {
	return time.Duration(c.BotBudgetMS) * time.Millisecond
}

func (c *AppConfig) Retention() time.Duration {
	return time.Duration(c.RetentionMin) * time.Minute
}
