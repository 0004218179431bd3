// Package config loads engine and service configuration from YAML files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"safe-bets/internal/blend"
	"safe-bets/internal/decision"
	"safe-bets/internal/domain"
)

// Actionable policies.
const (
	PolicyUltra       = "ultra"
	PolicyUltraOrSafe = "ultra_or_safe"
)

// ErrInvalidPolicy is returned for an unknown actionable policy.
var ErrInvalidPolicy = errors.New("invalid actionable policy")

// Config is the full configuration file.
type Config struct {
	Engine     EngineConfig   `yaml:"engine"`
	Leagues    []League       `yaml:"leagues"`
	Ligues     []League       `yaml:"ligues"` // legacy key
	API        APIConfig      `yaml:"api"`
	Postgres   DSNConfig      `yaml:"postgres"`
	ClickHouse DSNConfig      `yaml:"clickhouse"`
	Redis      RedisConfig    `yaml:"redis"`
	Telegram   TelegramConfig `yaml:"telegram"`
}

// EngineConfig tunes the decision engine.
type EngineConfig struct {
	Thresholds ThresholdsOverride `yaml:"thresholds"`
	Blend      BlendOverride      `yaml:"blend"`
	Actionable string             `yaml:"actionable"` // ultra | ultra_or_safe
	TopN       int                `yaml:"top_n"`      // 0 keeps every recommendation
}

// League is one competition to fetch. Nom is the legacy name key.
type League struct {
	ID   int    `yaml:"league_id"`
	Name string `yaml:"name"`
	Nom  string `yaml:"nom"`
}

// DisplayName returns Name, falling back to the legacy key.
func (l League) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Nom
}

// APIConfig points at the sports-data API.
type APIConfig struct {
	BaseURL  string `yaml:"base_url"`
	Host     string `yaml:"host"`
	Key      string `yaml:"key"`
	Timezone string `yaml:"timezone"`
}

// DSNConfig holds a database connection string.
type DSNConfig struct {
	DSN string `yaml:"dsn"`
	// MaxConns caps the Postgres pool; zero keeps the driver default.
	MaxConns int32 `yaml:"max_conns"`
}

// RedisConfig configures the recommendation stream.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
}

// TelegramConfig configures push notifications.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{Actionable: PolicyUltra},
		API: APIConfig{
			BaseURL:  "https://api-football-v1.p.rapidapi.com/v3",
			Host:     "api-football-v1.p.rapidapi.com",
			Timezone: "Europe/Paris",
		},
		Redis: RedisConfig{Stream: "recommendations"},
	}
}

// Load reads a YAML (or JSON) file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv fills secrets and endpoints from the environment when set.
func (c *Config) ApplyEnv() {
	setFromEnv(&c.API.Key, "RAPIDAPI_KEY")
	setFromEnv(&c.API.Host, "RAPIDAPI_HOST")
	setFromEnv(&c.Postgres.DSN, "POSTGRES_DSN")
	setFromEnv(&c.ClickHouse.DSN, "CLICKHOUSE_DSN")
	setFromEnv(&c.Redis.Addr, "REDIS_ADDR")
	setFromEnv(&c.Redis.Password, "REDIS_PASSWORD")
	setFromEnv(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		var id int64
		if _, err := fmt.Sscan(v, &id); err == nil {
			c.Telegram.ChatID = id
		}
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// LeagueList merges the current and legacy league keys, dropping duplicates.
func (c *Config) LeagueList() []League {
	seen := make(map[int]struct{})
	var out []League
	for _, l := range append(append([]League(nil), c.Leagues...), c.Ligues...) {
		if l.ID == 0 {
			continue
		}
		if _, ok := seen[l.ID]; ok {
			continue
		}
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}
	return out
}

// Thresholds returns the validated decision table.
func (c *Config) Thresholds() (decision.Thresholds, error) {
	t := c.Engine.Thresholds.Apply(decision.DefaultThresholds())
	if err := t.Validate(); err != nil {
		return decision.Thresholds{}, err
	}
	return t, nil
}

// BlendWeights returns the validated season weights.
func (c *Config) BlendWeights() (blend.Weights, error) {
	w := c.Engine.Blend.Apply(blend.DefaultWeights())
	if err := w.Validate(); err != nil {
		return blend.Weights{}, err
	}
	return w, nil
}

// ActionableTier maps the policy to the lowest tier worth recommending.
func (c *Config) ActionableTier() (domain.Tier, error) {
	return ParsePolicy(c.Engine.Actionable)
}

// ParsePolicy maps a policy name to its minimum tier. Empty means ultra.
func ParsePolicy(policy string) (domain.Tier, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", PolicyUltra:
		return domain.TierUltra, nil
	case PolicyUltraOrSafe, "safe":
		return domain.TierSafe, nil
	default:
		return domain.TierAvoid, fmt.Errorf("%w: %q", ErrInvalidPolicy, policy)
	}
}
