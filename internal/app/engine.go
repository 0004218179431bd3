// Package app wires configuration, stores and publishers into an engine for the commands.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"safe-bets/internal/blend"
	"safe-bets/internal/config"
	"safe-bets/internal/decision"
	"safe-bets/internal/notify"
	"safe-bets/internal/pipeline"
	"safe-bets/internal/publish"
	"safe-bets/internal/storage"
	chstore "safe-bets/internal/storage/clickhouse"
	"safe-bets/internal/storage/migrations"
	pgstore "safe-bets/internal/storage/postgres"
)

// Default file locations.
const (
	DefaultStatsFile   = "data/team_stats.jsonl"
	DefaultMatchesFile = "data/matches_today.json"
	DefaultOutputFile  = "data/recommendations.csv"
	DefaultHistoryFile = "data/history.csv"
)

// EngineFlags are the command-line inputs of one engine run.
type EngineFlags struct {
	ConfigFile     string
	ThresholdsFile string
	StatsFile      string
	FallbackStats  string
	CurrentSeason  string
	MatchesFile    string
	OutputFile     string
	HistoryFile    string
	ReportFile     string
	Policy         string
	TopN           int
	Verbose        bool

	PostgresDSN   string
	ClickhouseDSN string
	RedisAddr     string
	Telegram      bool
}

// Register binds the flags to fs. Store and publisher endpoints default to the environment.
func (f *EngineFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigFile, "config", os.Getenv("SAFE_BETS_CONFIG"), "Engine configuration file (YAML or JSON)")
	fs.StringVar(&f.ThresholdsFile, "thresholds", "", "Threshold override file (YAML or JSON)")
	fs.StringVar(&f.StatsFile, "stats", DefaultStatsFile, "Current season statistics (JSONL)")
	fs.StringVar(&f.FallbackStats, "fallback-stats", "", "Comma-separated prior season statistics files (JSONL)")
	fs.StringVar(&f.CurrentSeason, "current-season", "", "Current season label (default: most recent in the stats)")
	fs.StringVar(&f.MatchesFile, "matches", DefaultMatchesFile, "Match pairs or fixtures file (JSON)")
	fs.StringVar(&f.OutputFile, "output", DefaultOutputFile, "Recommendations CSV (overwritten)")
	fs.StringVar(&f.HistoryFile, "history", DefaultHistoryFile, "History CSV (appended)")
	fs.StringVar(&f.ReportFile, "report", "", "Daily Markdown report (optional)")
	fs.StringVar(&f.Policy, "policy", "", "Actionable policy: ultra or ultra_or_safe (default from config)")
	fs.IntVar(&f.TopN, "top", -1, "Keep the N most confident recommendations, 0 for all (default from config)")
	fs.BoolVar(&f.Verbose, "verbose", false, "Verbose output")
	fs.StringVar(&f.PostgresDSN, "postgres-dsn", "", "PostgreSQL history mirror (default POSTGRES_DSN or config)")
	fs.StringVar(&f.ClickhouseDSN, "clickhouse-dsn", "", "ClickHouse history mirror (default CLICKHOUSE_DSN or config)")
	fs.StringVar(&f.RedisAddr, "redis-addr", "", "Redis address for the recommendations stream (default REDIS_ADDR or config)")
	fs.BoolVar(&f.Telegram, "telegram", false, "Send the recommendations to Telegram")
}

// LoadConfig reads the configuration file when set and applies the environment.
func LoadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// Built is an engine with the resources it holds open.
type Built struct {
	Engine  *pipeline.Engine
	Config  *config.Config
	Mirrors []storage.HistoryStore

	closers []func()
}

// Close releases the store and publisher connections.
func (b *Built) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// Build resolves configuration, opens the optional mirrors and publishers and creates the engine.
// extra publishers run after the configured ones.
func (f *EngineFlags) Build(ctx context.Context, logger *log.Logger, extra ...pipeline.Publisher) (*Built, error) {
	cfg, err := LoadConfig(f.ConfigFile)
	if err != nil {
		logger.Printf("WARN: %v, using default configuration", err)
		cfg = config.Default()
		cfg.ApplyEnv()
	}
	b := &Built{Config: cfg}

	thresholds, err := cfg.Thresholds()
	if err != nil {
		logger.Printf("WARN: config thresholds: %v, keeping defaults", err)
		thresholds = decision.DefaultThresholds()
	}
	if f.ThresholdsFile != "" {
		thresholds, err = config.LoadThresholds(f.ThresholdsFile, thresholds)
		if err != nil {
			logger.Printf("WARN: %v, keeping defaults", err)
		}
	}
	weights, err := cfg.BlendWeights()
	if err != nil {
		logger.Printf("WARN: config blend weights: %v, keeping defaults", err)
		weights = blend.DefaultWeights()
	}

	policy := cfg.Engine.Actionable
	if f.Policy != "" {
		policy = f.Policy
	}
	minTier, err := config.ParsePolicy(policy)
	if err != nil {
		return nil, err
	}
	topN := cfg.Engine.TopN
	if f.TopN >= 0 {
		topN = f.TopN
	}

	opts := pipeline.Options{
		StatsFile:          f.StatsFile,
		FallbackStatsFiles: splitList(f.FallbackStats),
		CurrentSeason:      f.CurrentSeason,
		MatchesFile:        f.MatchesFile,
		OutputFile:         f.OutputFile,
		HistoryFile:        f.HistoryFile,
		ReportFile:         f.ReportFile,
		Thresholds:         thresholds,
		Weights:            weights,
		MinTier:            minTier,
		TopN:               topN,
		Logger:             logger,
		Verbose:            f.Verbose,
	}

	opts.Mirrors = b.openMirrors(ctx, f, cfg, logger)
	if opts.Publishers, err = b.openPublishers(ctx, f, cfg, logger); err != nil {
		b.Close()
		return nil, err
	}
	opts.Publishers = append(opts.Publishers, extra...)

	engine, err := pipeline.NewEngine(opts)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Engine = engine
	b.Mirrors = opts.Mirrors
	return b, nil
}

func firstNonEmpty(flagValue, cfgValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return cfgValue
}

// openMirrors connects the configured history mirrors. An unreachable mirror is
// skipped with a warning; the CSV history stays authoritative.
func (b *Built) openMirrors(ctx context.Context, f *EngineFlags, cfg *config.Config, logger *log.Logger) []storage.HistoryStore {
	var mirrors []storage.HistoryStore
	postgresDSN := firstNonEmpty(f.PostgresDSN, cfg.Postgres.DSN)
	clickhouseDSN := firstNonEmpty(f.ClickhouseDSN, cfg.ClickHouse.DSN)

	if postgresDSN != "" {
		if store, err := b.openPostgres(ctx, postgresDSN, cfg.Postgres.MaxConns); err != nil {
			logger.Printf("WARN: postgres mirror disabled: %v", err)
		} else {
			mirrors = append(mirrors, store)
			logger.Println("History mirror: postgres")
		}
	}

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			logger.Printf("WARN: clickhouse mirror disabled: %v", err)
		} else {
			b.closers = append(b.closers, func() { conn.Close() })
			mirrors = append(mirrors, chstore.NewHistoryStore(conn))
			logger.Println("History mirror: clickhouse")
		}
	}

	return mirrors
}

func (b *Built) openPostgres(ctx context.Context, dsn string, maxConns int32) (*pgstore.HistoryStore, error) {
	var opts []pgstore.PoolOption
	if maxConns > 0 {
		opts = append(opts, pgstore.WithMaxConns(maxConns))
	}
	pool, err := pgstore.NewPool(ctx, dsn, opts...)
	if err != nil {
		return nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}
	b.closers = append(b.closers, pool.Close)
	return pgstore.NewHistoryStore(pool), nil
}

// openPublishers connects the configured publishers. An unreachable Redis is
// skipped with a warning; asking for Telegram without credentials is an error.
func (b *Built) openPublishers(ctx context.Context, f *EngineFlags, cfg *config.Config, logger *log.Logger) ([]pipeline.Publisher, error) {
	var pubs []pipeline.Publisher

	if addr := firstNonEmpty(f.RedisAddr, cfg.Redis.Addr); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			logger.Printf("WARN: redis publisher disabled: connect to %s: %v", addr, err)
		} else {
			b.closers = append(b.closers, func() { client.Close() })
			p := publish.NewStreamPublisher(client, cfg.Redis.Stream)
			pubs = append(pubs, p)
			logger.Printf("Publishing to redis stream %s", p.Stream())
		}
	}

	if f.Telegram {
		n, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			if errors.Is(err, notify.ErrNotConfigured) {
				return nil, fmt.Errorf("--telegram needs TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID: %w", err)
			}
			return nil, err
		}
		pubs = append(pubs, n)
		logger.Println("Publishing to telegram")
	}

	return pubs, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
