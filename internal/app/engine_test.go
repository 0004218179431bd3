package app

import (
	"bytes"
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safe-bets/internal/notify"
)

func parseFlags(t *testing.T, args ...string) *EngineFlags {
	t.Helper()
	var f EngineFlags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f.Register(fs)
	require.NoError(t, fs.Parse(args))
	return &f
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEngineFlags_Defaults(t *testing.T) {
	f := parseFlags(t)
	assert.Equal(t, DefaultStatsFile, f.StatsFile)
	assert.Equal(t, DefaultOutputFile, f.OutputFile)
	assert.Equal(t, DefaultHistoryFile, f.HistoryFile)
	assert.Equal(t, -1, f.TopN)
	assert.False(t, f.Telegram)
}

func TestBuild_ConfigAndOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("CLICKHOUSE_DSN", "")
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "engine:\n  actionable: ultra_or_safe\n  top_n: 5\n")
	thresholds := writeFile(t, dir, "thresholds.yaml", "ultrasafe_over15: 0.2\n")

	logs := &bytes.Buffer{}
	f := parseFlags(t, "--config", cfg, "--thresholds", thresholds, "--top", "0",
		"--output", filepath.Join(dir, "out.csv"), "--history", filepath.Join(dir, "history.csv"))

	b, err := f.Build(context.Background(), log.New(logs, "", 0))
	require.NoError(t, err)
	defer b.Close()

	assert.NotNil(t, b.Engine)
	assert.Equal(t, 5, b.Config.Engine.TopN)
	assert.Contains(t, logs.String(), "WARN:", "invalid threshold override keeps defaults")
}

func TestBuild_BadConfigKeepsDefaults(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("CLICKHOUSE_DSN", "")

	tests := []struct {
		name    string
		content string
		warning string
	}{
		{"malformed yaml", "engine: [unclosed\n", "using default configuration"},
		{"safe above ultra", "engine:\n  thresholds:\n    safe_over15: 0.95\n", "config thresholds"},
		{"weights not summing to one", "engine:\n  blend:\n    standard_current: 0.9\n", "config blend weights"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := writeFile(t, dir, "config.yaml", tt.content)
			logs := &bytes.Buffer{}
			f := parseFlags(t, "--config", cfg,
				"--output", filepath.Join(dir, "out.csv"), "--history", filepath.Join(dir, "history.csv"))

			b, err := f.Build(context.Background(), log.New(logs, "", 0))
			require.NoError(t, err)
			defer b.Close()

			assert.NotNil(t, b.Engine)
			assert.Contains(t, logs.String(), "WARN:")
			assert.Contains(t, logs.String(), tt.warning)
		})
	}
}

func TestBuild_InvalidPolicy(t *testing.T) {
	f := parseFlags(t, "--policy", "reckless")
	_, err := f.Build(context.Background(), log.New(&bytes.Buffer{}, "", 0))
	assert.Error(t, err)
}

func TestBuild_TelegramWithoutCredentials(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	f := parseFlags(t, "--telegram")
	_, err := f.Build(context.Background(), log.New(&bytes.Buffer{}, "", 0))
	assert.ErrorIs(t, err, notify.ErrNotConfigured)
}

func TestBuild_UnreachableRedisIsSkipped(t *testing.T) {
	logs := &bytes.Buffer{}
	f := parseFlags(t, "--redis-addr", "127.0.0.1:1")
	b, err := f.Build(context.Background(), log.New(logs, "", 0))
	require.NoError(t, err)
	defer b.Close()
	assert.Contains(t, logs.String(), "WARN: redis publisher disabled")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a.jsonl", "b.jsonl"}, splitList(" a.jsonl, ,b.jsonl"))
	assert.Nil(t, splitList(""))
}
