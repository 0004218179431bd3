// Package main settles history rows with the final scores of a match day.
//
// Usage:
//
//	settle --config leagues.yaml --season 2025 --date 2025-10-04
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safe-bets/internal/apifootball"
	"safe-bets/internal/app"
	"safe-bets/internal/config"
	"safe-bets/internal/domain"
	"safe-bets/internal/storage/csvlog"
)

func main() {
	config.LoadEnvFile(".env")

	configFile := flag.String("config", os.Getenv("SAFE_BETS_CONFIG"), "Configuration file with the league list (YAML)")
	historyFile := flag.String("history", app.DefaultHistoryFile, "History CSV to settle")
	season := flag.String("season", "", "Season (e.g. 2025)")
	date := flag.String("date", "", "Match day YYYY-MM-DD (default: yesterday in the API timezone)")
	flag.Parse()

	logger := log.New(os.Stderr, "[settle] ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx, *configFile, *historyFile, *season, *date, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile, historyFile, season, date string, logger *log.Logger) error {
	if season == "" {
		return errors.New("--season is required")
	}
	cfg, err := app.LoadConfig(configFile)
	if err != nil {
		return err
	}
	leagues := cfg.LeagueList()
	if len(leagues) == 0 {
		return errors.New("no leagues configured")
	}
	if date == "" {
		date = yesterday(cfg.API.Timezone)
	}

	opts := []apifootball.ClientOption{apifootball.WithLogger(logger)}
	if cfg.API.BaseURL != "" {
		opts = append(opts, apifootball.WithBaseURL(cfg.API.BaseURL))
	}
	if cfg.API.Host != "" {
		opts = append(opts, apifootball.WithHost(cfg.API.Host))
	}
	client, err := apifootball.NewClient(cfg.API.Key, opts...)
	if err != nil {
		return err
	}

	var results []domain.MatchResult
	for _, l := range leagues {
		res, err := client.Results(ctx, l.ID, season, date, cfg.API.Timezone)
		if err != nil {
			return fmt.Errorf("results of league %d: %w", l.ID, err)
		}
		logger.Printf("%s (ID %d): %d finished matches on %s", l.DisplayName(), l.ID, len(res), date)
		results = append(results, res...)
	}

	summary, err := csvlog.NewHistoryLog(historyFile).Settle(date, results)
	if err != nil {
		return err
	}
	fmt.Printf("Settled %s: %d of %d rows (%d without result)\n",
		date, summary.Settled, summary.Rows, summary.Unmatched)
	return nil
}

func yesterday(timezone string) string {
	now := time.Now()
	if loc, err := time.LoadLocation(timezone); err == nil {
		now = now.In(loc)
	}
	return now.AddDate(0, 0, -1).Format("2006-01-02")
}
