// Package main runs the daily rating and decision engine once.
//
// Usage:
//
//	engine --stats data/team_stats.jsonl --matches data/matches_today.json
//
// Exit status is 1 when the current statistics are missing or no team could be rated.
// A day without match pairs writes a header-only recommendations file and exits 0.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"safe-bets/internal/app"
	"safe-bets/internal/config"
)

func main() {
	config.LoadEnvFile(".env")

	var f app.EngineFlags
	f.Register(flag.CommandLine)
	flag.Parse()

	logger := log.New(os.Stderr, "[engine] ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling run...", sig)
		cancel()
	}()

	if err := run(ctx, &f, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f *app.EngineFlags, logger *log.Logger) error {
	built, err := f.Build(ctx, logger)
	if err != nil {
		return err
	}
	defer built.Close()

	res, err := built.Engine.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s (season %s", res.RunDate, res.CurrentSeason)
	if res.PriorSeason != "" {
		fmt.Printf(", prior %s", res.PriorSeason)
	}
	fmt.Println(")")
	fmt.Printf("  Ratings:         %d (%d skipped)\n", res.Ratings, res.TeamsSkipped)
	fmt.Printf("  Pairs:           %d (%d absent)\n", res.Pairs, res.Absent)
	fmt.Printf("  Evaluations:     %d\n", len(res.Evaluations))
	fmt.Printf("  Recommendations: %d -> %s\n", len(res.Recommendations), f.OutputFile)
	for i, r := range res.Recommendations {
		fmt.Printf("    %d. %s: %s (%.3f)\n", i+1, r.Match, r.Decision, r.Confidence)
	}
	return nil
}
