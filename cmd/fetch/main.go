// Package main pulls team lists, season statistics and daily fixtures from api-football
// into the engine's input files.
//
// Usage:
//
//	fetch teams    --config leagues.yaml --season 2025 --out data/team_ids.json
//	fetch stats    --teams data/team_ids.json --out data/team_stats.jsonl
//	fetch fixtures --config leagues.yaml --season 2025 --date 2025-10-04 --out data/matches_today.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"safe-bets/internal/apifootball"
	"safe-bets/internal/app"
	"safe-bets/internal/config"
	"safe-bets/internal/domain"
	"safe-bets/internal/ingestion"
)

// Pause between API calls to stay under the rate limit.
const callPause = 200 * time.Millisecond

func main() {
	config.LoadEnvFile(".env")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "[fetch] ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling...", sig)
		cancel()
	}()

	var err error
	switch os.Args[1] {
	case "teams":
		err = fetchTeams(ctx, os.Args[2:], logger)
	case "stats":
		err = fetchStats(ctx, os.Args[2:], logger)
	case "fixtures":
		err = fetchFixtures(ctx, os.Args[2:], logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fetch teams|stats|fixtures [flags]")
}

// common holds the flags every subcommand shares.
type common struct {
	configFile string
	season     string
	out        string
}

func (c *common) register(fs *flag.FlagSet, defaultOut string) {
	fs.StringVar(&c.configFile, "config", os.Getenv("SAFE_BETS_CONFIG"), "Configuration file with the league list (YAML)")
	fs.StringVar(&c.season, "season", "", "Season (e.g. 2025)")
	fs.StringVar(&c.out, "out", defaultOut, "Output file")
}

func newClient(cfg *config.Config, logger *log.Logger) (*apifootball.Client, error) {
	opts := []apifootball.ClientOption{apifootball.WithLogger(logger)}
	if cfg.API.BaseURL != "" {
		opts = append(opts, apifootball.WithBaseURL(cfg.API.BaseURL))
	}
	if cfg.API.Host != "" {
		opts = append(opts, apifootball.WithHost(cfg.API.Host))
	}
	client, err := apifootball.NewClient(cfg.API.Key, opts...)
	if errors.Is(err, apifootball.ErrMissingKey) {
		return nil, errors.New("RAPIDAPI_KEY is not set")
	}
	return client, err
}

func pause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(callPause):
		return nil
	}
}

func fetchTeams(ctx context.Context, args []string, logger *log.Logger) error {
	var c common
	fs := flag.NewFlagSet("teams", flag.ExitOnError)
	c.register(fs, "data/team_ids.json")
	fs.Parse(args)

	if c.season == "" {
		return errors.New("--season is required")
	}
	cfg, err := app.LoadConfig(c.configFile)
	if err != nil {
		return err
	}
	leagues := cfg.LeagueList()
	if len(leagues) == 0 {
		return errors.New("no leagues configured")
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	out := ingestion.TeamsFile{Season: c.season}
	total := 0
	for _, l := range leagues {
		teams, err := client.Teams(ctx, l.ID, c.season)
		if err != nil {
			return fmt.Errorf("teams of league %d: %w", l.ID, err)
		}
		entry := ingestion.LeagueTeams{LeagueID: l.ID, LeagueName: l.DisplayName()}
		for _, t := range teams {
			entry.Teams = append(entry.Teams, ingestion.TeamEntry{TeamID: t.ID, Name: t.Name})
		}
		out.Leagues = append(out.Leagues, entry)
		total += len(entry.Teams)
		logger.Printf("%s (ID %d): %d teams", entry.LeagueName, l.ID, len(entry.Teams))
		if err := pause(ctx); err != nil {
			return err
		}
	}

	if err := ingestion.WriteJSONFile(c.out, out); err != nil {
		return err
	}
	fmt.Printf("Wrote %s: %d leagues, %d teams\n", c.out, len(out.Leagues), total)
	return nil
}

func fetchStats(ctx context.Context, args []string, logger *log.Logger) error {
	var c common
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	c.register(fs, app.DefaultStatsFile)
	teamsFile := fs.String("teams", "data/team_ids.json", "Team listing written by 'fetch teams'")
	fs.Parse(args)

	var listing ingestion.TeamsFile
	if err := ingestion.ReadJSONFile(*teamsFile, &listing); err != nil {
		return err
	}
	season := c.season
	if season == "" {
		season = listing.Season
	}
	if season == "" {
		return fmt.Errorf("--season is required when %s has none", *teamsFile)
	}

	cfg, err := app.LoadConfig(c.configFile)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	var records []*domain.SeasonRecord
	missing := 0
	for _, l := range listing.Leagues {
		logger.Printf("%s (ID %d): %d teams", l.LeagueName, l.LeagueID, len(l.Teams))
		for _, t := range l.Teams {
			stats, err := client.TeamStatistics(ctx, l.LeagueID, season, t.TeamID)
			switch {
			case errors.Is(err, apifootball.ErrNoStatistics):
				missing++
				logger.Printf("WARN: no statistics for team %d (%s)", t.TeamID, t.Name)
				records = append(records, &domain.SeasonRecord{
					TeamID: t.TeamID, TeamName: t.Name, LeagueID: l.LeagueID,
					Season: season, SourceTimestamp: timestamp,
				})
			case err != nil:
				return fmt.Errorf("statistics of team %d: %w", t.TeamID, err)
			default:
				if stats.TeamName == "" {
					stats.TeamName = t.Name
				}
				records = append(records, stats.SeasonRecord(timestamp))
			}
			if err := pause(ctx); err != nil {
				return err
			}
		}
	}

	if err := writeStatsFile(c.out, records); err != nil {
		return err
	}
	fmt.Printf("Wrote %s: %d teams (%d without statistics)\n", c.out, len(records), missing)
	return nil
}

func writeStatsFile(path string, records []*domain.SeasonRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := ingestion.WriteStats(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fetchFixtures(ctx context.Context, args []string, logger *log.Logger) error {
	var c common
	fs := flag.NewFlagSet("fixtures", flag.ExitOnError)
	c.register(fs, app.DefaultMatchesFile)
	date := fs.String("date", "", "Match day YYYY-MM-DD (default: today in the API timezone)")
	fs.Parse(args)

	if c.season == "" {
		return errors.New("--season is required")
	}
	cfg, err := app.LoadConfig(c.configFile)
	if err != nil {
		return err
	}
	leagues := cfg.LeagueList()
	if len(leagues) == 0 {
		return errors.New("no leagues configured")
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	day := *date
	if day == "" {
		day = today(cfg.API.Timezone)
	}

	out := ingestion.FixturesFile{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Timezone:    cfg.API.Timezone,
		Date:        day,
		Season:      c.season,
		Fixtures:    []ingestion.Fixture{},
	}
	for _, l := range leagues {
		fixtures, err := client.Fixtures(ctx, l.ID, c.season, day, cfg.API.Timezone)
		if err != nil {
			return fmt.Errorf("fixtures of league %d: %w", l.ID, err)
		}
		logger.Printf("%s (ID %d): %d matches on %s", l.DisplayName(), l.ID, len(fixtures), day)
		for _, fx := range fixtures {
			out.Fixtures = append(out.Fixtures, toFixture(fx, l, day))
		}
		if err := pause(ctx); err != nil {
			return err
		}
	}
	out.Count = len(out.Fixtures)

	if err := ingestion.WriteJSONFile(c.out, out); err != nil {
		return err
	}
	fmt.Printf("Wrote %s: %d fixtures\n", c.out, out.Count)
	return nil
}

func toFixture(fx apifootball.Fixture, l config.League, day string) ingestion.Fixture {
	teamID := func(id int) *int {
		if id == 0 {
			return nil
		}
		return &id
	}
	return ingestion.Fixture{
		FixtureID:  fx.ID,
		LeagueID:   l.ID,
		LeagueName: l.DisplayName(),
		Date:       day,
		Kickoff:    fx.Kickoff,
		Status:     fx.Status,
		HomeTeam:   ingestion.FixtureTeam{ID: teamID(fx.HomeID), Name: fx.HomeName},
		AwayTeam:   ingestion.FixtureTeam{ID: teamID(fx.AwayID), Name: fx.AwayName},
	}
}

func today(timezone string) string {
	now := time.Now()
	if loc, err := time.LoadLocation(timezone); err == nil {
		now = now.In(loc)
	}
	return now.Format("2006-01-02")
}
