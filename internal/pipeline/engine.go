// Package pipeline runs the daily engine: ratings, evaluations, outputs and fan-out.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"safe-bets/internal/blend"
	"safe-bets/internal/decision"
	"safe-bets/internal/domain"
	"safe-bets/internal/idhash"
	"safe-bets/internal/ingestion"
	"safe-bets/internal/observability"
	"safe-bets/internal/reporting"
	"safe-bets/internal/storage"
	"safe-bets/internal/storage/csvlog"
	"safe-bets/internal/storage/memory"
	"safe-bets/internal/verification"
)

// ErrStatsMissing is returned when the current statistics source cannot be read.
var ErrStatsMissing = errors.New("current statistics source missing")

// Options configures an Engine.
type Options struct {
	// StatsFile is the current statistics JSONL. Required.
	StatsFile string
	// FallbackStatsFiles are read into the same raw store when present.
	FallbackStatsFiles []string
	// CurrentSeason overrides season detection when set.
	CurrentSeason string

	MatchesFile string
	OutputFile  string
	HistoryFile string
	ReportFile  string // optional daily Markdown report

	Thresholds decision.Thresholds
	Weights    blend.Weights
	MinTier    domain.Tier
	TopN       int

	// Mirrors receive every history entry after the CSV append.
	Mirrors    []storage.HistoryStore
	Publishers []Publisher

	Logger  *log.Logger
	Verbose bool
}

// Engine runs the rating and decision engine over one set of inputs.
type Engine struct {
	opts   Options
	logger *log.Logger
	clock  func() time.Time
}

// NewEngine validates opts and creates an engine.
func NewEngine(opts Options) (*Engine, error) {
	if opts.StatsFile == "" {
		return nil, fmt.Errorf("%w: no stats file configured", ErrStatsMissing)
	}
	if opts.OutputFile == "" || opts.HistoryFile == "" {
		return nil, errors.New("output and history files are required")
	}
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("thresholds: %w", err)
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("blend weights: %w", err)
	}
	if opts.MinTier == domain.TierAvoid {
		opts.MinTier = domain.TierUltra
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Engine{
		opts:   opts,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock sets a custom clock function for deterministic run dates.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// Run executes one engine run.
// Missing current stats and an empty rating cache are errors. A day without
// pairs writes a header-only recommendations file and leaves history untouched.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res, err := e.run(ctx)
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.RecordPipelineRun(status, time.Since(start).Seconds())
	if err == nil {
		observability.RecordSuccessfulRun(e.clock().Unix())
	}
	return res, err
}

func (e *Engine) run(ctx context.Context) (*Result, error) {
	res := &Result{RunDate: e.clock().UTC().Format("2006-01-02")}
	loader := ingestion.NewLoader(e.logger)

	// 1. Raw statistics
	raw := ingestion.NewRawStore()
	summary, err := loader.ReadStatsFile(e.opts.StatsFile, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatsMissing, err)
	}
	observability.RecordStatsRead(summary.Loaded, summary.Malformed, summary.Unusable, summary.Replaced)
	for _, path := range e.opts.FallbackStatsFiles {
		summary, err := loader.ReadStatsFile(path, raw)
		if err != nil {
			e.logger.Printf("WARN: fallback stats skipped: %v", err)
			continue
		}
		observability.RecordStatsRead(summary.Loaded, summary.Malformed, summary.Unusable, summary.Replaced)
	}

	current, prior, err := ingestion.DetectSeasons(raw, e.opts.CurrentSeason)
	if err != nil {
		return nil, err
	}
	res.CurrentSeason, res.PriorSeason = current, prior
	if prior == "" {
		e.logger.Printf("Season %s only, no prior season to blend", current)
	} else {
		e.logger.Printf("Blending season %s with prior %s", current, prior)
	}

	// 2. Rating cache
	blender := blend.NewBlender(raw, current, prior, e.opts.Weights).WithLogger(e.logger)
	ratings := memory.NewRatingStore()
	built, skipped, err := BuildRatings(ctx, blender, ratings)
	observability.UpdateRatingCache(built, skipped)
	if err != nil {
		return nil, err
	}
	res.Ratings, res.TeamsSkipped = built, skipped
	e.logger.Printf("Rating cache: %d teams, %d skipped", built, skipped)

	// 3. Pairs
	pairs := loader.LoadMatchPairs(e.opts.MatchesFile)
	res.Pairs = len(pairs)
	if len(pairs) == 0 {
		e.logger.Printf("No match pairs, writing empty %s", e.opts.OutputFile)
		if err := reporting.WriteRecommendationsFile(e.opts.OutputFile, nil); err != nil {
			return nil, err
		}
		return res, e.writeReport(res)
	}

	// 4. Evaluate
	evaluator := decision.NewEvaluator(ratings, e.opts.Thresholds)
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ev, err := evaluator.Evaluate(ctx, p.TeamAID, p.TeamBID)
		if err != nil {
			res.Absent++
			observability.RecordPairAbsent(absentReason(err))
			e.logger.Printf("WARN: pair %d vs %d skipped: %v", p.TeamAID, p.TeamBID, err)
			continue
		}
		observability.RecordEvaluation(ev.Over.Tier.String(), ev.Result.Tier.String())
		if e.opts.Verbose {
			e.logger.Printf("%s: O15I=%.3f RSI_A=%.3f over=%s result=%s flags=%s",
				ev.Match(), ev.OverIndex, ev.RSIA, ev.Over.Label(), ev.Result.Label(), ev.Flags)
		}
		res.Evaluations = append(res.Evaluations, ev)
	}

	// 5. Rank and emit
	res.Recommendations = reporting.Rank(res.Evaluations, e.opts.MinTier, e.opts.TopN)
	if err := reporting.WriteRecommendationsFile(e.opts.OutputFile, res.Recommendations); err != nil {
		return nil, err
	}
	for _, r := range res.Recommendations {
		observability.RecordRecommendation(string(r.Bet))
	}
	e.logger.Printf("%d evaluations, %d absent, %d recommendations written to %s",
		len(res.Evaluations), res.Absent, len(res.Recommendations), e.opts.OutputFile)

	// 6. History
	res.History = historyEntries(res.RunDate, res.Evaluations)
	if err := csvlog.NewHistoryLog(e.opts.HistoryFile).Append(res.History); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}
	e.mirrorHistory(ctx, res.History)

	if err := e.writeReport(res); err != nil {
		return nil, err
	}

	// 7. Fan-out
	e.publish(ctx, res)
	return res, nil
}

func historyEntries(runDate string, evals []*domain.MatchEvaluation) []*domain.HistoryEntry {
	entries := make([]*domain.HistoryEntry, 0, len(evals))
	for _, ev := range evals {
		id := idhash.ComputeEvaluationID(runDate, ev.LeagueID, ev.TeamA.ID, ev.TeamB.ID)
		entry := domain.NewHistoryEntry(id, runDate, ev)
		entries = append(entries, &entry)
	}
	return entries
}

// mirrorHistory copies entries to every mirror. A pair listed twice in one run
// is mirrored once. Mirror failures are warnings.
func (e *Engine) mirrorHistory(ctx context.Context, entries []*domain.HistoryEntry) {
	if len(e.opts.Mirrors) == 0 || len(entries) == 0 {
		return
	}

	seen := make(map[string]struct{}, len(entries))
	unique := make([]*domain.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.EvaluationID]; ok {
			continue
		}
		seen[entry.EvaluationID] = struct{}{}
		unique = append(unique, entry)
	}

	for _, m := range e.opts.Mirrors {
		err := m.InsertBulk(ctx, unique)
		switch {
		case err == nil:
		case errors.Is(err, storage.ErrDuplicateKey):
			e.logger.Printf("WARN: history mirror %T already holds run %s", m, entries[0].RunDate)
			e.verifyMirror(ctx, m, entries[0].RunDate, unique)
		default:
			e.logger.Printf("WARN: history mirror %T: %v", m, err)
		}
	}
}

// verifyMirror reports how a rerun differs from the entries a mirror already holds.
func (e *Engine) verifyMirror(ctx context.Context, m storage.HistoryStore, runDate string, entries []*domain.HistoryEntry) {
	report, err := verification.NewVerifier(m).VerifyRun(ctx, runDate, entries)
	if err != nil {
		e.logger.Printf("WARN: verify history mirror %T: %v", m, err)
		return
	}
	if report.Consistent() {
		return
	}
	e.logger.Printf("WARN: rerun of %s diverges from mirror %T: %d divergent, %d missing of %d",
		runDate, m, report.Divergent, report.Missing, report.Total)
	for _, r := range report.Results {
		for _, d := range r.Divergences {
			e.logger.Printf("WARN:   %s %s", r.Match, d)
		}
	}
}

func (e *Engine) writeReport(res *Result) error {
	if e.opts.ReportFile == "" {
		return nil
	}
	gen := reporting.NewGenerator(e.opts.Thresholds, e.opts.MinTier).WithClock(e.clock)
	report := gen.Generate(res.RunDate, reporting.RunSummary{
		CurrentSeason: res.CurrentSeason,
		PriorSeason:   res.PriorSeason,
		RatingsBuilt:  res.Ratings,
		TeamsSkipped:  res.TeamsSkipped,
		PairsLoaded:   res.Pairs,
		PairsAbsent:   res.Absent,
	}, res.Evaluations, res.Recommendations)
	return reporting.WriteMarkdownFile(e.opts.ReportFile, report)
}

func (e *Engine) publish(ctx context.Context, res *Result) {
	for _, p := range e.opts.Publishers {
		if err := p.Publish(ctx, res); err != nil {
			observability.RecordPublishError(p.Name())
			e.logger.Printf("WARN: publish to %s failed: %v", p.Name(), err)
		}
	}
}

func absentReason(err error) string {
	switch {
	case errors.Is(err, decision.ErrTeamNotRated):
		return "not_rated"
	case errors.Is(err, decision.ErrCrossLeague):
		return "cross_league"
	case errors.Is(err, decision.ErrSameTeam):
		return "same_team"
	default:
		return "error"
	}
}
