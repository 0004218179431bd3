// Package api serves the latest engine run over HTTP and reruns the engine on a schedule.
package api

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"safe-bets/internal/pipeline"
	"safe-bets/internal/storage"
)

// ErrRunInProgress is returned by RunNow while another run is executing.
var ErrRunInProgress = errors.New("engine run already in progress")

// Runner executes one engine run.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// Service keeps the latest successful run and the state of the scheduler.
type Service struct {
	runner  Runner
	history storage.HistoryStore // optional mirror for past runs
	logger  *log.Logger
	clock   func() time.Time

	runMu sync.Mutex // held for the duration of a run

	mu       sync.RWMutex
	latest   *pipeline.Result
	lastRun  time.Time
	lastErr  error
	runs     int
	failures int
}

// NewService creates a service. history may be nil.
func NewService(runner Runner, history storage.HistoryStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		runner:  runner,
		history: history,
		logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Run runs the engine once immediately and then every interval until ctx is cancelled.
// Failed runs are logged and keep the previous result.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	s.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Service) runLogged(ctx context.Context) {
	res, err := s.RunNow(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.logger.Println("Skipping scheduled run, previous run still in progress")
	case err != nil:
		if ctx.Err() == nil {
			s.logger.Printf("WARN: engine run failed: %v", err)
		}
	default:
		s.logger.Printf("Engine run %s: %d evaluations, %d recommendations",
			res.RunDate, len(res.Evaluations), len(res.Recommendations))
	}
}

// RunNow executes one run unless another is in progress.
func (s *Service) RunNow(ctx context.Context) (*pipeline.Result, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	res, err := s.runner.Run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = s.clock()
	s.runs++
	s.lastErr = err
	if err != nil {
		s.failures++
		return nil, err
	}
	s.latest = res
	return res, nil
}

// Latest returns the latest successful run, or nil.
func (s *Service) Latest() *pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Status is the scheduler state reported by /health.
type Status struct {
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastRunDate string     `json:"last_run_date,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	Runs        int        `json:"runs"`
	Failures    int        `json:"failures"`
}

// Status returns the scheduler state.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{Runs: s.runs, Failures: s.failures}
	if !s.lastRun.IsZero() {
		t := s.lastRun
		st.LastRun = &t
	}
	if s.latest != nil {
		st.LastRunDate = s.latest.RunDate
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
