package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"safe-bets/internal/domain"
	"safe-bets/internal/observability"
	"safe-bets/internal/reporting"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// RecommendationsResponse lists the recommendations of one run.
type RecommendationsResponse struct {
	RunDate         string                         `json:"run_date"`
	Count           int                            `json:"count"`
	Recommendations []reporting.RecommendationView `json:"recommendations"`
}

// EvaluationsResponse lists the evaluations of one run.
type EvaluationsResponse struct {
	RunDate     string                     `json:"run_date"`
	Count       int                        `json:"count"`
	Evaluations []reporting.EvaluationView `json:"evaluations"`
}

// HistoryResponse lists the mirrored history of one run date.
type HistoryResponse struct {
	RunDate string                  `json:"run_date"`
	Count   int                     `json:"count"`
	Entries []reporting.HistoryView `json:"entries"`
}

// RouterOptions configures the HTTP router.
type RouterOptions struct {
	AllowedOrigins []string
	// LiveFeed serves /ws when set.
	LiveFeed http.Handler
}

// NewRouter builds the HTTP API.
func NewRouter(s *Service, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", observability.Handler())
	if opts.LiveFeed != nil {
		r.Handle("/ws", opts.LiveFeed)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/recommendations", s.handleRecommendations)
		r.Get("/evaluations", s.handleEvaluations)
		r.Get("/history/{date}", s.handleHistory)
		r.Post("/runs", s.handleRun)
	})

	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "safe-bets",
		"scheduler": s.Status(),
	})
}

// handleRecommendations serves the latest recommendations.
// Query parameters: type (Over15|Result), min_confidence.
func (s *Service) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	res := s.Latest()
	if res == nil {
		respondError(w, http.StatusServiceUnavailable, "no engine run yet")
		return
	}

	q := r.URL.Query()
	minConf := 0.0
	if v := q.Get("min_confidence"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid min_confidence")
			return
		}
		minConf = f
	}
	betType := q.Get("type")
	if betType != "" && !strings.EqualFold(betType, string(domain.BetOver15)) && !strings.EqualFold(betType, string(domain.BetResult)) {
		respondError(w, http.StatusBadRequest, "type must be Over15 or Result")
		return
	}

	views := reporting.NewRecommendationViews(res.RunDate, res.Recommendations)
	filtered := make([]reporting.RecommendationView, 0, len(views))
	for _, v := range views {
		if betType != "" && !strings.EqualFold(v.Type, betType) {
			continue
		}
		if v.Confidence < minConf {
			continue
		}
		filtered = append(filtered, v)
	}

	respondJSON(w, http.StatusOK, RecommendationsResponse{
		RunDate:         res.RunDate,
		Count:           len(filtered),
		Recommendations: filtered,
	})
}

func (s *Service) handleEvaluations(w http.ResponseWriter, r *http.Request) {
	res := s.Latest()
	if res == nil {
		respondError(w, http.StatusServiceUnavailable, "no engine run yet")
		return
	}
	views := reporting.NewEvaluationViews(res.RunDate, res.Evaluations)
	respondJSON(w, http.StatusOK, EvaluationsResponse{
		RunDate:     res.RunDate,
		Count:       len(views),
		Evaluations: views,
	})
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, http.StatusNotImplemented, "no history mirror configured")
		return
	}
	date := chi.URLParam(r, "date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	entries, err := s.history.GetByRunDate(r.Context(), date)
	if err != nil {
		s.logger.Printf("WARN: history %s: %v", date, err)
		respondError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	views := reporting.NewHistoryViews(entries)
	respondJSON(w, http.StatusOK, HistoryResponse{RunDate: date, Count: len(views), Entries: views})
}

// handleRun triggers an engine run outside the schedule.
func (s *Service) handleRun(w http.ResponseWriter, r *http.Request) {
	// The run outlives a disconnecting client.
	res, err := s.RunNow(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, ErrRunInProgress):
		respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_date":        res.RunDate,
		"pairs":           res.Pairs,
		"absent":          res.Absent,
		"evaluations":     len(res.Evaluations),
		"recommendations": len(res.Recommendations),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
