// Package http exposes the budgeting and habit APIs as JSON endpoints.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tally/internal/cache"
	applog "tally/internal/log"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/trace"
	"tally/internal/services"
)

type Server struct {
	http.Server

	budget   *services.BudgetService
	habits   *services.HabitService
	importer *services.ImportService

	rateLimiter *ratelimit.Limiter

	// Overview is the expensive read; it walks full period history.
	overviewCache  *cache.LRU[*services.PeriodOverview]
	checklistCache *cache.LRU[[]services.HabitStatus]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, budget *services.BudgetService, habits *services.HabitService, importer *services.ImportService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		budget:         budget,
		habits:         habits,
		importer:       importer,
		rateLimiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		overviewCache:  cache.NewLRU[*services.PeriodOverview](100, time.Minute),
		checklistCache: cache.NewLRU[[]services.HabitStatus](100, time.Minute),
		cacheManager:   cache.NewManager(),
	}

	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.Register(s.checklistCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/periods/{key}", s.handlePeriodOverview)
	mux.HandleFunc("PUT /api/periods/{key}/income", s.handleSetIncome)
	mux.HandleFunc("PUT /api/periods/{key}/envelopes/{category}/{name}", s.handleAllocate)
	mux.HandleFunc("PATCH /api/periods/{key}/envelopes/{category}/{name}", s.handleIncrement)
	mux.HandleFunc("POST /api/periods/{key}/reset", s.handleResetPeriod)
	mux.HandleFunc("GET /api/periods/{key}/balances", s.handlePaymentMethodBalances)
	mux.HandleFunc("GET /api/payment-methods", s.handleListPaymentMethods)
	mux.HandleFunc("POST /api/payment-methods", s.handleAddPaymentMethod)

	mux.HandleFunc("POST /api/periods/{key}/transactions", s.handleAddTransaction)
	mux.HandleFunc("DELETE /api/periods/{key}/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("PATCH /api/periods/{key}/transactions/{id}", s.handleCorrectPaymentMethod)
	mux.HandleFunc("POST /api/periods/{key}/transfers", s.handleTransfer)
	mux.HandleFunc("GET /api/periods/{key}/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	mux.HandleFunc("GET /api/habits", s.handleListHabits)
	mux.HandleFunc("POST /api/habits", s.handleCreateHabit)
	mux.HandleFunc("PUT /api/habits/{id}", s.handleUpdateHabit)
	mux.HandleFunc("DELETE /api/habits/{id}", s.handleDeleteHabit)
	mux.HandleFunc("POST /api/habits/{id}/logs", s.handleLogHabit)
	mux.HandleFunc("DELETE /api/habits/{id}/logs/{date}", s.handleUnlogHabit)
	mux.HandleFunc("GET /api/habits/{id}/streaks", s.handleStreaks)
	mux.HandleFunc("GET /api/checklist", s.handleChecklist)
	mux.HandleFunc("GET /api/consistency", s.handleConsistency)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("GET /api/goals/{id}", s.handleGetGoal)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("PUT /api/goals/{id}/progress", s.handleGoalProgress)
	mux.HandleFunc("POST /api/milestones/{id}/complete", s.handleCompleteMilestone)

	requestLog := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	limited := s.rateLimiter.Middleware(clientIP, nil)
	s.Handler = applog.Middleware(requestLog)(trace.Middleware(clientIP)(limited(mux)))

	return s
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// invalidateDerived drops cached views after any write.
func (s *Server) invalidateDerived() {
	s.overviewCache.Purge()
	s.checklistCache.Purge()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the server and its background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
