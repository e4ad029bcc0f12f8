package handlers

import (
	"context"
	"iter"
	"log"
	"net/http"
	"strconv"
	"sync"

	"biketour-planner/internal/api/dto"
	"biketour-planner/internal/domain"
	"biketour-planner/internal/services"
)

const maxHistoricalPlans = 500

// Planner is what the plan endpoints need from the service layer.
type Planner interface {
	ForecastPlan(ctx context.Context, dayOffset int) (*domain.Plan, error)
	HistoricalPlans(ctx context.Context) iter.Seq2[*domain.Plan, error]
	Backfill(ctx context.Context) (services.BackfillResult, error)
	PurgeForecast(ctx context.Context) (int64, error)
}

// PlanHandler serves plans and weather maintenance. Requests are handled one
// at a time since the planner and its stores are single-threaded.
type PlanHandler struct {
	Planner Planner

	mu sync.Mutex
}

// Forecast handles GET /plans/forecast?day=N (default 1, tomorrow).
func (h *PlanHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	day := 1
	if v := r.URL.Query().Get("day"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 7 {
			writeError(w, r, http.StatusBadRequest, "day must be between 0 and 7")
			return
		}
		day = n
	}

	h.mu.Lock()
	plan, err := h.Planner.ForecastPlan(r.Context(), day)
	h.mu.Unlock()

	if err != nil && (plan == nil || len(plan.Steps) == 0 || !domain.IsPlanFailure(err)) {
		status := statusFor(err)
		log.Printf("forecast plan failed: day=%d status=%d err=%v", day, status, err)
		writeError(w, r, status, errorMessage(status, err))
		return
	}

	res := dto.NewPlanResponse(plan)
	if err != nil {
		res.Error = err.Error()
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Historical handles GET /plans/historical?limit=N.
func (h *PlanHandler) Historical(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	limit := maxHistoricalPlans
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoricalPlans {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	res := dto.ListPlanResponse{Plans: make([]dto.PlanResponse, 0)}
	for plan, err := range h.Planner.HistoricalPlans(r.Context()) {
		if err != nil {
			log.Printf("historical plans failed: %v", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
		res.Plans = append(res.Plans, dto.NewPlanResponse(plan))
		if len(res.Plans) >= limit {
			break
		}
	}

	writeJSON(w, r, http.StatusOK, res)
}
