package handlers

import (
	"log"
	"net/http"

	"biketour-planner/internal/api/dto"
)

// Backfill handles POST /weather/historical/backfill. Progress made before a
// failure is reported together with the error.
func (h *PlanHandler) Backfill(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	h.mu.Lock()
	res, err := h.Planner.Backfill(r.Context())
	h.mu.Unlock()

	body := dto.BackfillResponse{Done: res.Done, Remaining: res.Remaining}
	if err != nil {
		status := statusFor(err)
		log.Printf("backfill stopped: done=%d remaining=%d err=%v", res.Done, res.Remaining, err)
		body.Error = errorMessage(status, err)
		writeJSON(w, r, status, body)
		return
	}

	writeJSON(w, r, http.StatusOK, body)
}

// Purge handles POST /weather/forecast/purge.
func (h *PlanHandler) Purge(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	h.mu.Lock()
	n, err := h.Planner.PurgeForecast(r.Context())
	h.mu.Unlock()

	if err != nil {
		log.Printf("purge forecast failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.PurgeResponse{Deleted: n})
}
