package api

import (
	"net/http"

	"biketour-planner/internal/api/handlers"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers only see the Planner interface, never the concrete stores.
func NewRouter(planner handlers.Planner) http.Handler {
	mux := http.NewServeMux()

	planHandler := &handlers.PlanHandler{Planner: planner}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/plans/forecast", planHandler.Forecast)
	mux.HandleFunc("/plans/historical", planHandler.Historical)
	mux.HandleFunc("/weather/historical/backfill", planHandler.Backfill)
	mux.HandleFunc("/weather/forecast/purge", planHandler.Purge)

	return loggingMiddleware(mux)
}
