package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"biketour-planner/internal/api"
	"biketour-planner/internal/app"
	"biketour-planner/internal/config"

	"github.com/joho/godotenv"
)

// main is the HTTP entry point. Composition lives in internal/app.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	a, err := app.Build(context.Background(), cfg, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	router := api.NewRouter(a.Planner)

	// Timeouts are tuned for cold caches: a forecast refresh calls the
	// weather API once per route cluster.
	log.Printf("Server listening addr=:%s route=%s", cfg.Port, cfg.RoutePath)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		a.Close()
		log.Fatal(err)
	}
}
