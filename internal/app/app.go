// Package app is the composition root shared by the server and the CLI.
// It wires concrete adapters (route file, weather API, cache databases)
// behind ports and returns a ready Planner.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"biketour-planner/internal/adapters/cache"
	"biketour-planner/internal/adapters/route"
	"biketour-planner/internal/adapters/weatherapi"
	"biketour-planner/internal/config"
	"biketour-planner/internal/domain"
	"biketour-planner/internal/platform/db"
	"biketour-planner/internal/services"
)

type App struct {
	Config  *config.Config
	Planner *services.Planner

	forecastDB   *sql.DB
	historicalDB *sql.DB
}

// Build opens both caches, creates their schema and assembles the planner.
// Clock defaults to time.Now.
func Build(ctx context.Context, cfg *config.Config, clock func() time.Time) (_ *App, err error) {
	if clock == nil {
		clock = time.Now
	}

	r, err := route.New(cfg.RoutePath, cfg.ClusterMaxDistance)
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}
	coords := domain.ClusterCoordinates(r.ClusteredCoordinates())
	log.Printf("route loaded: path=%s waypoints=%d clusters=%d", r.Path(), len(r.Waypoints()), len(coords))

	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.forecastDB, err = openCache(ctx, cfg.DBDriver, cfg.ForecastDSN(), false)
	if err != nil {
		return nil, fmt.Errorf("build app: forecast cache: %w", err)
	}
	a.historicalDB, err = openCache(ctx, cfg.DBDriver, cfg.HistoricalDSN(), true)
	if err != nil {
		return nil, fmt.Errorf("build app: historical cache: %w", err)
	}

	forecastStore := cache.NewSQLWeatherCache(a.forecastDB, cfg.DBDriver)
	historicalStore := cache.NewSQLWeatherCache(a.historicalDB, cfg.DBDriver)

	client, err := weatherapi.NewClient(cfg.WeatherAPIKey, weatherapi.WithBaseURL(cfg.WeatherAPIURL))
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}

	// Both caches call the provider with one API key and share its quota.
	quota := services.NewQuota(cfg.WeatherCallsLimit, clock)
	forecastAcq := services.NewAcquisitionManager(client, forecastStore, quota, cfg.WeatherUnits, clock)
	historicalAcq := services.NewAcquisitionManager(client, historicalStore, quota, cfg.WeatherUnits, clock)

	forecast := services.NewForecastWeather(forecastAcq, forecastStore, coords, services.ForecastOptions{
		ExpireAge: cfg.ForecastExpireAge,
		PurgeAge:  cfg.ForecastPurgeAge,
		Location:  cfg.Location,
	}, clock)

	var rng *rand.Rand
	if cfg.SampleSeed != nil {
		rng = rand.New(rand.NewPCG(*cfg.SampleSeed, *cfg.SampleSeed))
	}
	sampler := services.NewHistoricalSampler(historicalAcq, historicalStore, coords, services.SamplerOptions{
		SampleSize:     cfg.SampleSize,
		SampleYears:    cfg.SampleYears,
		AroundInterval: cfg.SampleAroundInterval,
		Location:       cfg.Location,
	}, rng, clock)

	sim, err := services.NewJourneySimulator(r, cfg.Rider, services.SimulatorOptions{Location: cfg.Location})
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}

	a.Planner, err = services.NewPlanner(services.PlannerDeps{
		Route:      r,
		Forecast:   forecast,
		Sampler:    sampler,
		Historical: historicalStore,
		Simulator:  sim,
	}, cfg.DepartureHour, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}

	return a, nil
}

func openCache(ctx context.Context, driver, dsn string, withSchedule bool) (*sql.DB, error) {
	conn, err := db.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := cache.InitSchema(ctx, conn, withSchedule); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Close releases both cache databases.
func (a *App) Close() {
	for _, conn := range []*sql.DB{a.forecastDB, a.historicalDB} {
		if conn == nil {
			continue
		}
		if err := conn.Close(); err != nil {
			log.Printf("close cache failed: %v", err)
		}
	}
}
