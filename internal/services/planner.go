package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"biketour-planner/internal/domain"
	"biketour-planner/internal/ports"
)

// Planner joins a route, its forecast and historical weather caches and the
// journey simulator.
type Planner struct {
	route         ports.RouteProvider
	forecast      *ForecastWeather
	sampler       *HistoricalSampler
	historical    ports.SampleStore
	sim           *JourneySimulator
	departureHour int
	loc           *time.Location
}

type PlannerDeps struct {
	Route      ports.RouteProvider
	Forecast   *ForecastWeather
	Sampler    *HistoricalSampler
	Historical ports.SampleStore
	Simulator  *JourneySimulator
}

func NewPlanner(deps PlannerDeps, departureHour int, loc *time.Location) (*Planner, error) {
	if deps.Route == nil || deps.Forecast == nil || deps.Sampler == nil || deps.Historical == nil || deps.Simulator == nil {
		return nil, errors.New("new planner: missing dependency")
	}
	if departureHour < 0 || departureHour > 23 {
		return nil, fmt.Errorf("new planner: departure hour %d out of range", departureHour)
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Planner{
		route:         deps.Route,
		forecast:      deps.Forecast,
		sampler:       deps.Sampler,
		historical:    deps.Historical,
		sim:           deps.Simulator,
		departureHour: departureHour,
		loc:           loc,
	}, nil
}

func (p *Planner) Route() ports.RouteProvider { return p.route }

func (p *Planner) DepartureHour() int { return p.departureHour }

// ForecastPlan simulates the journey on the day dayOffset days from today
// with the current forecast. A failed simulation returns the partial plan
// together with the error, or no plan when not even the departure was found.
func (p *Planner) ForecastPlan(ctx context.Context, dayOffset int) (*domain.Plan, error) {
	weather, err := p.forecast.Forecast(ctx, dayOffset)
	if err != nil {
		return nil, fmt.Errorf("forecast plan: %w", err)
	}

	plan, err := p.sim.Simulate(p.departureHour, weather)
	if err != nil {
		if len(plan.Steps) == 0 {
			return nil, fmt.Errorf("forecast plan: day %+d: %w", dayOffset, err)
		}
		return plan, fmt.Errorf("forecast plan: day %+d: %w", dayOffset, err)
	}
	return plan, nil
}

func (p *Planner) HistoricalPlans(ctx context.Context) iter.Seq2[*domain.Plan, error] {
	return HistoricalPlans(ctx, p.historical, p.sim, p.departureHour, p.loc)
}

// InitSchedule samples the historical days unless a schedule already exists.
func (p *Planner) InitSchedule(ctx context.Context) (int, error) {
	return p.sampler.Init(ctx)
}

// Backfill makes sure the schedule exists and then queries pending entries.
func (p *Planner) Backfill(ctx context.Context) (BackfillResult, error) {
	if _, err := p.sampler.Init(ctx); err != nil {
		return BackfillResult{}, err
	}
	return p.sampler.Backfill(ctx)
}

func (p *Planner) PurgeForecast(ctx context.Context) (int64, error) {
	return p.forecast.Purge(ctx)
}
