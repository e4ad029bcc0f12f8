package services

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"biketour-planner/internal/domain"
	"biketour-planner/internal/geo"
	"biketour-planner/internal/ports"

	"github.com/go-playground/validator/v10"
)

// DefaultMatchTolerance is the widest gap between a target time and the
// weather sample matched to it.
const DefaultMatchTolerance = time.Hour

var validate = validator.New()

// JourneySimulator rides a route at constant power through a set of weather
// samples.
type JourneySimulator struct {
	route     ports.RouteProvider
	rider     domain.RiderParams
	tolerance time.Duration
	loc       *time.Location
}

type SimulatorOptions struct {
	// Matching tolerance; zero means DefaultMatchTolerance.
	Tolerance time.Duration
	// Zone in which departure hours are read; nil means UTC.
	Location *time.Location
}

func NewJourneySimulator(route ports.RouteProvider, rider domain.RiderParams, opts SimulatorOptions) (*JourneySimulator, error) {
	if route == nil {
		return nil, errors.New("new journey simulator: route is nil")
	}
	if err := validate.Struct(rider); err != nil {
		return nil, fmt.Errorf("new journey simulator: rider params: %w", err)
	}

	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultMatchTolerance
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &JourneySimulator{
		route:     route,
		rider:     rider,
		tolerance: opts.Tolerance,
		loc:       opts.Location,
	}, nil
}

func (s *JourneySimulator) Rider() domain.RiderParams { return s.rider }

// Simulate departs at the sample timestamp whose hour of day is nearest
// departureHour and walks the waypoints in order.
//
// On failure the returned plan is marked incomplete and holds every step
// computed so far; the error wraps domain.ErrNumericModel or
// domain.ErrInsufficientWeatherCoverage.
func (s *JourneySimulator) Simulate(departureHour int, weather []domain.WeatherSample) (*domain.Plan, error) {
	wps := s.route.Waypoints()
	plan := &domain.Plan{Status: domain.PlanIncomplete, Steps: make([]domain.PlanStep, 0, len(wps))}

	if len(wps) == 0 {
		plan.Status = domain.PlanComplete
		return plan, nil
	}

	t0, ok := s.departureTime(departureHour, weather)
	if !ok {
		return plan, fmt.Errorf("simulate: no weather samples: %w", domain.ErrInsufficientWeatherCoverage)
	}
	plan.DepartAt = t0

	first, err := s.matchWeather(weather, wps[0].Coordinates(), t0)
	if err != nil {
		return plan, fmt.Errorf("simulate: waypoint 0: %w", err)
	}
	plan.Steps = append(plan.Steps, domain.PlanStep{Waypoint: wps[0], Weather: first, ArriveAt: t0})

	for _, wp := range wps[1:] {
		prev := plan.Steps[len(plan.Steps)-1]

		travel, err := s.travelTime(prev, wp)
		if err != nil {
			return plan, fmt.Errorf("simulate: waypoint %d: %w", wp.Index, err)
		}

		arrive := prev.ArriveAt.Add(travel)
		w, err := s.matchWeather(weather, wp.Coordinates(), arrive)
		if err != nil {
			return plan, fmt.Errorf("simulate: waypoint %d: %w", wp.Index, err)
		}

		plan.Steps = append(plan.Steps, domain.PlanStep{Waypoint: wp, Weather: w, ArriveAt: arrive})
	}

	plan.Status = domain.PlanComplete
	return plan, nil
}

// departureTime picks among the distinct sample timestamps the one whose hour
// of day is closest to hour, earliest first on ties.
func (s *JourneySimulator) departureTime(hour int, weather []domain.WeatherSample) (time.Time, bool) {
	if len(weather) == 0 {
		return time.Time{}, false
	}

	times := make([]time.Time, 0, len(weather))
	for _, w := range weather {
		times = append(times, w.Time)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	best := times[0]
	bestDiff := math.MaxInt
	for _, t := range times {
		d := t.In(s.loc).Hour() - hour
		if d < 0 {
			d = -d
		}
		if d < bestDiff {
			best, bestDiff = t, d
		}
	}

	return best, true
}

// travelTime solves the speed model for the segment prev -> wp using the
// weather matched at prev.
func (s *JourneySimulator) travelTime(prev domain.PlanStep, wp domain.Waypoint) (time.Duration, error) {
	from, to := prev.Waypoint.Coordinates(), wp.Coordinates()

	dist := geo.Distance(from, to)
	if dist == 0 {
		return 0, nil
	}

	w := prev.Weather
	if w.WindSpeed == nil || w.WindBearing == nil {
		return 0, fmt.Errorf("sample at %s %s has no wind: %w", w.Time.Format(time.RFC3339), w.Coordinates, domain.ErrNumericModel)
	}

	headwind := geo.HeadwindComponent(geo.Bearing(from, to), *w.WindSpeed, *w.WindBearing)

	slope := 0.0
	if prev.Waypoint.Elevation != nil && wp.Elevation != nil {
		slope = (*wp.Elevation - *prev.Waypoint.Elevation) / dist
	}

	cond, err := ConditionsFromSample(w, headwind, slope)
	if err != nil {
		return 0, err
	}

	v, err := SolveSpeed(s.rider, cond)
	if err != nil {
		return 0, err
	}

	secs := dist / v
	if secs > maxTravelSeconds {
		return 0, fmt.Errorf("segment of %.0fm at %g m/s takes too long: %w", dist, v, domain.ErrNumericModel)
	}

	return time.Duration(secs * float64(time.Second)), nil
}

// Longest segment travel time a time.Duration can hold.
var maxTravelSeconds = float64(math.MaxInt64) / float64(time.Second)

// sameTimeWindow groups samples whose distance to the target differs by less
// than this from the best one.
const sameTimeWindow = time.Second

// matchWeather returns the sample nearest to target in time, within the
// tolerance. Ties go to the sample nearest to c, then to the latest fetch.
func (s *JourneySimulator) matchWeather(weather []domain.WeatherSample, c domain.Coordinates, target time.Time) (domain.WeatherSample, error) {
	best := time.Duration(math.MaxInt64)
	for _, w := range weather {
		if d := absDuration(w.Time.Sub(target)); d < best {
			best = d
		}
	}

	if best > s.tolerance {
		return domain.WeatherSample{}, fmt.Errorf(
			"match weather at %s %s: nearest sample %v away, tolerance %v: %w",
			target.Format(time.RFC3339), c, best, s.tolerance, domain.ErrInsufficientWeatherCoverage,
		)
	}

	var (
		match     domain.WeatherSample
		matchDist = math.Inf(1)
		found     bool
	)
	for _, w := range weather {
		if absDuration(w.Time.Sub(target))-best >= sameTimeWindow {
			continue
		}

		d := geo.Distance(c, w.Coordinates)
		switch {
		case !found, d < matchDist:
			match, matchDist, found = w, d, true
		case d == matchDist && w.FetchedAt.After(match.FetchedAt):
			match = w
		}
	}

	return match, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
