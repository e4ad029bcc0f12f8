package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"biketour-planner/internal/adapters/cache"
	"biketour-planner/internal/adapters/route"
	"biketour-planner/internal/domain"
	"biketour-planner/internal/platform/db"
)

func openCache(t *testing.T, withSchedule bool) *cache.SQLWeatherCache {
	t.Helper()

	database, err := db.Open(db.DriverSQLite, db.SQLiteDSN(filepath.Join(t.TempDir(), "weather.db")))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := cache.InitSchema(context.Background(), database, withSchedule); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	return cache.NewSQLWeatherCache(database, db.DriverSQLite)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// clock is a settable time source for tests that advance time.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func f64(v float64) *float64 { return &v }

// mildWeather is a complete sample with a light southerly wind.
func mildWeather(c domain.Coordinates, at, fetched time.Time, typ domain.SampleType) domain.WeatherSample {
	return domain.WeatherSample{
		Coordinates: c,
		Time:        at,
		Type:        typ,
		FetchedAt:   fetched,
		WeatherFields: domain.WeatherFields{
			Temperature: f64(15),
			Pressure:    f64(1013.25),
			WindSpeed:   f64(2),
			WindBearing: f64(180),
			Humidity:    f64(0.6),
		},
	}
}

// climbRoute is three waypoints about 1.1 km apart heading north and rising
// 10 m each, all inside one cluster.
func climbRoute(t *testing.T) *route.Route {
	t.Helper()

	e0, e1, e2 := 30.0, 40.0, 50.0
	r, err := route.FromWaypoints([]domain.Waypoint{
		{Index: 0, Lat: 52.50, Lon: 13.40, Elevation: &e0},
		{Index: 1, Lat: 52.51, Lon: 13.40, Elevation: &e1},
		{Index: 2, Lat: 52.52, Lon: 13.40, Elevation: &e2},
	}, route.DefaultClusterDistance)
	if err != nil {
		t.Fatalf("build route: %v", err)
	}
	return r
}

func newSimulator(t *testing.T, r *route.Route) *JourneySimulator {
	t.Helper()

	sim, err := NewJourneySimulator(r, domain.DefaultRiderParams(), SimulatorOptions{})
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	return sim
}
