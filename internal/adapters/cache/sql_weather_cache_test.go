package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"biketour-planner/internal/domain"
	"biketour-planner/internal/platform/db"
	"biketour-planner/internal/ports"
)

func openTestCache(t *testing.T) *SQLWeatherCache {
	t.Helper()

	database, err := db.Open(db.DriverSQLite, db.SQLiteDSN(filepath.Join(t.TempDir(), "weather.db")))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := InitSchema(context.Background(), database, true); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	return NewSQLWeatherCache(database, db.DriverSQLite)
}

func f64(v float64) *float64 { return &v }

func str(s string) *string { return &s }

func sample(c domain.Coordinates, at, fetched time.Time, typ domain.SampleType, temp float64) domain.WeatherSample {
	return domain.WeatherSample{
		Coordinates: c,
		Time:        at,
		Type:        typ,
		FetchedAt:   fetched,
		WeatherFields: domain.WeatherFields{
			Temperature: f64(temp),
			Summary:     str("Clear"),
		},
	}
}

func countRows(t *testing.T, s *SQLWeatherCache) int {
	t.Helper()
	var n int
	if err := s.DB.QueryRow(`SELECT COUNT(*) FROM weather_samples`).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

var (
	berlin  = domain.Coordinates{Lat: 52.52, Lon: 13.405}
	potsdam = domain.Coordinates{Lat: 52.3906, Lon: 13.0645}
	base    = time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)
)

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestCache(t)

	first := sample(berlin, base, base, domain.SampleHourly, 14)
	if err := s.Upsert(ctx, []domain.WeatherSample{first}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := sample(berlin, base, base, domain.SampleHourly, 17.5)
	if err := s.Upsert(ctx, []domain.WeatherSample{second}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := countRows(t, s); n != 1 {
		t.Fatalf("rows = %d, want 1", n)
	}

	got, err := s.Query(ctx, ports.SampleQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Temperature == nil || *got[0].Temperature != 17.5 {
		t.Fatalf("temperature = %v, want latest value 17.5", got[0].Temperature)
	}

	// A different fetch time is a different key.
	third := sample(berlin, base, base.Add(time.Hour), domain.SampleHourly, 18)
	if err := s.Upsert(ctx, []domain.WeatherSample{third}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := countRows(t, s); n != 2 {
		t.Fatalf("rows = %d, want 2", n)
	}
}

func TestUpsertRejectsUnknownType(t *testing.T) {
	s := openTestCache(t)

	bad := sample(berlin, base, base, domain.SampleType("monthly"), 10)
	if err := s.Upsert(context.Background(), []domain.WeatherSample{bad}); err == nil {
		t.Fatal("expected error for unknown sample type")
	}
	if n := countRows(t, s); n != 0 {
		t.Fatalf("rows = %d, want 0 after rollback", n)
	}
}

func TestQueryKeepsNullFields(t *testing.T) {
	ctx := context.Background()
	s := openTestCache(t)

	sm := domain.WeatherSample{
		Coordinates: berlin,
		Time:        base,
		Type:        domain.SampleHistorical,
		FetchedAt:   base,
		WeatherFields: domain.WeatherFields{
			WindSpeed:   f64(0),
			SunriseTime: func() *int64 { v := int64(1780000000); return &v }(),
		},
	}
	if err := s.Upsert(ctx, []domain.WeatherSample{sm}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Query(ctx, ports.SampleQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}

	w := got[0]
	if w.Temperature != nil || w.Summary != nil || w.Pressure != nil {
		t.Fatalf("missing fields must stay nil, got temperature=%v summary=%v pressure=%v", w.Temperature, w.Summary, w.Pressure)
	}
	if w.WindSpeed == nil || *w.WindSpeed != 0 {
		t.Fatalf("wind speed = %v, want explicit 0", w.WindSpeed)
	}
	if w.SunriseTime == nil || *w.SunriseTime != 1780000000 {
		t.Fatalf("sunrise = %v", w.SunriseTime)
	}
	if !w.Time.Equal(base) || w.Type != domain.SampleHistorical {
		t.Fatalf("unexpected key fields: %+v", w)
	}
}

func TestQueryFilters(t *testing.T) {
	ctx := context.Background()
	s := openTestCache(t)

	samples := []domain.WeatherSample{
		sample(berlin, base, base, domain.SampleHourly, 10),
		sample(berlin, base.Add(time.Hour), base, domain.SampleHourly, 11),
		sample(potsdam, base, base, domain.SampleHourly, 12),
		sample(berlin, base, base, domain.SampleDaily, 13),
	}
	if err := s.Upsert(ctx, samples); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name string
		q    ports.SampleQuery
		want int
	}{
		{"all", ports.SampleQuery{}, 4},
		{"hourly", ports.SampleQuery{Types: []domain.SampleType{domain.SampleHourly}}, 3},
		{"from inclusive", ports.SampleQuery{From: base.Add(time.Hour)}, 1},
		{"to exclusive", ports.SampleQuery{To: base.Add(time.Hour)}, 3},
		{"coordinate", ports.SampleQuery{Coordinates: []domain.Coordinates{potsdam}}, 1},
		{"combined", ports.SampleQuery{
			Types:       []domain.SampleType{domain.SampleHourly},
			Coordinates: []domain.Coordinates{berlin},
			From:        base,
			To:          base.Add(2 * time.Hour),
		}, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Query(ctx, tc.q)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("len = %d, want %d", len(got), tc.want)
			}
		})
	}
}

func TestIsFreshChecksEveryCoordinate(t *testing.T) {
	ctx := context.Background()
	s := openTestCache(t)

	now := base.Add(24 * time.Hour)
	expire := 12 * time.Hour
	coords := []domain.Coordinates{berlin, potsdam}

	fresh, err := s.IsFresh(ctx, coords, now, expire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh {
		t.Fatal("empty cache must not be fresh")
	}

	if err := s.Upsert(ctx, []domain.WeatherSample{
		sample(berlin, now, now.Add(-time.Hour), domain.SampleHourly, 10),
		sample(potsdam, now, now.Add(-2*time.Hour), domain.SampleHourly, 10),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fresh, err = s.IsFresh(ctx, coords, now, expire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fresh {
		t.Fatal("expected fresh cache")
	}

	// Ageing potsdam's only sample flips the result even with several fresh berlin rows.
	later := now.Add(11 * time.Hour)
	if err := s.Upsert(ctx, []domain.WeatherSample{
		sample(berlin, now.Add(time.Hour), later, domain.SampleHourly, 10),
		sample(berlin, now.Add(2*time.Hour), later, domain.SampleHourly, 10),
		sample(berlin, now.Add(3*time.Hour), later, domain.SampleHourly, 10),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fresh, err = s.IsFresh(ctx, coords, later, expire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh {
		t.Fatal("stale coordinate must make the cache stale")
	}
}

func TestPurgeOlderThan(t *testing.T) {
	ctx := context.Background()
	s := openTestCache(t)

	now := base.Add(30 * 24 * time.Hour)
	purgeAge := 240 * time.Hour

	if err := s.Upsert(ctx, []domain.WeatherSample{
		sample(berlin, now, now.Add(-300*time.Hour), domain.SampleHourly, 1),
		sample(berlin, now, now.Add(-241*time.Hour), domain.SampleDaily, 2),
		sample(potsdam, now, now.Add(-239*time.Hour), domain.SampleHourly, 3),
		sample(potsdam, now, now, domain.SampleHourly, 4),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := s.PurgeOlderThan(ctx, now, purgeAge)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("purged = %d, want 2", n)
	}

	left, err := s.Query(ctx, ports.SampleQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(left) != 2 {
		t.Fatalf("remaining = %d, want 2", len(left))
	}
	for _, sm := range left {
		if age := now.Sub(sm.FetchedAt); age > purgeAge || age < -purgeAge {
			t.Fatalf("sample fetched %v before purge time survived", age)
		}
	}
}

func TestSampleTimes(t *testing.T) {
	ctx := context.Background()
	s := openTestCache(t)

	if err := s.Upsert(ctx, []domain.WeatherSample{
		sample(potsdam, base.Add(time.Hour), base, domain.SampleHistorical, 1),
		sample(berlin, base, base, domain.SampleHistorical, 1),
		sample(potsdam, base, base, domain.SampleHistorical, 1),
		sample(berlin, base.Add(-time.Hour), base, domain.SampleHourly, 1),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.SampleTimes(ctx, domain.SampleHistorical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || !got[0].Equal(base) || !got[1].Equal(base.Add(time.Hour)) {
		t.Fatalf("times = %v", got)
	}
}

func TestScheduleLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestCache(t)

	entries := []domain.QueryScheduleEntry{
		{Time: base, Coordinates: berlin},
		{Time: base, Coordinates: potsdam},
		{Time: base.AddDate(-1, 0, 0), Coordinates: berlin},
	}
	if err := s.SaveSchedule(ctx, entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Saving again must not duplicate or reset anything.
	if err := s.SaveSchedule(ctx, entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total, err := s.CountSchedule(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}

	pending, err := s.ListSchedule(ctx, ptrBool(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 3 || !pending[0].Time.Equal(base.AddDate(-1, 0, 0)) {
		t.Fatalf("pending = %+v", pending)
	}

	fetched := []domain.WeatherSample{sample(berlin, base.Add(time.Hour), base, domain.SampleHistorical, 9)}
	if err := s.CompleteScheduleEntry(ctx, entries[0], fetched); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done, err := s.CountSchedule(ctx, ptrBool(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done != 1 {
		t.Fatalf("queried = %d, want 1", done)
	}
	if n := countRows(t, s); n != 1 {
		t.Fatalf("samples = %d, want 1", n)
	}

	missing := domain.QueryScheduleEntry{Time: base.AddDate(-5, 0, 0), Coordinates: berlin}
	err = s.CompleteScheduleEntry(ctx, missing, fetched)
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func ptrBool(b bool) *bool { return &b }
