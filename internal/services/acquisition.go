package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"biketour-planner/internal/domain"
	"biketour-planner/internal/ports"
)

// AcquisitionManager is the only component that calls the weather provider.
// Every call is admitted by the shared Quota first and accounted for after it
// succeeds.
//
// Not safe for concurrent use.
type AcquisitionManager struct {
	provider ports.WeatherProvider
	store    ports.SampleStore
	quota    *Quota
	units    string
	now      func() time.Time
}

func NewAcquisitionManager(
	provider ports.WeatherProvider,
	store ports.SampleStore,
	quota *Quota,
	units string,
	now func() time.Time,
) *AcquisitionManager {
	if now == nil {
		now = time.Now
	}
	return &AcquisitionManager{
		provider: provider,
		store:    store,
		quota:    quota,
		units:    units,
		now:      now,
	}
}

// Usage is the number of provider calls counted in the current UTC day.
func (m *AcquisitionManager) Usage() int { return m.quota.Usage() }

// call runs one admitted provider request and accounts for it.
func (m *AcquisitionManager) call(ctx context.Context, req ports.FetchRequest) (*ports.ForecastResponse, error) {
	if err := m.quota.Admit(); err != nil {
		return nil, err
	}

	resp, err := m.provider.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	m.quota.Record(resp.UsageCount)
	return resp, nil
}

// IsFresh reports whether every coordinate has a sample fetched within expireAge.
func (m *AcquisitionManager) IsFresh(ctx context.Context, coords []domain.Coordinates, expireAge time.Duration) (bool, error) {
	fresh, err := m.store.IsFresh(ctx, coords, m.now(), expireAge)
	if err != nil {
		return false, fmt.Errorf("is fresh: %w", err)
	}
	return fresh, nil
}

// FetchIfNeeded refreshes the forecast for coords when the cache is stale.
// Coordinates are fetched one at a time; the first failure ends the loop and
// samples stored before it stay committed. It returns the number of
// coordinates fetched.
func (m *AcquisitionManager) FetchIfNeeded(ctx context.Context, coords []domain.Coordinates, expireAge time.Duration) (int, error) {
	fresh, err := m.IsFresh(ctx, coords, expireAge)
	if err != nil {
		return 0, fmt.Errorf("fetch if needed: %w", err)
	}
	if fresh {
		return 0, nil
	}

	for i, c := range coords {
		log.Printf("fetching forecast coord=%s remaining=%d", c, len(coords)-i)
		if _, err := m.FetchForecast(ctx, c); err != nil {
			return i, fmt.Errorf("fetch if needed: coordinate %d of %d: %w", i+1, len(coords), err)
		}
	}

	return len(coords), nil
}

// FetchForecast queries the current forecast at c and stores its hourly and
// daily data points stamped with the fetch time.
func (m *AcquisitionManager) FetchForecast(ctx context.Context, c domain.Coordinates) ([]domain.WeatherSample, error) {
	resp, err := m.call(ctx, ports.FetchRequest{Coordinates: c, Units: m.units})
	if err != nil {
		return nil, fmt.Errorf("fetch forecast %s: %w", c, err)
	}

	fetchedAt := m.now().UTC().Truncate(time.Second)
	samples := make([]domain.WeatherSample, 0, len(resp.Hourly)+len(resp.Daily))
	samples = appendSamples(samples, c, resp.Hourly, domain.SampleHourly, fetchedAt)
	samples = appendSamples(samples, c, resp.Daily, domain.SampleDaily, fetchedAt)

	if err := m.store.Upsert(ctx, samples); err != nil {
		return nil, fmt.Errorf("fetch forecast %s: %w", c, err)
	}

	return samples, nil
}

// FetchAt queries the recorded weather of the day around at. The hourly data
// points come back as historical samples; storing them is left to the caller.
func (m *AcquisitionManager) FetchAt(ctx context.Context, c domain.Coordinates, at time.Time) ([]domain.WeatherSample, error) {
	resp, err := m.call(ctx, ports.FetchRequest{Coordinates: c, Time: &at, Units: m.units})
	if err != nil {
		return nil, fmt.Errorf("fetch at %s time=%d: %w", c, at.Unix(), err)
	}

	fetchedAt := m.now().UTC().Truncate(time.Second)
	return appendSamples(make([]domain.WeatherSample, 0, len(resp.Hourly)), c, resp.Hourly, domain.SampleHistorical, fetchedAt), nil
}

func appendSamples(
	dst []domain.WeatherSample,
	c domain.Coordinates,
	points []ports.DataPoint,
	t domain.SampleType,
	fetchedAt time.Time,
) []domain.WeatherSample {
	for _, p := range points {
		dst = append(dst, domain.WeatherSample{
			Coordinates:   c,
			Time:          time.Unix(p.Time, 0).UTC(),
			Type:          t,
			FetchedAt:     fetchedAt,
			WeatherFields: p.WeatherFields,
		})
	}
	return dst
}
