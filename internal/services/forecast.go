package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"biketour-planner/internal/domain"
	"biketour-planner/internal/ports"
)

type ForecastOptions struct {
	// Cached forecasts fetched longer ago than this are refreshed.
	ExpireAge time.Duration
	// Purge deletes forecasts fetched longer ago than this.
	PurgeAge time.Duration
	// Zone that defines calendar days; nil means UTC.
	Location *time.Location
}

// ForecastWeather serves forecast samples for the route's cluster
// coordinates, refreshing the cache through the acquisition manager.
type ForecastWeather struct {
	acq    *AcquisitionManager
	store  ports.SampleStore
	coords []domain.Coordinates
	opts   ForecastOptions
	now    func() time.Time
}

func NewForecastWeather(
	acq *AcquisitionManager,
	store ports.SampleStore,
	coords []domain.Coordinates,
	opts ForecastOptions,
	now func() time.Time,
) *ForecastWeather {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &ForecastWeather{acq: acq, store: store, coords: coords, opts: opts, now: now}
}

// Refresh fetches a new forecast when the cache is stale.
func (f *ForecastWeather) Refresh(ctx context.Context) (int, error) {
	n, err := f.acq.FetchIfNeeded(ctx, f.coords, f.opts.ExpireAge)
	if err != nil {
		return n, fmt.Errorf("refresh forecast: %w", err)
	}
	return n, nil
}

// Forecast returns the samples of the calendar day dayOffset days from today,
// hourly when any exist and daily otherwise.
//
// A failed refresh is logged and the cached samples are used; it is returned
// only when the cache has nothing for that day or the store itself failed.
func (f *ForecastWeather) Forecast(ctx context.Context, dayOffset int) ([]domain.WeatherSample, error) {
	_, refreshErr := f.Refresh(ctx)
	if refreshErr != nil {
		if errors.Is(refreshErr, domain.ErrStore) {
			return nil, fmt.Errorf("forecast: %w", refreshErr)
		}
		log.Printf("forecast refresh incomplete, using cached samples err=%v", refreshErr)
	}

	from, to := f.day(dayOffset)

	for _, t := range []domain.SampleType{domain.SampleHourly, domain.SampleDaily} {
		samples, err := f.store.Query(ctx, ports.SampleQuery{
			Types:       []domain.SampleType{t},
			From:        from,
			To:          to,
			Coordinates: f.coords,
		})
		if err != nil {
			return nil, fmt.Errorf("forecast: query %s samples: %w", t, err)
		}
		if len(samples) > 0 {
			return samples, nil
		}
	}

	if refreshErr != nil {
		return nil, fmt.Errorf("forecast: no cached samples for %s: %w", from.Format(time.DateOnly), refreshErr)
	}

	return []domain.WeatherSample{}, nil
}

// day returns [midnight, next midnight) of the day dayOffset days from today.
func (f *ForecastWeather) day(dayOffset int) (time.Time, time.Time) {
	y, m, d := f.now().In(f.opts.Location).Date()
	from := time.Date(y, m, d+dayOffset, 0, 0, 0, 0, f.opts.Location)
	return from, from.AddDate(0, 0, 1)
}

// Purge deletes forecasts fetched more than PurgeAge ago.
func (f *ForecastWeather) Purge(ctx context.Context) (int64, error) {
	n, err := f.store.PurgeOlderThan(ctx, f.now(), f.opts.PurgeAge)
	if err != nil {
		return 0, fmt.Errorf("purge forecast: %w", err)
	}
	log.Printf("purged forecast samples count=%d purge_age=%s", n, f.opts.PurgeAge)
	return n, nil
}
