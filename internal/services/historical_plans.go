package services

import (
	"context"
	"fmt"
	"iter"
	"log"
	"time"

	"biketour-planner/internal/domain"
	"biketour-planner/internal/ports"
)

// HistoricalPlans yields one plan per calendar day (in loc) present in the
// historical cache, oldest first, each simulated at departureHour against
// that day's samples.
//
// Days whose simulation fails with a numeric model or coverage error are
// skipped. Any other error is yielded once and ends the sequence. Every
// range over the sequence reads the cache again.
func HistoricalPlans(
	ctx context.Context,
	store ports.SampleStore,
	sim *JourneySimulator,
	departureHour int,
	loc *time.Location,
) iter.Seq2[*domain.Plan, error] {
	if loc == nil {
		loc = time.UTC
	}

	return func(yield func(*domain.Plan, error) bool) {
		times, err := store.SampleTimes(ctx, domain.SampleHistorical)
		if err != nil {
			yield(nil, fmt.Errorf("historical plans: %w", err))
			return
		}

		for _, day := range distinctDays(times, loc) {
			if err := ctx.Err(); err != nil {
				yield(nil, fmt.Errorf("historical plans: %w", err))
				return
			}

			samples, err := store.Query(ctx, ports.SampleQuery{
				Types: []domain.SampleType{domain.SampleHistorical},
				From:  day,
				To:    day.AddDate(0, 0, 1),
			})
			if err != nil {
				yield(nil, fmt.Errorf("historical plans: day %s: %w", day.Format(time.DateOnly), err))
				return
			}

			plan, err := sim.Simulate(departureHour, samples)
			if err != nil {
				if domain.IsPlanFailure(err) {
					log.Printf("skipping historical day day=%s err=%v", day.Format(time.DateOnly), err)
					continue
				}
				yield(nil, fmt.Errorf("historical plans: day %s: %w", day.Format(time.DateOnly), err))
				return
			}

			if !yield(plan, nil) {
				return
			}
		}
	}
}

// distinctDays maps ascending timestamps to the ascending midnights of
// their calendar days in loc.
func distinctDays(times []time.Time, loc *time.Location) []time.Time {
	out := make([]time.Time, 0, len(times)/24+1)
	for _, t := range times {
		y, m, d := t.In(loc).Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		if n := len(out); n > 0 && out[n-1].Equal(day) {
			continue
		}
		out = append(out, day)
	}
	return out
}
