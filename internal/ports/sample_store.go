package ports

import (
	"context"
	"time"

	"biketour-planner/internal/domain"
)

// Filter for reading cached samples. Zero values mean "no restriction".
// From is inclusive, To is exclusive.
type SampleQuery struct {
	Types       []domain.SampleType
	From        time.Time
	To          time.Time
	Coordinates []domain.Coordinates
}

// Persistent cache of weather samples.
type SampleStore interface {
	// Insert or replace samples keyed by (time, coordinate, type, fetch time).
	Upsert(ctx context.Context, samples []domain.WeatherSample) error
	// Report whether every coordinate has a sample fetched less than expireAge before now.
	IsFresh(ctx context.Context, coords []domain.Coordinates, now time.Time, expireAge time.Duration) (bool, error)
	// Delete samples fetched more than purgeAge away from now.
	PurgeOlderThan(ctx context.Context, now time.Time, purgeAge time.Duration) (int64, error)
	Query(ctx context.Context, q SampleQuery) ([]domain.WeatherSample, error)
	// Distinct sample timestamps of the given type, ascending.
	SampleTimes(ctx context.Context, t domain.SampleType) ([]time.Time, error)
}

// Persistent schedule of historical (coordinate, day) queries.
type ScheduleStore interface {
	CountSchedule(ctx context.Context, queried *bool) (int, error)
	// Insert entries, ignoring ones whose (time, coordinate) already exists.
	SaveSchedule(ctx context.Context, entries []domain.QueryScheduleEntry) error
	ListSchedule(ctx context.Context, queried *bool) ([]domain.QueryScheduleEntry, error)
	// Store the samples and flip the entry's flag in one transaction.
	CompleteScheduleEntry(ctx context.Context, entry domain.QueryScheduleEntry, samples []domain.WeatherSample) error
}
