package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"biketour-planner/internal/domain"
	"biketour-planner/internal/platform/db"
	"biketour-planner/internal/platform/obs"
	"biketour-planner/internal/ports"
)

// SQLWeatherCache is a SQL-backed store of weather samples and, for
// historical caches, of the query schedule.
// Queries are written with '?' placeholders and rebound for the driver.
type SQLWeatherCache struct {
	DB     *sql.DB
	Driver string
}

var (
	_ ports.SampleStore   = (*SQLWeatherCache)(nil)
	_ ports.ScheduleStore = (*SQLWeatherCache)(nil)
)

func NewSQLWeatherCache(database *sql.DB, driver string) *SQLWeatherCache {
	return &SQLWeatherCache{DB: database, Driver: driver}
}

func (s *SQLWeatherCache) rebind(q string) string { return db.Rebind(s.Driver, q) }

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
}

func upsertSamplesQuery() string {
	names := sampleColumnNames()

	sets := make([]string, 0, len(weatherColumns))
	for _, c := range weatherColumns {
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", c.name, c.name))
	}

	return `
	INSERT INTO weather_samples (` + strings.Join(names, ", ") + `)
	VALUES (` + placeholders(len(names)) + `)
	ON CONFLICT (sample_time, latitude, longitude, sample_type, fetched_at) DO UPDATE
	SET ` + strings.Join(sets, ",\n\t\t") + `;
	`
}

func sampleArgs(sm *domain.WeatherSample) []any {
	args := make([]any, 0, len(keyColumns)+len(weatherColumns))
	args = append(args,
		string(sm.Type),
		sm.FetchedAt.Unix(),
		sm.Coordinates.Lat,
		sm.Coordinates.Lon,
		sm.Time.Unix(),
	)
	for _, c := range weatherColumns {
		args = append(args, c.value(&sm.WeatherFields))
	}
	return args
}

// Insert or replace samples in one transaction.
func (s *SQLWeatherCache) Upsert(ctx context.Context, samples []domain.WeatherSample) (err error) {
	defer obs.Time(ctx, "weather.cache.Upsert")(&err)

	if s.DB == nil {
		return errors.New("weather cache: db is nil")
	}

	if len(samples) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return storeError("upsert samples: db begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.upsertTx(ctx, tx, samples); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("upsert samples commit", err)
	}

	return nil
}

func (s *SQLWeatherCache) upsertTx(ctx context.Context, tx *sql.Tx, samples []domain.WeatherSample) error {
	stmt, err := tx.PrepareContext(ctx, s.rebind(upsertSamplesQuery()))
	if err != nil {
		return storeError("upsert samples: db prepare", err)
	}
	defer stmt.Close()

	for i := range samples {
		sm := &samples[i]
		if _, err := domain.ParseSampleType(string(sm.Type)); err != nil {
			return fmt.Errorf("upsert samples: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, sampleArgs(sm)...); err != nil {
			return storeError(fmt.Sprintf("upsert sample time=%d coord=%s", sm.Time.Unix(), sm.Coordinates), err)
		}
	}

	return nil
}

// IsFresh checks every coordinate separately: each must have at least one
// sample whose fetch time is closer than expireAge to now.
func (s *SQLWeatherCache) IsFresh(
	ctx context.Context,
	coords []domain.Coordinates,
	now time.Time,
	expireAge time.Duration,
) (_ bool, err error) {
	defer obs.Time(ctx, "weather.cache.IsFresh")(&err)

	if s.DB == nil {
		return false, errors.New("weather cache: db is nil")
	}

	q := s.rebind(`
	SELECT COUNT(*)
	FROM weather_samples
	WHERE latitude = ?
		AND longitude = ?
		AND abs(fetched_at - ?) < ?;
	`)

	nowUnix := now.Unix()
	maxAge := int64(expireAge / time.Second)

	for _, c := range coords {
		var n int
		if err := s.DB.QueryRowContext(ctx, q, c.Lat, c.Lon, nowUnix, maxAge).Scan(&n); err != nil {
			return false, storeError(fmt.Sprintf("check freshness coord=%s", c), err)
		}
		if n == 0 {
			return false, nil
		}
	}

	return true, nil
}

// Delete every sample fetched more than purgeAge away from now.
func (s *SQLWeatherCache) PurgeOlderThan(ctx context.Context, now time.Time, purgeAge time.Duration) (_ int64, err error) {
	defer obs.Time(ctx, "weather.cache.PurgeOlderThan")(&err)

	if s.DB == nil {
		return 0, errors.New("weather cache: db is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeError("purge samples: db begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, s.rebind(`
	DELETE FROM weather_samples
	WHERE abs(fetched_at - ?) > ?;
	`), now.Unix(), int64(purgeAge/time.Second))
	if err != nil {
		return 0, storeError("purge samples: delete", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeError("purge samples: rows affected", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, storeError("purge samples commit", err)
	}

	return n, nil
}

// Read the samples matching q, ordered by time, coordinate and fetch time.
func (s *SQLWeatherCache) Query(ctx context.Context, q ports.SampleQuery) (_ []domain.WeatherSample, err error) {
	defer obs.Time(ctx, "weather.cache.Query")(&err)

	if s.DB == nil {
		return nil, errors.New("weather cache: db is nil")
	}

	where := make([]string, 0, 4)
	args := make([]any, 0, 8)

	if len(q.Types) > 0 {
		where = append(where, "sample_type IN ("+placeholders(len(q.Types))+")")
		for _, t := range q.Types {
			args = append(args, string(t))
		}
	}

	if !q.From.IsZero() {
		where = append(where, "sample_time >= ?")
		args = append(args, q.From.Unix())
	}

	if !q.To.IsZero() {
		where = append(where, "sample_time < ?")
		args = append(args, q.To.Unix())
	}

	if len(q.Coordinates) > 0 {
		ors := make([]string, 0, len(q.Coordinates))
		for _, c := range q.Coordinates {
			ors = append(ors, "(latitude = ? AND longitude = ?)")
			args = append(args, c.Lat, c.Lon)
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	query := "SELECT " + strings.Join(sampleColumnNames(), ", ") + " FROM weather_samples"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sample_time, latitude, longitude, fetched_at;"

	rows, err := s.DB.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, storeError("query samples: query weather_samples table", err)
	}
	defer rows.Close()

	out := make([]domain.WeatherSample, 0, 64)
	for rows.Next() {
		var (
			sm         domain.WeatherSample
			sampleType string
			fetchedAt  int64
			sampleTime int64
		)

		targets := make([]any, 0, len(keyColumns)+len(weatherColumns))
		targets = append(targets, &sampleType, &fetchedAt, &sm.Coordinates.Lat, &sm.Coordinates.Lon, &sampleTime)
		for _, c := range weatherColumns {
			targets = append(targets, c.target(&sm.WeatherFields))
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, storeError("query samples: scan rows", err)
		}

		sm.Type = domain.SampleType(sampleType)
		sm.FetchedAt = time.Unix(fetchedAt, 0).UTC()
		sm.Time = time.Unix(sampleTime, 0).UTC()
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("query samples: row iteration", err)
	}

	return out, nil
}

// Distinct sample timestamps of one sample type, ascending.
func (s *SQLWeatherCache) SampleTimes(ctx context.Context, t domain.SampleType) (_ []time.Time, err error) {
	defer obs.Time(ctx, "weather.cache.SampleTimes")(&err)

	if s.DB == nil {
		return nil, errors.New("weather cache: db is nil")
	}

	rows, err := s.DB.QueryContext(ctx, s.rebind(`
	SELECT DISTINCT sample_time
	FROM weather_samples
	WHERE sample_type = ?
	ORDER BY sample_time;
	`), string(t))
	if err != nil {
		return nil, storeError("sample times: query weather_samples table", err)
	}
	defer rows.Close()

	out := make([]time.Time, 0, 64)
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, storeError("sample times: scan rows", err)
		}
		out = append(out, time.Unix(ts, 0).UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("sample times: row iteration", err)
	}

	return out, nil
}
