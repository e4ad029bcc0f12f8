package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"biketour-planner/internal/domain"
	"biketour-planner/internal/platform/obs"
)

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Count schedule entries; a nil queried counts all of them.
func (s *SQLWeatherCache) CountSchedule(ctx context.Context, queried *bool) (int, error) {
	if s.DB == nil {
		return 0, errors.New("weather cache: db is nil")
	}

	q := `SELECT COUNT(*) FROM query_schedule`
	args := []any{}
	if queried != nil {
		q += ` WHERE queried = ?`
		args = append(args, boolToInt(*queried))
	}

	var n int
	if err := s.DB.QueryRowContext(ctx, s.rebind(q), args...).Scan(&n); err != nil {
		return 0, storeError("count schedule: query query_schedule table", err)
	}

	return n, nil
}

// Insert schedule entries in one transaction. Existing keys are left untouched.
func (s *SQLWeatherCache) SaveSchedule(ctx context.Context, entries []domain.QueryScheduleEntry) (err error) {
	defer obs.Time(ctx, "weather.cache.SaveSchedule")(&err)

	if s.DB == nil {
		return errors.New("weather cache: db is nil")
	}

	if len(entries) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return storeError("save schedule: db begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
	INSERT INTO query_schedule (sample_time, latitude, longitude, queried)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (sample_time, latitude, longitude) DO NOTHING;
	`))
	if err != nil {
		return storeError("save schedule: db prepare", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Time.Unix(), e.Coordinates.Lat, e.Coordinates.Lon, boolToInt(e.Queried)); err != nil {
			return storeError(fmt.Sprintf("save schedule time=%d coord=%s", e.Time.Unix(), e.Coordinates), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError("save schedule commit", err)
	}

	return nil
}

// List schedule entries ordered by time and coordinate; a nil queried lists all of them.
func (s *SQLWeatherCache) ListSchedule(ctx context.Context, queried *bool) ([]domain.QueryScheduleEntry, error) {
	if s.DB == nil {
		return nil, errors.New("weather cache: db is nil")
	}

	q := `SELECT sample_time, latitude, longitude, queried FROM query_schedule`
	args := []any{}
	if queried != nil {
		q += ` WHERE queried = ?`
		args = append(args, boolToInt(*queried))
	}
	q += ` ORDER BY sample_time, latitude, longitude;`

	rows, err := s.DB.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, storeError("list schedule: query query_schedule table", err)
	}
	defer rows.Close()

	out := make([]domain.QueryScheduleEntry, 0, 64)
	for rows.Next() {
		var (
			ts   int64
			flag int
			e    domain.QueryScheduleEntry
		)
		if err := rows.Scan(&ts, &e.Coordinates.Lat, &e.Coordinates.Lon, &flag); err != nil {
			return nil, storeError("list schedule: scan rows", err)
		}
		e.Time = time.Unix(ts, 0).UTC()
		e.Queried = flag != 0
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list schedule: row iteration", err)
	}

	return out, nil
}

// Store the fetched samples and mark the entry as queried in a single transaction.
func (s *SQLWeatherCache) CompleteScheduleEntry(
	ctx context.Context,
	entry domain.QueryScheduleEntry,
	samples []domain.WeatherSample,
) (err error) {
	defer obs.Time(ctx, "weather.cache.CompleteScheduleEntry")(&err)

	if s.DB == nil {
		return errors.New("weather cache: db is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return storeError("complete schedule entry: db begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if len(samples) > 0 {
		if err := s.upsertTx(ctx, tx, samples); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, s.rebind(`
	UPDATE query_schedule
	SET queried = 1
	WHERE sample_time = ? AND latitude = ? AND longitude = ?;
	`), entry.Time.Unix(), entry.Coordinates.Lat, entry.Coordinates.Lon)
	if err != nil {
		return storeError("complete schedule entry: update", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return storeError("complete schedule entry: rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf(
			"complete schedule entry time=%d coord=%s: %w: entry not found",
			entry.Time.Unix(), entry.Coordinates, domain.ErrStore,
		)
	}

	if err := tx.Commit(); err != nil {
		return storeError("complete schedule entry commit", err)
	}

	return nil
}
