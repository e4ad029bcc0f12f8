package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"biketour-planner/internal/domain"
)

// Initialize the weather cache schema.
// withSchedule adds the historical query schedule table.
func InitSchema(ctx context.Context, db *sql.DB, withSchedule bool) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w: %w", domain.ErrStore, err)
	}
	defer func() { _ = tx.Rollback() }()

	defs := make([]string, 0, len(weatherColumns))
	for _, c := range weatherColumns {
		defs = append(defs, fmt.Sprintf("%s %s", c.name, c.sqlType))
	}

	createSamplesQuery := `
	CREATE TABLE IF NOT EXISTS weather_samples (
		sample_type TEXT NOT NULL,
		fetched_at BIGINT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		sample_time BIGINT NOT NULL,
		` + strings.Join(defs, ",\n\t\t") + `,
		CONSTRAINT uc_weather_samples_key UNIQUE (sample_time, latitude, longitude, sample_type, fetched_at)
	);
	`

	createFetchedIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_weather_samples_coord_fetched
	ON weather_samples(latitude, longitude, fetched_at);
	`

	createScheduleQuery := `
	CREATE TABLE IF NOT EXISTS query_schedule (
		sample_time BIGINT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		queried INTEGER NOT NULL DEFAULT 0,
		CONSTRAINT uc_query_schedule_key UNIQUE (sample_time, latitude, longitude)
	);
	`

	statements := []string{
		createSamplesQuery,
		createFetchedIndexQuery,
	}
	if withSchedule {
		statements = append(statements, createScheduleQuery)
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w: %w", i+1, domain.ErrStore, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w: %w", domain.ErrStore, err)
	}

	return nil
}
