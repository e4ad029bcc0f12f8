package ports

import (
	"context"
	"time"

	"biketour-planner/internal/domain"
)

// Parameters of a single weather provider call.
// A nil Time asks for the current forecast; a set Time asks for that day's
// recorded weather.
type FetchRequest struct {
	Coordinates domain.Coordinates
	Time        *time.Time
	Units       string
}

// A provider data point: its timestamp plus the measured values.
type DataPoint struct {
	Time int64 `json:"time"`
	domain.WeatherFields
}

// Decoded provider answer for one coordinate.
// UsageCount is the provider's own count of calls made today, when reported.
type ForecastResponse struct {
	Hourly     []DataPoint
	Daily      []DataPoint
	UsageCount *int
}

// Contract for the external rate-limited weather service.
type WeatherProvider interface {
	// Fetch performs exactly one external call.
	Fetch(ctx context.Context, req FetchRequest) (*ForecastResponse, error)
}
