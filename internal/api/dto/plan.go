package dto

import (
	"time"

	"biketour-planner/internal/domain"
)

type WeatherResponse struct {
	Time      time.Time `json:"time"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Type      string    `json:"forecast_type"`
	FetchedAt time.Time `json:"fetched_at"`
	domain.WeatherFields
}

type PlanStepResponse struct {
	PointNo   int             `json:"point_no"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Elevation *float64        `json:"elevation"`
	Name      *string         `json:"name"`
	Cluster   int             `json:"cluster"`
	ArriveAt  time.Time       `json:"arrive_at"`
	Weather   WeatherResponse `json:"weather"`
}

type PlanResponse struct {
	Status          string             `json:"status"`
	DepartAt        time.Time          `json:"depart_at"`
	DurationSeconds int64              `json:"duration_seconds"`
	Steps           []PlanStepResponse `json:"steps"`
	Error           string             `json:"error,omitempty"`
}

type ListPlanResponse struct {
	Plans []PlanResponse `json:"plans"`
}

func NewPlanResponse(p *domain.Plan) PlanResponse {
	res := PlanResponse{
		Status:          string(p.Status),
		DepartAt:        p.DepartAt,
		DurationSeconds: int64(p.Duration() / time.Second),
		Steps:           make([]PlanStepResponse, 0, len(p.Steps)),
	}

	for _, s := range p.Steps {
		res.Steps = append(res.Steps, PlanStepResponse{
			PointNo:   s.Waypoint.Index,
			Latitude:  s.Waypoint.Lat,
			Longitude: s.Waypoint.Lon,
			Elevation: s.Waypoint.Elevation,
			Name:      s.Waypoint.Name,
			Cluster:   s.Waypoint.Cluster,
			ArriveAt:  s.ArriveAt,
			Weather: WeatherResponse{
				Time:          s.Weather.Time,
				Latitude:      s.Weather.Coordinates.Lat,
				Longitude:     s.Weather.Coordinates.Lon,
				Type:          string(s.Weather.Type),
				FetchedAt:     s.Weather.FetchedAt,
				WeatherFields: s.Weather.WeatherFields,
			},
		})
	}

	return res
}
