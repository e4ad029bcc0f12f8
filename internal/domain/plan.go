package domain

import (
	"strconv"
	"time"
)

// PlanStatus tells whether a plan reached the last waypoint.
type PlanStatus string

const (
	PlanComplete   PlanStatus = "complete"
	PlanIncomplete PlanStatus = "incomplete"
)

// Represents arriving at one waypoint with the weather matched there.
type PlanStep struct {
	Waypoint Waypoint
	Weather  WeatherSample
	ArriveAt time.Time
}

// Represents a simulated journey along a route.
// Steps follow the route's waypoint order and arrival times never decrease.
// An incomplete plan holds the steps computed before the simulation failed.
type Plan struct {
	DepartAt time.Time
	Steps    []PlanStep
	Status   PlanStatus
}

// Duration is the time between departure and the last reached waypoint.
func (p *Plan) Duration() time.Duration {
	if len(p.Steps) == 0 {
		return 0
	}
	return p.Steps[len(p.Steps)-1].ArriveAt.Sub(p.Steps[0].ArriveAt)
}

// Table flattens the plan into rows of waypoint columns, "w_"-prefixed weather
// columns and the arrival time. Missing values are empty cells.
func (p *Plan) Table() (header []string, rows [][]string) {
	header = []string{"point_no", "latitude", "longitude", "elevation", "name", "cluster"}
	for _, c := range weatherTableColumns {
		header = append(header, "w_"+c.name)
	}
	header = append(header, "time")

	rows = make([][]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		wp := s.Waypoint
		row := []string{
			strconv.Itoa(wp.Index),
			formatFloat(&wp.Lat),
			formatFloat(&wp.Lon),
			formatFloat(wp.Elevation),
			derefString(wp.Name),
			strconv.Itoa(wp.Cluster),
		}
		for _, c := range weatherTableColumns {
			row = append(row, c.cell(&s.Weather))
		}
		row = append(row, strconv.FormatInt(s.ArriveAt.Unix(), 10))
		rows = append(rows, row)
	}

	return header, rows
}

type tableColumn struct {
	name string
	cell func(*WeatherSample) string
}

var weatherTableColumns = []tableColumn{
	{"time", func(w *WeatherSample) string { return strconv.FormatInt(w.Time.Unix(), 10) }},
	{"latitude", func(w *WeatherSample) string { return formatFloat(&w.Coordinates.Lat) }},
	{"longitude", func(w *WeatherSample) string { return formatFloat(&w.Coordinates.Lon) }},
	{"forecast_type", func(w *WeatherSample) string { return string(w.Type) }},
	{"summary", func(w *WeatherSample) string { return derefString(w.Summary) }},
	{"precipIntensity", func(w *WeatherSample) string { return formatFloat(w.PrecipIntensity) }},
	{"precipProbability", func(w *WeatherSample) string { return formatFloat(w.PrecipProbability) }},
	{"precipType", func(w *WeatherSample) string { return derefString(w.PrecipType) }},
	{"temperature", func(w *WeatherSample) string { return formatFloat(w.Temperature) }},
	{"apparentTemperature", func(w *WeatherSample) string { return formatFloat(w.ApparentTemperature) }},
	{"dewPoint", func(w *WeatherSample) string { return formatFloat(w.DewPoint) }},
	{"humidity", func(w *WeatherSample) string { return formatFloat(w.Humidity) }},
	{"pressure", func(w *WeatherSample) string { return formatFloat(w.Pressure) }},
	{"windSpeed", func(w *WeatherSample) string { return formatFloat(w.WindSpeed) }},
	{"windGust", func(w *WeatherSample) string { return formatFloat(w.WindGust) }},
	{"windBearing", func(w *WeatherSample) string { return formatFloat(w.WindBearing) }},
	{"cloudCover", func(w *WeatherSample) string { return formatFloat(w.CloudCover) }},
	{"uvIndex", func(w *WeatherSample) string { return formatFloat(w.UVIndex) }},
	{"visibility", func(w *WeatherSample) string { return formatFloat(w.Visibility) }},
	{"ozone", func(w *WeatherSample) string { return formatFloat(w.Ozone) }},
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
