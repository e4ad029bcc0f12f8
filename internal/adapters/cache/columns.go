package cache

import (
	"strings"

	"biketour-planner/internal/domain"
)

// weatherColumn maps one nullable WeatherFields member to its table column.
type weatherColumn struct {
	name    string
	sqlType string
	value   func(*domain.WeatherFields) any
	target  func(*domain.WeatherFields) any
}

func column[T any](name, sqlType string, field func(*domain.WeatherFields) **T) weatherColumn {
	return weatherColumn{
		name:    name,
		sqlType: sqlType,
		value: func(f *domain.WeatherFields) any {
			p := *field(f)
			if p == nil {
				return nil
			}
			return *p
		},
		target: func(f *domain.WeatherFields) any { return field(f) },
	}
}

const (
	sqlText  = "TEXT"
	sqlReal  = "DOUBLE PRECISION"
	sqlEpoch = "BIGINT"
)

var weatherColumns = []weatherColumn{
	column("summary", sqlText, func(f *domain.WeatherFields) **string { return &f.Summary }),
	column("icon", sqlText, func(f *domain.WeatherFields) **string { return &f.Icon }),
	column("sunrise_time", sqlEpoch, func(f *domain.WeatherFields) **int64 { return &f.SunriseTime }),
	column("sunset_time", sqlEpoch, func(f *domain.WeatherFields) **int64 { return &f.SunsetTime }),
	column("moon_phase", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.MoonPhase }),
	column("precip_intensity", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.PrecipIntensity }),
	column("precip_intensity_max", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.PrecipIntensityMax }),
	column("precip_intensity_max_time", sqlEpoch, func(f *domain.WeatherFields) **int64 { return &f.PrecipIntensityMaxTime }),
	column("precip_probability", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.PrecipProbability }),
	column("precip_type", sqlText, func(f *domain.WeatherFields) **string { return &f.PrecipType }),
	column("temperature", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.Temperature }),
	column("temperature_high", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.TemperatureHigh }),
	column("temperature_high_time", sqlEpoch, func(f *domain.WeatherFields) **int64 { return &f.TemperatureHighTime }),
	column("temperature_low", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.TemperatureLow }),
	column("temperature_low_time", sqlEpoch, func(f *domain.WeatherFields) **int64 { return &f.TemperatureLowTime }),
	column("apparent_temperature", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.ApparentTemperature }),
	column("apparent_temperature_high", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.ApparentTemperatureHigh }),
	column("apparent_temperature_high_time", sqlEpoch, func(f *domain.WeatherFields) **int64 { return &f.ApparentTemperatureHighTime }),
	column("apparent_temperature_low", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.ApparentTemperatureLow }),
	column("apparent_temperature_low_time", sqlEpoch, func(f *domain.WeatherFields) **int64 { return &f.ApparentTemperatureLowTime }),
	column("dew_point", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.DewPoint }),
	column("humidity", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.Humidity }),
	column("pressure", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.Pressure }),
	column("wind_speed", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.WindSpeed }),
	column("wind_gust", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.WindGust }),
	column("wind_gust_time", sqlEpoch, func(f *domain.WeatherFields) **int64 { return &f.WindGustTime }),
	column("wind_bearing", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.WindBearing }),
	column("cloud_cover", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.CloudCover }),
	column("uv_index", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.UVIndex }),
	column("uv_index_time", sqlEpoch, func(f *domain.WeatherFields) **int64 { return &f.UVIndexTime }),
	column("visibility", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.Visibility }),
	column("ozone", sqlReal, func(f *domain.WeatherFields) **float64 { return &f.Ozone }),
}

// Key columns come first in every select and insert.
var keyColumns = []string{"sample_type", "fetched_at", "latitude", "longitude", "sample_time"}

func sampleColumnNames() []string {
	names := make([]string, 0, len(keyColumns)+len(weatherColumns))
	names = append(names, keyColumns...)
	for _, c := range weatherColumns {
		names = append(names, c.name)
	}
	return names
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
