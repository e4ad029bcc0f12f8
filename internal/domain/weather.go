package domain

import (
	"fmt"
	"time"
)

// SampleType tells where a WeatherSample came from.
type SampleType string

const (
	SampleHourly     SampleType = "hourly"
	SampleDaily      SampleType = "daily"
	SampleHistorical SampleType = "historical"
)

func ParseSampleType(s string) (SampleType, error) {
	switch t := SampleType(s); t {
	case SampleHourly, SampleDaily, SampleHistorical:
		return t, nil
	default:
		return "", fmt.Errorf("unknown sample type %q", s)
	}
}

// WeatherFields holds the provider's data point values.
// Every field is optional: a nil pointer means the provider did not report it
// and is stored and served as null.
type WeatherFields struct {
	Summary                     *string  `json:"summary"`
	Icon                        *string  `json:"icon"`
	SunriseTime                 *int64   `json:"sunriseTime"`
	SunsetTime                  *int64   `json:"sunsetTime"`
	MoonPhase                   *float64 `json:"moonPhase"`
	PrecipIntensity             *float64 `json:"precipIntensity"`
	PrecipIntensityMax          *float64 `json:"precipIntensityMax"`
	PrecipIntensityMaxTime      *int64   `json:"precipIntensityMaxTime"`
	PrecipProbability           *float64 `json:"precipProbability"`
	PrecipType                  *string  `json:"precipType"`
	Temperature                 *float64 `json:"temperature"`
	TemperatureHigh             *float64 `json:"temperatureHigh"`
	TemperatureHighTime         *int64   `json:"temperatureHighTime"`
	TemperatureLow              *float64 `json:"temperatureLow"`
	TemperatureLowTime          *int64   `json:"temperatureLowTime"`
	ApparentTemperature         *float64 `json:"apparentTemperature"`
	ApparentTemperatureHigh     *float64 `json:"apparentTemperatureHigh"`
	ApparentTemperatureHighTime *int64   `json:"apparentTemperatureHighTime"`
	ApparentTemperatureLow      *float64 `json:"apparentTemperatureLow"`
	ApparentTemperatureLowTime  *int64   `json:"apparentTemperatureLowTime"`
	DewPoint                    *float64 `json:"dewPoint"`
	Humidity                    *float64 `json:"humidity"`
	Pressure                    *float64 `json:"pressure"`
	WindSpeed                   *float64 `json:"windSpeed"`
	WindGust                    *float64 `json:"windGust"`
	WindGustTime                *int64   `json:"windGustTime"`
	WindBearing                 *float64 `json:"windBearing"`
	CloudCover                  *float64 `json:"cloudCover"`
	UVIndex                     *float64 `json:"uvIndex"`
	UVIndexTime                 *int64   `json:"uvIndexTime"`
	Visibility                  *float64 `json:"visibility"`
	Ozone                       *float64 `json:"ozone"`
}

// A weather observation or forecast value for one place and moment.
//
// Time is when the values apply, FetchedAt is when they were retrieved.
// (Time, Coordinates, Type, FetchedAt) is the upsert key in the cache.
type WeatherSample struct {
	Coordinates Coordinates
	Time        time.Time
	Type        SampleType
	FetchedAt   time.Time
	WeatherFields
}

// One (coordinate, day) pair of the historical sampling schedule.
type QueryScheduleEntry struct {
	Time        time.Time
	Coordinates Coordinates
	Queried     bool
}
