package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"biketour-planner/internal/domain"
	"biketour-planner/internal/platform/db"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is everything the binaries need to build a planner.
type Config struct {
	RoutePath          string  `validate:"required"`
	ClusterMaxDistance float64 `validate:"gt=0"`

	WeatherAPIKey     string `validate:"required"`
	WeatherAPIURL     string `validate:"required,url"`
	WeatherUnits      string `validate:"oneof=si us uk ca auto"`
	WeatherCallsLimit int    `validate:"gt=0"`

	ForecastExpireAge time.Duration `validate:"gt=0"`
	ForecastPurgeAge  time.Duration `validate:"gt=0"`

	SampleSize           int `validate:"gte=0"`
	SampleYears          int `validate:"gte=1"`
	SampleAroundInterval int `validate:"gte=0"`
	// Seed for the historical sampler; nil draws a random one.
	SampleSeed *uint64

	DepartureHour int            `validate:"gte=0,lte=23"`
	Timezone      string         `validate:"required"`
	Location      *time.Location `validate:"-"`

	DBDriver              string `validate:"oneof=sqlite pgx"`
	ForecastDatabaseURL   string `validate:"required_if=DBDriver pgx"`
	HistoricalDatabaseURL string `validate:"required_if=DBDriver pgx"`

	RiderProfile string
	Rider        domain.RiderParams

	Port string `validate:"required,numeric"`
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Load reads the configuration from the environment and validates it.
// Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{
		RoutePath:             Get("ROUTE_PATH", ""),
		WeatherAPIKey:         Get("WEATHER_API_KEY", ""),
		WeatherAPIURL:         Get("WEATHER_API_URL", "https://api.pirateweather.net"),
		WeatherUnits:          Get("WEATHER_UNITS", "si"),
		Timezone:              Get("TIMEZONE", "UTC"),
		DBDriver:              Get("DB_DRIVER", db.DriverSQLite),
		ForecastDatabaseURL:   Get("FORECAST_DATABASE_URL", ""),
		HistoricalDatabaseURL: Get("HISTORICAL_DATABASE_URL", ""),
		RiderProfile:          Get("RIDER_PROFILE", ""),
		Port:                  Get("PORT", "8080"),
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	cfg.WeatherCallsLimit, err = getInt("WEATHER_API_CALLS_LIMIT", 900)
	collect(err)
	cfg.ForecastExpireAge, err = getDuration("FORECAST_EXPIRE_AGE", 12*time.Hour)
	collect(err)
	cfg.ForecastPurgeAge, err = getDuration("FORECAST_PURGE_AGE", 240*time.Hour)
	collect(err)
	cfg.SampleSize, err = getInt("SAMPLE_SIZE", 20)
	collect(err)
	cfg.SampleYears, err = getInt("SAMPLE_YEARS", 10)
	collect(err)
	cfg.SampleAroundInterval, err = getInt("SAMPLE_AROUND_INTERVAL", 0)
	collect(err)
	cfg.DepartureHour, err = getInt("DEPARTURE_HOUR", 6)
	collect(err)
	cfg.ClusterMaxDistance, err = getFloat("CLUSTER_MAX_DISTANCE", 4000)
	collect(err)

	if v := Get("SAMPLE_SEED", ""); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			collect(fmt.Errorf("SAMPLE_SEED: %w", err))
		} else {
			cfg.SampleSeed = &seed
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load config: TIMEZONE: %w", err)
	}

	cfg.Rider = domain.DefaultRiderParams()
	if cfg.RiderProfile != "" {
		cfg.Rider, err = LoadRiderProfile(cfg.RiderProfile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// Validate checks the struct tags of cfg, including the rider parameters.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// LoadRiderProfile reads a YAML rider profile. Keys left out keep their
// default values.
func LoadRiderProfile(path string) (domain.RiderParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RiderParams{}, fmt.Errorf("rider profile: read %q: %w", path, err)
	}

	rider := domain.DefaultRiderParams()
	if err := yaml.Unmarshal(data, &rider); err != nil {
		return domain.RiderParams{}, fmt.Errorf("rider profile: parse %q: %w", path, err)
	}

	if err := validator.New().Struct(rider); err != nil {
		return domain.RiderParams{}, fmt.Errorf("rider profile %q: %w", path, err)
	}

	return rider, nil
}

// Cache store locations for the configured driver. With sqlite they sit
// next to the route file as <route>_forecast.db and <route>_weather.db.
func (c *Config) ForecastDSN() string {
	if c.DBDriver == db.DriverPgx {
		return c.ForecastDatabaseURL
	}
	return db.SQLiteDSN(routeSibling(c.RoutePath, "_forecast.db"))
}

func (c *Config) HistoricalDSN() string {
	if c.DBDriver == db.DriverPgx {
		return c.HistoricalDatabaseURL
	}
	return db.SQLiteDSN(routeSibling(c.RoutePath, "_weather.db"))
}

func routeSibling(routePath, suffix string) string {
	return strings.TrimSuffix(routePath, filepath.Ext(routePath)) + suffix
}
