package domain

import "errors"

// Error kinds shared by the cache, the provider adapter and the simulator.
// Callers test for them with errors.Is; concrete errors wrap one of these.
var (
	// ErrQuotaExceeded is returned before a provider call when the call budget is used up.
	ErrQuotaExceeded = errors.New("weather api quota exceeded")

	ErrProvider = errors.New("weather provider error")
	ErrStore    = errors.New("weather store error")

	// ErrNumericModel means the power balance has no unique positive speed.
	ErrNumericModel = errors.New("numeric model error")

	// ErrInsufficientWeatherCoverage means no sample lies within the matching tolerance.
	ErrInsufficientWeatherCoverage = errors.New("insufficient weather coverage")
)

// IsPlanFailure reports whether err only invalidates the current plan computation.
func IsPlanFailure(err error) bool {
	return errors.Is(err, ErrNumericModel) || errors.Is(err, ErrInsufficientWeatherCoverage)
}
