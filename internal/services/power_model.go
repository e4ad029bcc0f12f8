package services

import (
	"fmt"
	"math"
	"sort"

	"biketour-planner/internal/domain"
)

const (
	// Specific gas constant of dry air, J/(kg*K).
	GasConstantDryAir = 287.058
	// Gravitational acceleration, m/s^2.
	Gravity = 9.8

	hPaToPa         = 100.0
	celsiusToKelvin = 273.15

	// Speeds at or below this are not a valid ground speed, m/s.
	minPositiveSpeed = 1e-9
)

// Conditions of one route segment as seen by the speed model.
type SegmentConditions struct {
	// Signed headwind component, m/s. Positive opposes the rider.
	Headwind float64
	// Rise over run.
	Slope float64
	// Air pressure in Pa.
	Pressure float64
	// Air temperature in K.
	Temperature float64
}

// ConditionsFromSample converts provider units (hPa, °C) into SI and fails
// when the sample lacks pressure or temperature.
func ConditionsFromSample(w domain.WeatherSample, headwind, slope float64) (SegmentConditions, error) {
	if w.Pressure == nil {
		return SegmentConditions{}, fmt.Errorf("sample at %s %s has no pressure: %w", w.Time.Format("2006-01-02T15:04Z07:00"), w.Coordinates, domain.ErrNumericModel)
	}
	if w.Temperature == nil {
		return SegmentConditions{}, fmt.Errorf("sample at %s %s has no temperature: %w", w.Time.Format("2006-01-02T15:04Z07:00"), w.Coordinates, domain.ErrNumericModel)
	}

	return SegmentConditions{
		Headwind:    headwind,
		Slope:       slope,
		Pressure:    *w.Pressure * hPaToPa,
		Temperature: *w.Temperature + celsiusToKelvin,
	}, nil
}

// SolveSpeed returns the ground speed at which the rider's power balances
// air drag, rolling resistance and climbing:
//
//	K1*v^3 + 2*K1*w*v^2 + (K1*w^2 + K2)*v - P*eta = 0
//	K1 = p/R * C_D/(2T),  K2 = m*g*(C_rr + sin(atan(s)))
//
// The cubic must have exactly one positive real root, otherwise the error
// wraps domain.ErrNumericModel.
func SolveSpeed(r domain.RiderParams, c SegmentConditions) (float64, error) {
	if !(c.Pressure > 0) || !(c.Temperature > 0) || math.IsInf(c.Pressure, 0) || math.IsInf(c.Temperature, 0) {
		return 0, fmt.Errorf("solve speed: pressure=%v temperature=%v: %w", c.Pressure, c.Temperature, domain.ErrNumericModel)
	}
	if math.IsNaN(c.Headwind) || math.IsNaN(c.Slope) || math.IsInf(c.Headwind, 0) || math.IsInf(c.Slope, 0) {
		return 0, fmt.Errorf("solve speed: headwind=%v slope=%v: %w", c.Headwind, c.Slope, domain.ErrNumericModel)
	}

	k1 := c.Pressure / GasConstantDryAir * r.DragCoefficient / (2 * c.Temperature)
	k2 := r.TotalMass * Gravity * (r.RollingResistance + math.Sin(math.Atan(c.Slope)))
	w := c.Headwind

	a3, a2, a1, a0 := k1, 2*k1*w, k1*w*w+k2, -r.RiderPower*r.DrivetrainEfficiency

	var positive []float64
	for _, v := range cubicRealRoots(a2/a3, a1/a3, a0/a3) {
		if v > minPositiveSpeed {
			positive = append(positive, v)
		}
	}

	if len(positive) != 1 {
		return 0, fmt.Errorf(
			"solve speed: %d positive roots for power=%v headwind=%v slope=%v: %w",
			len(positive), r.RiderPower, w, c.Slope, domain.ErrNumericModel,
		)
	}

	v := polish(positive[0], a3, a2, a1, a0)
	if !(v > minPositiveSpeed) {
		return 0, fmt.Errorf("solve speed: root %v collapsed while refining: %w", v, domain.ErrNumericModel)
	}

	return v, nil
}

// cubicRealRoots returns the distinct real roots of x^3 + b*x^2 + c*x + d,
// ascending.
func cubicRealRoots(b, c, d float64) []float64 {
	// Depressed cubic t^3 + p*t + q with x = t - b/3.
	shift := b / 3
	p := c - b*b/3
	q := 2*b*b*b/27 - b*c/3 + d

	const eps = 1e-14
	scale := math.Max(1, math.Max(math.Abs(p), math.Abs(q)))

	var ts []float64
	switch disc := q*q/4 + p*p*p/27; {
	case math.Abs(p) <= eps*scale && math.Abs(q) <= eps*scale:
		ts = []float64{0}
	case disc > eps*scale*scale:
		s := math.Sqrt(disc)
		ts = []float64{math.Cbrt(-q/2+s) + math.Cbrt(-q/2-s)}
	case disc >= -eps*scale*scale:
		// Double root plus a simple one.
		ts = []float64{3 * q / p, -3 * q / (2 * p)}
	default:
		m := 2 * math.Sqrt(-p/3)
		arg := 3 * q / (p * m)
		arg = math.Max(-1, math.Min(1, arg))
		theta := math.Acos(arg) / 3
		ts = []float64{
			m * math.Cos(theta),
			m * math.Cos(theta-2*math.Pi/3),
			m * math.Cos(theta-4*math.Pi/3),
		}
	}

	roots := make([]float64, 0, len(ts))
	for _, t := range ts {
		roots = append(roots, t-shift)
	}
	sort.Float64s(roots)

	out := roots[:0]
	for i, x := range roots {
		if i > 0 && math.Abs(x-out[len(out)-1]) <= 1e-9*math.Max(1, math.Abs(x)) {
			continue
		}
		out = append(out, x)
	}
	return out
}

// polish refines a root with a few Newton steps.
func polish(v, a3, a2, a1, a0 float64) float64 {
	for i := 0; i < 8; i++ {
		f := ((a3*v+a2)*v+a1)*v + a0
		df := (3*a3*v+2*a2)*v + a1
		if df == 0 {
			break
		}
		next := v - f/df
		if math.IsNaN(next) || math.IsInf(next, 0) {
			break
		}
		if math.Abs(next-v) <= 1e-15*math.Max(1, math.Abs(v)) {
			return next
		}
		v = next
	}
	return v
}
