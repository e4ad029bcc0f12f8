package services

import (
	"errors"
	"math"
	"testing"
	"time"

	"biketour-planner/internal/domain"
)

func standardAir() SegmentConditions {
	return SegmentConditions{Pressure: 101325, Temperature: 288.15}
}

func residual(r domain.RiderParams, c SegmentConditions, v float64) float64 {
	k1 := c.Pressure / GasConstantDryAir * r.DragCoefficient / (2 * c.Temperature)
	k2 := r.TotalMass * Gravity * (r.RollingResistance + math.Sin(math.Atan(c.Slope)))
	w := c.Headwind
	return k1*v*v*v + 2*k1*w*v*v + (k1*w*w+k2)*v - r.RiderPower*r.DrivetrainEfficiency
}

func TestSolveSpeedResidual(t *testing.T) {
	cases := []struct {
		name  string
		rider domain.RiderParams
	}{
		{"defaults", domain.DefaultRiderParams()},
		{"strong rider", domain.RiderParams{TotalMass: 80, RiderPower: 400, DrivetrainEfficiency: 0.98, DragCoefficient: 0.4, RollingResistance: 0.003}},
		{"loaded tourer", domain.RiderParams{TotalMass: 140, RiderPower: 90, DrivetrainEfficiency: 0.9, DragCoefficient: 0.9, RollingResistance: 0.008}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := standardAir()

			v, err := SolveSpeed(tc.rider, c)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v <= 0 {
				t.Fatalf("speed = %v, want positive", v)
			}
			if r := residual(tc.rider, c, v); math.Abs(r) > 1e-6 {
				t.Fatalf("residual = %g at v=%v", r, v)
			}
		})
	}
}

func TestSolveSpeedRespondsToWindAndSlope(t *testing.T) {
	r := domain.DefaultRiderParams()

	flat, err := SolveSpeed(r, standardAir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	head := standardAir()
	head.Headwind = 5
	vHead, err := SolveSpeed(r, head)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tail := standardAir()
	tail.Headwind = -3
	vTail, err := SolveSpeed(r, tail)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	climb := standardAir()
	climb.Slope = 0.05
	vClimb, err := SolveSpeed(r, climb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !(vHead < flat && flat < vTail) {
		t.Fatalf("expected headwind < calm < tailwind, got %v %v %v", vHead, flat, vTail)
	}
	if !(vClimb < flat) {
		t.Fatalf("expected climb slower than flat, got %v >= %v", vClimb, flat)
	}

	for _, c := range []SegmentConditions{head, tail, climb} {
		v, _ := SolveSpeed(r, c)
		if res := residual(r, c, v); math.Abs(res) > 1e-6 {
			t.Fatalf("residual = %g for %+v", res, c)
		}
	}
}

func TestSolveSpeedZeroPower(t *testing.T) {
	r := domain.DefaultRiderParams()
	r.RiderPower = 0

	for _, w := range []float64{0, 4, -1} {
		c := standardAir()
		c.Headwind = w

		v, err := SolveSpeed(r, c)
		if !errors.Is(err, domain.ErrNumericModel) {
			t.Fatalf("headwind=%v: expected numeric model error, got v=%v err=%v", w, v, err)
		}
		if v != 0 {
			t.Fatalf("headwind=%v: speed must not be returned on failure, got %v", w, v)
		}
	}
}

func TestSolveSpeedSeveralPositiveRoots(t *testing.T) {
	// A weak rider with a strong tailwind downhill can balance the power
	// equation at three different speeds.
	r := domain.DefaultRiderParams()
	r.RiderPower = 20

	c := standardAir()
	c.Headwind = -10
	c.Slope = -0.005

	v, err := SolveSpeed(r, c)
	if !errors.Is(err, domain.ErrNumericModel) {
		t.Fatalf("expected numeric model error, got v=%v err=%v", v, err)
	}
	if v != 0 {
		t.Fatalf("speed must not be returned on failure, got %v", v)
	}
}

func TestSolveSpeedRejectsBadAir(t *testing.T) {
	r := domain.DefaultRiderParams()

	for _, c := range []SegmentConditions{
		{Pressure: 0, Temperature: 288},
		{Pressure: 101325, Temperature: 0},
		{Pressure: 101325, Temperature: 288, Slope: math.NaN()},
	} {
		if _, err := SolveSpeed(r, c); !errors.Is(err, domain.ErrNumericModel) {
			t.Fatalf("%+v: expected numeric model error, got %v", c, err)
		}
	}
}

func TestConditionsFromSample(t *testing.T) {
	w := domain.WeatherSample{Time: time.Unix(0, 0)}
	w.Pressure = f64(1000)
	w.Temperature = f64(20)

	c, err := ConditionsFromSample(w, 1.5, 0.02)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Pressure != 100000 || math.Abs(c.Temperature-293.15) > 1e-9 {
		t.Fatalf("unexpected conversion %+v", c)
	}
	if c.Headwind != 1.5 || c.Slope != 0.02 {
		t.Fatalf("unexpected passthrough %+v", c)
	}

	w.Pressure = nil
	if _, err := ConditionsFromSample(w, 0, 0); !errors.Is(err, domain.ErrNumericModel) {
		t.Fatalf("expected numeric model error for missing pressure, got %v", err)
	}
}

func TestCubicRealRoots(t *testing.T) {
	cases := []struct {
		name    string
		b, c, d float64
		want    []float64
	}{
		{"three distinct", -6, 11, -6, []float64{1, 2, 3}},
		{"triple", -6, 12, -8, []float64{2}},
		{"double and simple", -4, 5, -2, []float64{1, 2}},
		{"single real", 0, 1, -2, []float64{1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cubicRealRoots(tc.b, tc.c, tc.d)
			if len(got) != len(tc.want) {
				t.Fatalf("roots = %v, want %v", got, tc.want)
			}
			for i := range got {
				if math.Abs(got[i]-tc.want[i]) > 1e-6 {
					t.Fatalf("roots = %v, want %v", got, tc.want)
				}
			}
		})
	}
}
