package geo

import (
	"math"

	"biketour-planner/internal/domain"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle math.
const EarthRadiusMeters = 6371000.0

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

// Distance returns the great-circle (haversine) distance in meters.
func Distance(a, b domain.Coordinates) float64 {
	la1 := toRadians(a.Lat)
	la2 := toRadians(b.Lat)
	dLat := la2 - la1
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bearing returns the initial forward azimuth from a to b in degrees [0, 360).
func Bearing(a, b domain.Coordinates) float64 {
	la1 := toRadians(a.Lat)
	la2 := toRadians(b.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(la2)
	x := math.Cos(la1)*math.Sin(la2) - math.Sin(la1)*math.Cos(la2)*math.Cos(dLon)

	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// HeadwindComponent projects a wind blowing from windBearing (degrees) with
// windSpeed onto the direction of travel. Positive values oppose the rider.
func HeadwindComponent(routeBearing, windSpeed, windBearing float64) float64 {
	return windSpeed * math.Cos(toRadians(routeBearing-windBearing))
}
