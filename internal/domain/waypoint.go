package domain

// Represents a single point of a planned route.
// Index is the position along the route starting at 0. Elevation and Name
// are optional in the source track. Cluster links the point to the
// ClusterCoordinate used to query weather for it.
type Waypoint struct {
	Index     int
	Lat       float64
	Lon       float64
	Elevation *float64
	Name      *string
	Cluster   int
}

func (w Waypoint) Coordinates() Coordinates { return Coordinates{Lat: w.Lat, Lon: w.Lon} }

// Averaged position of a group of nearby waypoints.
// Weather is queried once per cluster instead of once per waypoint.
type ClusterCoordinate struct {
	Cluster   int
	Lat       float64
	Lon       float64
	Elevation *float64
}

func (c ClusterCoordinate) Coordinates() Coordinates { return Coordinates{Lat: c.Lat, Lon: c.Lon} }

// ClusterCoordinates flattens clusters into the coordinate list used for provider queries.
func ClusterCoordinates(clusters []ClusterCoordinate) []Coordinates {
	out := make([]Coordinates, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, c.Coordinates())
	}
	return out
}
