package ports

import "biketour-planner/internal/domain"

// Port: a boundary for reading a parsed route.
type RouteProvider interface {
	// Waypoints in ascending index order.
	Waypoints() []domain.Waypoint
	// Reduced coordinate set used for weather queries.
	ClusteredCoordinates() []domain.ClusterCoordinate
}
