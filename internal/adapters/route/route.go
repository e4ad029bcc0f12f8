package route

import (
	"errors"
	"fmt"
	"slices"

	"biketour-planner/internal/domain"
	"biketour-planner/internal/ports"
)

// Route is a parsed and clustered GPX route. It is immutable after New.
type Route struct {
	path      string
	waypoints []domain.Waypoint
	clusters  []domain.ClusterCoordinate
}

var _ ports.RouteProvider = (*Route)(nil)

// Load the GPX file at path and cluster its points.
// A non-positive maxDistance uses DefaultClusterDistance.
func New(path string, maxDistance float64) (*Route, error) {
	wps, err := LoadGPX(path)
	if err != nil {
		return nil, fmt.Errorf("new route: %w", err)
	}

	r, err := FromWaypoints(wps, maxDistance)
	if err != nil {
		return nil, fmt.Errorf("new route %q: %w", path, err)
	}
	r.path = path

	return r, nil
}

func FromWaypoints(wps []domain.Waypoint, maxDistance float64) (*Route, error) {
	if len(wps) == 0 {
		return nil, errors.New("route has no waypoints")
	}
	for i, wp := range wps {
		if wp.Index != i {
			return nil, fmt.Errorf("waypoint #%d has index %d", i, wp.Index)
		}
	}

	if maxDistance <= 0 {
		maxDistance = DefaultClusterDistance
	}

	assigned, clusters := ClusterWaypoints(wps, maxDistance)
	return &Route{waypoints: assigned, clusters: clusters}, nil
}

func (r *Route) Path() string { return r.path }

// Waypoints and ClusteredCoordinates return copies; the route itself never changes.
func (r *Route) Waypoints() []domain.Waypoint { return slices.Clone(r.waypoints) }

func (r *Route) ClusteredCoordinates() []domain.ClusterCoordinate { return slices.Clone(r.clusters) }
