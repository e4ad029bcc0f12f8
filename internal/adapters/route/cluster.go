package route

import (
	"biketour-planner/internal/domain"
	"biketour-planner/internal/geo"
)

// DefaultClusterDistance is the cluster radius in meters.
const DefaultClusterDistance = 4000.0

// ClusterWaypoints walks the route in order and starts a new cluster whenever
// a waypoint is farther than maxDistance from the first point of the current
// cluster. Clusters are numbered from 1.
//
// The returned waypoints carry their cluster number; the cluster coordinates
// are the means of their members (elevation over present values only).
func ClusterWaypoints(wps []domain.Waypoint, maxDistance float64) ([]domain.Waypoint, []domain.ClusterCoordinate) {
	if len(wps) == 0 {
		return nil, nil
	}

	out := make([]domain.Waypoint, len(wps))
	copy(out, wps)

	type acc struct {
		lat, lon float64
		n        int
		ele      float64
		eleN     int
	}

	var (
		accs   []acc
		anchor domain.Coordinates
	)

	for i := range out {
		c := out[i].Coordinates()
		if len(accs) == 0 || geo.Distance(anchor, c) > maxDistance {
			accs = append(accs, acc{})
			anchor = c
		}

		a := &accs[len(accs)-1]
		a.lat += c.Lat
		a.lon += c.Lon
		a.n++
		if e := out[i].Elevation; e != nil {
			a.ele += *e
			a.eleN++
		}

		out[i].Cluster = len(accs)
	}

	clusters := make([]domain.ClusterCoordinate, 0, len(accs))
	for i, a := range accs {
		cc := domain.ClusterCoordinate{
			Cluster: i + 1,
			Lat:     a.lat / float64(a.n),
			Lon:     a.lon / float64(a.n),
		}
		if a.eleN > 0 {
			ele := a.ele / float64(a.eleN)
			cc.Elevation = &ele
		}
		clusters = append(clusters, cc)
	}

	return out, clusters
}
