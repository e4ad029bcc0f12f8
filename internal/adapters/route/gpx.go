package route

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"biketour-planner/internal/domain"
)

// gpxPoint is either a <rtept> or a <trkpt>.
type gpxPoint struct {
	Lat  float64  `xml:"lat,attr"`
	Lon  float64  `xml:"lon,attr"`
	Ele  *float64 `xml:"ele"`
	Name *string  `xml:"name"`
}

// ParseGPX reads route and track points in document order.
// Points are numbered from 0.
func ParseGPX(r io.Reader) ([]domain.Waypoint, error) {
	dec := xml.NewDecoder(r)

	out := make([]domain.Waypoint, 0, 256)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse gpx: read token: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "rtept" && start.Name.Local != "trkpt" {
			continue
		}

		var p gpxPoint
		if err := dec.DecodeElement(&p, &start); err != nil {
			return nil, fmt.Errorf("parse gpx: decode point #%d: %w", len(out), err)
		}

		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 || math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
			return nil, fmt.Errorf("parse gpx: point #%d out of range: lat=%v lon=%v", len(out), p.Lat, p.Lon)
		}

		if p.Name != nil {
			name := strings.TrimSpace(*p.Name)
			p.Name = &name
		}

		out = append(out, domain.Waypoint{
			Index:     len(out),
			Lat:       p.Lat,
			Lon:       p.Lon,
			Elevation: p.Ele,
			Name:      p.Name,
		})
	}

	if len(out) == 0 {
		return nil, errors.New("parse gpx: no route or track points")
	}

	return out, nil
}

// Read and parse a GPX file from disk.
func LoadGPX(path string) ([]domain.Waypoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load gpx: open %q: %w", path, err)
	}
	defer f.Close()

	wps, err := ParseGPX(f)
	if err != nil {
		return nil, fmt.Errorf("load gpx %q: %w", path, err)
	}

	return wps, nil
}
