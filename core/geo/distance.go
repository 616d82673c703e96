// Package geo estimates travel distance and time between service-area
// coordinates. Distances use the haversine formula on a spherical Earth;
// inputs are short-range, so no ellipsoid correction is applied.
package geo

import (
	"math"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Assumed average speeds in km/h. Route legs crawl through residential
// streets; ad-hoc point-to-point estimates used elsewhere assume slightly
// faster travel. Both are defaults that configuration may override.
const (
	DefaultRouteSpeedKmh        = 25.0
	DefaultPointToPointSpeedKmh = 30.0
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// DriveMinutes estimates travel time in minutes for distanceKm at speedKmh.
func DriveMinutes(distanceKm, speedKmh float64) float64 {
	if speedKmh <= 0 {
		speedKmh = DefaultRouteSpeedKmh
	}
	return distanceKm / speedKmh * 60
}

// ZoneContains reports whether the point lies inside the zone geometry.
func ZoneContains(z model.Zone, p Point) bool {
	switch z.Kind {
	case model.ZoneBoundingBox:
		return p.Lat >= z.MinLat && p.Lat <= z.MaxLat &&
			p.Lng >= z.MinLng && p.Lng <= z.MaxLng
	case model.ZoneCircle:
		return Haversine(Point{Lat: z.CenterLat, Lng: z.CenterLng}, p) <= z.RadiusKm
	default:
		return false
	}
}

// JobKey builds the matrix identifier for a job point.
func JobKey(id string) string { return "job:" + id }

// CrewKey builds the matrix identifier for a crew home-base point.
func CrewKey(id string) string { return "crew:" + id }

// Matrix holds symmetric pairwise drive-minute estimates keyed by point ID.
// Points without coordinates have no entries at all; callers must treat a
// missing entry as unroutable and fall back to a conservative estimate, never
// to zero.
type Matrix struct {
	minutes map[string]map[string]float64
}

// BuildMatrix computes the minute matrix over the union of crew home-base
// points and job points at the given average speed.
func BuildMatrix(jobs []model.Job, crews []model.Crew, speedKmh float64) *Matrix {
	type keyed struct {
		key string
		pt  Point
	}
	pts := make([]keyed, 0, len(jobs)+len(crews))
	for _, c := range crews {
		if !c.HasHomeBase() {
			continue
		}
		pts = append(pts, keyed{CrewKey(c.ID), Point{Lat: *c.HomeBaseLat, Lng: *c.HomeBaseLng}})
	}
	for _, j := range jobs {
		if !j.HasCoordinates() {
			continue
		}
		pts = append(pts, keyed{JobKey(j.ID), Point{Lat: *j.Lat, Lng: *j.Lng}})
	}

	m := &Matrix{minutes: make(map[string]map[string]float64, len(pts))}
	for _, a := range pts {
		row := make(map[string]float64, len(pts))
		for _, b := range pts {
			row[b.key] = DriveMinutes(Haversine(a.pt, b.pt), speedKmh)
		}
		m.minutes[a.key] = row
	}
	return m
}

// Minutes returns the drive-minute estimate between two point keys. ok is
// false when either point was unroutable.
func (m *Matrix) Minutes(from, to string) (float64, bool) {
	row, ok := m.minutes[from]
	if !ok {
		return 0, false
	}
	v, ok := row[to]
	return v, ok
}

// Size returns the number of routable points in the matrix.
func (m *Matrix) Size() int { return len(m.minutes) }
