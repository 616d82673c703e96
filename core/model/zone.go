package model

// ZoneKind selects the geometry of a service zone.
type ZoneKind string

const (
	ZoneBoundingBox ZoneKind = "bounding_box"
	ZoneCircle      ZoneKind = "circle"
)

// Zone is a geographic service area, either a bounding box or a
// center-plus-radius circle. Inactive zones are ignored during scoring.
type Zone struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	IsActive bool     `json:"is_active"`
	Kind     ZoneKind `json:"kind"`

	// Bounding box bounds, used when Kind is ZoneBoundingBox.
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`

	// Circle geometry, used when Kind is ZoneCircle.
	CenterLat float64 `json:"center_lat"`
	CenterLng float64 `json:"center_lng"`
	RadiusKm  float64 `json:"radius_km"`
}

// ZoneAffinity ranks a crew's preference for a zone. Affinities only grant a
// scoring bonus; they are never a hard constraint.
type ZoneAffinity struct {
	CrewID    string `json:"crew_id"`
	Zone      Zone   `json:"zone"`
	IsPrimary bool   `json:"is_primary"`

	// Priority orders affinities within the same tier; lower is stronger.
	Priority int `json:"priority"`
}
